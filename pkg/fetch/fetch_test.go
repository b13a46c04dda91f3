package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelab/entiq/pkg/types"
)

func TestGraphIdentityTokensAreStableAndDistinct(t *testing.T) {
	a := NewGraph(types.KindSample)
	b := NewGraph(types.KindSample)

	assert.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, a.ID(), a.ID())
}

func TestWithAllocatesNestedGraphOnce(t *testing.T) {
	g := NewGraph(types.KindSample)
	exp := g.With("experiment")

	require.NotNil(t, exp)
	assert.Equal(t, types.KindExperiment, exp.Kind())

	// Repeated With returns the installed graph.
	assert.Same(t, exp, g.With("experiment"))
	assert.True(t, g.Has("experiment"))
	assert.False(t, g.Has("container"))
}

func TestWithUsingInstallsSharedGraph(t *testing.T) {
	g := NewGraph(types.KindSample)
	components := g.With("components")
	back := components.WithUsing("container", g)

	assert.Same(t, g, back)
	assert.Equal(t, g.ID(), components.Node("container").Graph().ID())
}

func TestNodesKeepInsertionOrder(t *testing.T) {
	g := NewGraph(types.KindSample)
	g.With("space")
	g.With("experiment")
	g.With("children")

	var names []string
	for _, n := range g.Nodes() {
		names = append(names, n.Relation().Name)
	}
	assert.Equal(t, []string{"space", "experiment", "children"}, names)
}

func TestRelationRegistryResolvesTargets(t *testing.T) {
	rel := RelationOf(types.KindSample, "dataSets")
	assert.Equal(t, types.KindDataSet, rel.Target)
	assert.True(t, rel.Collection)

	rel = RelationOf(types.KindDataSet, "sample")
	assert.Equal(t, types.KindSample, rel.Target)
	assert.False(t, rel.Collection)

	// Unknown relations resolve to an untyped collection; the loader decides
	// whether they exist.
	rel = RelationOf(types.KindSample, "siblings")
	assert.Equal(t, types.KindSample, rel.Target)
	assert.True(t, rel.Collection)
}

func TestNodeSortAndPageOverrides(t *testing.T) {
	g := NewGraph(types.KindSample)
	children := g.With("children")
	children.SortBy().ByCode().Desc()
	children.From(2).Count(5)

	node := g.Node("children")
	// No node-level override: the nested graph's sort and page apply.
	require.NotNil(t, node.EffectiveSort())
	assert.Equal(t, []SortField{{Kind: SortByAttribute, Name: "code", Desc: true}}, node.EffectiveSort().Fields())
	require.NotNil(t, node.EffectivePage())
	assert.Equal(t, 2, node.EffectivePage().Offset)

	// A node-level sort wins over the nested graph's.
	node.SortBy().ByIdentifier()
	assert.Equal(t, []SortField{{Kind: SortByAttribute, Name: "identifier"}}, node.EffectiveSort().Fields())

	node.From(0).Count(1)
	assert.Equal(t, 1, node.EffectivePage().Limit)
}

func TestPageApply(t *testing.T) {
	full := (&Page{}).Apply
	start, end := full(10)
	assert.Equal(t, 0, start)
	assert.Equal(t, 10, end)

	p := &Page{Offset: 3, Limit: 2, Limited: true}
	start, end = p.Apply(7)
	assert.Equal(t, 3, start)
	assert.Equal(t, 5, end)

	// Window past the end collapses.
	start, end = p.Apply(2)
	assert.Equal(t, 2, start)
	assert.Equal(t, 2, end)

	// Explicit zero limit is honored.
	zero := &Page{Limited: true}
	start, end = zero.Apply(5)
	assert.Equal(t, start, end)

	// nil page means unwindowed.
	var nilPage *Page
	start, end = nilPage.Apply(4)
	assert.Equal(t, 0, start)
	assert.Equal(t, 4, end)
}
