package hydrate

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/types"
)

// mockLoader implements provider.EntityLoader over in-memory tables,
// applying sort and page the way a real backend would.
type mockLoader struct {
	attrs     map[types.EntityRef]map[string]types.Value
	props     map[types.EntityRef]map[string]types.Value
	relations map[types.EntityRef]map[string][]types.EntityRef
	loads     int
}

func newMockLoader() *mockLoader {
	return &mockLoader{
		attrs:     map[types.EntityRef]map[string]types.Value{},
		props:     map[types.EntityRef]map[string]types.Value{},
		relations: map[types.EntityRef]map[string][]types.EntityRef{},
	}
}

func (m *mockLoader) add(ref types.EntityRef, code string) {
	m.attrs[ref] = map[string]types.Value{
		"code":       types.TextValue(code),
		"identifier": types.TextValue("/" + code),
	}
}

func (m *mockLoader) relate(from types.EntityRef, name string, to ...types.EntityRef) {
	if m.relations[from] == nil {
		m.relations[from] = map[string][]types.EntityRef{}
	}
	m.relations[from][name] = append(m.relations[from][name], to...)
}

func (m *mockLoader) LoadAttributes(_ context.Context, ref types.EntityRef) (map[string]types.Value, error) {
	m.loads++
	attrs, ok := m.attrs[ref]
	if !ok {
		return nil, types.ErrNotExists
	}
	return attrs, nil
}

func (m *mockLoader) LoadProperties(_ context.Context, ref types.EntityRef) (map[string]types.Value, error) {
	if _, ok := m.attrs[ref]; !ok {
		return nil, types.ErrNotExists
	}
	return m.props[ref], nil
}

func (m *mockLoader) LoadProperty(_ context.Context, ref types.EntityRef, code string) (types.Value, error) {
	v, ok := m.props[ref][code]
	if !ok {
		return types.Value{}, types.ErrNoValue
	}
	return v, nil
}

func (m *mockLoader) LoadRelation(_ context.Context, ref types.EntityRef, relation string, sortOpts *fetch.SortOptions, page *fetch.Page) ([]types.EntityRef, error) {
	refs := append([]types.EntityRef(nil), m.relations[ref][relation]...)
	for _, f := range sortOpts.Fields() {
		f := f
		sort.SliceStable(refs, func(i, j int) bool {
			a := m.attrs[refs[i]][f.Name].Text
			b := m.attrs[refs[j]][f.Name].Text
			if f.Desc {
				return a > b
			}
			return a < b
		})
	}
	start, end := page.Apply(len(refs))
	return refs[start:end], nil
}

func sref(id string) types.EntityRef { return types.EntityRef{Kind: types.KindSample, ID: id} }
func eref(id string) types.EntityRef { return types.EntityRef{Kind: types.KindExperiment, ID: id} }

func TestEmptyGraphLeavesRelationsNotFetched(t *testing.T) {
	loader := newMockLoader()
	loader.add(sref("S1"), "S1")

	h := New(loader, nil)
	objs, err := h.Hydrate(context.Background(), []types.EntityRef{sref("S1")}, fetch.NewGraph(types.KindSample))
	require.NoError(t, err)
	require.Len(t, objs, 1)

	obj := objs[0]
	assert.Equal(t, "S1", obj.Code())

	_, err = obj.Relation("children")
	var nf *types.NotFetchedError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "children", nf.Relation)

	_, err = obj.Properties()
	require.ErrorAs(t, err, &nf)
}

func TestFetchedEmptyIsDistinctFromNotFetched(t *testing.T) {
	loader := newMockLoader()
	loader.add(sref("S1"), "S1")

	g := fetch.NewGraph(types.KindSample)
	g.With("children")
	g.WithProperties()

	h := New(loader, nil)
	objs, err := h.Hydrate(context.Background(), []types.EntityRef{sref("S1")}, g)
	require.NoError(t, err)

	children, err := objs[0].Relation("children")
	require.NoError(t, err)
	assert.Empty(t, children)

	props, err := objs[0].Properties()
	require.NoError(t, err)
	assert.Empty(t, props)
}

func TestReferenceSharingAcrossResults(t *testing.T) {
	loader := newMockLoader()
	loader.add(sref("S1"), "S1")
	loader.add(sref("S2"), "S2")
	loader.add(eref("E1"), "E1")
	loader.relate(sref("S1"), "experiment", eref("E1"))
	loader.relate(sref("S2"), "experiment", eref("E1"))

	g := fetch.NewGraph(types.KindSample)
	g.With("experiment")

	h := New(loader, nil)
	h.SetWorkers(1)
	objs, err := h.Hydrate(context.Background(), []types.EntityRef{sref("S1"), sref("S2")}, g)
	require.NoError(t, err)

	e1, err := objs[0].One("experiment")
	require.NoError(t, err)
	e2, err := objs[1].One("experiment")
	require.NoError(t, err)

	// Identity, not just equality: one shared instance per call.
	assert.Same(t, e1, e2)
}

func TestCycleTerminatesWithIdentityEquality(t *testing.T) {
	loader := newMockLoader()
	loader.add(sref("BOX"), "BOX")
	loader.add(sref("PART"), "PART")
	loader.relate(sref("BOX"), "components", sref("PART"))
	loader.relate(sref("PART"), "container", sref("BOX"))

	// samples, with their components, with the components' container being
	// the same shape again.
	g := fetch.NewGraph(types.KindSample)
	g.With("components").WithUsing("container", g)

	h := New(loader, nil)
	objs, err := h.Hydrate(context.Background(), []types.EntityRef{sref("BOX")}, g)
	require.NoError(t, err)
	require.Len(t, objs, 1)

	box := objs[0]
	components, err := box.Relation("components")
	require.NoError(t, err)
	require.Len(t, components, 1)

	container, err := components[0].One("container")
	require.NoError(t, err)
	assert.Same(t, box, container)
}

func TestIsomorphicDistinctGraphsExpandIndependently(t *testing.T) {
	loader := newMockLoader()
	loader.add(sref("S1"), "S1")
	loader.add(eref("E1"), "E1")
	loader.relate(sref("S1"), "experiment", eref("E1"))

	g := fetch.NewGraph(types.KindSample)
	g.With("experiment")
	g2 := fetch.NewGraph(types.KindSample)
	g2.With("experiment")

	h := New(loader, nil)
	h.SetWorkers(1)

	objs1, err := h.Hydrate(context.Background(), []types.EntityRef{sref("S1")}, g)
	require.NoError(t, err)
	objs2, err := h.Hydrate(context.Background(), []types.EntityRef{sref("S1")}, g2)
	require.NoError(t, err)

	// Separate calls never share objects.
	assert.NotSame(t, objs1[0], objs2[0])
}

func TestMissingTopLevelRefYieldsNil(t *testing.T) {
	loader := newMockLoader()
	loader.add(sref("S1"), "S1")

	h := New(loader, nil)
	objs, err := h.Hydrate(context.Background(), []types.EntityRef{sref("GONE"), sref("S1")}, fetch.NewGraph(types.KindSample))
	require.NoError(t, err)
	require.Len(t, objs, 2)
	assert.Nil(t, objs[0])
	require.NotNil(t, objs[1])
	assert.Equal(t, "S1", objs[1].Code())
}

func TestPerNodeSortAndPagingAreIndependentPerParent(t *testing.T) {
	loader := newMockLoader()
	loader.add(sref("P1"), "P1")
	loader.add(sref("P2"), "P2")
	for _, id := range []string{"C1", "C2", "C3", "C4"} {
		loader.add(sref(id), id)
	}
	loader.relate(sref("P1"), "children", sref("C3"), sref("C1"), sref("C2"))
	loader.relate(sref("P2"), "children", sref("C4"), sref("C2"))

	g := fetch.NewGraph(types.KindSample)
	children := g.With("children")
	children.SortBy().ByCode()
	g.Node("children").Count(2)

	h := New(loader, nil)
	h.SetWorkers(1)
	objs, err := h.Hydrate(context.Background(), []types.EntityRef{sref("P1"), sref("P2")}, g)
	require.NoError(t, err)

	c1, err := objs[0].Relation("children")
	require.NoError(t, err)
	c2, err := objs[1].Relation("children")
	require.NoError(t, err)

	// Each parent gets its own sorted, windowed view.
	assert.Equal(t, []string{"C1", "C2"}, codes(c1))
	assert.Equal(t, []string{"C2", "C4"}, codes(c2))
}

func TestMatchSlotIsTaggedLikeRelations(t *testing.T) {
	loader := newMockLoader()
	loader.add(sref("S1"), "S1")

	plain := fetch.NewGraph(types.KindSample)
	h := New(loader, nil)
	objs, err := h.Hydrate(context.Background(), []types.EntityRef{sref("S1")}, plain)
	require.NoError(t, err)

	_, _, err = objs[0].Match()
	var nf *types.NotFetchedError
	require.ErrorAs(t, err, &nf)

	withMatch := fetch.NewGraph(types.KindSample)
	withMatch.WithMatch()
	objs, err = h.Hydrate(context.Background(), []types.EntityRef{sref("S1")}, withMatch)
	require.NoError(t, err)

	objs[0].AttachMatch(42, []types.MatchDetail{{Field: "code", Snippet: "S1", Weight: 42}})
	score, details, err := objs[0].Match()
	require.NoError(t, err)
	assert.Equal(t, 42.0, score)
	require.Len(t, details, 1)
}

func TestConcurrentHydrationSharesCache(t *testing.T) {
	loader := newMockLoader()
	loader.add(eref("E1"), "E1")
	refs := make([]types.EntityRef, 0, 16)
	for i := 0; i < 16; i++ {
		id := sref(string(rune('A' + i)))
		loader.add(id, id.ID)
		loader.relate(id, "experiment", eref("E1"))
		refs = append(refs, id)
	}

	g := fetch.NewGraph(types.KindSample)
	g.With("experiment")

	h := New(loader, nil)
	h.SetWorkers(4)
	objs, err := h.Hydrate(context.Background(), refs, g)
	require.NoError(t, err)

	first, err := objs[0].One("experiment")
	require.NoError(t, err)
	for _, obj := range objs[1:] {
		e, err := obj.One("experiment")
		require.NoError(t, err)
		assert.Same(t, first, e)
	}
}

func codes(objs []*Object) []string {
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Code())
	}
	return out
}
