package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/types"
)

func ref(kind types.Kind, id string) types.EntityRef { return types.EntityRef{Kind: kind, ID: id} }

func ids(refs []types.EntityRef) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		out = append(out, r.ID)
	}
	return out
}

func TestKindTieBreakTotalOrder(t *testing.T) {
	// Three candidates of equal score, sorted by (score desc, kind desc):
	// DATA_SET, then SAMPLE, then EXPERIMENT.
	matches := []types.RankedMatch{
		{Ref: ref(types.KindExperiment, "E"), Score: 10},
		{Ref: ref(types.KindDataSet, "D"), Score: 10},
		{Ref: ref(types.KindSample, "S"), Score: 10},
	}
	spec := Spec{{Key: KeyScore, Desc: true}, {Key: KeyKind, Desc: true}}

	refs, total := Compose(matches, spec, nil, nil)
	assert.Equal(t, 3, total)
	assert.Equal(t, []types.Kind{types.KindDataSet, types.KindSample, types.KindExperiment},
		[]types.Kind{refs[0].Kind, refs[1].Kind, refs[2].Kind})
}

func TestKindIsNotAnImplicitTieBreak(t *testing.T) {
	matches := []types.RankedMatch{
		{Ref: ref(types.KindExperiment, "A"), Score: 10},
		{Ref: ref(types.KindDataSet, "B"), Score: 10},
	}
	// Only score requested: the identifier fallback decides, not kind.
	refs, _ := Compose(matches, Spec{{Key: KeyScore, Desc: true}}, nil, nil)
	assert.Equal(t, []string{"A", "B"}, ids(refs))
}

func TestScoreDefaultDirectionIsAscending(t *testing.T) {
	matches := []types.RankedMatch{
		{Ref: ref(types.KindSample, "HIGH"), Score: 9},
		{Ref: ref(types.KindSample, "LOW"), Score: 1},
	}
	refs, _ := Compose(matches, Spec{{Key: KeyScore}}, nil, nil)
	assert.Equal(t, []string{"LOW", "HIGH"}, ids(refs))
}

func TestMultiKeySortIsLexicographicWithIndependentDirections(t *testing.T) {
	values := func(r types.EntityRef, attribute string) string {
		if attribute == "code" {
			return map[string]string{"A": "X", "B": "X", "C": "Y"}[r.ID]
		}
		return r.ID
	}
	matches := []types.RankedMatch{
		{Ref: ref(types.KindSample, "A"), Score: 1},
		{Ref: ref(types.KindSample, "B"), Score: 2},
		{Ref: ref(types.KindSample, "C"), Score: 3},
	}
	spec := Spec{
		{Key: KeyAttribute, Attribute: "code"}, // asc: X, X, Y
		{Key: KeyScore, Desc: true},            // within X: B before A
	}
	refs, _ := Compose(matches, spec, nil, values)
	assert.Equal(t, []string{"B", "A", "C"}, ids(refs))
}

func TestPagingWindow(t *testing.T) {
	matches := []types.RankedMatch{
		{Ref: ref(types.KindSample, "1")},
		{Ref: ref(types.KindSample, "2")},
		{Ref: ref(types.KindSample, "3")},
		{Ref: ref(types.KindSample, "4")},
		{Ref: ref(types.KindSample, "5")},
	}
	spec := Spec{{Key: KeyIdentifier}}

	page := &fetch.Page{Offset: 3, Limit: 2, Limited: true}
	refs, total := Compose(matches, spec, page, nil)
	assert.Equal(t, 5, total)
	assert.Equal(t, []string{"4", "5"}, ids(refs))

	// Total is invariant across windows.
	refs, total = Compose(matches, spec, &fetch.Page{Offset: 0, Limit: 2, Limited: true}, nil)
	assert.Equal(t, 5, total)
	assert.Equal(t, []string{"1", "2"}, ids(refs))
}

func TestStabilityViaIdentifierFallback(t *testing.T) {
	matches := []types.RankedMatch{
		{Ref: ref(types.KindSample, "B"), Score: 5},
		{Ref: ref(types.KindSample, "A"), Score: 5},
	}
	for i := 0; i < 3; i++ {
		refs, _ := Compose(matches, Spec{{Key: KeyScore, Desc: true}}, nil, nil)
		assert.Equal(t, []string{"A", "B"}, ids(refs))
	}
}

func TestComposeByKindMergesDuplicates(t *testing.T) {
	r := ref(types.KindSample, "S1")
	byKind := map[types.Kind][]types.RankedMatch{
		types.KindSample: {
			{Ref: r, Score: 5, Matches: []types.MatchDetail{{Field: "code"}}},
			{Ref: r, Score: 3, Matches: []types.MatchDetail{{Field: "Property 'Comment'"}}},
		},
	}
	refs, total := ComposeByKind(byKind, Spec{{Key: KeyScore, Desc: true}}, nil, nil)
	assert.Equal(t, 1, total)
	assert.Equal(t, []string{"S1"}, ids(refs))
}
