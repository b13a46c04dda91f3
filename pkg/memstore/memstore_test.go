package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelab/entiq/pkg/criteria"
	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/types"
)

func predicateOf(t *testing.T, c *criteria.Criteria) *criteria.Predicate {
	t.Helper()
	require.Len(t, c.Nodes(), 1)
	p, ok := c.Nodes()[0].(*criteria.Predicate)
	require.True(t, ok)
	return p
}

func matchedIDs(refs []types.EntityRef) []string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestMatchPredicateCodeEqualsIsCaseInsensitive(t *testing.T) {
	s := SimpleStuff()
	p := predicateOf(t, criteria.For(types.KindSample).WithCode().ThatEquals("cp-test-1"))

	refs, err := s.MatchPredicate(context.Background(), types.KindSample, p)
	require.NoError(t, err)
	assert.Equal(t, []string{"200902091219327-1025"}, matchedIDs(refs))
}

func TestMatchPredicateWildcards(t *testing.T) {
	s := SimpleStuff()
	p := predicateOf(t, criteria.For(types.KindSample).WithCode().ThatEqualsWithWildcards("CP-TEST-?"))

	refs, err := s.MatchPredicate(context.Background(), types.KindSample, p)
	require.NoError(t, err)
	assert.Len(t, refs, 3)

	p = predicateOf(t, criteria.For(types.KindSample).WithCode().ThatEqualsWithWildcards("CP-TEST"))
	refs, err = s.MatchPredicate(context.Background(), types.KindSample, p)
	require.NoError(t, err)
	assert.Empty(t, refs, "wildcard patterns are anchored at both ends")
}

func TestMatchPredicateContainsIsWholeTokenSearch(t *testing.T) {
	s := SimpleStuff()

	p := predicateOf(t, criteria.For(types.KindSample).WithProperty("comment").ThatContains("stuff"))
	refs, err := s.MatchPredicate(context.Background(), types.KindSample, p)
	require.NoError(t, err)
	assert.Len(t, refs, 3)

	// "tuff" is a substring of "stuff" but not a whole token.
	p = predicateOf(t, criteria.For(types.KindSample).WithProperty("comment").ThatContains("tuff"))
	refs, err = s.MatchPredicate(context.Background(), types.KindSample, p)
	require.NoError(t, err)
	assert.Empty(t, refs)

	// containsExactly is substring search, so "tuff" hits.
	p = predicateOf(t, criteria.For(types.KindSample).WithProperty("comment").ThatContainsExactly("tuff"))
	refs, err = s.MatchPredicate(context.Background(), types.KindSample, p)
	require.NoError(t, err)
	assert.Len(t, refs, 3)
}

func TestMatchPredicateNumberProperty(t *testing.T) {
	s := SimpleStuff()
	p := predicateOf(t, criteria.For(types.KindSample).WithNumberProperty("size").ThatIsGreaterThan(200))

	refs, err := s.MatchPredicate(context.Background(), types.KindSample, p)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"200902091250077-1026", "200902091225616-1027"}, matchedIDs(refs))
}

func TestMatchPredicateDateProperty(t *testing.T) {
	s := New()
	s.Define(types.KindSample, "shipped", types.PropertyTypeDate)
	s.Put(Entity{
		Ref:        types.EntityRef{Kind: types.KindSample, ID: "S1"},
		Attributes: map[string]types.Value{"code": types.TextValue("S1")},
		Properties: map[string]types.Value{"shipped": types.TextValue("2009-02-09")},
	})

	p := predicateOf(t, criteria.For(types.KindSample).WithDateProperty("shipped").ThatEquals("2009-2-9"))
	refs, err := s.MatchPredicate(context.Background(), types.KindSample, p)
	require.NoError(t, err)
	assert.Len(t, refs, 1)

	p = predicateOf(t, criteria.For(types.KindSample).WithDateProperty("shipped").ThatIsLaterThan("2009-2-9"))
	refs, err = s.MatchPredicate(context.Background(), types.KindSample, p)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestMatchPredicateAnyField(t *testing.T) {
	s := SimpleStuff()
	p := predicateOf(t, criteria.For(types.KindSample).WithAnyField().ThatContainsExactly("CP-TEST"))

	refs, err := s.MatchPredicate(context.Background(), types.KindSample, p)
	require.NoError(t, err)
	assert.Len(t, refs, 3)
}

func TestMatchTextFindsSevenForSimpleStuff(t *testing.T) {
	s := SimpleStuff()
	p := predicateOf(t, criteria.For(types.KindSample).WithText().ThatContains("simple stuff"))

	samples, err := s.MatchText(context.Background(), types.KindSample, p)
	require.NoError(t, err)
	assert.Len(t, samples, 3, "any-token search also finds comments containing only 'stuff'")

	experiments, err := s.MatchText(context.Background(), types.KindExperiment, p)
	require.NoError(t, err)
	assert.Len(t, experiments, 4)

	for _, m := range samples {
		require.Len(t, m.Matches, 1)
		assert.Equal(t, "Property 'comment'", m.Matches[0].Field)
		assert.Equal(t, 5.0, m.Score)
	}
}

func TestMatchTextExactCodeOutweighsPropertyHits(t *testing.T) {
	s := SimpleStuff()
	p := predicateOf(t, criteria.For(types.KindSample).WithText().ThatContains("CP-TEST-1"))

	matches, err := s.MatchText(context.Background(), types.KindSample, p)
	require.NoError(t, err)

	var best types.RankedMatch
	for _, m := range matches {
		if m.Score > best.Score {
			best = m
		}
	}
	assert.Equal(t, "200902091219327-1025", best.Ref.ID)

	var codeDetail *types.MatchDetail
	for i := range best.Matches {
		if best.Matches[i].Field == "Code" {
			codeDetail = &best.Matches[i]
		}
	}
	require.NotNil(t, codeDetail)
	assert.Equal(t, 100.0, codeDetail.Weight)
}

func TestMatchRelated(t *testing.T) {
	s := SimpleStuff()
	exp1 := types.EntityRef{Kind: types.KindExperiment, ID: "200811050951882-1028"}

	refs, err := s.MatchRelated(context.Background(), types.KindSample, "experiment", []types.EntityRef{exp1})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"200902091250077-1026", "200902091225616-1027"}, matchedIDs(refs))

	// nil related set means "has any".
	refs, err = s.MatchRelated(context.Background(), types.KindSample, "experiment", nil)
	require.NoError(t, err)
	assert.Len(t, refs, 3)
}

func TestLoadRelationSortsAndPages(t *testing.T) {
	s := SimpleStuff()
	exp1 := types.EntityRef{Kind: types.KindExperiment, ID: "200811050951882-1028"}

	opts := &fetch.SortOptions{}
	opts.ByCode().Desc()

	refs, err := s.LoadRelation(context.Background(), exp1, "samples", opts, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"200902091225616-1027", "200902091250077-1026"}, matchedIDs(refs))

	page := &fetch.Page{Offset: 0, Limit: 1, Limited: true}
	refs, err = s.LoadRelation(context.Background(), exp1, "samples", opts, page)
	require.NoError(t, err)
	assert.Equal(t, []string{"200902091225616-1027"}, matchedIDs(refs))
}

func TestLoadersDistinguishMissingFromEmpty(t *testing.T) {
	s := SimpleStuff()
	cp1 := types.EntityRef{Kind: types.KindSample, ID: "200902091219327-1025"}

	_, err := s.LoadAttributes(context.Background(), types.EntityRef{Kind: types.KindSample, ID: "GONE"})
	assert.ErrorIs(t, err, types.ErrNotExists)

	_, err = s.LoadProperty(context.Background(), cp1, "nope")
	assert.ErrorIs(t, err, types.ErrNoValue)

	refs, err := s.LoadRelation(context.Background(), cp1, "children", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestLoadYAML(t *testing.T) {
	doc := `
schema:
  SAMPLE:
    comment: TEXT
    size: INTEGER
entities:
  - kind: EXPERIMENT
    id: E1
    attributes:
      code: E1
      identifier: /LAB/E1
  - kind: SAMPLE
    id: S1
    attributes:
      code: S1
      identifier: /LAB/S1
    properties:
      comment: hello world
      size: 17
    relations:
      experiment: ["EXPERIMENT:E1"]
hidden:
  - "EXPERIMENT:E1"
`
	s := New()
	require.NoError(t, s.LoadYAML([]byte(doc)))

	ptype, ok := s.PropertyType(types.KindSample, "size")
	require.True(t, ok)
	assert.Equal(t, types.PropertyTypeInteger, ptype)

	v, err := s.LoadProperty(context.Background(), types.EntityRef{Kind: types.KindSample, ID: "S1"}, "size")
	require.NoError(t, err)
	require.NotNil(t, v.Integer)
	assert.Equal(t, int64(17), *v.Integer)

	refs, err := s.LoadRelation(context.Background(), types.EntityRef{Kind: types.KindSample, ID: "S1"}, "experiment", nil, nil)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, types.KindExperiment, refs[0].Kind)

	assert.False(t, s.IsVisible(context.Background(), types.EntityRef{Kind: types.KindExperiment, ID: "E1"}, types.Principal{}))
	assert.True(t, s.IsVisible(context.Background(), types.EntityRef{Kind: types.KindSample, ID: "S1"}, types.Principal{}))
}

func TestLoadYAMLRejectsMalformedRef(t *testing.T) {
	doc := `
entities:
  - kind: SAMPLE
    id: S1
    relations:
      experiment: ["not-a-ref"]
`
	s := New()
	assert.Error(t, s.LoadYAML([]byte(doc)))
}
