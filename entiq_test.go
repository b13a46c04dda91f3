package entiq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelab/entiq/pkg/criteria"
	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/memstore"
	"github.com/tracelab/entiq/pkg/types"
)

func newTestEngine(s *memstore.Store) *Engine {
	return New(s, s,
		WithSchema(s),
		WithAuthorizer(s),
		WithWorkers(1),
	)
}

func identifiers(result *SearchResult) []string {
	out := make([]string, 0, len(result.Objects))
	for _, obj := range result.Objects {
		out = append(out, obj.Identifier())
	}
	return out
}

func TestSearchObjectsByCode(t *testing.T) {
	e := newTestEngine(memstore.SimpleStuff())

	crit := criteria.For(types.KindSample).WithCode().ThatEquals("CP-TEST-1")
	result, err := e.SearchObjects(context.Background(), types.Principal{UserID: "alice"}, crit, fetch.NewGraph(types.KindSample))
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalCount)
	require.Len(t, result.Objects, 1)
	assert.Equal(t, "/CISD/CP-TEST-1", result.Objects[0].Identifier())
}

func TestSearchObjectsThroughRelation(t *testing.T) {
	e := newTestEngine(memstore.SimpleStuff())

	crit := criteria.For(types.KindSample)
	crit.WithExperiment().WithCode().ThatEquals("EXP1")

	result, err := e.SearchObjects(context.Background(), types.Principal{}, crit, fetch.NewGraph(types.KindSample))
	require.NoError(t, err)
	assert.Equal(t, []string{"/CISD/CP-TEST-2", "/CISD/CP-TEST-3"}, identifiers(result))
}

func TestSearchObjectsHydratesRequestedRelations(t *testing.T) {
	e := newTestEngine(memstore.SimpleStuff())

	g := fetch.NewGraph(types.KindSample)
	g.With("experiment").WithProperties()

	crit := criteria.For(types.KindSample).WithCode().ThatEquals("CP-TEST-2")
	result, err := e.SearchObjects(context.Background(), types.Principal{}, crit, g)
	require.NoError(t, err)
	require.Len(t, result.Objects, 1)

	exp, err := result.Objects[0].One("experiment")
	require.NoError(t, err)
	assert.Equal(t, "/CISD/NEMO/EXP1", exp.Identifier())

	desc, err := exp.Property("description")
	require.NoError(t, err)
	assert.Equal(t, "A simple experiment", desc.Text)

	// The nested graph asked only for properties.
	_, err = exp.Relation("project")
	var nf *types.NotFetchedError
	assert.ErrorAs(t, err, &nf)
}

func TestGlobalSearchMergesKindsAndPages(t *testing.T) {
	e := newTestEngine(memstore.SimpleStuff())

	crit := criteria.For(types.KindSample).WithText().ThatContains("simple stuff")

	// Full set first: three samples by comment, four experiments by
	// description, ordered by ascending identifier.
	result, err := e.SearchGlobal(context.Background(), types.Principal{}, crit, nil, fetch.NewGraph(types.KindSample))
	require.NoError(t, err)
	assert.Equal(t, 7, result.TotalCount)
	assert.Equal(t, []string{
		"/CISD/CP-TEST-1",
		"/CISD/CP-TEST-2",
		"/CISD/CP-TEST-3",
		"/CISD/DEFAULT/EXP-Y",
		"/CISD/NEMO/EXP1",
		"/CISD/NEMO/EXP10",
		"/CISD/NEMO/EXP11",
	}, identifiers(result))

	// A window in the middle: TotalCount stays at the full set size.
	g := fetch.NewGraph(types.KindSample)
	g.From(3).Count(2)
	result, err = e.SearchGlobal(context.Background(), types.Principal{}, crit, nil, g)
	require.NoError(t, err)
	assert.Equal(t, 7, result.TotalCount)
	assert.Equal(t, []string{"/CISD/DEFAULT/EXP-Y", "/CISD/NEMO/EXP1"}, identifiers(result))
}

func TestGlobalSearchScoreOrdering(t *testing.T) {
	e := newTestEngine(memstore.SimpleStuff())

	crit := criteria.For(types.KindSample).WithText().ThatContains("CP-TEST-1")

	g := fetch.NewGraph(types.KindSample)
	g.SortBy().ByScore().Desc()
	g.WithMatch()

	result, err := e.SearchGlobal(context.Background(), types.Principal{}, crit, []types.Kind{types.KindSample}, g)
	require.NoError(t, err)
	require.NotEmpty(t, result.Objects)
	assert.Equal(t, "/CISD/CP-TEST-1", result.Objects[0].Identifier())

	score, details, err := result.Objects[0].Match()
	require.NoError(t, err)
	assert.Greater(t, score, 100.0-1e-9)
	assert.NotEmpty(t, details)
}

func TestSearchSilentlyExcludesInvisible(t *testing.T) {
	s := memstore.SimpleStuff()
	s.Hide(types.EntityRef{Kind: types.KindSample, ID: "200902091219327-1025"})
	e := newTestEngine(s)

	crit := criteria.For(types.KindSample).WithProperty("comment").ThatContains("stuff")
	result, err := e.SearchObjects(context.Background(), types.Principal{UserID: "bob"}, crit, fetch.NewGraph(types.KindSample))
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalCount, "invisible candidates do not count")
	assert.Equal(t, []string{"/CISD/CP-TEST-2", "/CISD/CP-TEST-3"}, identifiers(result))
}

func TestGetObjectsPartialSuccess(t *testing.T) {
	e := newTestEngine(memstore.SimpleStuff())

	known := types.EntityRef{Kind: types.KindSample, ID: "200902091250077-1026"}
	gone := types.EntityRef{Kind: types.KindSample, ID: "GONE"}

	result, err := e.GetObjects(context.Background(), types.Principal{}, []types.EntityRef{known, gone}, fetch.NewGraph(types.KindSample))
	require.NoError(t, err)

	require.Contains(t, result, known)
	assert.NotContains(t, result, gone)
	assert.Equal(t, "/CISD/CP-TEST-2", result[known].Identifier())
}

func TestGetObjectsDeniesInvisible(t *testing.T) {
	s := memstore.SimpleStuff()
	hidden := types.EntityRef{Kind: types.KindSample, ID: "200902091219327-1025"}
	s.Hide(hidden)
	e := newTestEngine(s)

	_, err := e.GetObjects(context.Background(), types.Principal{UserID: "mallory"}, []types.EntityRef{hidden}, fetch.NewGraph(types.KindSample))

	var denied *types.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, hidden, denied.Ref)
	assert.Equal(t, "mallory", denied.UserID)
}

func TestSearchRejectsInvalidCriteria(t *testing.T) {
	e := newTestEngine(memstore.SimpleStuff())

	// size is declared INTEGER; a string-only operator must be rejected.
	crit := criteria.For(types.KindSample).WithProperty("size").ThatStartsWith("1")
	_, err := e.SearchObjects(context.Background(), types.Principal{}, crit, fetch.NewGraph(types.KindSample))

	var invalid *types.InvalidCriteriaError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "Property 'size'", invalid.Field)
}
