package badgerstore

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelab/entiq/pkg/criteria"
	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/logger"
	"github.com/tracelab/entiq/pkg/memstore"
	"github.com/tracelab/entiq/pkg/types"
)

func newSeededStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open("", logger.NewDefaultLogger(slog.LevelError))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Seed(context.Background(), memstore.SimpleStuff().Entities()))
	return s
}

func TestLoadAttributesRoundTrip(t *testing.T) {
	s := newSeededStore(t)

	attrs, err := s.LoadAttributes(context.Background(), types.EntityRef{Kind: types.KindSample, ID: "200902091219327-1025"})
	require.NoError(t, err)
	assert.Equal(t, "CP-TEST-1", attrs["code"].Text)
	assert.Equal(t, "/CISD/CP-TEST-1", attrs["identifier"].Text)
}

func TestMissingEntityIsNotExists(t *testing.T) {
	s := newSeededStore(t)

	_, err := s.LoadAttributes(context.Background(), types.EntityRef{Kind: types.KindSample, ID: "/CISD/NO-SUCH"})
	assert.ErrorIs(t, err, types.ErrNotExists)

	_, err = s.LoadProperty(context.Background(), types.EntityRef{Kind: types.KindSample, ID: "200902091219327-1025"}, "no-such")
	assert.ErrorIs(t, err, types.ErrNoValue)
}

func TestMatchPredicateScansKind(t *testing.T) {
	s := newSeededStore(t)

	p := &criteria.Predicate{
		Target:  criteria.TargetAttribute,
		Name:    "code",
		Op:      criteria.OpStartsWith,
		Operand: types.TextValue("cp-test"),
		Family:  criteria.FamilyString,
	}
	refs, err := s.MatchPredicate(context.Background(), types.KindSample, p)
	require.NoError(t, err)
	assert.Len(t, refs, 3)
}

func TestMatchTextScoresLikeMemstore(t *testing.T) {
	s := newSeededStore(t)

	p := &criteria.Predicate{
		Target:  criteria.TargetText,
		Op:      criteria.OpContains,
		Operand: types.TextValue("simple stuff"),
		Family:  criteria.FamilyString,
	}
	matches, err := s.MatchText(context.Background(), types.KindSample, p)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for _, m := range matches {
		assert.Equal(t, 5.0, m.Score, m.Ref.ID)
	}
}

func TestMatchRelatedThroughStoredRelations(t *testing.T) {
	s := newSeededStore(t)

	exp := types.EntityRef{Kind: types.KindExperiment, ID: "200811050951882-1028"}
	refs, err := s.MatchRelated(context.Background(), types.KindSample, "experiment", []types.EntityRef{exp})
	require.NoError(t, err)
	require.Len(t, refs, 2)
	// Badger iterates keys in order, so CP-TEST-3's permID sorts first.
	assert.Equal(t, "200902091225616-1027", refs[0].ID)
	assert.Equal(t, "200902091250077-1026", refs[1].ID)
}

func TestLoadRelationSortsAndPages(t *testing.T) {
	s := newSeededStore(t)

	var sortOpts fetch.SortOptions
	sortOpts.ByAttribute("code").Desc()

	exp := types.EntityRef{Kind: types.KindExperiment, ID: "200811050951882-1028"}
	refs, err := s.LoadRelation(context.Background(), exp, "samples", &sortOpts, &fetch.Page{Offset: 0, Limit: 1, Limited: true})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "200902091225616-1027", refs[0].ID)
}
