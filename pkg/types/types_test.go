package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindRankTotalOrder(t *testing.T) {
	// DATA_SET > SAMPLE > EXPERIMENT > MATERIAL > rest.
	assert.Greater(t, KindRank(KindDataSet), KindRank(KindSample))
	assert.Greater(t, KindRank(KindSample), KindRank(KindExperiment))
	assert.Greater(t, KindRank(KindExperiment), KindRank(KindMaterial))
	assert.Greater(t, KindRank(KindMaterial), KindRank(KindSpace))
	assert.Equal(t, KindRank(KindSpace), KindRank(Kind("SOMETHING_ELSE")))
}

func TestEntityRefEquality(t *testing.T) {
	a := EntityRef{Kind: KindSample, ID: "200902091219327-1025"}
	b := EntityRef{Kind: KindSample, ID: "200902091219327-1025"}
	c := EntityRef{Kind: KindDataSet, ID: "200902091219327-1025"}

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	seen := map[EntityRef]bool{a: true}
	assert.True(t, seen[b])
	assert.False(t, seen[c])
}

func TestInvalidCriteriaErrorMessage(t *testing.T) {
	err := &InvalidCriteriaError{Field: "Property 'COMMENT'", Operator: "greaterThan", Suggestion: "string predicates"}
	assert.Contains(t, err.Error(), "greaterThan")
	assert.Contains(t, err.Error(), "Property 'COMMENT'")
	assert.Contains(t, err.Error(), "string predicates")
}

func TestNotFetchedErrorNamesRelation(t *testing.T) {
	err := &NotFetchedError{Ref: EntityRef{Kind: KindSample, ID: "S1"}, Relation: "children"}
	assert.Contains(t, err.Error(), "children")
	assert.Contains(t, err.Error(), "SAMPLE:S1")
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrNoValue, ErrNotExists))
	assert.False(t, errors.Is(ErrNotExists, ErrNoValue))
}

func TestValueConstructors(t *testing.T) {
	v := IntegerValue(42)
	assert.Equal(t, "42", v.Text)
	assert.EqualValues(t, 42, *v.Integer)

	b := BooleanValue(true)
	assert.Equal(t, "true", b.Text)

	r := RefValueOf(EntityRef{Kind: KindExperiment, ID: "E1"})
	assert.Equal(t, "EXPERIMENT:E1", r.Text)
}
