package criteria

import (
	"time"

	"github.com/tracelab/entiq/pkg/types"
)

// StringField builds string predicates for an attribute, property, or the
// any-property / any-field selectors.
type StringField struct {
	c      *Criteria
	target FieldTarget
	name   string
}

func (f *StringField) that(op CompareOp, operand string) *Criteria {
	f.c.add(&Predicate{
		Target:  f.target,
		Name:    f.name,
		Op:      op,
		Operand: types.TextValue(operand),
		Family:  FamilyString,
	})
	return f.c
}

// ThatEquals matches the exact value, case-insensitively.
func (f *StringField) ThatEquals(v string) *Criteria { return f.that(OpEquals, v) }

// ThatEqualsWithWildcards matches the value with `*` (zero or more
// characters) and `?` (exactly one character) wildcards.
func (f *StringField) ThatEqualsWithWildcards(v string) *Criteria {
	return f.that(OpEqualsWildcards, v)
}

// ThatStartsWith matches values beginning with the operand.
func (f *StringField) ThatStartsWith(v string) *Criteria { return f.that(OpStartsWith, v) }

// ThatEndsWith matches values ending with the operand.
func (f *StringField) ThatEndsWith(v string) *Criteria { return f.that(OpEndsWith, v) }

// ThatContains splits the operand into whitespace-separated tokens and
// matches values containing every token as a whole token.
func (f *StringField) ThatContains(v string) *Criteria { return f.that(OpContains, v) }

// ThatContainsExactly matches values containing the operand as a phrase.
func (f *StringField) ThatContainsExactly(v string) *Criteria {
	return f.that(OpContainsExactly, v)
}

// NumberField builds numeric predicates for a named property.
type NumberField struct {
	c    *Criteria
	name string
}

func (f *NumberField) that(op CompareOp, v float64) *Criteria {
	f.c.add(&Predicate{
		Target:  TargetProperty,
		Name:    f.name,
		Op:      op,
		Operand: types.RealValue(v),
		Family:  FamilyNumber,
	})
	return f.c
}

func (f *NumberField) ThatEquals(v float64) *Criteria                 { return f.that(OpEquals, v) }
func (f *NumberField) ThatIsGreaterThan(v float64) *Criteria          { return f.that(OpGreaterThan, v) }
func (f *NumberField) ThatIsGreaterThanOrEqualTo(v float64) *Criteria { return f.that(OpGreaterOrEqual, v) }
func (f *NumberField) ThatIsLessThan(v float64) *Criteria             { return f.that(OpLessThan, v) }
func (f *NumberField) ThatIsLessThanOrEqualTo(v float64) *Criteria    { return f.that(OpLessOrEqual, v) }

// DateField builds date or timestamp predicates for a named property.
// String operands are parsed lazily, during validation, against the accepted
// formats; see ParseTemporal.
type DateField struct {
	c      *Criteria
	name   string
	family Family
	tz     *int
}

// WithTimeZone attaches an hour offset to subsequent predicates. Offsets are
// only meaningful on DATE properties; validation rejects them on TIMESTAMP
// predicates.
func (f *DateField) WithTimeZone(hours int) *DateField {
	f.tz = &hours
	return f
}

func (f *DateField) that(op CompareOp, operand types.Value) *Criteria {
	f.c.add(&Predicate{
		Target:   TargetProperty,
		Name:     f.name,
		Op:       op,
		Operand:  operand,
		Family:   f.family,
		TimeZone: f.tz,
	})
	return f.c
}

func (f *DateField) ThatEquals(v string) *Criteria { return f.that(OpEquals, types.TextValue(v)) }

func (f *DateField) ThatIsLaterThan(v string) *Criteria {
	return f.that(OpGreaterThan, types.TextValue(v))
}

func (f *DateField) ThatIsLaterThanOrEqualTo(v string) *Criteria {
	return f.that(OpGreaterOrEqual, types.TextValue(v))
}

func (f *DateField) ThatIsEarlierThan(v string) *Criteria {
	return f.that(OpLessThan, types.TextValue(v))
}

func (f *DateField) ThatIsEarlierThanOrEqualTo(v string) *Criteria {
	return f.that(OpLessOrEqual, types.TextValue(v))
}

// ThatEqualsTime and friends take a pre-parsed instant instead of a string.

func (f *DateField) ThatEqualsTime(t time.Time) *Criteria {
	return f.that(OpEquals, types.TimeValue(t))
}

func (f *DateField) ThatIsLaterThanTime(t time.Time) *Criteria {
	return f.that(OpGreaterThan, types.TimeValue(t))
}

func (f *DateField) ThatIsEarlierThanTime(t time.Time) *Criteria {
	return f.that(OpLessThan, types.TimeValue(t))
}

// BooleanField builds boolean predicates for a named property.
type BooleanField struct {
	c    *Criteria
	name string
}

func (f *BooleanField) ThatEquals(v bool) *Criteria {
	f.c.add(&Predicate{
		Target:  TargetProperty,
		Name:    f.name,
		Op:      OpEquals,
		Operand: types.BooleanValue(v),
		Family:  FamilyBoolean,
	})
	return f.c
}

// TextField builds global full-text predicates. Matches carry a relevance
// score aggregated from per-field weights.
type TextField struct {
	c *Criteria
}

// ThatContains matches entities containing every whitespace-separated token
// of the operand in some field.
func (f *TextField) ThatContains(v string) *Criteria {
	f.c.add(&Predicate{Target: TargetText, Op: OpContains, Operand: types.TextValue(v), Family: FamilyString})
	return f.c
}

// ThatContainsExactly matches entities containing the operand as a phrase.
func (f *TextField) ThatContainsExactly(v string) *Criteria {
	f.c.add(&Predicate{Target: TargetText, Op: OpContainsExactly, Operand: types.TextValue(v), Family: FamilyString})
	return f.c
}
