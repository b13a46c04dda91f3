package criteria

import (
	"fmt"
	"strings"
	"time"

	"github.com/tracelab/entiq/pkg/types"
)

// Accepted temporal formats, tried in order. The labels appear verbatim in
// diagnostics.
var temporalLayouts = []struct {
	layout  string
	label   string
	hasTime bool
}{
	{"2006-1-2 15:04:05", "y-M-d HH:mm:ss", true},
	{"2006-1-2 15:04", "y-M-d HH:mm", true},
	{"2006-1-2", "y-M-d", false},
}

func supportedFormats() string {
	labels := make([]string, len(temporalLayouts))
	for i, l := range temporalLayouts {
		labels[i] = l.label
	}
	return "[" + strings.Join(labels, ", ") + "]"
}

// ParseTemporal parses a temporal operand string against the accepted
// formats in order. It returns the parsed instant (in UTC) and whether the
// matched format carries a time of day.
func ParseTemporal(s string) (time.Time, bool, error) {
	for _, l := range temporalLayouts {
		if t, err := time.ParseInLocation(l.layout, s, time.UTC); err == nil {
			return t, l.hasTime, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("date value %q does not match any of the supported formats: %s",
		s, supportedFormats())
}

// TemporalOperand resolves the operand of a date or timestamp predicate to
// an instant, applying the predicate's time-zone offset if present. String
// operands are parsed per the accepted formats; pre-parsed instants are
// returned as-is.
func (p *Predicate) TemporalOperand() (time.Time, error) {
	if p.Operand.Time != nil {
		return *p.Operand.Time, nil
	}
	t, hasTime, err := ParseTemporal(p.Operand.Text)
	if err != nil {
		return time.Time{}, err
	}
	if p.Family == FamilyDate && hasTime {
		return time.Time{}, fmt.Errorf("date value %q must not contain a time of day for a DATE property (supported formats: [y-M-d])",
			p.Operand.Text)
	}
	if p.TimeZone != nil {
		zone := time.FixedZone(fmt.Sprintf("UTC%+d", *p.TimeZone), *p.TimeZone*3600)
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, zone)
	}
	return t, nil
}

// sameCalendarDay reports whether two instants fall on the same day in the
// given location.
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// CompareTemporal compares an entity value against a date/timestamp
// predicate. DATE equality compares calendar days; TIMESTAMP equality
// compares instants.
func CompareTemporal(p *Predicate, value time.Time) (bool, error) {
	operand, err := p.TemporalOperand()
	if err != nil {
		return false, err
	}
	if p.TimeZone != nil {
		value = value.In(operand.Location())
	}
	switch p.Op {
	case OpEquals:
		if p.Family == FamilyDate {
			return sameCalendarDay(value, operand), nil
		}
		return value.Equal(operand), nil
	case OpGreaterThan:
		return value.After(operand), nil
	case OpGreaterOrEqual:
		return !value.Before(operand), nil
	case OpLessThan:
		return value.Before(operand), nil
	case OpLessOrEqual:
		return !value.After(operand), nil
	default:
		return false, &types.InvalidCriteriaError{
			Field:      p.FieldLabel(),
			Operator:   string(p.Op),
			Suggestion: "date property predicates (equals, earlier/later than)",
		}
	}
}
