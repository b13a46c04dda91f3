package types

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies the category of an entity. The set is closed but
// extensible: unknown kinds are carried through the engine untouched, they
// just rank below the known ones in kind ordering.
type Kind string

const (
	// KindExperiment represents experiments.
	KindExperiment Kind = "EXPERIMENT"
	// KindSample represents samples (objects).
	KindSample Kind = "SAMPLE"
	// KindDataSet represents data sets.
	KindDataSet Kind = "DATA_SET"
	// KindMaterial represents materials.
	KindMaterial Kind = "MATERIAL"
	// KindSpace represents spaces.
	KindSpace Kind = "SPACE"
	// KindProject represents projects.
	KindProject Kind = "PROJECT"
	// KindVocabularyTerm represents controlled vocabulary terms.
	KindVocabularyTerm Kind = "VOCABULARY_TERM"
	// KindTag represents tags.
	KindTag Kind = "TAG"
	// KindPerson represents persons.
	KindPerson Kind = "PERSON"
)

// KindRank returns the position of a kind in the fixed tie-break total
// order. Higher rank sorts later ascending and first descending:
// DATA_SET > SAMPLE > EXPERIMENT > MATERIAL > everything else.
func KindRank(k Kind) int {
	switch k {
	case KindDataSet:
		return 4
	case KindSample:
		return 3
	case KindExperiment:
		return 2
	case KindMaterial:
		return 1
	default:
		return 0
	}
}

// EntityRef names one logical entity as a (kind, identifier) pair. The
// identifier is opaque but stable and unique within its kind; two equal
// EntityRefs always denote the same entity. EntityRef is comparable and is
// used as a map key throughout the engine.
type EntityRef struct {
	Kind Kind
	ID   string
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// IsZero reports whether the reference is empty.
func (r EntityRef) IsZero() bool {
	return r.Kind == "" && r.ID == ""
}

// ParseRef parses the Kind:ID rendering produced by EntityRef.String.
func ParseRef(s string) (EntityRef, error) {
	kind, id, ok := strings.Cut(s, ":")
	if !ok || kind == "" || id == "" {
		return EntityRef{}, fmt.Errorf("malformed entity ref %q", s)
	}
	return EntityRef{Kind: Kind(kind), ID: id}, nil
}

// Principal is the acting user on whose behalf a call is made. It is passed
// through to the authorization filter untouched.
type Principal struct {
	UserID string
	Roles  []string
}

// ContextKey is the type for request-scoped metadata stashed in a
// context.Context by the transport layer and read by telemetry.
type ContextKey string

const (
	// ContextKeyUserID carries the acting user's id.
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeySessionID carries the transport session id.
	ContextKeySessionID ContextKey = "session_id"
	// ContextKeyRequestSource carries where the request came from, e.g.
	// "http" or "cli".
	ContextKeyRequestSource ContextKey = "request_source"
)

// PropertyType is the declared data type of a property.
type PropertyType string

const (
	PropertyTypeText      PropertyType = "TEXT"
	PropertyTypeInteger   PropertyType = "INTEGER"
	PropertyTypeReal      PropertyType = "REAL"
	PropertyTypeBoolean   PropertyType = "BOOLEAN"
	PropertyTypeDate      PropertyType = "DATE"
	PropertyTypeTimestamp PropertyType = "TIMESTAMP"
	PropertyTypeEntityRef PropertyType = "ENTITY_REF"
)

// IsNumeric reports whether values of this type are ordered numbers.
func (t PropertyType) IsNumeric() bool {
	return t == PropertyTypeInteger || t == PropertyTypeReal
}

// IsTemporal reports whether values of this type are dates or timestamps.
func (t PropertyType) IsTemporal() bool {
	return t == PropertyTypeDate || t == PropertyTypeTimestamp
}

// PropertyDef describes one property of an entity kind.
type PropertyDef struct {
	Code string
	Type PropertyType
}

// Value is a dynamically typed attribute or property value. Exactly one of
// the pointer fields is set for typed values; Text doubles as the rendered
// form used for full-text matching.
type Value struct {
	Text     string
	Integer  *int64
	Real     *float64
	Boolean  *bool
	Time     *time.Time
	RefValue *EntityRef
}

// TextValue builds a TEXT value.
func TextValue(s string) Value { return Value{Text: s} }

// IntegerValue builds an INTEGER value.
func IntegerValue(v int64) Value {
	return Value{Text: fmt.Sprintf("%d", v), Integer: &v}
}

// RealValue builds a REAL value.
func RealValue(v float64) Value {
	return Value{Text: fmt.Sprintf("%g", v), Real: &v}
}

// BooleanValue builds a BOOLEAN value.
func BooleanValue(v bool) Value {
	return Value{Text: fmt.Sprintf("%t", v), Boolean: &v}
}

// TimeValue builds a DATE or TIMESTAMP value.
func TimeValue(t time.Time) Value {
	return Value{Text: t.Format("2006-01-02 15:04:05"), Time: &t}
}

// RefValueOf builds an ENTITY_REF value.
func RefValueOf(r EntityRef) Value {
	return Value{Text: r.String(), RefValue: &r}
}

// MatchDetail explains one field hit contributing to a ranked match.
type MatchDetail struct {
	// Field is the matched attribute or property, e.g. "Identifier" or
	// "Property 'Comment'".
	Field string
	// Snippet is the matched value as stored.
	Snippet string
	// Weight is the score contribution of this hit.
	Weight float64
}

// RankedMatch is one entity matched by an evaluation, with its relevance
// score. Score is zero for plain boolean filtering and positive for
// full-text matches; it is the sum of the match detail weights.
type RankedMatch struct {
	Ref     EntityRef
	Score   float64
	Matches []MatchDetail
}
