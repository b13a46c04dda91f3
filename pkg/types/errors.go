package types

import (
	"errors"
	"fmt"
)

// Sentinel errors reported by entity loaders and match providers.
var (
	// ErrNotExists is returned when a referenced entity no longer exists.
	ErrNotExists = errors.New("entity does not exist")

	// ErrNoValue is returned when an entity exists but has no value for the
	// requested relation or property. It is distinct from ErrNotExists.
	ErrNoValue = errors.New("no value")

	// ErrUnknownRelation is returned when a relation name is not defined for
	// the entity kind.
	ErrUnknownRelation = errors.New("unknown relation")
)

// InvalidCriteriaError reports a criteria tree that violates the operator /
// data-type contract, e.g. a text operator applied to a DATE property. It is
// a caller-side logic error and aborts the whole call.
type InvalidCriteriaError struct {
	// Field names the offending attribute or property.
	Field string
	// Operator is the operator that was applied.
	Operator string
	// Suggestion names the predicate family that should have been used.
	Suggestion string
}

func (e *InvalidCriteriaError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("invalid criteria: operator %q cannot be applied to field %q (use %s)",
			e.Operator, e.Field, e.Suggestion)
	}
	return fmt.Sprintf("invalid criteria: operator %q cannot be applied to field %q", e.Operator, e.Field)
}

// AccessDeniedError reports a direct fetch of an entity the principal is not
// allowed to see. Search silently excludes invisible candidates instead.
type AccessDeniedError struct {
	Ref      EntityRef
	UserID   string
	Required string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: user %q cannot access %s (requires %s)", e.UserID, e.Ref, e.Required)
}

// NotFetchedError reports a read of a relation or attribute group that was
// not part of the requested fetch graph. Callers rely on this to assert that
// strictly what they asked for was returned.
type NotFetchedError struct {
	Ref      EntityRef
	Relation string
}

func (e *NotFetchedError) Error() string {
	return fmt.Sprintf("relation %q of %s has not been fetched", e.Relation, e.Ref)
}
