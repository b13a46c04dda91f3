package provider

import (
	"context"

	"github.com/tracelab/entiq/pkg/criteria"
	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/types"
)

// EntityLoader resolves entity state for hydration. Implementations must
// report a missing entity as types.ErrNotExists, distinctly from
// types.ErrNoValue for an entity that exists but has nothing under the
// requested relation or property.
type EntityLoader interface {
	// LoadAttributes returns the attribute bag of an entity.
	LoadAttributes(ctx context.Context, ref types.EntityRef) (map[string]types.Value, error)

	// LoadProperties returns all property values of an entity.
	LoadProperties(ctx context.Context, ref types.EntityRef) (map[string]types.Value, error)

	// LoadProperty returns one property value of an entity.
	LoadProperty(ctx context.Context, ref types.EntityRef, code string) (types.Value, error)

	// LoadRelation returns the related entity references under a named
	// relation, ordered and windowed as requested. Without a sort the
	// relative order is whatever the backend supplies; no guarantee is
	// implied.
	LoadRelation(ctx context.Context, ref types.EntityRef, relation string, sort *fetch.SortOptions, page *fetch.Page) ([]types.EntityRef, error)
}

// MatchProvider resolves criteria to candidate entities. Implementations
// must honor the wildcard, token, and phrase semantics of pkg/match
// verbatim.
type MatchProvider interface {
	// MatchPredicate returns the entities of the kind matching a single
	// boolean predicate.
	MatchPredicate(ctx context.Context, kind types.Kind, p *criteria.Predicate) ([]types.EntityRef, error)

	// MatchText returns scored matches for a full-text predicate, with one
	// match detail per hit field.
	MatchText(ctx context.Context, kind types.Kind, p *criteria.Predicate) ([]types.RankedMatch, error)

	// MatchRelated returns the entities of the kind whose named relation
	// reaches at least one of the given entities. A nil related set means
	// "any related entity at all".
	MatchRelated(ctx context.Context, kind types.Kind, relation string, related []types.EntityRef) ([]types.EntityRef, error)

	// AllOf returns every entity of the kind. Used to complement negated
	// relation predicates.
	AllOf(ctx context.Context, kind types.Kind) ([]types.EntityRef, error)
}

// Authorizer is the externally supplied visibility predicate. The engine
// consults it once per top-level candidate: search silently excludes
// invisible candidates, direct fetch turns them into an access-denied
// failure. Entities reached through relation fetch are not re-checked.
type Authorizer interface {
	IsVisible(ctx context.Context, ref types.EntityRef, principal types.Principal) bool
}

// SchemaResolver resolves declared property types. It extends
// criteria.Schema so the same implementation serves validation and
// evaluation.
type SchemaResolver interface {
	criteria.Schema
}

// AllowAll is an Authorizer that lets every candidate through.
type AllowAll struct{}

func (AllowAll) IsVisible(context.Context, types.EntityRef, types.Principal) bool { return true }

// OpenSchema is a SchemaResolver that declares nothing. Every property stays
// unvalidated and is matched dynamically.
type OpenSchema struct{}

func (OpenSchema) PropertyType(types.Kind, string) (types.PropertyType, bool) { return "", false }
