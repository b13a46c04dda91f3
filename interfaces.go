package entiq

import (
	"context"

	"github.com/tracelab/entiq/pkg/criteria"
	"github.com/tracelab/entiq/pkg/fetch"
	"github.com/tracelab/entiq/pkg/hydrate"
	"github.com/tracelab/entiq/pkg/types"
)

// This file defines focused interfaces following the Interface Segregation
// Principle. Consumers should depend on the smallest interface that meets
// their needs; the Engine satisfies all of them.

// Searcher provides criteria-driven query operations.
// Use this interface when you only need to search.
type Searcher interface {
	// SearchObjects evaluates a criteria tree over its own entity kind and
	// returns the requested page of hydrated results. Candidates invisible
	// to the principal are silently excluded and do not count toward
	// TotalCount.
	SearchObjects(ctx context.Context, principal types.Principal, crit *criteria.Criteria, graph *fetch.Graph) (*SearchResult, error)

	// SearchGlobal evaluates a criteria tree across several entity kinds at
	// once, merging matches for the same entity into a single scored
	// result. An empty scope covers experiments, samples, data sets, and
	// materials.
	SearchGlobal(ctx context.Context, principal types.Principal, crit *criteria.Criteria, scope []types.Kind, graph *fetch.Graph) (*SearchResult, error)
}

// Getter provides direct fetch of known entities.
// Use this interface when you already hold references.
type Getter interface {
	// GetObjects hydrates the referenced entities. References that resolve
	// to nothing are absent from the result map; references the principal
	// may not see fail the whole call with a *types.AccessDeniedError.
	GetObjects(ctx context.Context, principal types.Principal, refs []types.EntityRef, graph *fetch.Graph) (map[types.EntityRef]*hydrate.Object, error)
}

// Ensure Engine composes all focused interfaces.
var _ interface {
	Searcher
	Getter
} = (*Engine)(nil)
