// Package hydrate materializes object graphs from entity references
// according to a fetch graph. A per-call cache keyed by (entity reference,
// fetch-graph identity) guarantees that two results reaching the same entity
// through the same fetch shape share one object instance, and closes
// reference-identity cycles in the fetch graph by structural sharing instead
// of re-expansion.
//
// Relations that were not part of the fetch graph stay in an explicit
// not-fetched state; reading one is an error, never a silent default.
package hydrate
