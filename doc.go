// Package entiq is a generic entity query and graph-hydration engine for
// lab-data platforms. Callers describe WHAT to find with a composable
// criteria tree, WHAT to materialize with a recursive fetch graph, and the
// engine evaluates, authorizes, ranks, pages, and hydrates against pluggable
// storage backends.
//
// The root package is the facade: build an Engine with New and the provider
// implementations of your backend, then call SearchObjects, SearchGlobal,
// or GetObjects. The subpackages under pkg/ hold the building blocks
// (criteria, fetch, evaluate, rank, hydrate) and the bundled backends
// (memstore, badgerstore, neo4jstore).
package entiq
