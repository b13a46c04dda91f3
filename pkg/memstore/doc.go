// Package memstore is an in-process reference backend. It implements every
// provider interface over plain maps: entity loading, predicate and
// full-text matching, schema resolution, and visibility. It backs the test
// suites and is the CLI's default store; fixtures load from YAML documents.
package memstore
