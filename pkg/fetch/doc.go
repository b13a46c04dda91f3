// Package fetch defines the declarative fetch-option graphs that describe
// what to materialize for a result: which relations to follow, whether to
// load properties and match details, and per-node sorting and paging.
//
// A graph may reference itself transitively to express "fetch this relation,
// and recursively the same shape again":
//
//	g := fetch.NewGraph(types.KindSample)
//	g.With("components").WithUsing("container", g)
//
// Cycles are detected by graph identity: every graph carries a stable
// identity token assigned at construction, and the hydration engine treats
// two nodes as the same shape only when their graphs share that token.
// Structurally identical but distinct graphs are expanded independently.
package fetch
