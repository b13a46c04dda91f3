// Package criteria defines the composable predicate trees used to filter and
// search entities: boolean composites, attribute and property predicates,
// relation predicates that nest criteria for a related kind, and the
// full-text mode used by global search.
//
// Criteria are built fluently, mirroring the call sites of the public API:
//
//	c := criteria.For(types.KindSample)
//	c.WithCode().ThatEquals("CP-TEST-1")
//	c.WithProperty("COMMENT").ThatContains("simple stuff")
//	c.WithExperiment().WithCode().ThatStartsWith("EXP")
//
// Validation of operator / data-type compatibility happens before any
// evaluation; see Validate.
package criteria
