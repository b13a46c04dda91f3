// Package evaluate turns criteria trees into candidate sets of matching
// entities. Composites are resolved as set algebra over the match provider's
// per-predicate results: AND intersects, OR unions, relation predicates
// recurse on the related kind and project back through the relation.
//
// Full-text predicates are the exception: within one composite they
// accumulate into a single group and a candidate matches when any
// accumulated token or phrase hits, with its score rewarding every distinct
// field hit. This mirrors the observed global-search contract, where
// "simple stuff" finds both the entities containing "simple" and those
// containing "stuff".
package evaluate
