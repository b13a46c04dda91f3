// Package rank merges heterogeneous-kind match collections into one ordered,
// paged result. Sorting is lexicographic over the caller's key sequence,
// every key defaults to ascending, kind ties break by the fixed kind order
// only when the caller asked for kind, and ascending identifier is the
// always-present final tie-break so equal candidates keep a deterministic,
// reproducible order across calls.
package rank
