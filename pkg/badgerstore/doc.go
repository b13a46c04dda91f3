// Package badgerstore persists entities in BadgerDB and serves them as an
// entity loader and match provider. Records are JSON-encoded under
// kind-prefixed keys, so matching scans the kind prefix and evaluates each
// record in process with the same semantics as the in-memory store.
package badgerstore
