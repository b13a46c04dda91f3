// Package neo4jstore persists entities as Neo4j nodes and relationships and
// serves them as an entity loader and match provider. Entities become nodes
// labeled with their kind; relations become REL relationships carrying the
// relation name and an insertion ordinal. Predicate and full-text matching
// stream the kind's nodes and evaluate them in process with the same
// semantics as the in-memory store.
package neo4jstore
