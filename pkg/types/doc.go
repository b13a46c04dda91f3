// Package types defines the identity, value, and error types shared by every
// part of the query engine: entity kinds and references, property data types,
// principals, ranked matches, and the error taxonomy surfaced to callers.
package types
