// Package provider defines the external collaborator interfaces the engine
// consumes: the entity loader that resolves attributes, properties, and
// relations; the match provider that resolves criteria to candidate
// entities; the authorization filter; and the schema resolver used for
// criteria validation.
//
// The engine never talks to storage directly. Reference implementations live
// in pkg/memstore and pkg/store; production integrations implement these
// interfaces against their own backends.
package provider
