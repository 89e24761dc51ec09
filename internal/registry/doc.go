// Package registry provides the central mapping between backend names and
// their executable implementations.
//
// The Registry stores one immutable Descriptor per backend. It is populated
// exactly once during application startup from an explicit, compile-time
// registration table and is read-only afterwards: descriptors are never
// removed or mutated during the process lifetime. Registering two backends
// under the same name is a programmer error and fails the whole startup,
// so a built registry is never partial and never silently shadows an entry.
package registry
