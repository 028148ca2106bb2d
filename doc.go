// Package remap is the object-mapping metadata core of a data-access
// toolkit. It discovers, at runtime, how domain structs are shaped
// (fields, accessor methods, withers, creators) and builds a reusable
// metamodel that persistence modules use to read and write properties,
// instantiate objects and resolve nested property paths.
//
// The entry point is a mapping.Context:
//
//	ctx := mapping.NewContext()
//	entity, err := ctx.Get(User{})
//
// Entities expose ordered persistent properties, identifier and version
// properties, a type alias and instance-creator metadata. Property
// values are read and written through accessor strategies (see package
// accessor) and new instances are produced by instantiators (package
// instantiate). Nested paths like "customer.firstname" resolve through
// associations, slices and maps (Context.PersistentPropertyPath).
//
// remap does not persist anything itself; it only describes how to get
// and set data on in-memory objects.
package remap
