// Package typeinfo wraps reflect.Type with the resolution operations
// the mapping metamodel needs: pointer unwrapping, collection component
// types, map key and value types, embedded supertypes and the simple
// vs entity-candidate classification.
//
// TypeInfo values are immutable and cached per reflect.Type, so
// repeated lookups are cheap and safe under concurrency.
package typeinfo
