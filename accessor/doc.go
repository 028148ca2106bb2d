// Package accessor provides property access strategies for mapped
// entities.
//
// Two strategies exist behind one Factory interface: a reflective one
// that always works, and a compiled one backed by generated code that
// registers itself at init() time. Default() picks the compiled
// strategy whenever generated code is available for the entity type
// and falls back to reflection otherwise; both produce identical
// results.
//
// Accessors bind to one instance at a time. Writes to mutable
// properties mutate the instance in place; writes to immutable,
// wither-backed properties produce a replacement instance and rebind
// the accessor to it, so Bean() always returns the current state.
//
// PathAccessor extends single-property access to whole property
// paths, fanning writes out over collection elements and map values
// at intermediate segments.
package accessor
