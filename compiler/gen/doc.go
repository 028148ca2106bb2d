// Package gen renders the generated fast path for mapped entities.
//
// For every entity descriptor produced by compiler/load it emits one
// file into the entity's own package containing a compiled property
// accessor, a compiled instantiator and an init() call registering
// both with the runtime. Importing the package makes the generated
// strategies available; everything not covered by generated code
// falls back to reflection.
//
// Compiled instantiators apply provider-supplied values only; default
// value expressions remain a reflective-strategy concern.
//
// Files are rendered in parallel and normalized with goimports before
// being written.
package gen
