// Package load extracts entity descriptors from domain packages for
// code generation.
//
// The loader inspects syntax and type information only; user code is
// parsed, never executed. Results can be snapshotted to disk keyed by
// a content hash of the source files, so repeated generator runs skip
// the expensive package load when nothing changed.
package load
