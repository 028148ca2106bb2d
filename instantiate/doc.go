// Package instantiate creates entity instances from creator metadata.
//
// Values come from a ValueProvider keyed by creator parameter; absent
// values fall back to the parameter's default value expression and
// finally to the zero value. Like package accessor, two strategies
// exist: a reflective one that handles every creator kind, and a
// compiled one registered by generated code. Default() prefers the
// compiled strategy per entity type and caches the choice.
package instantiate
