// Package annotation models the declarative metadata attached to
// mapped properties. Annotations originate from struct tags (the tag
// key is the annotation name) or from programmatic declarations, and
// may be composed: a Registry records annotations that imply further
// annotations, resolved transitively.
//
// Set is the per-property cache with two tiers: directly present
// annotations are merged eagerly at construction, composed lookups are
// resolved lazily on first access and memoized, including absence.
package annotation
