package remap

// Newness is implemented by domain types that self-report whether they
// have been persisted yet. It is consulted by the is-new strategy only
// when an entity has neither a version nor an identifier property.
type Newness interface {
	IsNew() bool
}

// Aliased provides a persistence alias for a type, overriding the
// label derived from the type name.
type Aliased interface {
	TypeAlias() string
}
