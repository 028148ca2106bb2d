// Package mapping builds and caches the persistent metamodel of
// domain structs: entities, their properties, instance-creator
// metadata and property paths.
//
// A Context is the entry point and owns the entity cache for its
// lifetime:
//
//	ctx := mapping.NewContext()
//	entity, err := ctx.Get(User{})
//	prop, _ := entity.PersistentProperty("firstname")
//
// Mapping is driven by the `remap` struct tag and a small set of
// capability interfaces (remap.Aliased, remap.Newness,
// mapping.PropertyAnnotator). Getter, setter and wither methods are
// discovered by naming convention; see Property.
//
// Entities are effectively immutable once built and verified, and are
// shared read-only across goroutines without locking.
package mapping
