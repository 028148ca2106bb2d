package mapping

import (
	"reflect"
	"sort"

	"github.com/syssam/remap"
	"github.com/syssam/remap/typeinfo"
)

// Comparator imposes an ordering on an entity's properties. When set,
// it is the single source of truth for ordering and is applied every
// time the ordered view is produced.
type Comparator func(a, b *PersistentProperty) int

// PropertyAnnotator is implemented by domain types that declare
// additional annotations for their properties programmatically, keyed
// by mapped property name. It is the accessor-side annotation
// location: an annotation declared both here and on the struct tag
// must be structurally equal, otherwise entity construction fails.
type PropertyAnnotator interface {
	PropertyAnnotations() map[string][]Annotation
}

// PersistentEntity describes one mapped domain type: its ordered
// properties, identifier and version properties, type alias and
// instance-creator metadata. Entities are created and populated once
// by the owning Context, verified, and shared read-only afterwards.
type PersistentEntity struct {
	typeInfo   *typeinfo.TypeInfo
	properties []*PersistentProperty
	index      map[string]*PersistentProperty
	id         *PersistentProperty
	version    *PersistentProperty
	alias      string
	creator    *Creator
	comparator Comparator
}

// newEntity returns an empty entity skeleton for the given type.
func newEntity(ti *typeinfo.TypeInfo, comparator Comparator) *PersistentEntity {
	return &PersistentEntity{
		typeInfo:   ti,
		index:      make(map[string]*PersistentProperty),
		comparator: comparator,
	}
}

// TypeInfo returns the underlying type information.
func (e *PersistentEntity) TypeInfo() *typeinfo.TypeInfo { return e.typeInfo }

// Type returns the underlying struct type.
func (e *PersistentEntity) Type() reflect.Type { return e.typeInfo.Actual().Type() }

// Name returns the Go type name.
func (e *PersistentEntity) Name() string { return e.typeInfo.Name() }

// Label returns the snake_case label of the entity name.
func (e *PersistentEntity) Label() string { return snake(e.Name()) }

// Alias returns the persistence alias: the remap.Aliased override if
// the type provides one, the label otherwise.
func (e *PersistentEntity) Alias() string {
	if e.alias != "" {
		return e.alias
	}
	return e.Label()
}

// Creator returns the resolved instance-creator metadata.
func (e *PersistentEntity) Creator() *Creator { return e.creator }

// AddPersistentProperty registers a property with the entity. A nil
// property is rejected, property names are unique per entity, and a
// second id-flagged property fails with DuplicateIDError leaving the
// first identifier untouched.
func (e *PersistentEntity) AddPersistentProperty(p *PersistentProperty) error {
	if p == nil {
		return remap.NewInvalidArgumentError("property must not be nil")
	}
	if _, exists := e.index[p.name]; exists {
		return remap.NewMappingError("property \""+p.name+"\" redeclared for entity "+e.Name(), nil)
	}
	if p.id {
		if e.id != nil {
			return remap.NewDuplicateIDError(e.Name(), e.id.name, p.name)
		}
		e.id = p
	}
	if p.version {
		if e.version != nil {
			return remap.NewMappingError("attempt to add version property \""+p.name+"\" to "+e.Name()+
				" but already have property \""+e.version.name+"\" registered as version", nil)
		}
		e.version = p
	}
	p.owner = e
	e.properties = append(e.properties, p)
	e.index[p.name] = p
	return nil
}

// PersistentProperty returns the property with the given mapped name.
func (e *PersistentEntity) PersistentProperty(name string) (*PersistentProperty, bool) {
	p, ok := e.index[name]
	return p, ok
}

// RequiredPersistentProperty returns the property with the given name
// or fails with a mapping error.
func (e *PersistentEntity) RequiredPersistentProperty(name string) (*PersistentProperty, error) {
	if p, ok := e.index[name]; ok {
		return p, nil
	}
	return nil, remap.NewMappingError("no property \""+name+"\" found on entity "+e.Name(), nil)
}

// Properties returns the properties in declaration order, or in the
// order imposed by the comparator when one is configured. The slice
// is a copy; mutating it does not affect the entity.
func (e *PersistentEntity) Properties() []*PersistentProperty {
	out := make([]*PersistentProperty, len(e.properties))
	copy(out, e.properties)
	if e.comparator != nil {
		sort.SliceStable(out, func(i, j int) bool { return e.comparator(out[i], out[j]) < 0 })
	}
	return out
}

// Associations returns the association-typed properties in the same
// order as Properties.
func (e *PersistentEntity) Associations() []*Association {
	var out []*Association
	for _, p := range e.Properties() {
		if p.association != nil {
			out = append(out, p.association)
		}
	}
	return out
}

// ID returns the identifier property, or nil.
func (e *PersistentEntity) ID() *PersistentProperty { return e.id }

// Version returns the version property, or nil.
func (e *PersistentEntity) Version() *PersistentProperty { return e.version }

// Verify performs the consistency pass over the populated entity. The
// Context invokes it before the entity is handed out or cached; a
// failing entity is never cached, so a fixed input can succeed on
// retry.
func (e *PersistentEntity) Verify() error {
	if e.creator == nil {
		return remap.NewCreatorError(e.Name(), "entity was not populated with creator metadata")
	}
	for _, param := range e.creator.params {
		if param.host {
			continue
		}
		if _, ok := e.index[param.name]; !ok {
			return remap.NewCreatorError(e.Name(), "creator parameter \""+param.name+"\" does not match any property")
		}
	}
	for _, p := range e.properties {
		if p.transient {
			continue
		}
		if !p.IsReadable() && !p.IsWritable() {
			return remap.NewMappingError("property \""+p.name+"\" of "+e.Name()+" is neither readable nor writable", nil)
		}
	}
	return nil
}

// IsNew determines whether the given instance has been persisted yet:
// a non-zero version property means not new; otherwise a zero-valued
// identifier means new; otherwise the remap.Newness capability is
// consulted; an entity without any identifier considers every
// instance new.
func (e *PersistentEntity) IsNew(bean any) (bool, error) {
	if bean == nil {
		return false, remap.NewInvalidArgumentError("bean must not be nil")
	}
	if e.version != nil {
		v, err := e.version.Read(reflect.ValueOf(bean))
		if err != nil {
			return false, err
		}
		return isZeroValue(v), nil
	}
	if e.id != nil {
		v, err := e.id.Read(reflect.ValueOf(bean))
		if err != nil {
			return false, err
		}
		return isZeroValue(v), nil
	}
	if aware, ok := bean.(remap.Newness); ok {
		return aware.IsNew(), nil
	}
	return true, nil
}

// isZeroValue treats nil pointers and zero values as "no value yet".
func isZeroValue(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	if v.Kind() == reflect.Pointer {
		return v.IsNil()
	}
	return v.IsZero()
}
