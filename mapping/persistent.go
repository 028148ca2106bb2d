package mapping

import (
	"reflect"

	"github.com/syssam/remap"
	"github.com/syssam/remap/annotation"
	"github.com/syssam/remap/typeinfo"
)

// Annotation is re-exported for declaration sites such as
// PropertyAnnotator implementations.
type Annotation = annotation.Annotation

// AccessStrategy selects how a property value is reached: directly
// through the struct field or through accessor methods.
type AccessStrategy uint8

// Access strategies. AccessDefault resolves to field access for
// exported fields and accessor methods otherwise.
const (
	AccessDefault AccessStrategy = iota
	AccessField
	AccessProperty
)

// String returns the strategy name.
func (s AccessStrategy) String() string {
	switch s {
	case AccessField:
		return "field"
	case AccessProperty:
		return "property"
	default:
		return "default"
	}
}

// Association describes a property whose value type is itself a
// mapped entity, directly or through a collection or map.
type Association struct {
	property *PersistentProperty
	target   *typeinfo.TypeInfo
}

// Property returns the owning property.
func (a *Association) Property() *PersistentProperty { return a.property }

// Target returns the entity-candidate type the association points to.
func (a *Association) Target() *typeinfo.TypeInfo { return a.target }

// PersistentProperty is one mapped attribute of a domain type. It is
// created once when the owning entity is first resolved and is
// immutable thereafter; only its annotation cache populates lazily.
type PersistentProperty struct {
	name     string // mapped name
	prop     *Property
	typeInfo *typeinfo.TypeInfo
	owner    *PersistentEntity // back-reference, set on add

	annotations *annotation.Set
	association *Association

	id        bool
	version   bool
	transient bool
	immutable bool
	access    AccessStrategy
	expr      string // default value expression, "" if none
	hasExpr   bool
}

// Name returns the mapped property name.
func (p *PersistentProperty) Name() string { return p.name }

// QualifiedName returns "Owner.name" for diagnostics.
func (p *PersistentProperty) QualifiedName() string {
	return p.prop.Owner().Name() + "." + p.name
}

// Property returns the low-level field/accessor descriptor.
func (p *PersistentProperty) Property() *Property { return p.prop }

// TypeInfo returns the declared type information.
func (p *PersistentProperty) TypeInfo() *typeinfo.TypeInfo { return p.typeInfo }

// ActualType returns the pointer-unwrapped type information.
func (p *PersistentProperty) ActualType() *typeinfo.TypeInfo { return p.typeInfo.Actual() }

// Owner returns the owning entity, or nil before the property has
// been added to one.
func (p *PersistentProperty) Owner() *PersistentEntity { return p.owner }

// IsID reports whether this is the identifier property.
func (p *PersistentProperty) IsID() bool { return p.id }

// IsVersion reports whether this is the version property.
func (p *PersistentProperty) IsVersion() bool { return p.version }

// IsTransient reports whether the property is excluded from mapping.
func (p *PersistentProperty) IsTransient() bool { return p.transient }

// IsImmutable reports whether in-place writes are forbidden.
func (p *PersistentProperty) IsImmutable() bool { return p.immutable }

// IsCollection reports whether the property holds a slice or array.
func (p *PersistentProperty) IsCollection() bool { return p.typeInfo.IsCollection() }

// IsMap reports whether the property holds a map.
func (p *PersistentProperty) IsMap() bool { return p.typeInfo.IsMap() }

// Access returns the resolved access strategy for this property.
func (p *PersistentProperty) Access() AccessStrategy { return p.access }

// DefaultExpression returns the default value expression for the
// matching creator parameter, if one was declared.
func (p *PersistentProperty) DefaultExpression() (string, bool) { return p.expr, p.hasExpr }

// IsAssociation reports whether the property points at another
// mapped entity, directly or through a collection or map.
func (p *PersistentProperty) IsAssociation() bool { return p.association != nil }

// Association returns the association descriptor, or nil.
func (p *PersistentProperty) Association() *Association { return p.association }

// FindAnnotation returns the annotation with the given name, direct
// or composed. Lookups are cached, including absence.
func (p *PersistentProperty) FindAnnotation(name string) (annotation.Annotation, bool) {
	return p.annotations.Find(name)
}

// HasAnnotation reports whether the named annotation is present.
func (p *PersistentProperty) HasAnnotation(name string) bool {
	return p.annotations.Has(name)
}

// IsReadable reports whether the property value can be obtained.
func (p *PersistentProperty) IsReadable() bool {
	return p.prop.field.IsExported() || p.prop.getter != nil
}

// CanWriteInPlace reports whether the property can be mutated on an
// existing instance: an exported field or a setter, and the property
// is not marked immutable.
func (p *PersistentProperty) CanWriteInPlace() bool {
	if p.immutable {
		return false
	}
	return p.prop.field.IsExported() || p.prop.setter != nil
}

// HasWither reports whether an immutable-update method is available.
func (p *PersistentProperty) HasWither() bool { return p.prop.wither != nil }

// IsWritable reports whether the property can be written at all,
// in place or through a wither.
func (p *PersistentProperty) IsWritable() bool {
	return p.CanWriteInPlace() || p.HasWither()
}

// Read returns the property value from the given bean value, which
// may be a struct or a pointer to one, honoring the access strategy.
func (p *PersistentProperty) Read(bean reflect.Value) (reflect.Value, error) {
	bean, err := p.beanValue(bean)
	if err != nil {
		return reflect.Value{}, err
	}
	useField := p.prop.field.IsExported()
	if p.access == AccessProperty && p.prop.getter != nil {
		useField = false
	}
	if useField {
		return p.structValue(bean).FieldByIndex(p.prop.index), nil
	}
	if p.prop.getter == nil {
		return reflect.Value{}, remap.NewUnsupportedError("get", p.name, p.prop.owner.Name())
	}
	out := p.addressable(bean).Method(p.prop.getter.Index).Call(nil)
	return out[0], nil
}

// WriteInPlace mutates the property on the given bean, which must be
// a pointer to the owning struct.
func (p *PersistentProperty) WriteInPlace(bean reflect.Value, value reflect.Value) error {
	if bean.Kind() != reflect.Pointer || bean.IsNil() {
		return remap.NewInvalidArgumentError("bean must be a non-nil pointer to %s", p.prop.owner.Name())
	}
	if !p.CanWriteInPlace() {
		return remap.NewUnsupportedError("set", p.name, p.prop.owner.Name())
	}
	useField := p.prop.field.IsExported()
	if p.access == AccessProperty && p.prop.setter != nil {
		useField = false
	}
	if useField {
		target := bean.Elem().FieldByIndex(p.prop.index)
		coerced, err := p.coerce(value, target.Type())
		if err != nil {
			return err
		}
		target.Set(coerced)
		return nil
	}
	if p.prop.setter == nil {
		return remap.NewUnsupportedError("set", p.name, p.prop.owner.Name())
	}
	coerced, err := p.coerce(value, p.prop.field.Type)
	if err != nil {
		return err
	}
	bean.Method(p.prop.setter.Index).Call([]reflect.Value{coerced})
	return nil
}

// ApplyWither invokes the wither with the given value and returns the
// replacement instance (a struct value of the owning type).
func (p *PersistentProperty) ApplyWither(bean reflect.Value, value reflect.Value) (reflect.Value, error) {
	if p.prop.wither == nil {
		return reflect.Value{}, remap.NewUnsupportedError("set", p.name, p.prop.owner.Name())
	}
	bean, err := p.beanValue(bean)
	if err != nil {
		return reflect.Value{}, err
	}
	coerced, err := p.coerce(value, p.prop.field.Type)
	if err != nil {
		return reflect.Value{}, err
	}
	out := p.addressable(bean).Method(p.prop.wither.Index).Call([]reflect.Value{coerced})[0]
	if out.Kind() == reflect.Pointer {
		out = out.Elem()
	}
	return out, nil
}

// beanValue validates the bean against the owning type.
func (p *PersistentProperty) beanValue(bean reflect.Value) (reflect.Value, error) {
	if !bean.IsValid() {
		return reflect.Value{}, remap.NewInvalidArgumentError("bean must not be nil")
	}
	t := bean.Type()
	if t.Kind() == reflect.Pointer {
		if bean.IsNil() {
			return reflect.Value{}, remap.NewInvalidArgumentError("bean must not be a nil %s", t)
		}
		t = t.Elem()
	}
	if t != p.prop.owner {
		return reflect.Value{}, remap.NewInvalidArgumentError("bean of type %s is not a %s", bean.Type(), p.prop.owner.Name())
	}
	return bean, nil
}

// structValue returns the dereferenced struct value.
func (p *PersistentProperty) structValue(bean reflect.Value) reflect.Value {
	if bean.Kind() == reflect.Pointer {
		return bean.Elem()
	}
	return bean
}

// addressable returns a pointer receiver for method calls, copying
// the struct when the given value is not addressable.
func (p *PersistentProperty) addressable(bean reflect.Value) reflect.Value {
	if bean.Kind() == reflect.Pointer {
		return bean
	}
	if bean.CanAddr() {
		return bean.Addr()
	}
	ptr := reflect.New(p.prop.owner)
	ptr.Elem().Set(bean)
	return ptr
}

// coerce adapts a value to the target type. Assignable values pass
// through; numeric kinds convert; anything else is rejected so the
// converting accessor stays the only conversion point.
func (p *PersistentProperty) coerce(value reflect.Value, target reflect.Type) (reflect.Value, error) {
	if !value.IsValid() {
		return reflect.Zero(target), nil
	}
	if value.Type() == target || value.Type().AssignableTo(target) {
		return value, nil
	}
	if isNumeric(value.Kind()) && isNumeric(target.Kind()) && value.Type().ConvertibleTo(target) {
		return value.Convert(target), nil
	}
	return reflect.Value{}, remap.NewInvalidArgumentError("cannot assign value of type %s to property %q of type %s",
		value.Type(), p.name, target)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// detectAssociation resolves the association descriptor for the given
// property type: entity-typed values associate directly; collections
// and maps associate through their component or value type. Untyped
// (interface) elements never associate.
func detectAssociation(p *PersistentProperty) *Association {
	ti := p.typeInfo.Actual()
	switch {
	case ti.IsCollection():
		comp := ti.ComponentType()
		if comp.IsUntyped() || !comp.Actual().IsEntityCandidate() {
			return nil
		}
		return &Association{property: p, target: comp.Actual()}
	case ti.IsMap():
		val := ti.MapValueType()
		if val.IsUntyped() || !val.Actual().IsEntityCandidate() {
			return nil
		}
		return &Association{property: p, target: val.Actual()}
	case ti.IsEntityCandidate():
		return &Association{property: p, target: ti}
	}
	return nil
}
