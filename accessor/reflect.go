package accessor

import (
	"reflect"

	"github.com/syssam/remap"
	"github.com/syssam/remap/mapping"
)

// Reflective returns the reflection-based accessor factory. It is the
// always-correct strategy and supports every entity.
func Reflective() Factory { return reflectFactory{} }

type reflectFactory struct{}

// IsSupported implements Factory; the reflective strategy has no
// preconditions.
func (reflectFactory) IsSupported(*mapping.PersistentEntity) bool { return true }

// PropertyAccessor implements Factory.
func (reflectFactory) PropertyAccessor(e *mapping.PersistentEntity, bean any) (PropertyAccessor, error) {
	v, err := checkBean(e, bean)
	if err != nil {
		return nil, err
	}
	return &reflectAccessor{entity: e, bean: v}, nil
}

type reflectAccessor struct {
	entity *mapping.PersistentEntity
	bean   reflect.Value // pointer to the entity struct, rebound by withers
}

// Bean returns the currently bound instance.
func (a *reflectAccessor) Bean() any { return a.bean.Interface() }

// Property implements PropertyAccessor.
func (a *reflectAccessor) Property(p *mapping.PersistentProperty) (any, error) {
	if !mapped(a.entity, p) {
		return nil, errUnmapped("get", a.entity, p)
	}
	v, err := p.Read(a.bean)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() {
		return nil, nil
	}
	return v.Interface(), nil
}

// SetProperty implements PropertyAccessor. Mutable properties mutate
// the bound instance in place; wither-backed immutable properties
// produce a new instance and rebind the accessor to it.
func (a *reflectAccessor) SetProperty(p *mapping.PersistentProperty, value any) error {
	if !mapped(a.entity, p) {
		return errUnmapped("set", a.entity, p)
	}
	if p.CanWriteInPlace() {
		return p.WriteInPlace(a.bean, reflect.ValueOf(value))
	}
	if p.HasWither() {
		next, err := p.ApplyWither(a.bean, reflect.ValueOf(value))
		if err != nil {
			return err
		}
		ptr := reflect.New(next.Type())
		ptr.Elem().Set(next)
		a.bean = ptr
		return nil
	}
	return remap.NewUnsupportedError("set", p.Name(), a.entity.Name())
}

func errNilBean(e *mapping.PersistentEntity) error {
	return remap.NewInvalidArgumentError("bean must not be nil for entity %s", e.Name())
}

func errBadBean(e *mapping.PersistentEntity, bean any) error {
	return remap.NewInvalidArgumentError("bean must be a non-nil *%s, got %T", e.Name(), bean)
}

func errUnmapped(op string, e *mapping.PersistentEntity, p *mapping.PersistentProperty) error {
	name := "<nil>"
	if p != nil {
		name = p.Name()
	}
	return remap.NewUnsupportedError(op, name, e.Name())
}
