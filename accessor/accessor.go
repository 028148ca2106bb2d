package accessor

import (
	"reflect"
	"sync"

	"github.com/syssam/remap/mapping"
)

// PropertyAccessor reads and writes property values on one bound
// instance. Writes to wither-backed immutable properties rebind the
// accessor, so Bean() always reflects the latest instance.
type PropertyAccessor interface {
	// Bean returns the currently bound instance (a pointer to the
	// entity struct).
	Bean() any

	// Property returns the current value of the given property.
	Property(p *mapping.PersistentProperty) (any, error)

	// SetProperty writes the property value: in place for mutable
	// properties, through the wither for immutable ones.
	SetProperty(p *mapping.PersistentProperty, value any) error
}

// Factory produces property accessors for entity instances.
type Factory interface {
	// IsSupported reports whether this strategy can handle the
	// entity.
	IsSupported(e *mapping.PersistentEntity) bool

	// PropertyAccessor returns an accessor bound to the given bean,
	// which must be a non-nil pointer to the entity type.
	PropertyAccessor(e *mapping.PersistentEntity, bean any) (PropertyAccessor, error)
}

// Default returns the standard factory: the compiled strategy when
// generated code has been registered for the entity type, the
// reflective strategy otherwise. The choice is resolved once per
// entity type and cached.
func Default() Factory { return &autoFactory{} }

type autoFactory struct {
	choice sync.Map // reflect.Type -> Factory
}

func (f *autoFactory) IsSupported(*mapping.PersistentEntity) bool { return true }

func (f *autoFactory) PropertyAccessor(e *mapping.PersistentEntity, bean any) (PropertyAccessor, error) {
	return f.pick(e).PropertyAccessor(e, bean)
}

func (f *autoFactory) pick(e *mapping.PersistentEntity) Factory {
	t := e.Type()
	if cached, ok := f.choice.Load(t); ok {
		return cached.(Factory)
	}
	var chosen Factory = Reflective()
	if compiled := Compiled(); compiled.IsSupported(e) {
		chosen = compiled
	}
	actual, _ := f.choice.LoadOrStore(t, chosen)
	return actual.(Factory)
}

// checkBean validates the bean contract shared by all strategies.
func checkBean(e *mapping.PersistentEntity, bean any) (reflect.Value, error) {
	if bean == nil {
		return reflect.Value{}, errNilBean(e)
	}
	v := reflect.ValueOf(bean)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Type() != e.Type() {
		return reflect.Value{}, errBadBean(e, bean)
	}
	return v, nil
}

// mapped reports whether the property belongs to the entity. Accessor
// operations on unmapped properties fail uniformly.
func mapped(e *mapping.PersistentEntity, p *mapping.PersistentProperty) bool {
	if p == nil {
		return false
	}
	known, ok := e.PersistentProperty(p.Name())
	return ok && known == p
}
