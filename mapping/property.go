package mapping

import (
	"fmt"
	"reflect"
)

// Property is the low-level descriptor unifying a struct field with
// the getter, setter and wither methods discovered for the same
// logical attribute on the owning type. At least one of field, getter
// or setter is always present. Immutable value object, owned by the
// PersistentProperty wrapping it.
type Property struct {
	owner  reflect.Type
	name   string // Go field name
	field  reflect.StructField
	index  []int // field index path (handles promoted fields)
	getter *reflect.Method
	setter *reflect.Method
	wither *reflect.Method
}

// newProperty discovers the accessor methods matching the given field
// on the owning type and returns the unified descriptor.
//
// Candidates, derived from the exported form of the field name:
//   - getter: X() T, GetX() T, and IsX() bool for boolean fields
//   - setter: SetX(T)
//   - wither: WithX(T) returning the owning type or a pointer to it
//
// Wither lookup is exact-name with an assignable return type; Go has
// no covariant overrides to search through.
func newProperty(owner reflect.Type, field reflect.StructField, index []int) (*Property, error) {
	p := &Property{owner: owner, name: field.Name, field: field, index: index}
	exported := pascal(field.Name)
	ptr := reflect.PointerTo(owner)

	getters := []string{"Get" + exported}
	if field.Name != exported {
		// Unexported field: a method may carry the bare exported name.
		getters = append([]string{exported}, getters...)
	}
	if field.Type.Kind() == reflect.Bool {
		getters = append(getters, "Is"+exported)
	}
	for _, name := range getters {
		if m, ok := ptr.MethodByName(name); ok && isGetter(m, field.Type) {
			p.getter = &m
			break
		}
	}
	if m, ok := ptr.MethodByName("Set" + exported); ok && isSetter(m, field.Type) {
		p.setter = &m
	}
	if m, ok := ptr.MethodByName("With" + exported); ok && isWither(m, owner, field.Type) {
		p.wither = &m
	}
	if !p.field.IsExported() && p.getter == nil && p.setter == nil && p.wither == nil {
		return nil, fmt.Errorf("field %s.%s is unexported and has no accessor methods", owner.Name(), field.Name)
	}
	return p, nil
}

// isGetter reports whether m is a no-argument method returning the
// field type.
func isGetter(m reflect.Method, fieldType reflect.Type) bool {
	t := m.Func.Type()
	return t.NumIn() == 1 && t.NumOut() == 1 && t.Out(0) == fieldType
}

// isSetter reports whether m takes exactly the field type and returns
// nothing.
func isSetter(m reflect.Method, fieldType reflect.Type) bool {
	t := m.Func.Type()
	return t.NumIn() == 2 && t.NumOut() == 0 && t.In(1) == fieldType
}

// isWither reports whether m takes the field type and returns a new
// owner instance (by value or pointer).
func isWither(m reflect.Method, owner, fieldType reflect.Type) bool {
	t := m.Func.Type()
	if t.NumIn() != 2 || t.NumOut() != 1 || t.In(1) != fieldType {
		return false
	}
	out := t.Out(0)
	return out == owner || (out.Kind() == reflect.Pointer && out.Elem() == owner)
}

// Owner returns the declaring type.
func (p *Property) Owner() reflect.Type { return p.owner }

// FieldName returns the Go field name.
func (p *Property) FieldName() string { return p.name }

// Field returns the backing struct field.
func (p *Property) Field() reflect.StructField { return p.field }

// Index returns the field index path within the owner, including
// promoted embedded segments.
func (p *Property) Index() []int { return p.index }

// Getter returns the discovered getter method, if any.
func (p *Property) Getter() (reflect.Method, bool) {
	if p.getter == nil {
		return reflect.Method{}, false
	}
	return *p.getter, true
}

// Setter returns the discovered setter method, if any.
func (p *Property) Setter() (reflect.Method, bool) {
	if p.setter == nil {
		return reflect.Method{}, false
	}
	return *p.setter, true
}

// Wither returns the discovered wither method, if any.
func (p *Property) Wither() (reflect.Method, bool) {
	if p.wither == nil {
		return reflect.Method{}, false
	}
	return *p.wither, true
}
