package typeinfo

import (
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// typeCache caches one TypeInfo per reflect.Type. Races to populate
// the same key are idempotent; LoadOrStore keeps the first winner.
var typeCache sync.Map // reflect.Type -> *TypeInfo

var (
	timeType = reflect.TypeOf(time.Time{})
	uuidType = reflect.TypeOf(uuid.UUID{})
	byteType = reflect.TypeOf(byte(0))
	anyType  = reflect.TypeOf((*any)(nil)).Elem()
)

// TypeInfo describes a (possibly pointer, slice or map) type and gives
// access to its resolved component types. Instances are immutable and
// cached per reflect.Type.
type TypeInfo struct {
	rt     reflect.Type
	actual reflect.Type // pointer-unwrapped type
}

// Of returns the cached TypeInfo for the given reflect.Type.
func Of(t reflect.Type) *TypeInfo {
	if t == nil {
		return nil
	}
	if ti, ok := typeCache.Load(t); ok {
		return ti.(*TypeInfo)
	}
	actual := t
	for actual.Kind() == reflect.Pointer {
		actual = actual.Elem()
	}
	ti, _ := typeCache.LoadOrStore(t, &TypeInfo{rt: t, actual: actual})
	return ti.(*TypeInfo)
}

// OfValue returns the TypeInfo for the dynamic type of v.
func OfValue(v any) *TypeInfo {
	if v == nil {
		return nil
	}
	return Of(reflect.TypeOf(v))
}

// For returns the TypeInfo for the static type T.
func For[T any]() *TypeInfo {
	return Of(reflect.TypeOf((*T)(nil)).Elem())
}

// Type returns the underlying reflect.Type.
func (ti *TypeInfo) Type() reflect.Type { return ti.rt }

// Actual returns the pointer-unwrapped type info. For non-pointer
// types it returns the receiver itself.
func (ti *TypeInfo) Actual() *TypeInfo {
	if ti.actual == ti.rt {
		return ti
	}
	return Of(ti.actual)
}

// Name returns the type name of the actual type, or the type string
// for unnamed types.
func (ti *TypeInfo) Name() string {
	if name := ti.actual.Name(); name != "" {
		return name
	}
	return ti.actual.String()
}

// Kind returns the reflect.Kind of the declared type.
func (ti *TypeInfo) Kind() reflect.Kind { return ti.rt.Kind() }

// IsPointer reports whether the declared type is a pointer.
func (ti *TypeInfo) IsPointer() bool { return ti.rt.Kind() == reflect.Pointer }

// IsCollection reports whether the actual type is a slice or array.
// []byte is treated as a scalar blob, not a collection.
func (ti *TypeInfo) IsCollection() bool {
	k := ti.actual.Kind()
	if k != reflect.Slice && k != reflect.Array {
		return false
	}
	return ti.actual.Elem() != byteType
}

// IsMap reports whether the actual type is a map.
func (ti *TypeInfo) IsMap() bool { return ti.actual.Kind() == reflect.Map }

// IsStruct reports whether the actual type is a struct.
func (ti *TypeInfo) IsStruct() bool { return ti.actual.Kind() == reflect.Struct }

// IsInterface reports whether the actual type is an interface.
func (ti *TypeInfo) IsInterface() bool { return ti.actual.Kind() == reflect.Interface }

// ComponentType returns the element type info for slices and arrays,
// or nil for any other type.
func (ti *TypeInfo) ComponentType() *TypeInfo {
	if !ti.IsCollection() {
		return nil
	}
	return Of(ti.actual.Elem())
}

// MapKeyType returns the key type info for maps, or nil.
func (ti *TypeInfo) MapKeyType() *TypeInfo {
	if !ti.IsMap() {
		return nil
	}
	return Of(ti.actual.Key())
}

// MapValueType returns the value type info for maps, or nil.
func (ti *TypeInfo) MapValueType() *TypeInfo {
	if !ti.IsMap() {
		return nil
	}
	return Of(ti.actual.Elem())
}

// Supertypes returns the type infos of anonymous embedded struct
// fields, the closest Go analog of a supertype chain. The resolution
// is transitive through the returned infos.
func (ti *TypeInfo) Supertypes() []*TypeInfo {
	if ti.actual.Kind() != reflect.Struct {
		return nil
	}
	var sup []*TypeInfo
	for i := 0; i < ti.actual.NumField(); i++ {
		f := ti.actual.Field(i)
		if f.Anonymous {
			sup = append(sup, Of(f.Type))
		}
	}
	return sup
}

// IsSimple reports whether the actual type is a scalar store value:
// booleans, numerics, strings, []byte, time.Time or uuid.UUID. Simple
// types are never treated as entities or associations.
func (ti *TypeInfo) IsSimple() bool {
	t := ti.actual
	switch t {
	case timeType, uuidType:
		return true
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	case reflect.Slice:
		return t.Elem() == byteType
	}
	return false
}

// IsEntityCandidate reports whether the actual type may describe a
// mapped entity: a named struct that is not a simple store value.
func (ti *TypeInfo) IsEntityCandidate() bool {
	return ti.IsStruct() && !ti.IsSimple()
}

// IsUntyped reports whether the actual type erases its content type
// (an interface such as `any`). Untyped collections and maps are never
// considered associations.
func (ti *TypeInfo) IsUntyped() bool {
	return ti.actual.Kind() == reflect.Interface || ti.actual == anyType
}

// String returns the declared type string.
func (ti *TypeInfo) String() string { return ti.rt.String() }
