package accessor

import (
	"reflect"
	"sync"

	"github.com/syssam/remap/mapping"
)

// Constructor builds a compiled accessor for one bound bean. The
// compiler emits implementations and registers them from init(), so
// importing a generated package makes the fast path available.
type Constructor func(e *mapping.PersistentEntity, bean any) (PropertyAccessor, error)

// compiledAccessors holds one Constructor per entity type. Races to
// register the same type keep the first registration.
var compiledAccessors sync.Map // reflect.Type -> Constructor

// Register installs a compiled accessor constructor for the
// prototype's type. Called from generated code.
func Register(prototype any, ctor Constructor) {
	t := reflect.TypeOf(prototype)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || ctor == nil {
		return
	}
	compiledAccessors.LoadOrStore(t, ctor)
}

// Compiled returns the generated-code accessor factory. It supports
// an entity only when a compiled accessor has been registered for its
// type; callers fall back to the reflective strategy otherwise.
func Compiled() Factory { return compiledFactory{} }

type compiledFactory struct{}

// IsSupported implements Factory.
func (compiledFactory) IsSupported(e *mapping.PersistentEntity) bool {
	_, ok := compiledAccessors.Load(e.Type())
	return ok
}

// PropertyAccessor implements Factory.
func (compiledFactory) PropertyAccessor(e *mapping.PersistentEntity, bean any) (PropertyAccessor, error) {
	if _, err := checkBean(e, bean); err != nil {
		return nil, err
	}
	ctor, ok := compiledAccessors.Load(e.Type())
	if !ok {
		return nil, errUnsupportedEntity(e)
	}
	return ctor.(Constructor)(e, bean)
}

func errUnsupportedEntity(e *mapping.PersistentEntity) error {
	return &unsupportedEntityError{entity: e.Name()}
}

type unsupportedEntityError struct {
	entity string
}

func (e *unsupportedEntityError) Error() string {
	return "remap: no compiled accessor registered for entity " + e.entity
}
