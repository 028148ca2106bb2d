package instantiate

import (
	"reflect"
	"sync"

	"github.com/syssam/remap"
	"github.com/syssam/remap/mapping"
)

// Func is a compiled instantiator for one entity type. The compiler
// emits implementations and registers them from init().
type Func func(e *mapping.PersistentEntity, provider ValueProvider) (any, error)

// compiledInstantiators holds one Func per entity type. Races to
// register the same type keep the first registration.
var compiledInstantiators sync.Map // reflect.Type -> Func

// Register installs a compiled instantiator for the prototype's type.
// Called from generated code.
func Register(prototype any, fn Func) {
	t := reflect.TypeOf(prototype)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || fn == nil {
		return
	}
	compiledInstantiators.LoadOrStore(t, fn)
}

// Compiled returns the generated-code instantiator. It fails for
// entities without a registered Func; callers fall back to the
// reflective strategy via Default().
func Compiled() Instantiator { return compiledInstantiator{} }

type compiledInstantiator struct{}

// Instantiate implements Instantiator.
func (compiledInstantiator) Instantiate(e *mapping.PersistentEntity, provider ValueProvider) (any, error) {
	fn, ok := compiledInstantiators.Load(e.Type())
	if !ok {
		return nil, remap.NewCreatorError(e.Name(), "no compiled instantiator registered")
	}
	return fn.(Func)(e, provider)
}
