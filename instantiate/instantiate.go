package instantiate

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/remap"
	"github.com/syssam/remap/conversion"
	"github.com/syssam/remap/mapping"
)

// ValueProvider supplies creator parameter values during
// instantiation. Returning remap.ErrNoValue for a parameter falls
// back to its default value expression, or to the zero value when no
// expression is declared.
type ValueProvider interface {
	ParameterValue(p mapping.Parameter) (any, error)
}

// MapValueProvider is the simplest provider: parameter values keyed
// by parameter name. Missing keys report no value.
type MapValueProvider map[string]any

// ParameterValue implements ValueProvider.
func (m MapValueProvider) ParameterValue(p mapping.Parameter) (any, error) {
	if v, ok := m[p.Name()]; ok {
		return v, nil
	}
	return nil, remap.ErrNoValue
}

// Instantiator creates entity instances from creator metadata and a
// value provider. Implementations return a pointer to the entity
// struct.
type Instantiator interface {
	Instantiate(e *mapping.PersistentEntity, provider ValueProvider) (any, error)
}

// Default returns the standard instantiator: the compiled strategy
// when generated code has been registered for the entity type, the
// reflective strategy otherwise. The choice is resolved once per
// entity type and cached.
func Default() Instantiator { return &autoInstantiator{} }

type autoInstantiator struct {
	choice sync.Map // reflect.Type -> Instantiator
}

func (a *autoInstantiator) Instantiate(e *mapping.PersistentEntity, provider ValueProvider) (any, error) {
	t := e.Type()
	if cached, ok := a.choice.Load(t); ok {
		return cached.(Instantiator).Instantiate(e, provider)
	}
	var chosen Instantiator = Reflective()
	if _, ok := compiledInstantiators.Load(t); ok {
		chosen = Compiled()
	}
	actual, _ := a.choice.LoadOrStore(t, chosen)
	return actual.(Instantiator).Instantiate(e, provider)
}

// Reflective returns the reflection-based instantiator. It handles
// every creator kind and is the always-correct fallback.
func Reflective() Instantiator { return reflectiveInstantiator{svc: conversion.Default()} }

type reflectiveInstantiator struct {
	svc conversion.Service
}

// Instantiate implements Instantiator.
func (r reflectiveInstantiator) Instantiate(e *mapping.PersistentEntity, provider ValueProvider) (any, error) {
	creator := e.Creator()
	switch creator.Kind() {
	case mapping.CreatorZeroValue:
		return reflect.New(e.Type()).Interface(), nil
	case mapping.CreatorFieldWise:
		return r.fieldWise(e, creator, provider)
	case mapping.CreatorFactory:
		return r.factory(e, creator, provider)
	}
	return nil, remap.NewCreatorError(e.Name(), fmt.Sprintf("unknown creator kind %d", creator.Kind()))
}

// fieldWise builds the instance property by property on a fresh zero
// value.
func (r reflectiveInstantiator) fieldWise(e *mapping.PersistentEntity, creator *mapping.Creator, provider ValueProvider) (any, error) {
	ptr := reflect.New(e.Type())
	for _, param := range creator.Parameters() {
		value, present, err := r.resolve(param, provider)
		if err != nil {
			return nil, remap.NewInstantiationError(e.Name(), creator.Describe(), nil, err)
		}
		if !present {
			continue
		}
		prop, err := e.RequiredPersistentProperty(param.Name())
		if err != nil {
			return nil, remap.NewInstantiationError(e.Name(), creator.Describe(), []any{value}, err)
		}
		if err := r.write(ptr, prop, value); err != nil {
			return nil, remap.NewInstantiationError(e.Name(), creator.Describe(), []any{value}, err)
		}
	}
	return ptr.Interface(), nil
}

// factory invokes the registered factory function with resolved
// arguments. Panics inside the factory surface as instantiation
// errors rather than crashing the caller.
func (r reflectiveInstantiator) factory(e *mapping.PersistentEntity, creator *mapping.Creator, provider ValueProvider) (result any, err error) {
	fn, ok := creator.Func()
	if !ok {
		return nil, remap.NewCreatorError(e.Name(), "factory creator carries no function")
	}
	params := creator.Parameters()
	args := make([]reflect.Value, len(params))
	raw := make([]any, len(params))
	for i, param := range params {
		value, present, resolveErr := r.resolve(param, provider)
		if resolveErr != nil {
			return nil, remap.NewInstantiationError(e.Name(), creator.Describe(), raw, resolveErr)
		}
		target := fn.Type().In(i)
		if !present {
			args[i] = reflect.Zero(target)
			continue
		}
		raw[i] = value
		arg, coerceErr := r.coerce(value, target)
		if coerceErr != nil {
			return nil, remap.NewInstantiationError(e.Name(), creator.Describe(), raw, coerceErr)
		}
		args[i] = arg
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = remap.NewInstantiationError(e.Name(), creator.Describe(), raw,
				fmt.Errorf("factory panicked: %v", rec))
		}
	}()
	out := fn.Call(args)
	if creator.ReturnsError() && !out[1].IsNil() {
		return nil, remap.NewInstantiationError(e.Name(), creator.Describe(), raw, out[1].Interface().(error))
	}

	instance := out[0]
	if instance.Kind() != reflect.Pointer {
		ptr := reflect.New(instance.Type())
		ptr.Elem().Set(instance)
		instance = ptr
	}
	if instance.IsNil() {
		return nil, remap.NewInstantiationError(e.Name(), creator.Describe(), raw,
			errors.New("factory returned a nil instance"))
	}
	r.clearTransient(e, instance)
	return instance.Interface(), nil
}

// clearTransient re-zeroes transient properties a factory may have
// populated; transient state never survives instantiation.
func (r reflectiveInstantiator) clearTransient(e *mapping.PersistentEntity, ptr reflect.Value) {
	for _, p := range e.Properties() {
		if !p.IsTransient() || !p.CanWriteInPlace() {
			continue
		}
		zero := reflect.Zero(p.TypeInfo().Type())
		_ = p.WriteInPlace(ptr, zero)
	}
}

// resolve produces the value for one parameter: provider first, then
// the default value expression, then absence.
func (r reflectiveInstantiator) resolve(param mapping.Parameter, provider ValueProvider) (any, bool, error) {
	if provider != nil {
		value, err := provider.ParameterValue(param)
		switch {
		case err == nil:
			return value, true, nil
		case errors.Is(err, remap.ErrNoValue):
		default:
			return nil, false, err
		}
	}
	if expr, ok := param.Expression(); ok {
		value, err := r.evaluate(expr, param)
		if err != nil {
			return nil, false, err
		}
		return value, true, nil
	}
	return nil, false, nil
}

// evaluate resolves a default value expression. The expression
// language is deliberately tiny: uuid(), now() and literals.
func (r reflectiveInstantiator) evaluate(expr string, param mapping.Parameter) (any, error) {
	target := param.TypeInfo().Type()
	switch expr {
	case "uuid()":
		id := uuid.New()
		if target == reflect.TypeOf(uuid.UUID{}) {
			return id, nil
		}
		return id.String(), nil
	case "now()":
		now := time.Now()
		if target == reflect.TypeOf(time.Time{}) {
			return now, nil
		}
		return r.svc.Convert(now, target)
	default:
		if target == reflect.TypeOf("") {
			return expr, nil
		}
		return r.svc.Convert(expr, target)
	}
}

// write stores a resolved value through the property, converting on
// type mismatch and routing through the wither for immutable
// properties.
func (r reflectiveInstantiator) write(ptr reflect.Value, prop *mapping.PersistentProperty, value any) error {
	target := prop.TypeInfo().Type()
	coerced, err := r.coerce(value, target)
	if err != nil {
		return err
	}
	if prop.CanWriteInPlace() {
		return prop.WriteInPlace(ptr, coerced)
	}
	if prop.HasWither() {
		next, err := prop.ApplyWither(ptr, coerced)
		if err != nil {
			return err
		}
		ptr.Elem().Set(next)
		return nil
	}
	return remap.NewUnsupportedError("set", prop.Name(), prop.Owner().Name())
}

// coerce adapts a value to the target type, converting only on
// mismatch.
func (r reflectiveInstantiator) coerce(value any, target reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(target), nil
	}
	v := reflect.ValueOf(value)
	if v.Type() == target || v.Type().AssignableTo(target) {
		return v, nil
	}
	converted, err := r.svc.Convert(value, target)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(converted), nil
}
