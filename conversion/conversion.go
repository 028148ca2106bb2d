// Package conversion provides the value conversion service consumed
// by the converting property accessor. The default service decodes
// through mapstructure with weakly typed input, so string/number/bool
// coercions behave like configuration binding does elsewhere in the
// ecosystem.
package conversion

import (
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/syssam/remap"
)

// Service converts a value to a target type. Implementations must be
// safe for concurrent use.
type Service interface {
	// Convert returns value adapted to target. Callers are expected
	// to skip the call entirely when the types already match.
	Convert(value any, target reflect.Type) (any, error)
}

// Default returns the mapstructure-backed service.
func Default() Service { return defaultService{} }

type defaultService struct{}

// Convert implements Service.
func (defaultService) Convert(value any, target reflect.Type) (any, error) {
	if target == nil {
		return nil, remap.NewInvalidArgumentError("conversion target type must not be nil")
	}
	if value == nil {
		return reflect.Zero(target).Interface(), nil
	}
	if reflect.TypeOf(value) == target {
		return value, nil
	}
	out := reflect.New(target)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out.Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(value); err != nil {
		return nil, remap.NewInvalidArgumentError("cannot convert %T to %s: %v", value, target, err)
	}
	return out.Elem().Interface(), nil
}
