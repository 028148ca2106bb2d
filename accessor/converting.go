package accessor

import (
	"reflect"

	"github.com/syssam/remap/conversion"
	"github.com/syssam/remap/mapping"
)

// ConvertingAccessor decorates a plain accessor with a conversion
// service. Conversion is applied only when the stored and requested
// types actually differ; matching types never touch the service.
type ConvertingAccessor struct {
	inner PropertyAccessor
	svc   conversion.Service
}

// Converting wraps the given accessor. A nil service uses the default
// conversion service.
func Converting(inner PropertyAccessor, svc conversion.Service) *ConvertingAccessor {
	if svc == nil {
		svc = conversion.Default()
	}
	return &ConvertingAccessor{inner: inner, svc: svc}
}

// Bean returns the currently bound instance.
func (a *ConvertingAccessor) Bean() any { return a.inner.Bean() }

// Property returns the raw property value.
func (a *ConvertingAccessor) Property(p *mapping.PersistentProperty) (any, error) {
	return a.inner.Property(p)
}

// PropertyAs returns the property value converted to the target type.
// The conversion service is bypassed when the value already has the
// requested type.
func (a *ConvertingAccessor) PropertyAs(p *mapping.PersistentProperty, target reflect.Type) (any, error) {
	v, err := a.inner.Property(p)
	if err != nil {
		return nil, err
	}
	if v == nil || reflect.TypeOf(v) == target {
		return v, nil
	}
	return a.svc.Convert(v, target)
}

// SetProperty writes the value, converting it to the property's
// declared type first when the types differ.
func (a *ConvertingAccessor) SetProperty(p *mapping.PersistentProperty, value any) error {
	target := p.TypeInfo().Type()
	if value != nil && reflect.TypeOf(value) != target {
		converted, err := a.svc.Convert(value, target)
		if err != nil {
			return err
		}
		value = converted
	}
	return a.inner.SetProperty(p, value)
}
