package mapping

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/syssam/remap"
	"github.com/syssam/remap/typeinfo"
)

// HostParameter is the reserved name of the implicit first parameter
// of a factory registered with one more input than declared parameter
// names. Value providers supply the host instance under this name.
const HostParameter = "$host"

// CreatorKind enumerates the closed set of instance-creation
// mechanisms. The kind is resolved once per entity and never
// re-probed per call.
type CreatorKind uint8

const (
	// CreatorZeroValue constructs the zero value; chosen when the
	// type exposes no writable properties.
	CreatorZeroValue CreatorKind = iota
	// CreatorFieldWise is the implicit constructor of a struct: its
	// parameters are the non-transient writable properties in order.
	CreatorFieldWise
	// CreatorFactory is an explicitly registered factory function.
	CreatorFactory
)

// String returns the kind name.
func (k CreatorKind) String() string {
	switch k {
	case CreatorFieldWise:
		return "field-wise"
	case CreatorFactory:
		return "factory"
	default:
		return "zero-value"
	}
}

// Parameter describes one creator parameter: its name, type, optional
// default value expression and the host marker for the implicit first
// input of a method-expression factory.
type Parameter struct {
	name     string
	typeInfo *typeinfo.TypeInfo
	expr     string
	hasExpr  bool
	host     bool
}

// NewParameter returns a parameter descriptor. Mostly useful for
// tests and custom value providers; creators build their own.
func NewParameter(name string, ti *typeinfo.TypeInfo, expr string, host bool) Parameter {
	return Parameter{name: name, typeInfo: ti, expr: expr, hasExpr: expr != "", host: host}
}

// Name returns the parameter name.
func (p Parameter) Name() string { return p.name }

// TypeInfo returns the parameter type information.
func (p Parameter) TypeInfo() *typeinfo.TypeInfo { return p.typeInfo }

// Expression returns the default value expression, if declared.
func (p Parameter) Expression() (string, bool) { return p.expr, p.hasExpr }

// IsHost reports whether this is the implicit host parameter.
func (p Parameter) IsHost() bool { return p.host }

// Creator is the resolved instance-creator metadata of an entity: the
// creation mechanism plus its ordered parameter list.
type Creator struct {
	kind         CreatorKind
	entity       string
	fn           reflect.Value
	returnsError bool
	params       []Parameter
}

// Kind returns the creation mechanism.
func (c *Creator) Kind() CreatorKind { return c.kind }

// Parameters returns a copy of the ordered parameter list.
func (c *Creator) Parameters() []Parameter {
	out := make([]Parameter, len(c.params))
	copy(out, c.params)
	return out
}

// Func returns the factory function for CreatorFactory creators.
func (c *Creator) Func() (reflect.Value, bool) {
	return c.fn, c.kind == CreatorFactory
}

// ReturnsError reports whether the factory has a trailing error
// return.
func (c *Creator) ReturnsError() bool { return c.returnsError }

// HasHostParameter reports whether the first parameter is the
// implicit host instance.
func (c *Creator) HasHostParameter() bool {
	return len(c.params) > 0 && c.params[0].host
}

// Describe returns a human-readable creator description carried by
// instantiation errors.
func (c *Creator) Describe() string {
	if c.kind != CreatorFactory {
		return fmt.Sprintf("%s constructor of %s", c.kind, c.entity)
	}
	names := make([]string, len(c.params))
	for i, p := range c.params {
		names[i] = p.name
	}
	return fmt.Sprintf("factory %s(%s)", c.fn.Type(), strings.Join(names, ","))
}

// factorySpec is a pending factory registration, validated when the
// entity is built.
type factorySpec struct {
	fn    any
	names []string
}

// discoverCreator resolves creator metadata for the entity:
//
//  1. a registered factory, validated now — not deferred to first use;
//  2. the implicit field-wise constructor when writable non-transient
//     properties exist;
//  3. the zero-value constructor otherwise.
func discoverCreator(e *PersistentEntity, spec *factorySpec) (*Creator, error) {
	if spec != nil {
		return factoryCreator(e, spec)
	}
	var params []Parameter
	for _, p := range e.properties {
		if p.transient || !p.IsWritable() {
			continue
		}
		params = append(params, Parameter{
			name:     p.name,
			typeInfo: p.typeInfo,
			expr:     p.expr,
			hasExpr:  p.hasExpr,
		})
	}
	kind := CreatorFieldWise
	if len(params) == 0 {
		kind = CreatorZeroValue
	}
	return &Creator{kind: kind, entity: e.Name(), params: params}, nil
}

// factoryCreator validates a registered factory against the entity
// type and derives its parameter list.
func factoryCreator(e *PersistentEntity, spec *factorySpec) (*Creator, error) {
	fn := reflect.ValueOf(spec.fn)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, remap.NewCreatorError(e.Name(), "registered creator is not a function")
	}
	t := fn.Type()
	var returnsError bool
	switch t.NumOut() {
	case 1:
	case 2:
		if t.Out(1) != reflect.TypeOf((*error)(nil)).Elem() {
			return nil, remap.NewCreatorError(e.Name(), "second return value of factory must be error")
		}
		returnsError = true
	default:
		return nil, remap.NewCreatorError(e.Name(), "factory must return the entity, optionally with an error")
	}
	out := t.Out(0)
	if out.Kind() == reflect.Pointer {
		out = out.Elem()
	}
	if out != e.Type() {
		return nil, remap.NewCreatorError(e.Name(), fmt.Sprintf("factory returns %s, not %s", t.Out(0), e.Name()))
	}

	names := spec.names
	host := false
	switch {
	case t.NumIn() == len(names):
	case t.NumIn() == len(names)+1:
		// Method-expression style: the first input is the implicit
		// host (enclosing) instance.
		host = true
	default:
		return nil, remap.NewCreatorError(e.Name(),
			fmt.Sprintf("factory takes %d parameters but %d names were declared", t.NumIn(), len(names)))
	}

	params := make([]Parameter, 0, t.NumIn())
	in := 0
	if host {
		params = append(params, Parameter{name: HostParameter, typeInfo: typeinfo.Of(t.In(0)), host: true})
		in = 1
	}
	for i, name := range names {
		param := Parameter{name: name, typeInfo: typeinfo.Of(t.In(in + i))}
		if p, ok := e.index[name]; ok {
			param.expr, param.hasExpr = p.expr, p.hasExpr
		}
		params = append(params, param)
	}
	return &Creator{
		kind:         CreatorFactory,
		entity:       e.Name(),
		fn:           fn,
		returnsError: returnsError,
		params:       params,
	}, nil
}
