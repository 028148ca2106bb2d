package accessor_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/remap"
	"github.com/syssam/remap/accessor"
	"github.com/syssam/remap/conversion"
	"github.com/syssam/remap/mapping"
)

type Customer struct {
	ID        string `remap:"id,id"`
	Firstname string `remap:"firstname"`
	Age       int    `remap:"age"`
}

type Snapshot struct {
	ID  string `remap:"id,id"`
	ref string `remap:"ref"`
}

func (s *Snapshot) Ref() string { return s.ref }

func (s *Snapshot) WithRef(ref string) Snapshot {
	c := *s
	c.ref = ref
	return c
}

type Frozen struct {
	ID   string `remap:"id,id"`
	Code string `remap:"code,immutable"`
}

func TestReflectiveGetSet(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Customer{})
	require.NoError(err)

	bean := &Customer{ID: "c-1", Firstname: "Dave", Age: 41}
	acc, err := accessor.Reflective().PropertyAccessor(e, bean)
	require.NoError(err)

	firstname, err := e.RequiredPersistentProperty("firstname")
	require.NoError(err)
	v, err := acc.Property(firstname)
	require.NoError(err)
	require.Equal("Dave", v)

	require.NoError(acc.SetProperty(firstname, "Carter"))
	require.Equal("Carter", bean.Firstname)

	age, err := e.RequiredPersistentProperty("age")
	require.NoError(err)
	require.NoError(acc.SetProperty(age, 29))
	require.Equal(29, bean.Age)
}

func TestReflectiveBeanContract(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Customer{})
	require.NoError(err)

	_, err = accessor.Reflective().PropertyAccessor(e, nil)
	require.Error(err)
	require.True(remap.IsInvalidArgument(err))

	// Value, not pointer.
	_, err = accessor.Reflective().PropertyAccessor(e, Customer{})
	require.Error(err)
	require.True(remap.IsInvalidArgument(err))

	var nilBean *Customer
	_, err = accessor.Reflective().PropertyAccessor(e, nilBean)
	require.Error(err)
	require.True(remap.IsInvalidArgument(err))
}

func TestReflectiveUnmappedProperty(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	customers, err := ctx.Get(Customer{})
	require.NoError(err)
	snapshots, err := ctx.Get(Snapshot{})
	require.NoError(err)

	acc, err := accessor.Reflective().PropertyAccessor(snapshots, &Snapshot{})
	require.NoError(err)

	firstname, err := customers.RequiredPersistentProperty("firstname")
	require.NoError(err)
	_, err = acc.Property(firstname)
	require.True(remap.IsUnsupported(err))
	require.True(remap.IsUnsupported(acc.SetProperty(firstname, "x")))
}

func TestWitherRebindsAccessor(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Snapshot{})
	require.NoError(err)

	original := &Snapshot{ID: "s-1", ref: "v1"}
	acc, err := accessor.Reflective().PropertyAccessor(e, original)
	require.NoError(err)

	ref, err := e.RequiredPersistentProperty("ref")
	require.NoError(err)
	require.False(ref.CanWriteInPlace())
	require.True(ref.HasWither())

	require.NoError(acc.SetProperty(ref, "v2"))

	// The original instance is untouched; the accessor follows the
	// replacement.
	require.Equal("v1", original.Ref())
	current := acc.Bean().(*Snapshot)
	require.NotSame(original, current)
	require.Equal("v2", current.Ref())
	require.Equal("s-1", current.ID)

	v, err := acc.Property(ref)
	require.NoError(err)
	require.Equal("v2", v)
}

func TestImmutableWithoutWitherFails(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Frozen{})
	require.NoError(err)

	bean := &Frozen{ID: "f-1", Code: "locked"}
	acc, err := accessor.Reflective().PropertyAccessor(e, bean)
	require.NoError(err)

	code, err := e.RequiredPersistentProperty("code")
	require.NoError(err)
	err = acc.SetProperty(code, "open")
	require.True(remap.IsUnsupported(err))
	require.Equal("locked", bean.Code)
}

// CompiledCustomer has a generated-form accessor registered below, so
// it exercises the compiled strategy without touching the reflective
// fixtures. The hand-written accessor matches the generator output
// exactly: typed assertions per property, argument errors on type
// mismatch, unsupported errors past the switch.
type CompiledCustomer struct {
	ID        string   `remap:"id,id"`
	Firstname string   `remap:"firstname"`
	Age       int      `remap:"age"`
	Nickname  *string  `remap:"nickname"`
	Rating    *int     `remap:"rating"`
	Tags      []string `remap:"tags"`
	Scores    []int    `remap:"scores"`
}

type compiledCustomerAccessor struct {
	entity *mapping.PersistentEntity
	bean   *CompiledCustomer
}

func newCompiledCustomerAccessor(e *mapping.PersistentEntity, bean any) (accessor.PropertyAccessor, error) {
	b, ok := bean.(*CompiledCustomer)
	if !ok {
		return nil, remap.NewInvalidArgumentError("bean must be a non-nil *CompiledCustomer, got %T", bean)
	}
	return &compiledCustomerAccessor{entity: e, bean: b}, nil
}

func (a *compiledCustomerAccessor) Bean() any { return a.bean }

func (a *compiledCustomerAccessor) Property(p *mapping.PersistentProperty) (any, error) {
	switch p.Name() {
	case "id":
		return a.bean.ID, nil
	case "firstname":
		return a.bean.Firstname, nil
	case "age":
		return a.bean.Age, nil
	case "nickname":
		return a.bean.Nickname, nil
	case "rating":
		return a.bean.Rating, nil
	case "tags":
		return a.bean.Tags, nil
	case "scores":
		return a.bean.Scores, nil
	}
	return nil, remap.NewUnsupportedError("get", p.Name(), "CompiledCustomer")
}

func (a *compiledCustomerAccessor) SetProperty(p *mapping.PersistentProperty, value any) error {
	switch p.Name() {
	case "id":
		v, ok := value.(string)
		if !ok {
			return remap.NewInvalidArgumentError("cannot assign value of type %T to property %q of CompiledCustomer", value, p.Name())
		}
		a.bean.ID = v
		return nil
	case "firstname":
		v, ok := value.(string)
		if !ok {
			return remap.NewInvalidArgumentError("cannot assign value of type %T to property %q of CompiledCustomer", value, p.Name())
		}
		a.bean.Firstname = v
		return nil
	case "age":
		v, ok := value.(int)
		if !ok {
			return remap.NewInvalidArgumentError("cannot assign value of type %T to property %q of CompiledCustomer", value, p.Name())
		}
		a.bean.Age = v
		return nil
	case "nickname":
		v, ok := value.(*string)
		if !ok {
			return remap.NewInvalidArgumentError("cannot assign value of type %T to property %q of CompiledCustomer", value, p.Name())
		}
		a.bean.Nickname = v
		return nil
	case "rating":
		v, ok := value.(*int)
		if !ok {
			return remap.NewInvalidArgumentError("cannot assign value of type %T to property %q of CompiledCustomer", value, p.Name())
		}
		a.bean.Rating = v
		return nil
	case "tags":
		v, ok := value.([]string)
		if !ok {
			return remap.NewInvalidArgumentError("cannot assign value of type %T to property %q of CompiledCustomer", value, p.Name())
		}
		a.bean.Tags = v
		return nil
	case "scores":
		v, ok := value.([]int)
		if !ok {
			return remap.NewInvalidArgumentError("cannot assign value of type %T to property %q of CompiledCustomer", value, p.Name())
		}
		a.bean.Scores = v
		return nil
	}
	return remap.NewUnsupportedError("set", p.Name(), "CompiledCustomer")
}

func init() {
	accessor.Register(&CompiledCustomer{}, newCompiledCustomerAccessor)
}

func TestCompiledStrategySelectedByDefault(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()

	compiled, err := ctx.Get(CompiledCustomer{})
	require.NoError(err)
	require.True(accessor.Compiled().IsSupported(compiled))

	plain, err := ctx.Get(Customer{})
	require.NoError(err)
	require.False(accessor.Compiled().IsSupported(plain))

	acc, err := accessor.Default().PropertyAccessor(compiled, &CompiledCustomer{})
	require.NoError(err)
	_, isCompiled := acc.(*compiledCustomerAccessor)
	require.True(isCompiled)
}

func TestCompiledMatchesReflective(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(CompiledCustomer{})
	require.NoError(err)

	nickname := "Ollie"
	rating := 9
	vectors := []struct {
		property string
		value    any
	}{
		{"id", "cc-7"},
		{"firstname", "Oliver"},
		{"age", 33},
		{"nickname", &nickname},
		{"rating", &rating},
		{"tags", []string{"vip", "eu"}},
		{"scores", []int{3, 5}},
	}

	for _, factory := range []accessor.Factory{accessor.Reflective(), accessor.Compiled()} {
		bean := &CompiledCustomer{}
		acc, err := factory.PropertyAccessor(e, bean)
		require.NoError(err)
		for _, v := range vectors {
			p, err := e.RequiredPersistentProperty(v.property)
			require.NoError(err)
			require.NoError(acc.SetProperty(p, v.value))
			got, err := acc.Property(p)
			require.NoError(err)
			require.Equal(v.value, got)
		}
		require.Equal(&CompiledCustomer{
			ID:        "cc-7",
			Firstname: "Oliver",
			Age:       33,
			Nickname:  &nickname,
			Rating:    &rating,
			Tags:      []string{"vip", "eu"},
			Scores:    []int{3, 5},
		}, bean)
	}
}

func TestCompiledMatchesReflectiveOnErrors(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(CompiledCustomer{})
	require.NoError(err)
	snapshots, err := ctx.Get(Snapshot{})
	require.NoError(err)

	foreign, err := snapshots.RequiredPersistentProperty("ref")
	require.NoError(err)
	age, err := e.RequiredPersistentProperty("age")
	require.NoError(err)

	for _, factory := range []accessor.Factory{accessor.Reflective(), accessor.Compiled()} {
		acc, err := factory.PropertyAccessor(e, &CompiledCustomer{})
		require.NoError(err)

		// A property of another entity is unsupported on both read and
		// write, regardless of strategy.
		_, err = acc.Property(foreign)
		require.True(remap.IsUnsupported(err))
		require.True(remap.IsUnsupported(acc.SetProperty(foreign, "x")))

		// A value of the wrong type is an argument error on both.
		require.True(remap.IsInvalidArgument(acc.SetProperty(age, "forty")))
	}
}

type countingService struct {
	calls int
	inner conversion.Service
}

func (s *countingService) Convert(value any, target reflect.Type) (any, error) {
	s.calls++
	return s.inner.Convert(value, target)
}

func TestConvertingAccessorConvertsOnlyOnMismatch(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Customer{})
	require.NoError(err)

	bean := &Customer{}
	inner, err := accessor.Reflective().PropertyAccessor(e, bean)
	require.NoError(err)
	svc := &countingService{inner: conversion.Default()}
	acc := accessor.Converting(inner, svc)

	age, err := e.RequiredPersistentProperty("age")
	require.NoError(err)

	// Matching type never touches the service.
	require.NoError(acc.SetProperty(age, 41))
	require.Equal(0, svc.calls)
	require.Equal(41, bean.Age)

	// Mismatched type converts exactly once.
	require.NoError(acc.SetProperty(age, "52"))
	require.Equal(1, svc.calls)
	require.Equal(52, bean.Age)

	v, err := acc.PropertyAs(age, reflect.TypeOf(""))
	require.NoError(err)
	require.Equal(2, svc.calls)
	require.Equal("52", v)

	// Reading at the stored type bypasses conversion.
	v, err = acc.PropertyAs(age, reflect.TypeOf(0))
	require.NoError(err)
	require.Equal(2, svc.calls)
	require.Equal(52, v)
}
