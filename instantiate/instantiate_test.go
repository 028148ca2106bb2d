package instantiate_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/syssam/remap"
	"github.com/syssam/remap/instantiate"
	"github.com/syssam/remap/mapping"
)

type Person struct {
	ID      string `remap:"id,id"`
	Name    string `remap:"name"`
	Age     int    `remap:"age"`
	Scratch string `remap:"-"`
}

func TestFieldWiseInstantiation(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Person{})
	require.NoError(err)
	require.Equal(mapping.CreatorFieldWise, e.Creator().Kind())

	got, err := instantiate.Reflective().Instantiate(e, instantiate.MapValueProvider{
		"id":   "p-1",
		"name": "Dave",
		"age":  41,
	})
	require.NoError(err)
	require.Equal(&Person{ID: "p-1", Name: "Dave", Age: 41}, got)
}

func TestFieldWiseMissingValuesStayZero(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Person{})
	require.NoError(err)

	got, err := instantiate.Reflective().Instantiate(e, instantiate.MapValueProvider{"name": "Dave"})
	require.NoError(err)
	require.Equal(&Person{Name: "Dave"}, got)
}

type Profile struct {
	ID       string `remap:"id,id"`
	Nickname string `remap:"nickname"`
	Homepage string `remap:"homepage"`
}

func TestFieldWiseRoundTrip(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Profile{})
	require.NoError(err)

	// Feed every parameter its own name back; the created instance
	// must carry exactly the provided values.
	values := instantiate.MapValueProvider{}
	for _, param := range e.Creator().Parameters() {
		values[param.Name()] = param.Name()
	}
	got, err := instantiate.Reflective().Instantiate(e, values)
	require.NoError(err)
	require.Equal(&Profile{ID: "id", Nickname: "nickname", Homepage: "homepage"}, got)
}

type Token struct {
	ID        string    `remap:"id,id,default=uuid()"`
	CreatedAt time.Time `remap:"created_at,default=now()"`
	Kind      string    `remap:"kind,default=bearer"`
}

func TestDefaultExpressions(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Token{})
	require.NoError(err)

	got, err := instantiate.Reflective().Instantiate(e, instantiate.MapValueProvider{})
	require.NoError(err)
	token := got.(*Token)

	_, err = uuid.Parse(token.ID)
	require.NoError(err)
	require.WithinDuration(time.Now(), token.CreatedAt, time.Minute)
	require.Equal("bearer", token.Kind)
}

func TestProviderValueBeatsExpression(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Token{})
	require.NoError(err)

	got, err := instantiate.Reflective().Instantiate(e, instantiate.MapValueProvider{"kind": "refresh"})
	require.NoError(err)
	require.Equal("refresh", got.(*Token).Kind)
}

type Account struct {
	ID      string `remap:"id,id"`
	Balance int    `remap:"balance"`
}

func TestFactoryInstantiation(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext(mapping.WithCreator(Account{}, func(id string, balance int) *Account {
		return &Account{ID: id, Balance: balance}
	}, "id", "balance"))
	e, err := ctx.Get(Account{})
	require.NoError(err)
	require.Equal(mapping.CreatorFactory, e.Creator().Kind())

	got, err := instantiate.Reflective().Instantiate(e, instantiate.MapValueProvider{
		"id":      "a-1",
		"balance": 100,
	})
	require.NoError(err)
	require.Equal(&Account{ID: "a-1", Balance: 100}, got)
}

type Guarded struct {
	ID string `remap:"id,id"`
}

func TestFactoryErrorSurfacesAsInstantiationError(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext(mapping.WithCreator(Guarded{}, func(id string) (Guarded, error) {
		return Guarded{}, errors.New("rejected")
	}, "id"))
	e, err := ctx.Get(Guarded{})
	require.NoError(err)

	_, err = instantiate.Reflective().Instantiate(e, instantiate.MapValueProvider{"id": "g-1"})
	require.True(remap.IsInstantiationError(err))
	require.ErrorContains(err, "rejected")
}

type Volatile struct {
	ID string `remap:"id,id"`
}

func TestFactoryPanicIsRecovered(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext(mapping.WithCreator(Volatile{}, func(id string) Volatile {
		panic("boom")
	}, "id"))
	e, err := ctx.Get(Volatile{})
	require.NoError(err)

	_, err = instantiate.Reflective().Instantiate(e, instantiate.MapValueProvider{"id": "v-1"})
	require.True(remap.IsInstantiationError(err))
	require.ErrorContains(err, "boom")
}

type Widget struct {
	ID string `remap:"id,id"`
}

func TestFactoryHostParameter(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext(mapping.WithCreator(Widget{}, func(prefix string, id string) Widget {
		return Widget{ID: prefix + id}
	}, "id"))
	e, err := ctx.Get(Widget{})
	require.NoError(err)
	require.True(e.Creator().HasHostParameter())

	got, err := instantiate.Reflective().Instantiate(e, instantiate.MapValueProvider{
		mapping.HostParameter: "w/",
		"id":                  "42",
	})
	require.NoError(err)
	require.Equal(&Widget{ID: "w/42"}, got)
}

type Cache struct {
	ID      string `remap:"id,id"`
	Scratch string `remap:"-"`
}

func TestFactoryTransientStateCleared(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext(mapping.WithCreator(Cache{}, func(id string) Cache {
		return Cache{ID: id, Scratch: "leaked"}
	}, "id"))
	e, err := ctx.Get(Cache{})
	require.NoError(err)

	got, err := instantiate.Reflective().Instantiate(e, instantiate.MapValueProvider{"id": "k-1"})
	require.NoError(err)
	require.Equal(&Cache{ID: "k-1"}, got)
}

type Opaque struct {
	id string
}

func (o *Opaque) Id() string { return o.id }

func TestZeroValueCreator(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Opaque{})
	require.NoError(err)
	require.Equal(mapping.CreatorZeroValue, e.Creator().Kind())

	got, err := instantiate.Reflective().Instantiate(e, nil)
	require.NoError(err)
	require.Equal(&Opaque{}, got)
}

type CompiledWidget struct {
	ID string `remap:"id,id"`
}

func init() {
	instantiate.Register(&CompiledWidget{}, func(e *mapping.PersistentEntity, provider instantiate.ValueProvider) (any, error) {
		w := &CompiledWidget{}
		for _, param := range e.Creator().Parameters() {
			v, err := provider.ParameterValue(param)
			if err != nil {
				continue
			}
			if param.Name() == "id" {
				w.ID = v.(string)
			}
		}
		return w, nil
	})
}

func TestDefaultPrefersCompiled(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(CompiledWidget{})
	require.NoError(err)

	got, err := instantiate.Default().Instantiate(e, instantiate.MapValueProvider{"id": "cw-1"})
	require.NoError(err)
	require.Equal(&CompiledWidget{ID: "cw-1"}, got)

	// Unregistered types fall back to reflection.
	person, err := instantiate.Default().Instantiate(mustEntity(t, ctx, Person{}), instantiate.MapValueProvider{"id": "p-9"})
	require.NoError(err)
	require.Equal("p-9", person.(*Person).ID)
}

func mustEntity(t *testing.T, ctx *mapping.Context, typ any) *mapping.PersistentEntity {
	t.Helper()
	e, err := ctx.Get(typ)
	require.NoError(t, err)
	return e
}
