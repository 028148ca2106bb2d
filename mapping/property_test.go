package mapping_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/remap"
	"github.com/syssam/remap/annotation"
	"github.com/syssam/remap/mapping"
)

type Ledger struct {
	balance int
	active  bool
}

func (l *Ledger) Balance() int     { return l.balance }
func (l *Ledger) SetBalance(v int) { l.balance = v }
func (l *Ledger) IsActive() bool   { return l.active }
func (l *Ledger) SetActive(v bool) { l.active = v }

func (l *Ledger) WithBalance(v int) Ledger {
	c := *l
	c.balance = v
	return c
}

func TestAccessorDiscovery(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Ledger{})
	require.NoError(err)

	balance, err := e.RequiredPersistentProperty("balance")
	require.NoError(err)
	_, ok := balance.Property().Getter()
	require.True(ok)
	_, ok = balance.Property().Setter()
	require.True(ok)
	_, ok = balance.Property().Wither()
	require.True(ok)
	require.True(balance.IsReadable())
	require.True(balance.CanWriteInPlace())

	active, err := e.RequiredPersistentProperty("active")
	require.NoError(err)
	getter, ok := active.Property().Getter()
	require.True(ok, "boolean fields accept Is-prefixed getters")
	require.Equal("IsActive", getter.Name)
	_, ok = active.Property().Wither()
	require.False(ok)
}

type unreachable struct {
	hidden string //nolint:unused
	Seen   string `remap:"seen"`
}

func TestUnexportedFieldWithoutAccessorsSkipped(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(unreachable{})
	require.NoError(err)
	_, ok := e.PersistentProperty("hidden")
	require.False(ok)
	_, ok = e.PersistentProperty("seen")
	require.True(ok)
}

type Counted struct {
	Hits int `remap:"hits,access=property"`
}

func (c *Counted) GetHits() int { return c.Hits * 2 }

func TestAccessModeProperty(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Counted{})
	require.NoError(err)

	hits, err := e.RequiredPersistentProperty("hits")
	require.NoError(err)
	require.Equal(mapping.AccessProperty, hits.Access())

	v, err := hits.Read(reflect.ValueOf(&Counted{Hits: 21}))
	require.NoError(err)
	require.Equal(42, int(v.Int()), "property access routes reads through the getter")
}

type BadAccess struct {
	A string `remap:"a,access=wat"`
}

func TestInvalidAccessMode(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	_, err := ctx.Get(BadAccess{})
	require.True(remap.IsMappingError(err))
	require.ErrorContains(err, `"wat"`)
}

type Tag struct {
	ID string `remap:"id,id"`
}

type Post struct {
	ID     string         `remap:"id,id"`
	Main   Tag            `remap:"main"`
	Extra  *Tag           `remap:"extra"`
	Tags   []Tag          `remap:"tags"`
	ByName map[string]Tag `remap:"by_name"`
	Data   []byte         `remap:"data"`
	Misc   []any          `remap:"misc"`
	Note   string         `remap:"note"`
}

func TestAssociationDetection(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Post{})
	require.NoError(err)

	tagType := reflect.TypeOf(Tag{})
	for _, name := range []string{"main", "extra", "tags", "by_name"} {
		p, err := e.RequiredPersistentProperty(name)
		require.NoError(err)
		require.True(p.IsAssociation(), name)
		require.Equal(tagType, p.Association().Target().Type(), name)
	}
	for _, name := range []string{"data", "misc", "note", "id"} {
		p, err := e.RequiredPersistentProperty(name)
		require.NoError(err)
		require.False(p.IsAssociation(), name)
	}

	assocs := e.Associations()
	require.Len(assocs, 4)
}

type WithTemp struct {
	ID  string `remap:"id,id"`
	Tmp string `remap:"-"`
}

func TestTransientProperty(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(WithTemp{})
	require.NoError(err)

	tmp, err := e.RequiredPersistentProperty("tmp")
	require.NoError(err)
	require.True(tmp.IsTransient())

	for _, param := range e.Creator().Parameters() {
		require.NotEqual("tmp", param.Name(), "transient properties never become creator parameters")
	}
}

type Sealed struct {
	ID   string `remap:"id,id"`
	Code string `remap:"code,immutable"`
}

func TestImmutableProperty(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Sealed{})
	require.NoError(err)

	code, err := e.RequiredPersistentProperty("code")
	require.NoError(err)
	require.True(code.IsImmutable())
	require.False(code.CanWriteInPlace())
	require.True(code.IsReadable())
}

type Tagged struct {
	Email string `remap:"email" index:"unique"`
}

func (t *Tagged) PropertyAnnotations() map[string][]mapping.Annotation {
	return map[string][]mapping.Annotation{
		"email": {annotation.Parse("index", "unique")},
	}
}

func TestEqualAnnotationsFromBothLocations(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Tagged{})
	require.NoError(err)

	email, err := e.RequiredPersistentProperty("email")
	require.NoError(err)
	a, ok := email.FindAnnotation("index")
	require.True(ok)
	require.Equal("unique", a.Value())
}

type Clashing struct {
	Email string `remap:"email" index:"unique"`
}

func (c *Clashing) PropertyAnnotations() map[string][]mapping.Annotation {
	return map[string][]mapping.Annotation{
		"email": {annotation.Parse("index", "btree")},
	}
}

func TestConflictingAnnotationsRejected(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	_, err := ctx.Get(Clashing{})
	require.True(remap.IsAnnotationConflict(err))
	require.ErrorContains(err, "index")
}

type Audited struct {
	Name string `remap:"name" audited:"true"`
}

func TestComposedAnnotationResolution(t *testing.T) {
	require := require.New(t)
	registry := annotation.NewRegistry()
	registry.Compose("audited", annotation.Parse("tracked", "change-log"))
	ctx := mapping.NewContext(mapping.WithAnnotationRegistry(registry))

	e, err := ctx.Get(Audited{})
	require.NoError(err)
	name, err := e.RequiredPersistentProperty("name")
	require.NoError(err)

	tracked, ok := name.FindAnnotation("tracked")
	require.True(ok, "composed annotations resolve transitively")
	require.Equal("change-log", tracked.Value())
	require.True(name.HasAnnotation("audited"))
	require.False(name.HasAnnotation("absent"))
}

type Base struct {
	ID   string `remap:"id,id"`
	Note string `remap:"note"`
}

type Derived struct {
	Base
	Note string `remap:"note"`
}

func TestEmbeddedPromotionAndShadowing(t *testing.T) {
	require := require.New(t)
	ctx := mapping.NewContext()
	e, err := ctx.Get(Derived{})
	require.NoError(err)
	require.Len(e.Properties(), 2)

	id, err := e.RequiredPersistentProperty("id")
	require.NoError(err)
	v, err := id.Read(reflect.ValueOf(&Derived{Base: Base{ID: "d-1"}}))
	require.NoError(err)
	require.Equal("d-1", v.String())

	note, err := e.RequiredPersistentProperty("note")
	require.NoError(err)
	require.Equal([]int{1}, note.Property().Index(), "the directly declared field shadows the promoted one")
}
