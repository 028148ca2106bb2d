package load

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

func TestNewFieldFlags(t *testing.T) {
	require := require.New(t)

	f := newField("ID", "string", reflect.StructTag(`remap:"id,id"`))
	require.Equal("id", f.MappedName)
	require.True(f.ID)
	require.True(f.Exported)

	f = newField("Rev", "int", reflect.StructTag(`remap:"rev,version"`))
	require.True(f.Version)

	f = newField("Code", "string", reflect.StructTag(`remap:"code,immutable,default=locked"`))
	require.True(f.Immutable)
	require.Equal("locked", f.Default)

	f = newField("Scratch", "string", reflect.StructTag(`remap:"-"`))
	require.True(f.Transient)
	require.Equal("scratch", f.MappedName)

	f = newField("CreatedAt", "time.Time", reflect.StructTag(``))
	require.Equal("created_at", f.MappedName)
	require.False(f.ID)
}

func TestFieldCapabilities(t *testing.T) {
	require := require.New(t)

	exported := &Field{Name: "Name", Exported: true}
	require.True(exported.Readable())
	require.True(exported.Writable())

	immutable := &Field{Name: "Code", Exported: true, Immutable: true}
	require.True(immutable.Readable())
	require.False(immutable.Writable())

	hidden := &Field{Name: "ref", HasGetter: true, HasWither: true}
	require.True(hidden.Readable())
	require.False(hidden.Writable())

	settable := &Field{Name: "ref", HasGetter: true, HasSetter: true}
	require.True(settable.Writable())
}

func checkTypes(t *testing.T, src string) *types.Package {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "model.go", src, 0)
	require.NoError(t, err)
	pkg, err := (&types.Config{}).Check("model", fset, []*ast.File{file}, nil)
	require.NoError(t, err)
	return pkg
}

const accessorModel = `package model

type Frozen struct {
	code string
	name string
	tags []string
	open bool
}

func (f *Frozen) Code() string { return f.code }

func (f *Frozen) WithCode(v string) *Frozen {
	c := *f
	c.code = v
	return &c
}

func (f *Frozen) Name() (string, error) { return f.name, nil }

func (f *Frozen) SetName(v string, n int) { f.name = v }

func (f *Frozen) WithName(v string) string { return v }

func (f *Frozen) SetTags(v []string) { f.tags = v }

func (f *Frozen) IsOpen() bool { return f.open }

func (f *Frozen) WithOpen(v bool) Frozen {
	c := *f
	c.open = v
	return c
}
`

func TestDiscoverAccessors(t *testing.T) {
	require := require.New(t)
	pkg := checkTypes(t, accessorModel)

	code := &Field{Name: "code", Type: "string"}
	discoverAccessors(pkg, "Frozen", code)
	require.True(code.HasGetter)
	require.Equal("Code", code.Getter)
	require.True(code.HasWither)
	require.Equal("WithCode", code.Wither)
	require.True(code.WitherPtr)

	open := &Field{Name: "open", Type: "bool"}
	discoverAccessors(pkg, "Frozen", open)
	require.True(open.HasGetter)
	require.Equal("IsOpen", open.Getter)
	require.True(open.HasWither)
	require.False(open.WitherPtr)

	tags := &Field{Name: "tags", Type: "[]string"}
	discoverAccessors(pkg, "Frozen", tags)
	require.True(tags.HasSetter)
	require.Equal("SetTags", tags.Setter)
}

func TestDiscoverAccessorsRejectsWrongSignatures(t *testing.T) {
	require := require.New(t)
	pkg := checkTypes(t, accessorModel)

	// Name() has a second result, SetName a second parameter and
	// WithName a non-owner result; none qualifies.
	name := &Field{Name: "name", Type: "string"}
	discoverAccessors(pkg, "Frozen", name)
	require.False(name.HasGetter)
	require.False(name.HasSetter)
	require.False(name.HasWither)
}

func TestSnapshotRoundTrip(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "cache", "schema.snap")

	entities := []*Entity{{
		Name:    "Customer",
		Package: "example.com/app/model",
		Fields: []*Field{
			{Name: "ID", MappedName: "id", Type: "string", Exported: true, ID: true},
			{Name: "Firstname", MappedName: "firstname", Type: "string", Exported: true},
		},
	}}

	require.NoError(WriteSnapshot(path, "abc123", entities))

	got, ok := ReadSnapshot(path, "abc123")
	require.True(ok)
	require.Equal(entities, got)

	// A different source hash invalidates the snapshot.
	_, ok = ReadSnapshot(path, "def456")
	require.False(ok)

	// So does a missing file.
	_, ok = ReadSnapshot(filepath.Join(dir, "missing.snap"), "abc123")
	require.False(ok)
}

func TestHashIsStableAndContentSensitive(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()

	write := func(name, content string) {
		require.NoError(writeFile(filepath.Join(dir, name), content))
	}
	write("model.go", "package model\n")

	h1, err := Hash(dir)
	require.NoError(err)
	h2, err := Hash(dir)
	require.NoError(err)
	require.Equal(h1, h2)

	// Test files never affect the hash.
	write("model_test.go", "package model\n")
	h3, err := Hash(dir)
	require.NoError(err)
	require.Equal(h1, h3)

	write("model.go", "package model\n\ntype T struct{}\n")
	h4, err := Hash(dir)
	require.NoError(err)
	require.NotEqual(h1, h4)
}

func TestNaming(t *testing.T) {
	require := require.New(t)
	require.Equal("created_at", Snake("CreatedAt"))
	require.Equal("CreatedAt", Pascal("created_at"))
	require.Equal("FirstName", Pascal("firstName"))
	require.Equal("Id", Pascal("id"))
}
