package load

import (
	"fmt"
	"go/ast"
	"go/types"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"
)

// TagKey is the struct tag namespace the loader recognizes. It must
// match the runtime mapping tag.
const TagKey = "remap"

// Entity describes one mapped struct discovered in a loaded package.
// It is the compiler-side counterpart of the runtime entity metadata,
// reduced to what code generation needs.
type Entity struct {
	Name    string   `msgpack:"name"`
	Package string   `msgpack:"package"` // import path of the declaring package
	Pos     string   `msgpack:"pos"`     // declaration position, for diagnostics
	Fields  []*Field `msgpack:"fields"`
}

// Field describes one mapped field of an entity.
type Field struct {
	Name       string `msgpack:"name"`        // Go field name
	MappedName string `msgpack:"mapped_name"` // tag-overridden property name
	Type       string `msgpack:"type"`        // Go type expression as written
	Exported   bool   `msgpack:"exported"`

	ID        bool   `msgpack:"id,omitempty"`
	Version   bool   `msgpack:"version,omitempty"`
	Transient bool   `msgpack:"transient,omitempty"`
	Immutable bool   `msgpack:"immutable,omitempty"`
	Default   string `msgpack:"default,omitempty"`

	HasGetter bool   `msgpack:"has_getter,omitempty"`
	HasSetter bool   `msgpack:"has_setter,omitempty"`
	HasWither bool   `msgpack:"has_wither,omitempty"`
	WitherPtr bool   `msgpack:"wither_ptr,omitempty"` // wither returns *T instead of T
	Getter    string `msgpack:"getter,omitempty"`
	Setter    string `msgpack:"setter,omitempty"`
	Wither    string `msgpack:"wither,omitempty"`
}

// Writable reports whether generated code can assign the field in
// place: an exported field or a setter, and the field is not marked
// immutable.
func (f *Field) Writable() bool {
	if f.Immutable {
		return false
	}
	return f.Exported || f.HasSetter
}

// Readable reports whether generated code can read the field.
func (f *Field) Readable() bool { return f.Exported || f.HasGetter }

// Load parses the Go package rooted at dir and returns the entities
// it declares: every struct type carrying at least one field in the
// remap tag namespace. Loading works on syntax and type information
// only; the schema package is never executed.
func Load(dir string) ([]*Entity, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo,
		Dir:  dir,
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		return nil, fmt.Errorf("load %s: package contains errors", dir)
	}
	var entities []*Entity
	for _, pkg := range pkgs {
		es, err := fromPackage(pkg)
		if err != nil {
			return nil, err
		}
		entities = append(entities, es...)
	}
	if len(entities) == 0 {
		return nil, fmt.Errorf("load %s: no mapped entities found", dir)
	}
	return entities, nil
}

func fromPackage(pkg *packages.Package) ([]*Entity, error) {
	var entities []*Entity
	for _, file := range pkg.Syntax {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok {
				continue
			}
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				st, ok := ts.Type.(*ast.StructType)
				if !ok {
					continue
				}
				entity := fromStruct(pkg, ts, st)
				if entity != nil {
					entities = append(entities, entity)
				}
			}
		}
	}
	return entities, nil
}

// fromStruct builds the entity descriptor for one struct declaration,
// or nil when the struct carries no mapped fields.
func fromStruct(pkg *packages.Package, ts *ast.TypeSpec, st *ast.StructType) *Entity {
	entity := &Entity{
		Name:    ts.Name.Name,
		Package: pkg.PkgPath,
		Pos:     pkg.Fset.Position(ts.Pos()).String(),
	}
	mapped := false
	for _, fld := range st.Fields.List {
		if len(fld.Names) == 0 {
			continue // embedded fields are flattened by the runtime
		}
		var tag reflect.StructTag
		if fld.Tag != nil {
			raw, err := strconv.Unquote(fld.Tag.Value)
			if err == nil {
				tag = reflect.StructTag(raw)
			}
		}
		if _, ok := tag.Lookup(TagKey); ok {
			mapped = true
		}
		for _, name := range fld.Names {
			f := newField(name.Name, exprString(fld.Type), tag)
			discoverAccessors(pkg.Types, ts.Name.Name, f)
			entity.Fields = append(entity.Fields, f)
		}
	}
	if !mapped {
		return nil
	}
	return entity
}

// newField decodes the remap tag into field flags, mirroring the
// runtime tag grammar.
func newField(name, typ string, tag reflect.StructTag) *Field {
	f := &Field{
		Name:     name,
		Type:     typ,
		Exported: ast.IsExported(name),
	}
	value, ok := tag.Lookup(TagKey)
	if !ok {
		f.MappedName = Snake(name)
		return f
	}
	tokens := strings.Split(value, ",")
	switch tokens[0] {
	case "":
		f.MappedName = Snake(name)
	case "-":
		f.MappedName = Snake(name)
		f.Transient = true
	default:
		f.MappedName = tokens[0]
	}
	for _, token := range tokens[1:] {
		switch {
		case token == "id":
			f.ID = true
		case token == "version":
			f.Version = true
		case token == "immutable":
			f.Immutable = true
		case strings.HasPrefix(token, "default="):
			f.Default = strings.TrimPrefix(token, "default=")
		}
	}
	return f
}

// discoverAccessors mirrors the runtime method discovery on the
// compile-time method set of *T. Candidates are matched by name and
// signature; a method with the right name but the wrong shape is
// ignored the same way the runtime ignores it.
func discoverAccessors(tpkg *types.Package, typeName string, f *Field) {
	obj := tpkg.Scope().Lookup(typeName)
	if obj == nil {
		return
	}
	named, ok := obj.Type().(*types.Named)
	if !ok {
		return
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return
	}
	var fieldType types.Type
	for i := 0; i < st.NumFields(); i++ {
		if st.Field(i).Name() == f.Name {
			fieldType = st.Field(i).Type()
			break
		}
	}
	if fieldType == nil {
		return
	}
	set := types.NewMethodSet(types.NewPointer(named))
	exported := Pascal(f.Name)
	getters := []string{"Get" + exported}
	if f.Name != exported {
		getters = append([]string{exported}, getters...)
	}
	if basic, ok := fieldType.Underlying().(*types.Basic); ok && basic.Kind() == types.Bool {
		getters = append(getters, "Is"+exported)
	}
	for _, name := range getters {
		if sig := methodSignature(set, name); sig != nil && isGetterSig(sig, fieldType) {
			f.HasGetter, f.Getter = true, name
			break
		}
	}
	if sig := methodSignature(set, "Set"+exported); sig != nil && isSetterSig(sig, fieldType) {
		f.HasSetter, f.Setter = true, "Set"+exported
	}
	if sig := methodSignature(set, "With"+exported); sig != nil {
		if ptr, ok := isWitherSig(sig, named, fieldType); ok {
			f.HasWither, f.Wither, f.WitherPtr = true, "With"+exported, ptr
		}
	}
}

func methodSignature(set *types.MethodSet, name string) *types.Signature {
	for i := 0; i < set.Len(); i++ {
		if m := set.At(i); m.Obj().Name() == name {
			if sig, ok := m.Obj().Type().(*types.Signature); ok {
				return sig
			}
		}
	}
	return nil
}

// isGetterSig reports whether sig is func() F for field type F.
func isGetterSig(sig *types.Signature, fieldType types.Type) bool {
	return sig.Params().Len() == 0 &&
		sig.Results().Len() == 1 &&
		types.Identical(sig.Results().At(0).Type(), fieldType)
}

// isSetterSig reports whether sig is func(F) for field type F.
func isSetterSig(sig *types.Signature, fieldType types.Type) bool {
	return sig.Params().Len() == 1 &&
		sig.Results().Len() == 0 &&
		types.Identical(sig.Params().At(0).Type(), fieldType)
}

// isWitherSig reports whether sig is func(F) T or func(F) *T for the
// owning type T and field type F. ptr distinguishes the two forms so
// generated writes use the matching assignment.
func isWitherSig(sig *types.Signature, owner *types.Named, fieldType types.Type) (ptr, ok bool) {
	if sig.Params().Len() != 1 || sig.Results().Len() != 1 {
		return false, false
	}
	if !types.Identical(sig.Params().At(0).Type(), fieldType) {
		return false, false
	}
	res := sig.Results().At(0).Type()
	if types.Identical(res, owner) {
		return false, true
	}
	if p, ok := res.(*types.Pointer); ok && types.Identical(p.Elem(), owner) {
		return true, true
	}
	return false, false
}

// exprString renders a field type expression back to source form.
func exprString(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.StarExpr:
		return "*" + exprString(e.X)
	case *ast.ArrayType:
		if e.Len == nil {
			return "[]" + exprString(e.Elt)
		}
		return "[" + exprString(e.Len) + "]" + exprString(e.Elt)
	case *ast.MapType:
		return "map[" + exprString(e.Key) + "]" + exprString(e.Value)
	case *ast.SelectorExpr:
		return exprString(e.X) + "." + e.Sel.Name
	case *ast.BasicLit:
		return e.Value
	case *ast.InterfaceType:
		return "any"
	default:
		return fmt.Sprintf("%T", expr)
	}
}
