package gen

import (
	"bytes"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/remap/compiler/load"
)

// Import paths of the runtime packages the generated code binds to.
const (
	remapPkg       = "github.com/syssam/remap"
	accessorPkg    = "github.com/syssam/remap/accessor"
	instantiatePkg = "github.com/syssam/remap/instantiate"
	mappingPkg     = "github.com/syssam/remap/mapping"
)

// Generator renders one generated file per entity: a compiled
// property accessor, a compiled instantiator, and the init() call
// registering both. Generated files live in the entity's own package.
//
// Generated writes assert the exact field type; values of other types
// fail, and cross-type coercion stays with the converting accessor.
type Generator struct {
	cfg *Config
}

// NewGenerator returns a generator for the given configuration.
func NewGenerator(cfg *Config) *Generator {
	return &Generator{cfg: cfg}
}

// FileName returns the output file name for an entity.
func (g *Generator) FileName(e *load.Entity) string {
	return load.Snake(e.Name) + "_remap.go"
}

// Source renders the generated file for one entity.
func (g *Generator) Source(e *load.Entity) (string, error) {
	var buf bytes.Buffer
	if err := g.file(e).Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (g *Generator) file(e *load.Entity) *jen.File {
	f := jen.NewFile(g.cfg.Package)
	f.HeaderComment("Code generated by remapgen. DO NOT EDIT.")
	if g.cfg.Header != "" {
		f.HeaderComment(g.cfg.Header)
	}
	g.accessorType(f, e)
	g.accessorCtor(f, e)
	g.beanMethod(f, e)
	g.propertyMethod(f, e)
	g.setPropertyMethod(f, e)
	g.instantiator(f, e)
	g.initFunc(f, e)
	return f
}

func (g *Generator) accessorName(e *load.Entity) string {
	return unexport(e.Name) + "Accessor"
}

func (g *Generator) ctorName(e *load.Entity) string {
	return "new" + e.Name + "Accessor"
}

func (g *Generator) instantiatorName(e *load.Entity) string {
	return "new" + e.Name + "Instance"
}

func (g *Generator) accessorType(f *jen.File, e *load.Entity) {
	f.Type().Id(g.accessorName(e)).Struct(
		jen.Id("entity").Op("*").Qual(mappingPkg, "PersistentEntity"),
		jen.Id("bean").Op("*").Id(e.Name),
	)
}

func (g *Generator) accessorCtor(f *jen.File, e *load.Entity) {
	f.Func().Id(g.ctorName(e)).
		Params(
			jen.Id("e").Op("*").Qual(mappingPkg, "PersistentEntity"),
			jen.Id("bean").Id("any"),
		).
		Params(jen.Qual(accessorPkg, "PropertyAccessor"), jen.Error()).
		Block(
			jen.List(jen.Id("b"), jen.Id("ok")).Op(":=").Id("bean").Assert(jen.Op("*").Id(e.Name)),
			jen.If(jen.Op("!").Id("ok")).Block(
				jen.Return(jen.Nil(), jen.Qual(remapPkg, "NewInvalidArgumentError").Call(
					jen.Lit("bean must be a non-nil *"+e.Name+", got %T"), jen.Id("bean"),
				)),
			),
			jen.Return(jen.Op("&").Id(g.accessorName(e)).Values(jen.Dict{
				jen.Id("entity"): jen.Id("e"),
				jen.Id("bean"):   jen.Id("b"),
			}), jen.Nil()),
		)
}

func (g *Generator) beanMethod(f *jen.File, e *load.Entity) {
	f.Func().Params(jen.Id("a").Op("*").Id(g.accessorName(e))).
		Id("Bean").Params().Id("any").
		Block(jen.Return(jen.Id("a").Dot("bean")))
}

func (g *Generator) propertyMethod(f *jen.File, e *load.Entity) {
	var cases []jen.Code
	for _, fld := range e.Fields {
		if !fld.Readable() {
			continue
		}
		read := jen.Id("a").Dot("bean").Dot(fld.Name)
		if !fld.Exported {
			read = jen.Id("a").Dot("bean").Dot(fld.Getter).Call()
		}
		cases = append(cases, jen.Case(jen.Lit(fld.MappedName)).Block(
			jen.Return(read, jen.Nil()),
		))
	}
	f.Func().Params(jen.Id("a").Op("*").Id(g.accessorName(e))).
		Id("Property").
		Params(jen.Id("p").Op("*").Qual(mappingPkg, "PersistentProperty")).
		Params(jen.Id("any"), jen.Error()).
		Block(
			jen.Switch(jen.Id("p").Dot("Name").Call()).Block(cases...),
			jen.Return(jen.Nil(), jen.Qual(remapPkg, "NewUnsupportedError").Call(
				jen.Lit("get"), jen.Id("p").Dot("Name").Call(), jen.Lit(e.Name),
			)),
		)
}

func (g *Generator) setPropertyMethod(f *jen.File, e *load.Entity) {
	var cases []jen.Code
	for _, fld := range e.Fields {
		write := g.writeStmt(e, fld)
		if write == nil {
			continue
		}
		cases = append(cases, jen.Case(jen.Lit(fld.MappedName)).Block(
			jen.List(jen.Id("v"), jen.Id("ok")).Op(":=").Id("value").Assert(jen.Id(fld.Type)),
			jen.If(jen.Op("!").Id("ok")).Block(
				jen.Return(jen.Qual(remapPkg, "NewInvalidArgumentError").Call(
					jen.Lit("cannot assign value of type %T to property %q of "+e.Name),
					jen.Id("value"), jen.Id("p").Dot("Name").Call(),
				)),
			),
			write,
			jen.Return(jen.Nil()),
		))
	}
	f.Func().Params(jen.Id("a").Op("*").Id(g.accessorName(e))).
		Id("SetProperty").
		Params(
			jen.Id("p").Op("*").Qual(mappingPkg, "PersistentProperty"),
			jen.Id("value").Id("any"),
		).
		Error().
		Block(
			jen.Switch(jen.Id("p").Dot("Name").Call()).Block(cases...),
			jen.Return(jen.Qual(remapPkg, "NewUnsupportedError").Call(
				jen.Lit("set"), jen.Id("p").Dot("Name").Call(), jen.Lit(e.Name),
			)),
		)
}

// writeStmt renders the write for one field: direct assignment,
// setter call, or wither with accessor rebinding. Nil when the field
// has no generatable write path.
func (g *Generator) writeStmt(e *load.Entity, fld *load.Field) jen.Code {
	switch {
	case fld.Writable() && fld.Exported && !fld.HasSetter:
		return jen.Id("a").Dot("bean").Dot(fld.Name).Op("=").Id("v")
	case fld.Writable() && fld.HasSetter:
		return jen.Id("a").Dot("bean").Dot(fld.Setter).Call(jen.Id("v"))
	case fld.HasWither && fld.WitherPtr:
		return jen.Id("a").Dot("bean").Op("=").Id("a").Dot("bean").Dot(fld.Wither).Call(jen.Id("v"))
	case fld.HasWither:
		return jen.Block(
			jen.Id("next").Op(":=").Id("a").Dot("bean").Dot(fld.Wither).Call(jen.Id("v")),
			jen.Id("a").Dot("bean").Op("=").Op("&").Id("next"),
		)
	}
	return nil
}

func (g *Generator) instantiator(f *jen.File, e *load.Entity) {
	var cases []jen.Code
	for _, fld := range e.Fields {
		if fld.Transient {
			continue
		}
		var assign jen.Code
		switch {
		case fld.Writable() && fld.Exported && !fld.HasSetter:
			assign = jen.Id("b").Dot(fld.Name).Op("=").Id("v")
		case fld.Writable() && fld.HasSetter:
			assign = jen.Id("b").Dot(fld.Setter).Call(jen.Id("v"))
		case fld.HasWither && fld.WitherPtr:
			assign = jen.Id("b").Op("=").Id("b").Dot(fld.Wither).Call(jen.Id("v"))
		case fld.HasWither:
			assign = jen.Op("*").Id("b").Op("=").Id("b").Dot(fld.Wither).Call(jen.Id("v"))
		default:
			continue
		}
		cases = append(cases, jen.Case(jen.Lit(fld.MappedName)).Block(
			jen.If(jen.List(jen.Id("v"), jen.Id("ok")).Op(":=").Id("value").Assert(jen.Id(fld.Type)), jen.Id("ok")).Block(assign),
		))
	}
	f.Func().Id(g.instantiatorName(e)).
		Params(
			jen.Id("e").Op("*").Qual(mappingPkg, "PersistentEntity"),
			jen.Id("provider").Qual(instantiatePkg, "ValueProvider"),
		).
		Params(jen.Id("any"), jen.Error()).
		Block(
			jen.Id("b").Op(":=").Op("&").Id(e.Name).Values(),
			jen.For(jen.List(jen.Id("_"), jen.Id("param")).Op(":=").Range().Id("e").Dot("Creator").Call().Dot("Parameters").Call()).Block(
				jen.List(jen.Id("value"), jen.Err()).Op(":=").Id("provider").Dot("ParameterValue").Call(jen.Id("param")),
				jen.If(jen.Err().Op("!=").Nil()).Block(
					jen.If(jen.Qual("errors", "Is").Call(jen.Err(), jen.Qual(remapPkg, "ErrNoValue"))).Block(jen.Continue()),
					jen.Return(jen.Nil(), jen.Qual(remapPkg, "NewInstantiationError").Call(
						jen.Id("e").Dot("Name").Call(), jen.Id("e").Dot("Creator").Call().Dot("Describe").Call(), jen.Nil(), jen.Err(),
					)),
				),
				jen.Switch(jen.Id("param").Dot("Name").Call()).Block(cases...),
			),
			jen.Return(jen.Id("b"), jen.Nil()),
		)
}

func (g *Generator) initFunc(f *jen.File, e *load.Entity) {
	f.Func().Id("init").Params().Block(
		jen.Qual(accessorPkg, "Register").Call(
			jen.Op("&").Id(e.Name).Values(), jen.Id(g.ctorName(e)),
		),
		jen.Qual(instantiatePkg, "Register").Call(
			jen.Op("&").Id(e.Name).Values(), jen.Id(g.instantiatorName(e)),
		),
	)
}

// unexport lowercases the leading rune of an identifier.
func unexport(name string) string {
	if name == "" {
		return name
	}
	return string(name[0]|0x20) + name[1:]
}
