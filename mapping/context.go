package mapping

import (
	"fmt"
	"reflect"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/remap"
	"github.com/syssam/remap/annotation"
	"github.com/syssam/remap/typeinfo"
)

// TagKey is the struct tag namespace driving mapping flags:
//
//	Field string `remap:"name,id,version,immutable,access=property,default=expr"`
//
// The first token overrides the mapped name; "-" marks the property
// transient. Every other tag key on the field becomes a direct
// annotation of the property.
const TagKey = "remap"

// Option configures a Context.
type Option func(*Context)

// WithComparator imposes a property ordering on every entity built by
// the context.
func WithComparator(cmp Comparator) Option {
	return func(c *Context) { c.comparator = cmp }
}

// WithDelimiter sets the property path separator. Default ".".
func WithDelimiter(d string) Option {
	return func(c *Context) {
		if d != "" {
			c.delimiter = d
		}
	}
}

// WithAccess sets the default access strategy for properties without
// an explicit access override.
func WithAccess(s AccessStrategy) Option {
	return func(c *Context) { c.access = s }
}

// WithAnnotationRegistry wires a composed-annotation registry other
// than the process-wide default.
func WithAnnotationRegistry(r *annotation.Registry) Option {
	return func(c *Context) { c.registry = r }
}

// WithCreator registers a factory function as the instance creator
// for the prototype's type. names declare the factory parameter names
// in order; a factory with one more input than names treats its first
// input as the implicit host parameter.
func WithCreator(prototype any, fn any, names ...string) Option {
	return func(c *Context) {
		t, err := resolveType(prototype)
		if err != nil {
			return
		}
		c.creators[t] = &factorySpec{fn: fn, names: names}
	}
}

// Context is the entry point of the metamodel: it builds, verifies
// and caches one PersistentEntity per domain type for its own
// lifetime. Safe for concurrent use; the first access to a type
// populates the cache exactly once.
type Context struct {
	entities sync.Map // reflect.Type -> *PersistentEntity
	group    singleflight.Group

	mu       sync.Mutex
	creators map[reflect.Type]*factorySpec

	comparator Comparator
	delimiter  string
	access     AccessStrategy
	registry   *annotation.Registry
}

// NewContext returns a context with the given options applied.
func NewContext(opts ...Option) *Context {
	c := &Context{
		delimiter: ".",
		registry:  annotation.Default(),
		creators:  make(map[reflect.Type]*factorySpec),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Delimiter returns the configured path separator.
func (c *Context) Delimiter() string { return c.delimiter }

// RegisterCreator registers a factory for the prototype's type after
// construction. Registration fails once the entity has been built, or
// when a creator is already registered (ambiguous creators are
// rejected, not resolved silently).
func (c *Context) RegisterCreator(prototype any, fn any, names ...string) error {
	t, err := resolveType(prototype)
	if err != nil {
		return err
	}
	if _, built := c.entities.Load(t); built {
		return remap.NewCreatorError(t.Name(), "entity metadata already built; register creators before first use")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, dup := c.creators[t]; dup {
		return remap.NewCreatorError(t.Name(), "ambiguous creators: a factory is already registered")
	}
	c.creators[t] = &factorySpec{fn: fn, names: names}
	return nil
}

// Get returns the entity metadata for the given type (a value, a
// pointer or a reflect.Type), building and verifying it on first
// access. Concurrent first access for the same type builds once; an
// entity that fails verification is not cached.
func (c *Context) Get(typ any) (*PersistentEntity, error) {
	t, err := resolveType(typ)
	if err != nil {
		return nil, err
	}
	ti := typeinfo.Of(t)
	if !ti.IsEntityCandidate() {
		return nil, remap.NewMappingError(fmt.Sprintf("type %s cannot be mapped as an entity", t), remap.ErrEntityNotFound)
	}
	if e, ok := c.entities.Load(t); ok {
		return e.(*PersistentEntity), nil
	}
	v, err, _ := c.group.Do(t.PkgPath()+"."+t.String(), func() (any, error) {
		if e, ok := c.entities.Load(t); ok {
			return e, nil
		}
		e, err := c.build(ti)
		if err != nil {
			return nil, err
		}
		if err := e.Verify(); err != nil {
			return nil, err
		}
		actual, _ := c.entities.LoadOrStore(t, e)
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*PersistentEntity), nil
}

// Lookup returns the entity metadata if the type is mappable,
// building it on demand, and false otherwise.
func (c *Context) Lookup(typ any) (*PersistentEntity, bool) {
	e, err := c.Get(typ)
	if err != nil {
		return nil, false
	}
	return e, true
}

// build populates an entity from the reflected members of its type.
func (c *Context) build(ti *typeinfo.TypeInfo) (*PersistentEntity, error) {
	t := ti.Actual().Type()
	e := newEntity(ti.Actual(), c.comparator)

	declared := declaredAnnotations(t)
	for _, fi := range collectFields(t) {
		p, err := c.buildProperty(t, fi, declared)
		if err != nil {
			return nil, err
		}
		if p == nil {
			continue
		}
		if err := e.AddPersistentProperty(p); err != nil {
			return nil, err
		}
	}
	// Name-based identifier fallback when nothing is flagged.
	if e.id == nil {
		if p, ok := e.index["id"]; ok && !p.transient {
			p.id = true
			e.id = p
		}
	}
	if aliased, ok := reflect.New(t).Interface().(remap.Aliased); ok {
		e.alias = aliased.TypeAlias()
	}
	c.mu.Lock()
	spec := c.creators[t]
	c.mu.Unlock()
	creator, err := discoverCreator(e, spec)
	if err != nil {
		return nil, err
	}
	e.creator = creator
	return e, nil
}

// buildProperty constructs the persistent property for one collected
// field, or returns nil to skip fields that cannot participate.
func (c *Context) buildProperty(owner reflect.Type, fi fieldInfo, declared map[string][]Annotation) (*PersistentProperty, error) {
	prop, err := newProperty(owner, fi.field, fi.index)
	if err != nil {
		// Unexported, accessor-less fields are not mappable.
		return nil, nil //nolint:nilerr
	}

	tag := annotation.Parse(TagKey, fi.field.Tag.Get(TagKey))
	name := tag.Value()
	if name == "" {
		name = snake(fi.field.Name)
	}
	p := &PersistentProperty{
		name:     name,
		prop:     prop,
		typeInfo: typeinfo.Of(fi.field.Type),
		access:   c.access,
	}
	if name == "-" {
		p.name = snake(fi.field.Name)
		p.transient = true
	}
	p.id = tag.Has("id")
	p.version = tag.Has("version")
	p.immutable = tag.Has("immutable")
	if expr, ok := tag.Attribute("default"); ok {
		p.expr, p.hasExpr = expr, true
	}
	if mode, ok := tag.Attribute("access"); ok {
		switch mode {
		case "field":
			p.access = AccessField
		case "property":
			p.access = AccessProperty
		default:
			return nil, remap.NewMappingError(
				fmt.Sprintf("invalid access mode %q on %s.%s", mode, owner.Name(), fi.field.Name), nil)
		}
	}

	direct := tagAnnotations(fi.field.Tag)
	merged, conflict, ok := annotation.Merge(direct, declared[p.name])
	if !ok {
		return nil, remap.NewAnnotationConflictError(owner.Name()+"."+p.name, conflict, "struct tag", "PropertyAnnotations()")
	}
	p.annotations = annotation.NewSet(merged, c.registry)
	p.association = detectAssociation(p)
	return p, nil
}

// declaredAnnotations collects programmatic annotations from the
// PropertyAnnotator capability, if the type implements it.
func declaredAnnotations(t reflect.Type) map[string][]Annotation {
	if annotator, ok := reflect.New(t).Interface().(PropertyAnnotator); ok {
		return annotator.PropertyAnnotations()
	}
	return nil
}

// fieldInfo pairs a struct field with its full index path.
type fieldInfo struct {
	field reflect.StructField
	index []int
}

// collectFields returns the mappable fields of t in declaration
// order, expanding anonymous embedded structs breadth-first so that
// directly declared fields shadow promoted ones.
func collectFields(t reflect.Type) []fieldInfo {
	type level struct {
		typ   reflect.Type
		index []int
	}
	var (
		out   []fieldInfo
		seen  = map[string]struct{}{}
		queue = []level{{typ: t}}
	)
	for len(queue) > 0 {
		var next []level
		for _, l := range queue {
			for i := 0; i < l.typ.NumField(); i++ {
				f := l.typ.Field(i)
				idx := append(append([]int{}, l.index...), i)
				if f.Anonymous {
					if f.Type.Kind() == reflect.Struct {
						next = append(next, level{typ: f.Type, index: idx})
					}
					continue
				}
				if _, shadowed := seen[f.Name]; shadowed {
					continue
				}
				seen[f.Name] = struct{}{}
				out = append(out, fieldInfo{field: f, index: idx})
			}
		}
		queue = next
	}
	return out
}

// tagAnnotations parses every struct tag key into a direct
// annotation. The tag syntax mirrors reflect.StructTag.
func tagAnnotations(tag reflect.StructTag) []Annotation {
	var out []Annotation
	raw := string(tag)
	for raw != "" {
		i := 0
		for i < len(raw) && raw[i] == ' ' {
			i++
		}
		raw = raw[i:]
		if raw == "" {
			break
		}
		i = 0
		for i < len(raw) && raw[i] > ' ' && raw[i] != ':' && raw[i] != '"' && raw[i] != 0x7f {
			i++
		}
		if i == 0 || i+1 >= len(raw) || raw[i] != ':' || raw[i+1] != '"' {
			break
		}
		name := raw[:i]
		raw = raw[i+1:]
		i = 1
		for i < len(raw) && raw[i] != '"' {
			if raw[i] == '\\' {
				i++
			}
			i++
		}
		if i >= len(raw) {
			break
		}
		quoted := raw[:i+1]
		raw = raw[i+1:]
		value, err := strconv.Unquote(quoted)
		if err != nil {
			continue
		}
		out = append(out, annotation.Parse(name, value))
	}
	return out
}

// resolveType normalizes a value, pointer or reflect.Type to the
// underlying struct type.
func resolveType(typ any) (reflect.Type, error) {
	if typ == nil {
		return nil, remap.NewInvalidArgumentError("type must not be nil")
	}
	t, ok := typ.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(typ)
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t, nil
}
