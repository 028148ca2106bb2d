package accessor

import (
	"fmt"
	"reflect"

	"github.com/syssam/remap"
	"github.com/syssam/remap/mapping"
)

// NullHandling controls what happens when an intermediate path
// segment holds a nil value during a path write or read.
type NullHandling uint8

const (
	// NullsRaise fails the operation on a nil intermediate. Default.
	NullsRaise NullHandling = iota
	// NullsSkip silently stops descending and performs no write.
	// Intermediates are never auto-vivified.
	NullsSkip
)

// PathOption configures one path operation.
type PathOption func(*pathConfig)

type pathConfig struct {
	nulls NullHandling
}

// SkipNulls makes nil intermediates end the traversal silently.
func SkipNulls() PathOption {
	return func(c *pathConfig) { c.nulls = NullsSkip }
}

// WithNullHandling sets the null policy explicitly.
func WithNullHandling(n NullHandling) PathOption {
	return func(c *pathConfig) { c.nulls = n }
}

// PathAccessor propagates values across a whole property path,
// fanning out over collection elements and map values at intermediate
// segments.
type PathAccessor struct {
	entity *mapping.PersistentEntity
	bean   reflect.Value
}

// NewPathAccessor binds a path accessor to the given root bean, which
// must be a non-nil pointer to the entity type.
func NewPathAccessor(e *mapping.PersistentEntity, bean any) (*PathAccessor, error) {
	v, err := checkBean(e, bean)
	if err != nil {
		return nil, err
	}
	return &PathAccessor{entity: e, bean: v}, nil
}

// Bean returns the currently bound root instance.
func (a *PathAccessor) Bean() any { return a.bean.Interface() }

// SetProperty writes the value at the leaf of the path for every
// reachable instance: each intermediate collection fans out over its
// elements and each intermediate map over its values. Nil
// intermediates follow the configured null policy. Immutable
// intermediates are updated by copy-back through their withers.
func (a *PathAccessor) SetProperty(path *mapping.PropertyPath, value any, opts ...PathOption) error {
	cfg := pathConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	segs := path.Properties()
	if err := a.checkRoot(path, segs); err != nil {
		return err
	}
	replacement, replaced, _, err := setSegments(a.bean, segs, value, cfg)
	if err != nil {
		return err
	}
	if replaced {
		ptr := reflect.New(replacement.Type())
		ptr.Elem().Set(replacement)
		a.bean = ptr
	}
	return nil
}

// Property reads the value at the leaf of the path. Collection and
// map intermediates are ambiguous for reads and are rejected; nil
// intermediates follow the null policy (skip yields nil).
func (a *PathAccessor) Property(path *mapping.PropertyPath, opts ...PathOption) (any, error) {
	cfg := pathConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	segs := path.Properties()
	if err := a.checkRoot(path, segs); err != nil {
		return nil, err
	}
	cur := a.bean
	for i, p := range segs {
		v, err := p.Read(cur)
		if err != nil {
			return nil, err
		}
		if i == len(segs)-1 {
			if !v.IsValid() {
				return nil, nil
			}
			return v.Interface(), nil
		}
		switch v.Kind() {
		case reflect.Pointer:
			if v.IsNil() {
				if cfg.nulls == NullsSkip {
					return nil, nil
				}
				return nil, errNullIntermediate(path, p)
			}
			cur = v
		case reflect.Struct:
			cur = v
		default:
			return nil, remap.NewUnsupportedError("get", p.Name(), "collection segment of path "+path.Raw())
		}
	}
	return nil, nil
}

func (a *PathAccessor) checkRoot(path *mapping.PropertyPath, segs []*mapping.PersistentProperty) error {
	if len(segs) == 0 {
		return remap.NewInvalidArgumentError("path must not be empty")
	}
	if segs[0].Owner().Type() != a.entity.Type() {
		return remap.NewInvalidArgumentError("path %q starts at %s, not %s",
			path.Raw(), segs[0].Owner().Name(), a.entity.Name())
	}
	return nil
}

// setSegments recursively applies the leaf write under v, which must
// be a pointer to struct or an addressable struct value. It returns a
// replacement value when an immutable update produced a new instance
// that the caller must copy back, plus whether any write happened.
func setSegments(v reflect.Value, segs []*mapping.PersistentProperty, value any, cfg pathConfig) (replacement reflect.Value, replaced, wrote bool, err error) {
	structVal := v
	if structVal.Kind() == reflect.Pointer {
		structVal = structVal.Elem()
	}
	p := segs[0]
	if len(segs) == 1 {
		return setLeaf(structVal, p, value)
	}

	cur, err := p.Read(structVal.Addr())
	if err != nil {
		return reflect.Value{}, false, false, err
	}
	return descend(structVal, p, cur, segs, value, cfg)
}

// setLeaf performs the terminal write on an addressable struct.
func setLeaf(structVal reflect.Value, p *mapping.PersistentProperty, value any) (reflect.Value, bool, bool, error) {
	switch {
	case p.CanWriteInPlace():
		if err := p.WriteInPlace(structVal.Addr(), reflect.ValueOf(value)); err != nil {
			return reflect.Value{}, false, false, err
		}
		return reflect.Value{}, false, true, nil
	case p.HasWither():
		next, err := p.ApplyWither(structVal.Addr(), reflect.ValueOf(value))
		if err != nil {
			return reflect.Value{}, false, false, err
		}
		return next, true, true, nil
	default:
		return reflect.Value{}, false, false, remap.NewUnsupportedError("set", p.Name(), p.Owner().Name())
	}
}

// descend fans the write out through one intermediate segment.
func descend(structVal reflect.Value, p *mapping.PersistentProperty, cur reflect.Value, segs []*mapping.PersistentProperty, value any, cfg pathConfig) (reflect.Value, bool, bool, error) {
	rest := segs[1:]
	switch cur.Kind() {
	case reflect.Pointer:
		if cur.IsNil() {
			if cfg.nulls == NullsSkip {
				return reflect.Value{}, false, false, nil
			}
			return reflect.Value{}, false, false, errNullIntermediateSeg(p)
		}
		nv, replaced, wrote, err := setSegments(cur, rest, value, cfg)
		if err != nil {
			return reflect.Value{}, false, false, err
		}
		if replaced {
			// The pointee is shared; writing through the pointer
			// makes the replacement visible to the parent.
			cur.Elem().Set(nv)
		}
		return reflect.Value{}, false, wrote, nil

	case reflect.Struct:
		if cur.CanAddr() {
			nv, replaced, wrote, err := setSegments(cur.Addr(), rest, value, cfg)
			if err != nil {
				return reflect.Value{}, false, false, err
			}
			if replaced {
				cur.Set(nv)
			}
			return reflect.Value{}, false, wrote, nil
		}
		// Getter-produced copy: mutate the copy, then push it back
		// up through the parent property.
		work := reflect.New(cur.Type()).Elem()
		work.Set(cur)
		nv, replaced, wrote, err := setSegments(work.Addr(), rest, value, cfg)
		if err != nil {
			return reflect.Value{}, false, false, err
		}
		if !wrote {
			return reflect.Value{}, false, false, nil
		}
		if replaced {
			work = nv
		}
		return writeBack(structVal, p, work)

	case reflect.Slice, reflect.Array:
		wroteAny := false
		for i := 0; i < cur.Len(); i++ {
			elem := cur.Index(i)
			wrote, err := setElement(elem, rest, value, cfg)
			if err != nil {
				return reflect.Value{}, false, false, err
			}
			wroteAny = wroteAny || wrote
		}
		if cur.Kind() == reflect.Array && !cur.CanAddr() && wroteAny {
			return writeBack(structVal, p, cur)
		}
		return reflect.Value{}, false, wroteAny, nil

	case reflect.Map:
		wroteAny := false
		for _, key := range cur.MapKeys() {
			mv := cur.MapIndex(key)
			if mv.Kind() == reflect.Pointer {
				wrote, err := setElement(mv, rest, value, cfg)
				if err != nil {
					return reflect.Value{}, false, false, err
				}
				wroteAny = wroteAny || wrote
				continue
			}
			work := reflect.New(mv.Type()).Elem()
			work.Set(mv)
			nv, replaced, wrote, err := setSegments(work.Addr(), rest, value, cfg)
			if err != nil {
				return reflect.Value{}, false, false, err
			}
			if !wrote {
				continue
			}
			if replaced {
				work = nv
			}
			cur.SetMapIndex(key, work)
			wroteAny = true
		}
		return reflect.Value{}, false, wroteAny, nil
	}
	return reflect.Value{}, false, false, remap.NewUnsupportedError("set", p.Name(), p.Owner().Name())
}

// setElement applies the remaining segments to one collection element
// or pointer-valued map entry.
func setElement(elem reflect.Value, rest []*mapping.PersistentProperty, value any, cfg pathConfig) (bool, error) {
	if elem.Kind() == reflect.Pointer {
		if elem.IsNil() {
			if cfg.nulls == NullsSkip {
				return false, nil
			}
			return false, errNullIntermediateSeg(rest[0])
		}
		nv, replaced, wrote, err := setSegments(elem, rest, value, cfg)
		if err != nil {
			return false, err
		}
		if replaced {
			elem.Elem().Set(nv)
		}
		return wrote, nil
	}
	if elem.CanAddr() {
		nv, replaced, wrote, err := setSegments(elem.Addr(), rest, value, cfg)
		if err != nil {
			return false, err
		}
		if replaced {
			elem.Set(nv)
		}
		return wrote, nil
	}
	// Unaddressable element (array copy): work on a copy; the caller
	// writes the containing array back.
	work := reflect.New(elem.Type()).Elem()
	work.Set(elem)
	_, _, wrote, err := setSegments(work.Addr(), rest, value, cfg)
	return wrote, err
}

// writeBack pushes an updated intermediate value into its parent
// property, via in-place write or wither.
func writeBack(structVal reflect.Value, p *mapping.PersistentProperty, updated reflect.Value) (reflect.Value, bool, bool, error) {
	if p.CanWriteInPlace() {
		if err := p.WriteInPlace(structVal.Addr(), updated); err != nil {
			return reflect.Value{}, false, false, err
		}
		return reflect.Value{}, false, true, nil
	}
	if p.HasWither() {
		next, err := p.ApplyWither(structVal.Addr(), updated)
		if err != nil {
			return reflect.Value{}, false, false, err
		}
		return next, true, true, nil
	}
	return reflect.Value{}, false, false, remap.NewUnsupportedError("set", p.Name(), p.Owner().Name())
}

func errNullIntermediate(path *mapping.PropertyPath, p *mapping.PersistentProperty) error {
	return remap.NewMappingError(
		fmt.Sprintf("cannot traverse path %q: intermediate property %q is nil", path.Raw(), p.Name()), nil)
}

func errNullIntermediateSeg(p *mapping.PersistentProperty) error {
	return remap.NewMappingError(
		fmt.Sprintf("cannot traverse path: intermediate value before %q is nil", p.Name()), nil)
}
