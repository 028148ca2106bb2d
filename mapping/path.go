package mapping

import (
	"strings"

	"github.com/syssam/remap"
)

// PropertyPath is an ordered, non-empty chain of persistent
// properties resolved from a dotted path expression, descending from
// a root entity through associations, collection elements and map
// values.
type PropertyPath struct {
	raw       string
	delimiter string
	segments  []*PersistentProperty
}

// Raw returns the original path expression.
func (p *PropertyPath) Raw() string { return p.raw }

// Properties returns a copy of the root-to-leaf property chain.
func (p *PropertyPath) Properties() []*PersistentProperty {
	out := make([]*PersistentProperty, len(p.segments))
	copy(out, p.segments)
	return out
}

// Leaf returns the last property of the chain.
func (p *PropertyPath) Leaf() *PersistentProperty {
	return p.segments[len(p.segments)-1]
}

// Len returns the number of segments.
func (p *PropertyPath) Len() int { return len(p.segments) }

// String returns the path in its mapped-name form.
func (p *PropertyPath) String() string {
	names := make([]string, len(p.segments))
	for i, s := range p.segments {
		names[i] = s.Name()
	}
	return strings.Join(names, p.delimiter)
}

// PersistentPropertyPath parses a path expression against the given
// root type. Every segment except the last must be an association so
// the resolution can descend; a segment naming no property of the
// current entity fails with PathError.
func (c *Context) PersistentPropertyPath(path string, root any) (*PropertyPath, error) {
	if path == "" {
		return nil, remap.NewInvalidArgumentError("path must not be empty")
	}
	entity, err := c.Get(root)
	if err != nil {
		return nil, err
	}
	segments := strings.Split(path, c.delimiter)
	resolved := make([]*PersistentProperty, 0, len(segments))
	for i, segment := range segments {
		if segment == "" {
			return nil, remap.NewPathError(path, segment, entity.Name())
		}
		prop, ok := entity.PersistentProperty(segment)
		if !ok {
			return nil, remap.NewPathError(path, segment, entity.Name())
		}
		resolved = append(resolved, prop)
		if i == len(segments)-1 {
			break
		}
		assoc := prop.Association()
		if assoc == nil {
			return nil, remap.NewPathError(path, segments[i+1], prop.TypeInfo().Name())
		}
		entity, err = c.Get(assoc.Target().Type())
		if err != nil {
			return nil, err
		}
	}
	return &PropertyPath{raw: path, delimiter: c.delimiter, segments: resolved}, nil
}
