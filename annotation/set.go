package annotation

import (
	"sync"
	"sync/atomic"
)

// absent marks a memoized negative lookup so repeated Find calls for
// an unknown annotation never re-scan.
type absent struct{}

// Set is the per-property annotation cache. Directly present
// annotations are stored eagerly; annotations reachable only through
// the composed-annotation registry are resolved lazily on first
// lookup and memoized, including absence.
type Set struct {
	direct   map[string]Annotation
	order    []string // deterministic scan order over direct names
	registry *Registry
	resolved sync.Map // name -> Annotation | absent

	metaScans atomic.Int64
}

// NewSet builds a set over eagerly merged direct annotations. The
// registry may be nil, in which case only direct annotations resolve.
func NewSet(direct map[string]Annotation, registry *Registry) *Set {
	if direct == nil {
		direct = map[string]Annotation{}
	}
	if registry == nil {
		registry = defaultRegistry
	}
	return &Set{direct: direct, order: names(direct), registry: registry}
}

// Direct returns the directly present annotations in name order.
func (s *Set) Direct() []Annotation {
	out := make([]Annotation, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.direct[name])
	}
	return out
}

// Find returns the annotation with the given name, resolving composed
// annotations transitively. Direct hits are O(1); the first composed
// lookup for a name scans once and memoizes the result or its absence.
func (s *Set) Find(name string) (Annotation, bool) {
	if a, ok := s.direct[name]; ok {
		return a, true
	}
	if cached, ok := s.resolved.Load(name); ok {
		if a, hit := cached.(Annotation); hit {
			return a, true
		}
		return Annotation{}, false
	}
	a, found := s.scan(name)
	if found {
		actual, _ := s.resolved.LoadOrStore(name, a)
		if hit, ok := actual.(Annotation); ok {
			return hit, true
		}
	} else {
		s.resolved.LoadOrStore(name, absent{})
	}
	return a, found
}

// Has reports whether the annotation is present, directly or composed.
func (s *Set) Has(name string) bool {
	_, ok := s.Find(name)
	return ok
}

// scan walks the implied-annotation closure of every direct
// annotation, breadth first, returning the first match by name.
func (s *Set) scan(name string) (Annotation, bool) {
	s.metaScans.Add(1)
	seen := map[string]struct{}{}
	queue := make([]Annotation, 0, len(s.order))
	for _, n := range s.order {
		queue = append(queue, s.direct[n])
		seen[n] = struct{}{}
	}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, implied := range s.registry.Implied(next.Name) {
			if implied.Name == name {
				return implied, true
			}
			if _, dup := seen[implied.Name]; dup {
				continue
			}
			seen[implied.Name] = struct{}{}
			queue = append(queue, implied)
		}
	}
	return Annotation{}, false
}
