package annotation

import "sync"

// Registry records composed annotations: an annotation name that, when
// present, implies further annotations. Lookups through Set resolve
// implied annotations transitively, so a composed annotation can build
// on other composed annotations.
type Registry struct {
	mu      sync.RWMutex
	implied map[string][]Annotation
}

// NewRegistry returns an empty composed-annotation registry.
func NewRegistry() *Registry {
	return &Registry{implied: make(map[string][]Annotation)}
}

// Compose declares that the named annotation implies the given
// annotations. Repeated calls append.
func (r *Registry) Compose(name string, implied ...Annotation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.implied[name] = append(r.implied[name], implied...)
}

// Implied returns a copy of the annotations implied by name.
func (r *Registry) Implied(name string) []Annotation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	implied := r.implied[name]
	if len(implied) == 0 {
		return nil
	}
	out := make([]Annotation, len(implied))
	copy(out, implied)
	return out
}

// defaultRegistry backs the package-level Compose, shared by contexts
// that are not configured with their own registry.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Compose declares a composed annotation on the default registry.
func Compose(name string, implied ...Annotation) {
	defaultRegistry.Compose(name, implied...)
}
