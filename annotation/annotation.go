package annotation

import (
	"sort"
	"strings"
)

// Annotation is one resolved annotation instance: a name plus its
// attribute map. On domain structs annotations are declared as struct
// tags; the tag key is the annotation name and the tag value encodes
// the attributes.
type Annotation struct {
	Name       string
	Attributes map[string]string
}

// New returns an annotation with the given name and attributes.
func New(name string, attrs map[string]string) Annotation {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return Annotation{Name: name, Attributes: attrs}
}

// Parse decodes a struct tag value into an annotation. The first
// comma-separated token without '=' becomes the "value" attribute;
// remaining tokens are either key=value pairs or bare flags:
//
//	index:"primary,unique"      -> {value: primary, unique: ""}
//	remap:"firstname,id"        -> {value: firstname, id: ""}
func Parse(name, tagValue string) Annotation {
	attrs := map[string]string{}
	for i, token := range strings.Split(tagValue, ",") {
		if token == "" && i > 0 {
			continue
		}
		if k, v, ok := strings.Cut(token, "="); ok {
			attrs[k] = v
		} else if i == 0 {
			attrs["value"] = token
		} else {
			attrs[token] = ""
		}
	}
	return Annotation{Name: name, Attributes: attrs}
}

// Attribute returns the named attribute and whether it is present.
func (a Annotation) Attribute(name string) (string, bool) {
	v, ok := a.Attributes[name]
	return v, ok
}

// Value returns the "value" attribute, or the empty string.
func (a Annotation) Value() string { return a.Attributes["value"] }

// Has reports whether the named attribute is present, even if empty.
func (a Annotation) Has(name string) bool {
	_, ok := a.Attributes[name]
	return ok
}

// Equal reports structural equality: same name and attribute map.
func (a Annotation) Equal(other Annotation) bool {
	if a.Name != other.Name || len(a.Attributes) != len(other.Attributes) {
		return false
	}
	for k, v := range a.Attributes {
		ov, ok := other.Attributes[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}

// Merge merges annotation slices into a single map keyed by name.
// Structurally equal duplicates collapse; the first conflicting name
// is returned with ok == false so the caller can report both
// locations.
func Merge(sets ...[]Annotation) (merged map[string]Annotation, conflict string, ok bool) {
	merged = make(map[string]Annotation)
	for _, set := range sets {
		for _, a := range set {
			if existing, present := merged[a.Name]; present {
				if !existing.Equal(a) {
					return nil, a.Name, false
				}
				continue
			}
			merged[a.Name] = a
		}
	}
	return merged, "", true
}

// names returns the sorted key set of m for deterministic iteration.
func names(m map[string]Annotation) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
