package remap

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrMapping is the class of unrecoverable, structural problems
	// discovered while building entity, property or creator metadata.
	ErrMapping = errors.New("remap: mapping error")

	// ErrEntityNotFound is returned when a type has no usable entity
	// metadata (non-struct, simple type, or failed verification).
	ErrEntityNotFound = errors.New("remap: entity not found")

	// ErrNoValue is returned by parameter value providers that cannot
	// supply a value for a parameter, allowing its default expression
	// to apply instead.
	ErrNoValue = errors.New("remap: no value for parameter")
)

// MappingError represents a structural metadata problem. More specific
// errors (DuplicateIDError, PathError, CreatorError, ...) match it via
// errors.Is, so callers can handle the whole class at once.
type MappingError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e *MappingError) Error() string {
	if e.wrap != nil {
		return fmt.Sprintf("remap: %s: %v", e.msg, e.wrap)
	}
	return "remap: " + e.msg
}

// Unwrap returns the underlying error.
func (e *MappingError) Unwrap() error { return e.wrap }

// Is reports whether the target error matches ErrMapping.
func (e *MappingError) Is(err error) bool { return err == ErrMapping }

// NewMappingError returns a new MappingError with the given message.
func NewMappingError(msg string, wrap error) error {
	return &MappingError{msg: msg, wrap: wrap}
}

// IsMappingError returns true if the error belongs to the mapping
// error class.
func IsMappingError(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrMapping)
}

// DuplicateIDError is returned when a second identifier property is
// added to an entity that already has one. The entity keeps its first
// identifier.
type DuplicateIDError struct {
	Entity   string // Entity type name
	Existing string // Name of the identifier property already set
	Added    string // Name of the rejected property
}

// Error returns the error string.
func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("remap: attempt to add id property %q to %s but already have property %q registered as id; check your mapping configuration",
		e.Added, e.Entity, e.Existing)
}

// Is reports whether the target error matches ErrMapping.
func (e *DuplicateIDError) Is(err error) bool { return err == ErrMapping }

// NewDuplicateIDError returns a new DuplicateIDError.
func NewDuplicateIDError(entity, existing, added string) *DuplicateIDError {
	return &DuplicateIDError{Entity: entity, Existing: existing, Added: added}
}

// IsDuplicateID returns true if the error is a DuplicateIDError.
func IsDuplicateID(err error) bool {
	if err == nil {
		return false
	}
	var e *DuplicateIDError
	return errors.As(err, &e)
}

// PathError is returned when a property path segment cannot be
// resolved against an entity.
type PathError struct {
	Path    string // Full path expression
	Segment string // Segment that failed to resolve
	Entity  string // Entity the segment was resolved against
}

// Error returns the error string.
func (e *PathError) Error() string {
	return fmt.Sprintf("remap: no property %q found on %s to resolve path %q", e.Segment, e.Entity, e.Path)
}

// Is reports whether the target error matches ErrMapping.
func (e *PathError) Is(err error) bool { return err == ErrMapping }

// NewPathError returns a new PathError.
func NewPathError(path, segment, entity string) *PathError {
	return &PathError{Path: path, Segment: segment, Entity: entity}
}

// IsPathError returns true if the error is a PathError.
func IsPathError(err error) bool {
	if err == nil {
		return false
	}
	var e *PathError
	return errors.As(err, &e)
}

// CreatorError is returned when instance creator discovery fails:
// an unusable registered factory, an ambiguous registration, or no
// usable creator at all.
type CreatorError struct {
	Type   string // Entity type name
	Reason string // Why discovery failed
}

// Error returns the error string.
func (e *CreatorError) Error() string {
	return fmt.Sprintf("remap: no usable instance creator for %s: %s", e.Type, e.Reason)
}

// Is reports whether the target error matches ErrMapping.
func (e *CreatorError) Is(err error) bool { return err == ErrMapping }

// NewCreatorError returns a new CreatorError.
func NewCreatorError(typ, reason string) *CreatorError {
	return &CreatorError{Type: typ, Reason: reason}
}

// IsCreatorError returns true if the error is a CreatorError.
func IsCreatorError(err error) bool {
	if err == nil {
		return false
	}
	var e *CreatorError
	return errors.As(err, &e)
}

// AnnotationConflictError is returned when the same annotation is
// present on two locations of one property with different attributes.
type AnnotationConflictError struct {
	Property   string // Qualified property name (Type.property)
	Annotation string // Annotation name
	Locations  [2]string
}

// Error returns the error string.
func (e *AnnotationConflictError) Error() string {
	return fmt.Sprintf("remap: ambiguous mapping: annotation %q declared on %s and %s of %s with different attributes",
		e.Annotation, e.Locations[0], e.Locations[1], e.Property)
}

// Is reports whether the target error matches ErrMapping.
func (e *AnnotationConflictError) Is(err error) bool { return err == ErrMapping }

// NewAnnotationConflictError returns a new AnnotationConflictError.
func NewAnnotationConflictError(property, name, loc1, loc2 string) *AnnotationConflictError {
	return &AnnotationConflictError{Property: property, Annotation: name, Locations: [2]string{loc1, loc2}}
}

// IsAnnotationConflict returns true if the error is an AnnotationConflictError.
func IsAnnotationConflict(err error) bool {
	if err == nil {
		return false
	}
	var e *AnnotationConflictError
	return errors.As(err, &e)
}

// InstantiationError wraps any failure during instance construction.
// It always carries the entity type, the creator that was attempted and
// the resolved argument list, so failures are diagnosable without
// re-deriving them.
type InstantiationError struct {
	Type    string // Entity type name
	Creator string // Creator description (kind and signature)
	Args    []any  // Resolved argument list at the time of failure
	Err     error  // Original cause, never discarded
}

// Error returns the error string.
func (e *InstantiationError) Error() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = fmt.Sprintf("%v", a)
	}
	return fmt.Sprintf("remap: failed to instantiate %s using %s with arguments [%s]: %v",
		e.Type, e.Creator, strings.Join(args, ","), e.Err)
}

// Unwrap returns the underlying error.
func (e *InstantiationError) Unwrap() error { return e.Err }

// NewInstantiationError returns a new InstantiationError.
func NewInstantiationError(typ, creator string, args []any, err error) *InstantiationError {
	return &InstantiationError{Type: typ, Creator: creator, Args: args, Err: err}
}

// IsInstantiationError returns true if the error is an InstantiationError.
func IsInstantiationError(err error) bool {
	if err == nil {
		return false
	}
	var e *InstantiationError
	return errors.As(err, &e)
}

// UnsupportedError is returned for legal-but-unperformable operations:
// writing a property with no setter and no wither, or accessing a
// property the entity does not map. These are programmer errors, not
// data errors, and are never retried.
type UnsupportedError struct {
	Op       string // Operation (e.g. "set", "get")
	Property string // Property name
	Type     string // Entity type name
}

// Error returns the error string.
func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("remap: cannot %s property %q on %s", e.Op, e.Property, e.Type)
}

// NewUnsupportedError returns a new UnsupportedError.
func NewUnsupportedError(op, property, typ string) *UnsupportedError {
	return &UnsupportedError{Op: op, Property: property, Type: typ}
}

// IsUnsupported returns true if the error is an UnsupportedError.
func IsUnsupported(err error) bool {
	if err == nil {
		return false
	}
	var e *UnsupportedError
	return errors.As(err, &e)
}

// InvalidArgumentError is returned for contract violations at the API
// boundary (nil bean, nil type, parameter-count mismatch). Detected
// before any effect takes place.
type InvalidArgumentError struct {
	msg string
}

// Error returns the error string.
func (e *InvalidArgumentError) Error() string {
	return "remap: " + e.msg
}

// NewInvalidArgumentError returns a new InvalidArgumentError.
func NewInvalidArgumentError(format string, args ...any) *InvalidArgumentError {
	return &InvalidArgumentError{msg: fmt.Sprintf(format, args...)}
}

// IsInvalidArgument returns true if the error is an InvalidArgumentError.
func IsInvalidArgument(err error) bool {
	if err == nil {
		return false
	}
	var e *InvalidArgumentError
	return errors.As(err, &e)
}
