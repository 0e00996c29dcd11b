package capture

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTemplateInformation is returned when a declaration has no name
	// or, for the implicit declaration, no emitter key.
	ErrMissingTemplateInformation = errors.New("capture: missing template information")
	// ErrDuplicateTemplate is returned when more than one top-level node inside
	// a capture is not wrapped in its own named script element.
	ErrDuplicateTemplate = errors.New("capture: duplicate template")
)

// Error describes an authoring mistake found while extracting a capture. It
// unwraps to one of the sentinel errors above.
type Error struct {
	Kind   error
	Reason string
	Node   string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Node == "" {
		return fmt.Sprintf("capture: %s", e.Reason)
	}
	return fmt.Sprintf("capture: %s (at %s)", e.Reason, e.Node)
}

// Unwrap exposes the sentinel so callers can use errors.Is.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Kind
}

func newError(kind error, reason, node string) *Error {
	return &Error{Kind: kind, Reason: reason, Node: node}
}

const (
	reasonNameRequired      = "a template declaration requires a name"
	reasonEmitterRequired   = "a template declaration requires an emitter key"
	reasonMultipleTemplates = "multiple template declarations cannot coexist in one container unless each is wrapped in its own script element with an id or name"
)
