// Package declarations stores the declarations collected while a page renders.
// Declarations are grouped by kind and emitter key so each emitter can flush
// only the entries routed to it, in the order they were registered.
package declarations

import (
	"errors"
	"strings"
)

// KindTemplate identifies client-side template declarations.
const KindTemplate = "template"

// Declaration is a unit collected during rendering and flushed by an emitter.
type Declaration interface {
	// Kind groups declarations of the same runtime type.
	Kind() string
	// Key is the emitter key the declaration is routed to.
	Key() string
}

// TemplateDeclaration is a named client-side template body.
type TemplateDeclaration struct {
	Name       string `json:"name" yaml:"name"`
	Template   string `json:"template" yaml:"template"`
	EmitterKey string `json:"emitterKey" yaml:"emitterKey"`
}

var _ Declaration = TemplateDeclaration{}

// Kind implements Declaration.
func (TemplateDeclaration) Kind() string { return KindTemplate }

// Key implements Declaration.
func (d TemplateDeclaration) Key() string { return d.EmitterKey }

// Validate reports whether the declaration carries the identifiers an emitter
// needs.
func (d TemplateDeclaration) Validate() error {
	var errs []error
	if strings.TrimSpace(d.Name) == "" {
		errs = append(errs, errors.New("declarations: template name is required"))
	}
	if strings.TrimSpace(d.EmitterKey) == "" {
		errs = append(errs, errors.New("declarations: emitter key is required"))
	}
	return errors.Join(errs...)
}
