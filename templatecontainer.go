// Package templatecontainer lets a server-rendered page declare client-side
// templates inline and have them collected and flushed elsewhere in the page
// as script blocks. The root package re-exports the pieces most callers need;
// the pkg/ subpackages hold the implementation.
package templatecontainer

import (
	"io"

	"github.com/goliatone/go-templatecontainer/pkg/capture"
	"github.com/goliatone/go-templatecontainer/pkg/config"
	"github.com/goliatone/go-templatecontainer/pkg/declarations"
	"github.com/goliatone/go-templatecontainer/pkg/page"
	"github.com/goliatone/go-templatecontainer/pkg/render/template/gotemplate"
)

// Options aliases capture.Options: the template name, emitter key and
// insertion index of a capture.
type Options = capture.Options

// Scope aliases capture.Scope.
type Scope = capture.Scope

// Page aliases page.Page, the per-render context captures buffer into.
type Page = page.Page

// TemplateDeclaration aliases declarations.TemplateDeclaration.
type TemplateDeclaration = declarations.TemplateDeclaration

// Settings aliases config.Settings.
type Settings = config.Settings

var (
	// ErrMissingTemplateInformation is returned when a template lacks a name or
	// emitter key.
	ErrMissingTemplateInformation = capture.ErrMissingTemplateInformation
	// ErrDuplicateTemplate is returned when a capture holds more than one
	// unwrapped template.
	ErrDuplicateTemplate = capture.ErrDuplicateTemplate
)

// At returns a pointer to i for Options.InsertAt.
func At(i int) *int {
	return capture.At(i)
}

// NewPage creates a render context using the default emitter from settings.
func NewPage(settings Settings, options ...page.Option) *Page {
	options = append([]page.Option{page.WithDefaultEmitterKey(settings.DefaultEmitter)}, options...)
	return page.New(options...)
}

// Open starts a capture on pg. An empty Options.EmitterKey is resolved to the
// page default before the scope opens. The returned scope must be closed.
func Open(pg *Page, opts Options, options ...capture.Option) *Scope {
	opts.EmitterKey = pg.ResolveEmitterKey(opts.EmitterKey)
	return capture.Open(pg, opts, options...)
}

// Capture runs fn inside a capture on pg and always closes it.
func Capture(pg *Page, opts Options, fn func(w io.Writer) error, options ...capture.Option) error {
	opts.EmitterKey = pg.ResolveEmitterKey(opts.EmitterKey)
	return capture.Do(pg, opts, fn, options...)
}

// NewEngine constructs the pongo2-backed page renderer with the
// templatecontainer and emittemplates tags registered.
func NewEngine(options ...gotemplate.Option) (*gotemplate.Engine, error) {
	return gotemplate.New(options...)
}
