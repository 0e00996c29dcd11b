// Package page holds the per-render state a template capture works against:
// the output-buffering stack, the declaration registry and the resolved
// default emitter key. A Page belongs to one render pass and is not shared
// between requests.
package page

import (
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-templatecontainer/pkg/declarations"
)

// DefaultEmitterKey is used when no configuration supplies one.
const DefaultEmitterKey = "default"

// Option configures a Page.
type Option func(*Page)

// WithWriter sets the writer receiving output that is not captured.
func WithWriter(w io.Writer) Option {
	return func(p *Page) {
		p.writer = w
	}
}

// WithRegistry shares an existing declaration registry with the page.
func WithRegistry(reg *declarations.Registry) Option {
	return func(p *Page) {
		if reg != nil {
			p.registry = reg
		}
	}
}

// WithDefaultEmitterKey sets the emitter key used when a capture does not name
// one. Blank values are ignored.
func WithDefaultEmitterKey(key string) Option {
	return func(p *Page) {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			p.defaultKey = trimmed
		}
	}
}

// WithLogger sets the logger used for capture diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Page) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Page is the render context for a single page.
type Page struct {
	writer     io.Writer
	output     *OutputStack
	registry   *declarations.Registry
	logger     *zap.Logger
	defaultKey string
}

// New constructs a Page. Without options output is discarded, a fresh registry
// is created and DefaultEmitterKey routes implicit captures.
func New(options ...Option) *Page {
	p := &Page{
		defaultKey: DefaultEmitterKey,
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	if p.registry == nil {
		p.registry = declarations.NewRegistry()
	}
	p.output = NewOutputStack(p.writer)
	return p
}

// Output returns the page's output-buffering stack.
func (p *Page) Output() *OutputStack { return p.output }

// Registry returns the declarations collected for this page.
func (p *Page) Registry() *declarations.Registry { return p.registry }

// Logger returns the page logger; never nil.
func (p *Page) Logger() *zap.Logger { return p.logger }

// DefaultEmitterKey returns the emitter key callers fall back to when opening
// a capture without one.
func (p *Page) DefaultEmitterKey() string { return p.defaultKey }

// Write sends p to the top of the output stack.
func (p *Page) Write(b []byte) (int, error) {
	return p.output.Write(b)
}

// WriteString sends v to the top of the output stack.
func (p *Page) WriteString(v string) (int, error) {
	return p.output.WriteString(v)
}

// ResolveEmitterKey returns key when set, otherwise the page default.
func (p *Page) ResolveEmitterKey(key string) string {
	if trimmed := strings.TrimSpace(key); trimmed != "" {
		return trimmed
	}
	return p.defaultKey
}

// PushOutput opens a buffered segment on the output stack.
func (p *Page) PushOutput() io.Writer {
	return p.output.Push()
}

// PopOutput closes the top buffered segment and returns its content.
func (p *Page) PopOutput() (string, bool) {
	return p.output.Pop()
}

// AddDeclaration forwards decl to the page registry.
func (p *Page) AddDeclaration(decl declarations.Declaration, insertAt *int) {
	p.registry.AddDeclaration(decl, insertAt)
}
