// Package capture lifts client-side template markup out of a page while it
// renders. Opening a Scope pushes a buffered segment on the host's output
// stack; closing it pops the segment, parses it as an HTML fragment and
// registers one template declaration per script child plus at most one
// implicit declaration built from the scope's own name and emitter key. The
// captured markup never reaches the page directly.
package capture

import (
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-templatecontainer/pkg/declarations"
	"github.com/goliatone/go-templatecontainer/pkg/fragment"
)

// DefaultReservedTag is the element that wraps individually named templates.
const DefaultReservedTag = "script"

// Host is the render context a scope buffers into and registers with.
type Host interface {
	PushOutput() io.Writer
	PopOutput() (string, bool)
	AddDeclaration(decl declarations.Declaration, insertAt *int)
}

type loggerHost interface {
	Logger() *zap.Logger
}

// Options are the per-scope parameters. EmitterKey must already be resolved
// by the caller; an empty key only fails when an implicit declaration needs
// it. A nil InsertAt appends.
type Options struct {
	Name       string
	EmitterKey string
	InsertAt   *int
}

// At returns a pointer to i for use as Options.InsertAt.
func At(i int) *int {
	return &i
}

// Option tunes scope behaviour.
type Option func(*config)

type config struct {
	parser             fragment.Parser
	reservedTag        string
	singleRegistration bool
}

// WithParser replaces the default golang.org/x/net/html fragment parser.
func WithParser(parser fragment.Parser) Option {
	return func(cfg *config) {
		if parser != nil {
			cfg.parser = parser
		}
	}
}

// WithReservedTag changes the element name that marks individually named
// templates. Matching is case-insensitive.
func WithReservedTag(tag string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(tag); trimmed != "" {
			cfg.reservedTag = trimmed
		}
	}
}

// WithSingleRegistration registers a script template only once when it
// carries its own insertAt attribute, at that index. By default the template
// is registered at the attribute index and again at the scope index.
func WithSingleRegistration() Option {
	return func(cfg *config) {
		cfg.singleRegistration = true
	}
}

func newConfig(options []Option) config {
	cfg := config{
		parser:      fragment.NewHTMLParser(),
		reservedTag: DefaultReservedTag,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	return cfg
}

// Scope is an open capture region. It must be closed exactly once; Close is
// idempotent so a deferred Close after an explicit one is harmless.
type Scope struct {
	host   Host
	opts   Options
	cfg    config
	logger *zap.Logger
	writer io.Writer
	closed bool
}

// Open starts a capture on host. Nothing is written to the page and nothing
// is validated until Close.
func Open(host Host, opts Options, options ...Option) *Scope {
	scope := &Scope{
		host:   host,
		opts:   opts,
		cfg:    newConfig(options),
		logger: zap.NewNop(),
	}
	if lh, ok := host.(loggerHost); ok && lh.Logger() != nil {
		scope.logger = lh.Logger()
	}
	scope.writer = host.PushOutput()
	return scope
}

// Writer returns the writer for the scope's buffered segment.
func (s *Scope) Writer() io.Writer {
	if s == nil || s.writer == nil {
		return io.Discard
	}
	return s.writer
}

// Options returns the parameters the scope was opened with.
func (s *Scope) Options() Options {
	return s.opts
}

// Close pops the scope's segment and registers the declarations found in it.
// Declarations registered before an error stay registered.
func (s *Scope) Close() error {
	if s == nil || s.closed {
		return nil
	}
	s.closed = true

	content, ok := s.host.PopOutput()
	if !ok {
		content = ""
	}
	return s.extract(content)
}

// Do opens a scope, passes its writer to fn and always closes the scope, even
// when fn returns an error or panics. Errors from fn and Close are joined.
func Do(host Host, opts Options, fn func(w io.Writer) error, options ...Option) (err error) {
	scope := Open(host, opts, options...)
	defer func() {
		closeErr := scope.Close()
		if err == nil {
			err = closeErr
		} else if closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if fn == nil {
		return nil
	}
	return fn(scope.Writer())
}
