// Package emitter writes collected template declarations back into a page.
// Each emitter owns a key; declarations routed to that key are flushed as
// <script> blocks wherever the page asks for them.
package emitter

import (
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-templatecontainer/pkg/config"
	"github.com/goliatone/go-templatecontainer/pkg/declarations"
)

// Emitter serialises the templates routed to its key.
type Emitter interface {
	Key() string
	Emit(w io.Writer, templates []declarations.TemplateDeclaration) error
}

// Option configures a ScriptEmitter.
type Option func(*ScriptEmitter)

// WithScriptType sets the type attribute of emitted script blocks.
func WithScriptType(scriptType string) Option {
	return func(e *ScriptEmitter) {
		if trimmed := strings.TrimSpace(scriptType); trimmed != "" {
			e.scriptType = trimmed
		}
	}
}

// WithSanitizer runs every template body through policy before it is written.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(e *ScriptEmitter) {
		e.policy = policy
	}
}

// WithDefaultSanitizer enables the built-in template sanitiser.
func WithDefaultSanitizer() Option {
	return WithSanitizer(templateSanitizer())
}

// ScriptEmitter writes one <script type="..." id="NAME"> block per template.
type ScriptEmitter struct {
	key        string
	scriptType string
	policy     *bluemonday.Policy
}

var _ Emitter = (*ScriptEmitter)(nil)

// NewScriptEmitter builds an emitter for key.
func NewScriptEmitter(key string, options ...Option) *ScriptEmitter {
	e := &ScriptEmitter{
		key:        strings.TrimSpace(key),
		scriptType: config.DefaultScriptType,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(e)
	}
	return e
}

// FromConfig builds a ScriptEmitter from its configuration entry.
func FromConfig(cfg config.EmitterConfig) *ScriptEmitter {
	options := []Option{WithScriptType(cfg.ScriptType)}
	if cfg.Sanitize {
		options = append(options, WithDefaultSanitizer())
	}
	return NewScriptEmitter(cfg.Key, options...)
}

// Key implements Emitter.
func (e *ScriptEmitter) Key() string { return e.key }

// Emit implements Emitter.
func (e *ScriptEmitter) Emit(w io.Writer, templates []declarations.TemplateDeclaration) error {
	for _, tpl := range templates {
		body := tpl.Template
		if e.policy != nil {
			body = strings.TrimSpace(e.policy.Sanitize(body))
		}
		_, err := fmt.Fprintf(w, "<script type=\"%s\" id=\"%s\">%s</script>\n",
			html.EscapeString(e.scriptType),
			html.EscapeString(tpl.Name),
			escapeScriptClose(body),
		)
		if err != nil {
			return fmt.Errorf("emitter: write template %q: %w", tpl.Name, err)
		}
	}
	return nil
}

var scriptClose = regexp.MustCompile(`(?i)</script`)

// escapeScriptClose keeps a template body from terminating its wrapper early.
func escapeScriptClose(body string) string {
	return scriptClose.ReplaceAllStringFunc(body, func(match string) string {
		return `<\/` + match[2:]
	})
}

var (
	templatePolicyOnce sync.Once
	templatePolicy     *bluemonday.Policy
)

func templateSanitizer() *bluemonday.Policy {
	templatePolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowDataAttributes()
		policy.AllowAttrs("class", "id", "role", "aria-label", "aria-hidden").Globally()
		templatePolicy = policy
	})
	return templatePolicy
}
