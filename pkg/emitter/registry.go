package emitter

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-templatecontainer/pkg/config"
	"github.com/goliatone/go-templatecontainer/pkg/declarations"
)

// ErrUnknownEmitter is returned when flushing a key with no registered emitter.
var ErrUnknownEmitter = errors.New("emitter: unknown emitter")

// Registry stores emitters by key.
type Registry struct {
	mu       sync.RWMutex
	emitters map[string]Emitter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		emitters: make(map[string]Emitter),
	}
}

// FromSettings registers a ScriptEmitter for every configured emitter.
func FromSettings(settings config.Settings) (*Registry, error) {
	reg := NewRegistry()
	for _, cfg := range settings.Emitters {
		if err := reg.Register(FromConfig(cfg)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds an emitter by its Key(). Duplicate keys return an error.
func (r *Registry) Register(e Emitter) error {
	if e == nil {
		return fmt.Errorf("emitter: emitter is required")
	}
	key := strings.TrimSpace(e.Key())
	if key == "" {
		return fmt.Errorf("emitter: emitter key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.emitters[key]; exists {
		return fmt.Errorf("emitter: emitter %q already registered", key)
	}
	r.emitters[key] = e
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(e Emitter) {
	if err := r.Register(e); err != nil {
		panic(err)
	}
}

// Get retrieves an emitter by key.
func (r *Registry) Get(key string) (Emitter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.emitters[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEmitter, key)
	}
	return e, nil
}

// Keys returns the sorted emitter keys.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.emitters))
	for key := range r.emitters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Flush writes the templates collected in decls for key.
func (r *Registry) Flush(w io.Writer, decls *declarations.Registry, key string) error {
	e, err := r.Get(key)
	if err != nil {
		return err
	}
	return e.Emit(w, decls.Templates(key))
}

// FlushAll writes every key holding templates, in key order. Templates routed
// to a key without an emitter fail with ErrUnknownEmitter.
func (r *Registry) FlushAll(w io.Writer, decls *declarations.Registry) error {
	for _, key := range decls.Keys(declarations.KindTemplate) {
		if err := r.Flush(w, decls, key); err != nil {
			return err
		}
	}
	return nil
}
