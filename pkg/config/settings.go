// Package config loads the process-wide settings that pick the default
// emitter and describe every emitter a page can route templates to. Settings
// are read once at startup and treated as read-only afterwards.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvDefaultEmitter overrides Settings.DefaultEmitter when set.
const EnvDefaultEmitter = "TEMPLATECONTAINER_DEFAULT_EMITTER"

const (
	// DefaultEmitterKey names the emitter used when nothing else is configured.
	DefaultEmitterKey = "default"
	// DefaultScriptType is the script type attribute emitted around templates.
	DefaultScriptType = "text/html"
)

// EmitterConfig describes one emitter.
type EmitterConfig struct {
	Key        string `json:"key" yaml:"key"`
	ScriptType string `json:"scriptType,omitempty" yaml:"scriptType,omitempty"`
	Sanitize   bool   `json:"sanitize,omitempty" yaml:"sanitize,omitempty"`
}

// Settings is the configuration consumed by page construction and emitter
// wiring.
type Settings struct {
	DefaultEmitter string          `json:"defaultEmitter" yaml:"defaultEmitter"`
	Emitters       []EmitterConfig `json:"emitters" yaml:"emitters"`
}

// Default returns settings with a single default emitter.
func Default() Settings {
	return Settings{
		DefaultEmitter: DefaultEmitterKey,
		Emitters: []EmitterConfig{
			{Key: DefaultEmitterKey, ScriptType: DefaultScriptType},
		},
	}
}

// Load reads settings from path inside fsys. JSON is tried first, then YAML.
// Missing fields are filled from Default and the environment override is
// applied before validation.
func Load(fsys fs.FS, path string) (Settings, error) {
	if fsys == nil {
		return Settings{}, errors.New("config: filesystem is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// LoadFile reads settings from a path on disk.
func LoadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes raw JSON or YAML settings. source is only used in error
// messages.
func Parse(data []byte, source string) (Settings, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Settings{}, fmt.Errorf("config: file %s is empty", source)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		settings = Settings{}
		if yamlErr := yaml.Unmarshal(data, &settings); yamlErr != nil {
			return Settings{}, fmt.Errorf("config: parse %s: invalid JSON or YAML", source)
		}
	}

	settings = settings.normalise()
	if err := settings.Validate(); err != nil {
		return Settings{}, fmt.Errorf("config: %s: %w", source, err)
	}
	return settings, nil
}

// FromEnv returns default settings with the environment override applied; the
// overriding key gets its own emitter.
func FromEnv() Settings {
	return Settings{}.normalise()
}

func (s Settings) normalise() Settings {
	out := Settings{
		DefaultEmitter: strings.TrimSpace(s.DefaultEmitter),
		Emitters:       make([]EmitterConfig, 0, len(s.Emitters)),
	}
	if env := strings.TrimSpace(os.Getenv(EnvDefaultEmitter)); env != "" {
		out.DefaultEmitter = env
	}
	for _, emitter := range s.Emitters {
		emitter.Key = strings.TrimSpace(emitter.Key)
		emitter.ScriptType = strings.TrimSpace(emitter.ScriptType)
		if emitter.ScriptType == "" {
			emitter.ScriptType = DefaultScriptType
		}
		out.Emitters = append(out.Emitters, emitter)
	}
	if out.DefaultEmitter == "" {
		out.DefaultEmitter = DefaultEmitterKey
	}
	if len(out.Emitters) == 0 {
		out.Emitters = []EmitterConfig{{Key: out.DefaultEmitter, ScriptType: DefaultScriptType}}
	}
	return out
}

// Validate checks emitter keys are present and unique and that the default
// emitter is one of them.
func (s Settings) Validate() error {
	var errs []error
	seen := make(map[string]struct{}, len(s.Emitters))
	for idx, emitter := range s.Emitters {
		key := strings.TrimSpace(emitter.Key)
		if key == "" {
			errs = append(errs, fmt.Errorf("emitters[%d]: key is required", idx))
			continue
		}
		if _, exists := seen[key]; exists {
			errs = append(errs, fmt.Errorf("emitters[%d]: duplicate key %q", idx, key))
			continue
		}
		seen[key] = struct{}{}
	}

	def := strings.TrimSpace(s.DefaultEmitter)
	if def == "" {
		errs = append(errs, errors.New("defaultEmitter is required"))
	} else if _, ok := seen[def]; !ok {
		errs = append(errs, fmt.Errorf("defaultEmitter %q does not match any emitter", def))
	}
	return errors.Join(errs...)
}

// Emitter returns the configuration for key.
func (s Settings) Emitter(key string) (EmitterConfig, bool) {
	for _, emitter := range s.Emitters {
		if emitter.Key == key {
			return emitter, true
		}
	}
	return EmitterConfig{}, false
}
