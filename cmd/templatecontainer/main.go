package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-templatecontainer/pkg/config"
	"github.com/goliatone/go-templatecontainer/pkg/page"
	"github.com/goliatone/go-templatecontainer/pkg/render/template/gotemplate"
)

func main() {
	pagePath := flag.String("page", "", "page template to render (prompted when empty)")
	configPath := flag.String("config", "", "settings file (JSON or YAML)")
	output := flag.String("output", "", "output file (stdout if empty)")
	emitterKey := flag.String("emitter", "", "override the default emitter key")
	dataPath := flag.String("data", "", "global template data file (JSON or YAML)")
	verbose := flag.Bool("verbose", false, "log capture diagnostics")
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	path := strings.TrimSpace(*pagePath)
	if path == "" {
		path, err = promptPagePath()
		if err != nil {
			log.Fatalf("Failed to read page path: %v", err)
		}
	}

	settings, err := loadSettings(*configPath)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	globals, err := loadGlobalData(*dataPath)
	if err != nil {
		log.Fatalf("Failed to load data: %v", err)
	}

	engine, err := gotemplate.New(
		gotemplate.WithBaseDir(filepath.Dir(path)),
		gotemplate.WithExtension(extensionOf(path)),
		gotemplate.WithSettings(settings),
		gotemplate.WithGlobalData(globals),
	)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	pg := engine.NewPage(
		page.WithLogger(logger),
		page.WithDefaultEmitterKey(*emitterKey),
	)

	rendered, err := engine.RenderPage(filepath.Base(path), pg, nil)
	if err != nil {
		log.Fatalf("Failed to render page: %v", err)
	}
	logger.Debug("page rendered",
		zap.String("page", path),
		zap.Int("templates", pg.Registry().Len()),
	)

	if *output != "" {
		if err := os.WriteFile(*output, []byte(rendered), 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Page written to %s\n", *output)
	} else {
		fmt.Println(rendered)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

func promptPagePath() (string, error) {
	var answer string
	prompt := &survey.Input{Message: "Page template to render:"}
	if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func loadSettings(path string) (config.Settings, error) {
	if strings.TrimSpace(path) == "" {
		return config.FromEnv(), nil
	}
	return config.LoadFile(path)
}

// loadGlobalData reads a JSON or YAML mapping; JSON parses as YAML.
func loadGlobalData(path string) (map[string]any, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data := map[string]any{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return data, nil
}

func extensionOf(path string) string {
	if ext := filepath.Ext(path); ext != "" {
		return ext
	}
	return ".tpl"
}
