package template_test

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-templatecontainer/pkg/capture"
	"github.com/goliatone/go-templatecontainer/pkg/config"
	"github.com/goliatone/go-templatecontainer/pkg/declarations"
	"github.com/goliatone/go-templatecontainer/pkg/emitter"
	"github.com/goliatone/go-templatecontainer/pkg/render/template/gotemplate"
	"github.com/goliatone/go-templatecontainer/pkg/testsupport"
)

//go:embed testdata/templates/*.tpl
var embeddedTemplates embed.FS

var pageSettings = config.Settings{
	DefaultEmitter: "default",
	Emitters: []config.EmitterConfig{
		{Key: "default", ScriptType: "text/html"},
		{Key: "footer", ScriptType: "text/x-template"},
	},
}

func TestGoTemplateEngine_RenderTemplate(t *testing.T) {
	engine := newEngine(t)

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("hello", map[string]any{"name": "Ada"}, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "hello.golden"))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func TestGoTemplateEngine_GlobalContext(t *testing.T) {
	engine := newEngine(t)
	if err := engine.GlobalContext(map[string]any{
		"settings": map[string]any{"env": "staging"},
	}); err != nil {
		t.Fatalf("global context: %v", err)
	}

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-global", nil, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "use-global.golden"))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func TestGoTemplateEngine_RegisterFilter(t *testing.T) {
	engine := newEngine(t)
	err := engine.RegisterFilter("shout", func(input any, _ any) (any, error) {
		if input == nil {
			return "", nil
		}
		return fmt.Sprintf("%s!", strings.ToUpper(fmt.Sprint(input))), nil
	})
	if err != nil {
		t.Fatalf("register filter: %v", err)
	}

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderTemplate("use-filter", map[string]any{"name": "Ada"}, w)
	})

	want := testsupport.MustReadGoldenString(t, filepath.Join("testdata", "use-filter.golden"))
	if result != want {
		t.Fatalf("render template mismatch result\nwant: %q\n got: %q", want, result)
	}
	if written != want {
		t.Fatalf("render template mismatch writer\nwant: %q\n got: %q", want, written)
	}
}

func TestGoTemplateEngine_RenderPage(t *testing.T) {
	engine := newEngine(t)
	pg := engine.NewPage()

	result, written := testsupport.CaptureTemplateOutput(t, func(w io.Writer) (string, error) {
		return engine.RenderPage("page", pg, map[string]any{"name": "Ada"}, w)
	})

	goldenPath := filepath.Join("testdata", "page.golden")
	if testsupport.WriteMaybeGolden(t, goldenPath, []byte(result)) {
		return
	}
	want := testsupport.MustReadGoldenString(t, goldenPath)
	if diff := cmp.Diff(want, result); diff != "" {
		t.Fatalf("render page mismatch (-want +got):\n%s", diff)
	}
	if written != want {
		t.Fatalf("render page mismatch writer\nwant: %q\n got: %q", want, written)
	}

	got := append(pg.Registry().Templates("default"), pg.Registry().Templates("footer")...)
	declPath := filepath.Join("testdata", "page.declarations.json")
	testsupport.WriteGolden(t, declPath, got)
	wantDecls := testsupport.MustLoadDeclarations(t, declPath)
	if diff := testsupport.CompareGolden(wantDecls, got); diff != "" {
		t.Fatalf("declarations mismatch (-want +got):\n%s", diff)
	}
}

func TestGoTemplateEngine_CaptureInsideLoop(t *testing.T) {
	engine := newEngine(t)
	pg := engine.NewPage()

	tpl := `{% for item in items %}{% templatecontainer name=item insertAt=0 %}<b>{{ item }}</b>{% endtemplatecontainer %}{% endfor %}done`
	result, err := engine.RenderPageString(tpl, pg, map[string]any{"items": []any{"a", "b"}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if result != "done" {
		t.Fatalf("expected captured markup to be removed, got %q", result)
	}

	want := []declarations.TemplateDeclaration{
		{Name: "a", Template: "a", EmitterKey: "default"},
		{Name: "b", Template: "b", EmitterKey: "default"},
	}
	if diff := cmp.Diff(want, pg.Registry().Templates("default")); diff != "" {
		t.Fatalf("declarations mismatch (-want +got):\n%s", diff)
	}
}

func TestGoTemplateEngine_DefaultEmitterFromSettings(t *testing.T) {
	engine := newEngine(t, gotemplate.WithSettings(config.Settings{
		DefaultEmitter: "footer",
		Emitters: []config.EmitterConfig{
			{Key: "default", ScriptType: "text/html"},
			{Key: "footer", ScriptType: "text/x-template"},
		},
	}))
	pg := engine.NewPage()

	result, err := engine.RenderPageString(`{% templatecontainer name="t" %}body{% endtemplatecontainer %}{% emittemplates %}`, pg, nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "<script type=\"text/x-template\" id=\"t\">body</script>\n"
	if result != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, result)
	}
}

func TestGoTemplateEngine_CaptureErrors(t *testing.T) {
	cases := []struct {
		name string
		tpl  string
		want error
	}{
		{
			name: "duplicate implicit templates",
			tpl:  `{% templatecontainer name="x" %}<p>one</p><p>two</p>{% endtemplatecontainer %}`,
			want: capture.ErrDuplicateTemplate,
		},
		{
			name: "implicit template without name",
			tpl:  `{% templatecontainer %}text{% endtemplatecontainer %}`,
			want: capture.ErrMissingTemplateInformation,
		},
		{
			name: "script without name",
			tpl:  `{% templatecontainer %}<script>body</script>{% endtemplatecontainer %}`,
			want: capture.ErrMissingTemplateInformation,
		},
		{
			name: "unknown emitter",
			tpl:  `{% emittemplates "nowhere" %}`,
			want: emitter.ErrUnknownEmitter,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := newEngine(t)
			_, err := engine.RenderPageString(tc.tpl, engine.NewPage(), nil)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGoTemplateEngine_TagErrors(t *testing.T) {
	engine := newEngine(t)

	if _, err := engine.RenderString(`{% templatecontainer name="x" %}x{% endtemplatecontainer %}`, nil); err == nil {
		t.Fatalf("expected an error when rendering a capture without a page")
	}
	if _, err := engine.RenderPageString(`{% templatecontainer name="x" insertAt=-1 %}x{% endtemplatecontainer %}`, engine.NewPage(), nil); err == nil {
		t.Fatalf("expected an error for a negative insertAt")
	}
	if _, err := engine.RenderPageString(`{% templatecontainer colour="red" %}x{% endtemplatecontainer %}`, engine.NewPage(), nil); err == nil {
		t.Fatalf("expected an error for an unknown argument")
	}
	if _, err := engine.RenderPage("page", nil, nil); err == nil {
		t.Fatalf("expected an error for a nil page")
	}
}

func TestGoTemplateEngine_GlobalDataFuncsAndDefaultFilters(t *testing.T) {
	engine := newEngine(t,
		gotemplate.WithGlobalData(map[string]any{"site": "Docs"}),
		gotemplate.WithTemplateFunc(map[string]any{
			"greet": func(name string) string { return "hello " + name },
		}),
	)
	pg := engine.NewPage()

	tpl := `{% templatecontainer name="title" %}<h1>{{ title|trim }}</h1>{% endtemplatecontainer %}{{ heading|lowerfirst }}|{{ greet(site) }}`
	result, err := engine.RenderPageString(tpl, pg, map[string]any{
		"title":   "  Welcome  ",
		"heading": "  Getting Started",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "  getting Started|hello Docs"; result != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, result)
	}

	want := []declarations.TemplateDeclaration{{Name: "title", Template: "Welcome", EmitterKey: "default"}}
	if diff := cmp.Diff(want, pg.Registry().Templates("default")); diff != "" {
		t.Fatalf("declarations mismatch (-want +got):\n%s", diff)
	}
}

func TestGoTemplateEngine_EmittersFromSettings(t *testing.T) {
	engine := newEngine(t)
	if diff := cmp.Diff([]string{"default", "footer"}, engine.Emitters().Keys()); diff != "" {
		t.Fatalf("emitter keys mismatch (-want +got):\n%s", diff)
	}

	reg := emitter.NewRegistry()
	reg.MustRegister(emitter.NewScriptEmitter("default", emitter.WithScriptType("text/x-handlebars")))
	custom := newEngine(t, gotemplate.WithEmitters(reg))
	if custom.Emitters() != reg {
		t.Fatalf("expected WithEmitters to replace the settings registry")
	}

	result, err := custom.RenderPageString(`{% templatecontainer name="t" %}<i>x</i>{% endtemplatecontainer %}{% emittemplates %}`, custom.NewPage(), nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if want := "<script type=\"text/x-handlebars\" id=\"t\">x</script>\n"; result != want {
		t.Fatalf("render mismatch\nwant: %q\n got: %q", want, result)
	}
}

func TestGoTemplateEngine_RejectsInvalidSettings(t *testing.T) {
	_, err := gotemplate.New(
		gotemplate.WithFS(embeddedTemplates),
		gotemplate.WithSettings(config.Settings{
			DefaultEmitter: "missing",
			Emitters:       []config.EmitterConfig{{Key: "default"}},
		}),
	)
	if err == nil {
		t.Fatalf("expected an error when the default emitter is not configured")
	}
}

func newEngine(t *testing.T, options ...gotemplate.Option) *gotemplate.Engine {
	t.Helper()

	templatesFS, err := fs.Sub(embeddedTemplates, "testdata/templates")
	if err != nil {
		t.Fatalf("sub fs: %v", err)
	}

	options = append([]gotemplate.Option{
		gotemplate.WithFS(templatesFS),
		gotemplate.WithSettings(pageSettings),
	}, options...)
	engine, err := gotemplate.New(options...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}
