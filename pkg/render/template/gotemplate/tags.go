package gotemplate

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-templatecontainer/pkg/capture"
	"github.com/goliatone/go-templatecontainer/pkg/emitter"
	"github.com/goliatone/go-templatecontainer/pkg/page"
)

const (
	// TagTemplateContainer opens a capture block:
	//
	//	{% templatecontainer name="row" emitter="footer" insertAt=0 %}...{% endtemplatecontainer %}
	TagTemplateContainer = "templatecontainer"
	// TagEmitTemplates marks where collected templates are written:
	//
	//	{% emittemplates "footer" %}
	TagEmitTemplates = "emittemplates"

	renderStateKey = "_templatecontainer_state"
)

var errNoPage = errors.New("gotemplate: template capture requires a page, render with RenderPage")

var registerTagsOnce sync.Once

func registerTags() {
	registerTagsOnce.Do(func() {
		_ = pongo2.RegisterTag(TagTemplateContainer, tagTemplateContainerParser)
		_ = pongo2.RegisterTag(TagEmitTemplates, tagEmitTemplatesParser)
	})
}

// renderState is the per-render bookkeeping shared by the tags of one
// RenderPage call.
type renderState struct {
	page     *page.Page
	emitters *emitter.Registry
	emits    []string
	err      error
}

func newRenderState(pg *page.Page, emitters *emitter.Registry) *renderState {
	return &renderState{page: pg, emitters: emitters}
}

func stateFrom(ctx *pongo2.ExecutionContext) (*renderState, bool) {
	if ctx == nil || ctx.Public == nil {
		return nil, false
	}
	state, ok := ctx.Public[renderStateKey].(*renderState)
	return state, ok && state != nil
}

func (s *renderState) fail(sender string, err error) *pongo2.Error {
	if s != nil && s.err == nil {
		s.err = err
	}
	return &pongo2.Error{Sender: sender, OrigError: err}
}

func emitPlaceholder(key string) string {
	return "<!--templatecontainer:emit:" + key + "-->"
}

// flush replaces every emit placeholder in rendered with the templates routed
// to its key.
func (s *renderState) flush(rendered string) (string, error) {
	if len(s.emits) == 0 {
		return rendered, nil
	}
	if s.emitters == nil {
		return "", fmt.Errorf("%w: no emitters configured", emitter.ErrUnknownEmitter)
	}

	done := make(map[string]struct{}, len(s.emits))
	for _, key := range s.emits {
		if _, ok := done[key]; ok {
			continue
		}
		done[key] = struct{}{}

		var buf strings.Builder
		if err := s.emitters.Flush(&buf, s.page.Registry(), key); err != nil {
			return "", err
		}
		rendered = strings.ReplaceAll(rendered, emitPlaceholder(key), buf.String())
	}
	return rendered, nil
}

type tagTemplateContainerNode struct {
	args    map[string]pongo2.IEvaluator
	wrapper *pongo2.NodeWrapper
}

var templateContainerArgs = map[string]struct{}{
	"name":     {},
	"emitter":  {},
	"insertAt": {},
}

func tagTemplateContainerParser(doc *pongo2.Parser, _ *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	node := &tagTemplateContainerNode{
		args: make(map[string]pongo2.IEvaluator),
	}

	wrapper, endargs, err := doc.WrapUntilTag("end" + TagTemplateContainer)
	if err != nil {
		return nil, err
	}
	node.wrapper = wrapper
	if endargs.Count() > 0 {
		return nil, endargs.Error("Arguments not allowed here.", nil)
	}

	for arguments.Remaining() > 0 {
		keyToken := arguments.MatchType(pongo2.TokenIdentifier)
		if keyToken == nil {
			return nil, arguments.Error("Expected an identifier.", nil)
		}
		if _, ok := templateContainerArgs[keyToken.Val]; !ok {
			return nil, arguments.Error(fmt.Sprintf("Unknown argument '%s'; expected name, emitter or insertAt.", keyToken.Val), keyToken)
		}
		if _, dup := node.args[keyToken.Val]; dup {
			return nil, arguments.Error(fmt.Sprintf("Argument '%s' given twice.", keyToken.Val), keyToken)
		}
		if arguments.Match(pongo2.TokenSymbol, "=") == nil {
			return nil, arguments.Error("Expected '='.", nil)
		}
		valueExpr, err := arguments.ParseExpression()
		if err != nil {
			return nil, err
		}
		node.args[keyToken.Val] = valueExpr
	}

	return node, nil
}

func (node *tagTemplateContainerNode) Execute(ctx *pongo2.ExecutionContext, _ pongo2.TemplateWriter) *pongo2.Error {
	const sender = "tag:" + TagTemplateContainer

	state, ok := stateFrom(ctx)
	if !ok {
		return &pongo2.Error{Sender: sender, OrigError: errNoPage}
	}

	opts, perr := node.options(ctx, state.page)
	if perr != nil {
		return perr
	}

	scope := capture.Open(state.page, opts)
	execErr := node.wrapper.Execute(ctx, templateWriter{scope.Writer()})
	closeErr := scope.Close()
	if execErr != nil {
		return execErr
	}
	if closeErr != nil {
		return state.fail(sender, closeErr)
	}
	return nil
}

// options evaluates the tag arguments. The page default emitter key is
// resolved here, at the call site, before the scope opens.
func (node *tagTemplateContainerNode) options(ctx *pongo2.ExecutionContext, pg *page.Page) (capture.Options, *pongo2.Error) {
	var opts capture.Options

	if expr, ok := node.args["name"]; ok {
		value, err := expr.Evaluate(ctx)
		if err != nil {
			return opts, err
		}
		if !value.IsNil() {
			opts.Name = value.String()
		}
	}

	emitterKey := ""
	if expr, ok := node.args["emitter"]; ok {
		value, err := expr.Evaluate(ctx)
		if err != nil {
			return opts, err
		}
		if !value.IsNil() {
			emitterKey = value.String()
		}
	}
	opts.EmitterKey = pg.ResolveEmitterKey(emitterKey)

	if expr, ok := node.args["insertAt"]; ok {
		value, err := expr.Evaluate(ctx)
		if err != nil {
			return opts, err
		}
		insertAt, valid := insertAtValue(value)
		if !valid {
			return opts, &pongo2.Error{
				Sender:    "tag:" + TagTemplateContainer,
				OrigError: fmt.Errorf("gotemplate: insertAt must be a non-negative integer, got %q", value.String()),
			}
		}
		opts.InsertAt = insertAt
	}

	return opts, nil
}

func insertAtValue(value *pongo2.Value) (*int, bool) {
	switch {
	case value.IsNil():
		return nil, true
	case value.IsInteger():
		n := value.Integer()
		if n < 0 {
			return nil, false
		}
		return capture.At(n), true
	case value.IsString():
		n, err := strconv.Atoi(strings.TrimSpace(value.String()))
		if err != nil || n < 0 {
			return nil, false
		}
		return capture.At(n), true
	default:
		return nil, false
	}
}

type tagEmitTemplatesNode struct {
	key pongo2.IEvaluator
}

func tagEmitTemplatesParser(_ *pongo2.Parser, _ *pongo2.Token, arguments *pongo2.Parser) (pongo2.INodeTag, *pongo2.Error) {
	node := &tagEmitTemplatesNode{}
	if arguments.Remaining() > 0 {
		keyExpr, err := arguments.ParseExpression()
		if err != nil {
			return nil, err
		}
		node.key = keyExpr
	}
	if arguments.Remaining() > 0 {
		return nil, arguments.Error("Tag 'emittemplates' takes at most one argument.", nil)
	}
	return node, nil
}

func (node *tagEmitTemplatesNode) Execute(ctx *pongo2.ExecutionContext, writer pongo2.TemplateWriter) *pongo2.Error {
	const sender = "tag:" + TagEmitTemplates

	state, ok := stateFrom(ctx)
	if !ok {
		return &pongo2.Error{Sender: sender, OrigError: errNoPage}
	}

	key := ""
	if node.key != nil {
		value, err := node.key.Evaluate(ctx)
		if err != nil {
			return err
		}
		if !value.IsNil() {
			key = value.String()
		}
	}
	key = state.page.ResolveEmitterKey(key)

	if _, err := state.emitters.Get(key); err != nil {
		return state.fail(sender, err)
	}

	state.emits = append(state.emits, key)
	if _, err := writer.WriteString(emitPlaceholder(key)); err != nil {
		return state.fail(sender, err)
	}
	return nil
}

// templateWriter adapts a plain io.Writer to pongo2.TemplateWriter.
type templateWriter struct {
	io.Writer
}

func (w templateWriter) WriteString(s string) (int, error) {
	return io.WriteString(w.Writer, s)
}
