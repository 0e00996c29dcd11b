package page

import (
	"bytes"
	"io"
	"testing"

	"github.com/goliatone/go-templatecontainer/pkg/declarations"
)

func TestOutputStack_LIFO(t *testing.T) {
	var base bytes.Buffer
	stack := NewOutputStack(&base)

	io.WriteString(stack, "before ")
	stack.Push()
	io.WriteString(stack, "outer ")
	stack.Push()
	io.WriteString(stack, "inner")

	if stack.Len() != 2 {
		t.Fatalf("expected 2 segments, got %d", stack.Len())
	}

	inner, ok := stack.Pop()
	if !ok || inner != "inner" {
		t.Fatalf("expected inner segment, got %q (ok=%v)", inner, ok)
	}
	io.WriteString(stack, "more")
	outer, ok := stack.Pop()
	if !ok || outer != "outer more" {
		t.Fatalf("expected outer segment, got %q (ok=%v)", outer, ok)
	}

	io.WriteString(stack, "after")
	if got := base.String(); got != "before after" {
		t.Fatalf("unexpected base output %q", got)
	}
}

func TestOutputStack_PopEmpty(t *testing.T) {
	stack := NewOutputStack(nil)
	content, ok := stack.Pop()
	if ok || content != "" {
		t.Fatalf("expected empty pop, got %q (ok=%v)", content, ok)
	}
	if stack.Top() != nil {
		t.Fatalf("expected nil top on empty stack")
	}
}

func TestPage_Defaults(t *testing.T) {
	pg := New()
	if pg.DefaultEmitterKey() != DefaultEmitterKey {
		t.Fatalf("expected default key %q, got %q", DefaultEmitterKey, pg.DefaultEmitterKey())
	}
	if pg.Registry() == nil || pg.Logger() == nil || pg.Output() == nil {
		t.Fatalf("expected page collaborators to be initialised")
	}
}

func TestPage_Options(t *testing.T) {
	var out bytes.Buffer
	reg := declarations.NewRegistry()
	pg := New(
		WithWriter(&out),
		WithRegistry(reg),
		WithDefaultEmitterKey("  footer "),
	)

	if pg.Registry() != reg {
		t.Fatalf("expected shared registry")
	}
	if got := pg.ResolveEmitterKey(""); got != "footer" {
		t.Fatalf("expected footer fallback, got %q", got)
	}
	if got := pg.ResolveEmitterKey("head"); got != "head" {
		t.Fatalf("expected explicit key, got %q", got)
	}

	pg.WriteString("visible")
	if out.String() != "visible" {
		t.Fatalf("expected uncaptured output to reach writer, got %q", out.String())
	}
}
