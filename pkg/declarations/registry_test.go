package declarations

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func tpl(name, key string) TemplateDeclaration {
	return TemplateDeclaration{Name: name, Template: name + "-body", EmitterKey: key}
}

func names(decls []TemplateDeclaration) []string {
	out := make([]string, 0, len(decls))
	for _, decl := range decls {
		out = append(out, decl.Name)
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestRegistry_AppendKeepsCallOrder(t *testing.T) {
	reg := NewRegistry()
	reg.AddDeclaration(tpl("a", "default"), nil)
	reg.AddDeclaration(tpl("b", "default"), nil)
	reg.AddDeclaration(tpl("c", "default"), nil)

	if diff := cmp.Diff([]string{"a", "b", "c"}, names(reg.Templates("default"))); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_InsertAt(t *testing.T) {
	cases := []struct {
		name string
		add  func(reg *Registry)
		want []string
	}{
		{
			name: "index zero goes first",
			add: func(reg *Registry) {
				reg.AddDeclaration(tpl("a", "k"), nil)
				reg.AddDeclaration(tpl("b", "k"), nil)
				reg.AddDeclaration(tpl("first", "k"), intPtr(0))
			},
			want: []string{"first", "a", "b"},
		},
		{
			name: "shared index keeps call order",
			add: func(reg *Registry) {
				reg.AddDeclaration(tpl("a", "k"), nil)
				reg.AddDeclaration(tpl("x", "k"), intPtr(0))
				reg.AddDeclaration(tpl("y", "k"), intPtr(0))
			},
			want: []string{"x", "y", "a"},
		},
		{
			name: "index past the end appends",
			add: func(reg *Registry) {
				reg.AddDeclaration(tpl("late", "k"), intPtr(10))
				reg.AddDeclaration(tpl("a", "k"), nil)
			},
			want: []string{"a", "late"},
		},
		{
			name: "negative index clamps to zero",
			add: func(reg *Registry) {
				reg.AddDeclaration(tpl("a", "k"), nil)
				reg.AddDeclaration(tpl("neg", "k"), intPtr(-3))
			},
			want: []string{"neg", "a"},
		},
		{
			name: "middle index",
			add: func(reg *Registry) {
				reg.AddDeclaration(tpl("a", "k"), nil)
				reg.AddDeclaration(tpl("b", "k"), nil)
				reg.AddDeclaration(tpl("c", "k"), nil)
				reg.AddDeclaration(tpl("mid", "k"), intPtr(1))
			},
			want: []string{"a", "mid", "b", "c"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reg := NewRegistry()
			tc.add(reg)
			if diff := cmp.Diff(tc.want, names(reg.Templates("k"))); diff != "" {
				t.Fatalf("order mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRegistry_FiltersByEmitterKey(t *testing.T) {
	reg := NewRegistry()
	reg.AddDeclaration(tpl("a", "head"), nil)
	reg.AddDeclaration(tpl("b", "footer"), nil)
	reg.AddDeclaration(&TemplateDeclaration{Name: "c", EmitterKey: "footer"}, nil)

	if diff := cmp.Diff([]string{"b", "c"}, names(reg.Templates("footer"))); diff != "" {
		t.Fatalf("footer mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"footer", "head"}, reg.Keys(KindTemplate)); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if got := len(reg.All(KindTemplate)); got != 3 {
		t.Fatalf("expected 3 declarations, got %d", got)
	}
	if reg.Len() != 3 {
		t.Fatalf("expected Len 3, got %d", reg.Len())
	}

	reg.Reset()
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry after reset, got %d", reg.Len())
	}
}

func TestRegistry_NilSafe(t *testing.T) {
	var reg *Registry
	reg.AddDeclaration(tpl("a", "k"), nil)
	if reg.Len() != 0 || reg.Templates("k") != nil || reg.Keys(KindTemplate) != nil {
		t.Fatalf("nil registry should behave as empty")
	}
}

func TestTemplateDeclaration_Validate(t *testing.T) {
	if err := tpl("a", "k").Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (TemplateDeclaration{Template: "x"}).Validate(); err == nil {
		t.Fatalf("expected validation error for missing name and key")
	}
}
