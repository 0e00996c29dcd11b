package template

import (
	"io"

	"github.com/goliatone/go-templatecontainer/pkg/page"
)

// TemplateRenderer renders named templates or inline template content.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}

// PageRenderer renders templates against a page so captured template blocks
// are collected on it and flushed where the page asks for them.
type PageRenderer interface {
	TemplateRenderer
	NewPage(options ...page.Option) *page.Page
	RenderPage(name string, pg *page.Page, data any, out ...io.Writer) (string, error)
	RenderPageString(templateContent string, pg *page.Page, data any, out ...io.Writer) (string, error)
}
