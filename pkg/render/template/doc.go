// Package template defines the renderer-agnostic template contract used to
// render pages. The gotemplate subpackage implements it with pongo2 and adds
// the templatecontainer and emittemplates tags that capture client-side
// templates out of a page and flush them back in as script blocks.
package template
