// Package components renders the pages and fragments of the web UI.
package components

import (
	"bytes"
	"context"
	"embed"
	"html/template"

	"github.com/a-h/templ"
	"github.com/rubiojr/aurosearch/cmd/web/components/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// Set holds the parsed templates. Group labels are bound at parse time.
type Set struct {
	tmpl *template.Template
}

// NewSet parses the embedded templates.
func NewSet(groupLabels map[string]string) (*Set, error) {
	tmpl, err := template.New("components").Funcs(funcs(groupLabels)).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Set{tmpl: tmpl}, nil
}

// MustNewSet is NewSet that panics on a template error.
func MustNewSet(groupLabels map[string]string) *Set {
	s, err := NewSet(groupLabels)
	if err != nil {
		panic(err)
	}
	return s
}

// Index is the landing page: the search form and recent searches.
func (s *Set) Index(data types.PageData) templ.Component {
	return templ.FromGoHTML(s.tmpl.Lookup("page"), data)
}

// Search is the full results page.
func (s *Set) Search(data types.PageData) templ.Component {
	return templ.FromGoHTML(s.tmpl.Lookup("page"), data)
}

// Results is the results region alone, pushed to live sessions.
func (s *Set) Results(data types.PageData) templ.Component {
	return templ.FromGoHTML(s.tmpl.Lookup("results"), data)
}

// BookTitleOptions is the option list of the book title selector.
func (s *Set) BookTitleOptions(data types.PageData) templ.Component {
	return templ.FromGoHTML(s.tmpl.Lookup("book-title-options"), data)
}

// RenderString renders c into a string.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
