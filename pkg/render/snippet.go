package render

import (
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Fallback texts for missing result fields.
const (
	NoTitle    = "Untitled"
	NoSnippet  = "No snippet available."
	NoValue    = "N/A"
	NoResults  = "No results found."
	markOpen   = "<mark>"
	markClose  = "</mark>"
	lineBreak  = "<br>"
	pageAnchor = "#page="
)

// strict drops every element; script and style bodies are removed along with
// their tags.
var strict = bluemonday.StrictPolicy()

// PlainText strips markup from s and returns the unescaped text content.
func PlainText(s string) string {
	return html.UnescapeString(strict.Sanitize(s))
}

// Snippet renders a result excerpt as trusted HTML. Markup in text is
// stripped, the remaining text is escaped, newlines become <br> and
// case-insensitive occurrences of term are wrapped in <mark>. term is matched
// literally.
func Snippet(text, term string) template.HTML {
	plain := PlainText(text)
	if strings.TrimSpace(plain) == "" {
		return template.HTML(template.HTMLEscapeString(NoSnippet))
	}

	re := termPattern(term)
	plain = strings.ReplaceAll(plain, "\r\n", "\n")
	lines := strings.Split(plain, "\n")
	for i, line := range lines {
		lines[i] = highlight(line, re)
	}
	return template.HTML(strings.Join(lines, lineBreak))
}

func termPattern(term string) *regexp.Regexp {
	term = strings.TrimSpace(PlainText(term))
	if term == "" {
		return nil
	}
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
}

// highlight escapes line and wraps every match of re. A nil re only escapes.
func highlight(line string, re *regexp.Regexp) string {
	if re == nil {
		return template.HTMLEscapeString(line)
	}

	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(line, -1) {
		b.WriteString(template.HTMLEscapeString(line[last:m[0]]))
		b.WriteString(markOpen)
		b.WriteString(template.HTMLEscapeString(line[m[0]:m[1]]))
		b.WriteString(markClose)
		last = m[1]
	}
	b.WriteString(template.HTMLEscapeString(line[last:]))
	return b.String()
}
