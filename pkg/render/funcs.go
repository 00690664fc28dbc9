package render

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/rubiojr/aurosearch/pkg/filters"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// FormatTime formats t relative to now for the recent searches list.
func FormatTime(t time.Time) string {
	diff := time.Since(t)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		m := int(diff.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case diff < 24*time.Hour:
		h := int(diff.Hours())
		if h == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", h)
	case diff < 7*24*time.Hour:
		d := int(diff.Hours() / 24)
		if d == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", d)
	default:
		return t.Format("Jan 2, 2006")
	}
}

// Truncate shortens s to at most length runes, ending in "..." when cut.
func Truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	if length <= 3 {
		return string(r[:length])
	}
	return string(r[:length-3]) + "..."
}

// TemplateFuncs returns the helpers available to the page templates.
// groupLabels maps group codes to their descriptions.
func TemplateFuncs(groupLabels map[string]string) template.FuncMap {
	return template.FuncMap{
		"formatTime": FormatTime,
		"truncate":   Truncate,
		"title":      cases.Title(language.English).String,
		"join":       strings.Join,
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"default": func(def, val string) string {
			if strings.TrimSpace(val) == "" {
				return def
			}
			return val
		},
		"groupLabel": func(group string) string {
			return filters.GroupLabel(groupLabels, group)
		},
		"searchTypeLabel": func(t filters.SearchType) string {
			return t.Label()
		},
	}
}
