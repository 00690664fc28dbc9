package cmd

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rubiojr/aurosearch/pkg/filters"
	"github.com/rubiojr/aurosearch/pkg/history"
	"github.com/rubiojr/aurosearch/pkg/render"
)

// Define styles using lipgloss
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Margin(0, 0, 1, 2)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	markStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("220"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))
)

// formatNumber formats a number with K/M suffixes for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// highlightTerm marks case-insensitive occurrences of term in plain text.
func highlightTerm(text, term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return text
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
	return re.ReplaceAllStringFunc(text, func(s string) string { return markStyle.Render(s) })
}

// formatCard renders one result card for the terminal.
func formatCard(c render.Card, snippet, term string) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%d. %s", c.Position, c.Title)))
	if c.Chapter != "" {
		b.WriteString("\n" + metaStyle.Render(c.Chapter))
	}
	if c.Author != "" {
		b.WriteString("\n" + metaStyle.Render(c.Author))
	}
	b.WriteString("\n\n")

	text := strings.TrimSpace(render.PlainText(snippet))
	if text == "" {
		text = render.NoSnippet
	}
	b.WriteString(highlightTerm(text, term))
	b.WriteString("\n\n")
	if c.PDFLink != "" {
		b.WriteString(urlStyle.Render(c.PDFLink) + "\n")
	}
	b.WriteString(metaStyle.Render(fmt.Sprintf("Page %d · Distance: %s · Priority: %s", c.Page, c.Distance, c.Priority)))
	return cardStyle.Render(b.String())
}

// describeSelection summarizes the active filters, or "" when none are set.
func describeSelection(sel filters.Selection, groupLabels map[string]string) string {
	var parts []string
	if sel.Author != "" {
		parts = append(parts, "author: "+sel.Author)
	}
	if sel.Group != "" {
		parts = append(parts, "group: "+filters.GroupLabel(groupLabels, sel.Group))
	}
	if sel.BookTitle != "" {
		parts = append(parts, "book: "+sel.BookTitle)
	}
	if sel.SearchType != "" && sel.SearchType != filters.SearchAll {
		parts = append(parts, "type: "+sel.SearchType.Label())
	}
	return strings.Join(parts, ", ")
}

// printHistory lists recorded searches, newest first.
func printHistory(w io.Writer, entries []history.Entry, groupLabels map[string]string) {
	if len(entries) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No searches recorded yet."))
		return
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Recent searches (%d)", len(entries))))
	for _, e := range entries {
		line := fmt.Sprintf("%s  %s", headerStyle.Render(e.Query),
			metaStyle.Render(fmt.Sprintf("%s results · %s", formatNumber(e.Results), render.FormatTime(e.SearchedAt))))
		if f := describeSelection(e.Selection, groupLabels); f != "" {
			line += "\n   " + metaStyle.Render(f)
		}
		fmt.Fprintln(w, line)
	}
}
