// Package render turns backend search results into display cards: titles with
// fallbacks, sanitized and highlighted snippets and PDF deep links.
package render

import (
	"html/template"
	"strconv"
	"strings"

	"github.com/rubiojr/aurosearch/pkg/backend"
)

// Card is the display form of one search result.
type Card struct {
	// Position is the 1-based rank of the result in the full result list.
	Position int
	Title    string
	Chapter  string
	Author   string
	Page     int
	PDFLink  string
	Snippet  template.HTML
	Distance string
	Priority string
}

// NewCard renders r for display, highlighting term in the snippet.
func NewCard(r backend.Result, term string, position int) Card {
	c := Card{
		Position: position,
		Title:    strings.TrimSpace(PlainText(r.BookTitle)),
		Chapter:  strings.TrimSpace(PlainText(r.ChapterName)),
		Author:   strings.TrimSpace(r.Author),
		Page:     int(r.PageNumber),
		PDFLink:  PDFLink(r.PDFURL, int(r.PageNumber)),
		Snippet:  Snippet(r.Snippet, term),
		Distance: NoValue,
		Priority: NoValue,
	}
	if c.Title == "" {
		c.Title = NoTitle
	}
	if r.Distance != nil {
		c.Distance = strconv.FormatFloat(*r.Distance, 'f', 2, 64)
	}
	if p := strings.TrimSpace(string(r.Priority)); p != "" {
		c.Priority = p
	}
	return c
}

// Cards renders a page of results. offset is the zero-based index of the
// first result in the full list.
func Cards(results []backend.Result, term string, offset int) []Card {
	cards := make([]Card, len(results))
	for i, r := range results {
		cards[i] = NewCard(r, term, offset+i+1)
	}
	return cards
}
