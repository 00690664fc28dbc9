// Package filters holds the filter options offered by the search backend and
// the user's current selection of author, group, book title and search type.
package filters

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SearchType selects the backend matching mode.
type SearchType string

const (
	SearchAll      SearchType = "all"
	SearchExact    SearchType = "exact"
	SearchAllWords SearchType = "all_words"
	SearchSemantic SearchType = "semantic"
)

// SearchTypes lists the accepted search types in display order.
var SearchTypes = []SearchType{SearchAll, SearchExact, SearchAllWords, SearchSemantic}

// ParseSearchType maps a request value to a SearchType. An empty value means
// SearchAll.
func ParseSearchType(s string) (SearchType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SearchAll, nil
	}
	for _, t := range SearchTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown search type %q", s)
}

// Label returns the human readable name shown in the search type selector.
func (t SearchType) Label() string {
	switch t {
	case SearchExact:
		return "Exact phrase"
	case SearchAllWords:
		return "All words"
	case SearchSemantic:
		return "Semantic"
	default:
		return "All"
	}
}

// Options is the filter catalogue returned by the backend /filters endpoint.
// It is fetched once and never mutated afterwards.
type Options struct {
	Authors           []string            `json:"authors"`
	Groups            []string            `json:"groups"`
	BookTitles        []string            `json:"book_titles"`
	BookTitlesByGroup map[string][]string `json:"book_titles_by_group"`
}

// TitlesFor returns the book titles offered for group. An empty group yields
// the full title list; an unknown group yields nil.
func (o Options) TitlesFor(group string) []string {
	if group == "" {
		return o.BookTitles
	}
	return o.BookTitlesByGroup[group]
}

// NormalizeOptions orders authors by authorOrder (unlisted authors follow in
// alphabetical order) and sorts book titles with English collation so titles
// with diacritics land next to their plain spellings. The input is not
// modified.
func NormalizeOptions(o Options, authorOrder []string) Options {
	out := Options{
		Authors:           orderAuthors(o.Authors, authorOrder),
		Groups:            slices.Clone(o.Groups),
		BookTitles:        sortTitles(o.BookTitles),
		BookTitlesByGroup: make(map[string][]string, len(o.BookTitlesByGroup)),
	}
	sort.Strings(out.Groups)
	for g, titles := range o.BookTitlesByGroup {
		out.BookTitlesByGroup[g] = sortTitles(titles)
	}
	return out
}

func orderAuthors(authors, order []string) []string {
	present := make(map[string]bool, len(authors))
	for _, a := range authors {
		present[a] = true
	}

	out := make([]string, 0, len(authors))
	for _, a := range order {
		if present[a] {
			out = append(out, a)
			delete(present, a)
		}
	}

	rest := make([]string, 0, len(present))
	for a := range present {
		rest = append(rest, a)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func sortTitles(titles []string) []string {
	out := slices.Clone(titles)
	collate.New(language.English, collate.IgnoreCase).SortStrings(out)
	return out
}

// GroupLabel returns the description configured for a group code, or the code
// itself in title case.
func GroupLabel(labels map[string]string, group string) string {
	if l, ok := labels[group]; ok && l != "" {
		return l
	}
	if strings.ToUpper(group) == group {
		return group
	}
	return cases.Title(language.English).String(group)
}

// Selection is the user's current filter choice. Empty strings mean "any".
type Selection struct {
	Author     string     `json:"author"`
	Group      string     `json:"group"`
	BookTitle  string     `json:"book_title"`
	SearchType SearchType `json:"search_type"`
}

// Partial is a shallow update for a Selection. Nil fields are left untouched.
type Partial struct {
	Author     *string     `json:"author,omitempty"`
	Group      *string     `json:"group,omitempty"`
	BookTitle  *string     `json:"book_title,omitempty"`
	SearchType *SearchType `json:"search_type,omitempty"`
}

// Holder owns a Selection and derives the book title options from the
// selected group.
type Holder struct {
	mu       sync.RWMutex
	options  Options
	selected Selection
}

// NewHolder returns a Holder with an empty selection over options.
func NewHolder(options Options) *Holder {
	return &Holder{options: options, selected: Selection{SearchType: SearchAll}}
}

// Options returns the filter catalogue.
func (h *Holder) Options() Options {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.options
}

// Selected returns a copy of the current selection.
func (h *Holder) Selected() Selection {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.selected
}

// SetSelected merges p into the current selection, last write wins per key.
//
// When the group changes, the selected book title is cleared unless it also
// belongs to the new group's title set. A title set explicitly in the same
// update is kept as given.
func (h *Holder) SetSelected(p Partial) Selection {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.merge(p)
}

func (h *Holder) merge(p Partial) Selection {
	prevGroup := h.selected.Group
	if p.Author != nil {
		h.selected.Author = *p.Author
	}
	if p.Group != nil {
		h.selected.Group = *p.Group
	}
	if p.BookTitle != nil {
		h.selected.BookTitle = *p.BookTitle
	}
	if p.SearchType != nil {
		h.selected.SearchType = *p.SearchType
	}
	if h.selected.SearchType == "" {
		h.selected.SearchType = SearchAll
	}

	if h.selected.Group != prevGroup && p.BookTitle == nil && h.selected.BookTitle != "" {
		if !slices.Contains(h.options.TitlesFor(h.selected.Group), h.selected.BookTitle) {
			h.selected.BookTitle = ""
		}
	}
	return h.selected
}

// Apply replaces the whole selection, as submitted by the search form. The
// form always carries the previously chosen book title, so when the group
// changes a title outside the new group's set is dropped. The result keeps
// either the submitted title or none.
func (h *Holder) Apply(sel Selection) Selection {
	h.mu.Lock()
	defer h.mu.Unlock()

	title := sel.BookTitle
	if sel.Group != h.selected.Group && title != "" && !slices.Contains(h.options.TitlesFor(sel.Group), title) {
		title = ""
	}
	return h.merge(Partial{Author: &sel.Author, Group: &sel.Group, BookTitle: &title, SearchType: &sel.SearchType})
}

// BookTitleOptions returns the titles the user may pick for the selected group.
func (h *Holder) BookTitleOptions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.options.TitlesFor(h.selected.Group)
}

// String returns a pointer to s, for building Partial updates.
func String(s string) *string { return &s }

// Type returns a pointer to t, for building Partial updates.
func Type(t SearchType) *SearchType { return &t }
