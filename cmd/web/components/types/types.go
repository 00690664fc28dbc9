package types

import (
	"github.com/rubiojr/aurosearch/pkg/filters"
	"github.com/rubiojr/aurosearch/pkg/history"
	"github.com/rubiojr/aurosearch/pkg/render"
)

// PageData represents data passed to templates
type PageData struct {
	Title        string
	Version      string
	Query        string
	Selection    filters.Selection
	Authors      []string
	Groups       []GroupOption
	BookTitles   []string
	SearchTypes  []SearchTypeOption
	Cards        []render.Card
	Searched     bool // a search has completed for the current view
	Loading      bool
	TotalCount   int
	CurrentPage  int
	TotalPages   int
	PageWindow   []int
	HasPrevPage  bool
	HasNextPage  bool
	Error        string
	FiltersError string
	Recent       []history.Entry
	Live         bool // the page should open the live search websocket
}

// GroupOption is one entry of the group selector.
type GroupOption struct {
	Code  string
	Label string
}

// SearchTypeOption is one entry of the search type selector.
type SearchTypeOption struct {
	Value filters.SearchType
	Label string
}
