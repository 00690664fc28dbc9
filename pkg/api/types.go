package api

import (
	"time"

	"github.com/rubiojr/aurosearch/pkg/filters"
	"github.com/rubiojr/aurosearch/pkg/history"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type FiltersResponse struct {
	Authors           []string            `json:"authors"`
	Groups            []GroupResponse     `json:"groups"`
	BookTitles        []string            `json:"book_titles"`
	BookTitlesByGroup map[string][]string `json:"book_titles_by_group"`
	SearchTypes       []string            `json:"search_types"`
}

type GroupResponse struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

type ResultResponse struct {
	Position    int      `json:"position"`
	Author      string   `json:"author,omitempty"`
	BookTitle   string   `json:"book_title"`
	ChapterName string   `json:"chapter_name,omitempty"`
	PageNumber  int      `json:"page_number"`
	PDFURL      string   `json:"pdf_url"`
	PDFLink     string   `json:"pdf_link"`
	Snippet     string   `json:"snippet"`
	Distance    *float64 `json:"distance,omitempty"`
	Priority    string   `json:"priority,omitempty"`
}

type SearchResponse struct {
	Query      string            `json:"query"`
	Selection  filters.Selection `json:"selection"`
	Results    []ResultResponse  `json:"results"`
	TotalCount int               `json:"total_count"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
	HasMore    bool              `json:"has_more"`
}

type HistoryResponse struct {
	Enabled  bool            `json:"enabled"`
	Searches []history.Entry `json:"searches"`
	Count    int             `json:"count"`
}

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Backend   string    `json:"backend"`
	Breaker   string    `json:"breaker,omitempty"`
}
