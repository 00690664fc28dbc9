package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rubiojr/aurosearch/pkg/backend"
	"github.com/rubiojr/aurosearch/pkg/filters"
	"github.com/rubiojr/aurosearch/pkg/paginate"
	"github.com/rubiojr/aurosearch/pkg/query"
	"github.com/rubiojr/aurosearch/pkg/render"
	"github.com/rubiojr/aurosearch/pkg/session"
	"github.com/rubiojr/aurosearch/pkg/version"
)

const maxHistoryLimit = 100

func (s *Server) HandleFilters(w http.ResponseWriter, r *http.Request) {
	opts, err := s.backend.Filters(r.Context())
	if err != nil {
		l.Errorf("fetching filters: %v", err)
		s.writeError(w, http.StatusBadGateway, "Backend unavailable", session.ErrFiltersUnavailable)
		return
	}
	opts = filters.NormalizeOptions(opts, s.opts.AuthorOrder)

	groups := make([]GroupResponse, len(opts.Groups))
	for i, g := range opts.Groups {
		groups[i] = GroupResponse{Code: g, Label: filters.GroupLabel(s.opts.GroupLabels, g)}
	}
	types := make([]string, len(filters.SearchTypes))
	for i, t := range filters.SearchTypes {
		types[i] = string(t)
	}

	s.writeJSON(w, http.StatusOK, FiltersResponse{
		Authors:           nonNil(opts.Authors),
		Groups:            groups,
		BookTitles:        nonNil(opts.BookTitles),
		BookTitlesByGroup: opts.BookTitlesByGroup,
		SearchTypes:       types,
	})
}

func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	q := params.Get("query")
	if strings.TrimSpace(q) == "" {
		s.writeError(w, http.StatusBadRequest, "Missing query parameter", query.ErrEmptyQuery)
		return
	}
	sel, err := ParseSelection(params)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid search type", err.Error())
		return
	}

	pageSize := s.opts.PageSize
	if v := params.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= backend.DefaultTopK {
			pageSize = n
		}
	}

	results, err := s.backend.Search(r.Context(), backend.Request{Query: q, Selection: sel, TopK: s.opts.TopK})
	if err != nil {
		l.Errorf("search %q failed: %v", q, err)
		s.writeError(w, http.StatusBadGateway, "Search failed", query.ErrSearchFailed)
		return
	}

	p := paginate.New(results, pageSize)
	p.GoToPage(ParsePage(params.Get("page")))

	page := p.CurrentSlice()
	out := make([]ResultResponse, len(page))
	for i, res := range page {
		card := render.NewCard(res, "", p.Offset()+i+1)
		out[i] = ResultResponse{
			Position:    card.Position,
			Author:      res.Author,
			BookTitle:   res.BookTitle,
			ChapterName: res.ChapterName,
			PageNumber:  int(res.PageNumber),
			PDFURL:      res.PDFURL,
			PDFLink:     card.PDFLink,
			Snippet:     render.PlainText(res.Snippet),
			Distance:    res.Distance,
			Priority:    string(res.Priority),
		}
	}

	s.writeJSON(w, http.StatusOK, SearchResponse{
		Query:      q,
		Selection:  sel,
		Results:    out,
		TotalCount: p.Len(),
		Page:       p.Page(),
		PageSize:   p.PageSize(),
		TotalPages: p.TotalPages(),
		HasMore:    p.HasNext(),
	})
}

func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		s.writeJSON(w, http.StatusOK, HistoryResponse{Searches: nil})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "Invalid limit", "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries, err := s.opts.History.Recent(r.Context(), limit)
	if err != nil {
		l.Errorf("reading history: %v", err)
		s.writeError(w, http.StatusInternalServerError, "Failed to read history", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, HistoryResponse{Enabled: true, Searches: entries, Count: len(entries)})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   version.APIVersion(),
		Backend:   s.backend.BaseURL(),
	}
	if s.opts.BreakerState != nil {
		health.Breaker = s.opts.BreakerState()
	}

	s.writeJSON(w, http.StatusOK, health)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
