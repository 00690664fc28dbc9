// Package api serves the JSON endpoints used by scripts and the CLI: a
// passthrough to the search backend plus the local search history.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rubiojr/aurosearch/pkg/backend"
	"github.com/rubiojr/aurosearch/pkg/filters"
	"github.com/rubiojr/aurosearch/pkg/history"
	"github.com/rubiojr/aurosearch/pkg/log"
	"github.com/rubiojr/aurosearch/pkg/paginate"
)

var l = log.ForService("api")

// Backend is the subset of *backend.Client the API needs.
type Backend interface {
	BaseURL() string
	Filters(ctx context.Context) (filters.Options, error)
	Search(ctx context.Context, req backend.Request) ([]backend.Result, error)
}

// History is the subset of *history.Store the API needs.
type History interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Options configures a Server. History may be nil when search history is
// disabled.
type Options struct {
	History     History
	PageSize    int
	TopK        int
	AuthorOrder []string
	GroupLabels map[string]string
	// BreakerState reports the backend circuit breaker state for /health.
	BreakerState func() string
}

type Server struct {
	backend Backend
	opts    Options
}

func NewServer(b Backend, opts Options) *Server {
	if opts.PageSize <= 0 {
		opts.PageSize = paginate.DefaultPageSize
	}
	if opts.TopK <= 0 {
		opts.TopK = backend.DefaultTopK
	}
	return &Server{backend: b, opts: opts}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		l.Errorf("encoding JSON response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, error, message string) {
	response := ErrorResponse{
		Error:   error,
		Message: message,
	}
	s.writeJSON(w, status, response)
}

// ParseSelection reads the author, group, book_title and search_type values.
func ParseSelection(v url.Values) (filters.Selection, error) {
	st, err := filters.ParseSearchType(v.Get("search_type"))
	if err != nil {
		return filters.Selection{}, err
	}
	return filters.Selection{
		Author:     strings.TrimSpace(v.Get("author")),
		Group:      strings.TrimSpace(v.Get("group")),
		BookTitle:  strings.TrimSpace(v.Get("book_title")),
		SearchType: st,
	}, nil
}

// ParsePage reads a 1-based page number. Missing or malformed values mean 1.
func ParsePage(v string) int {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func CorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
