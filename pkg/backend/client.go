// Package backend is the HTTP client for the corpus search service. The
// service owns retrieval and ranking; this package only issues the /filters
// and /search requests and decodes their responses.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rubiojr/aurosearch/pkg/filters"
	"github.com/rubiojr/aurosearch/pkg/log"
	"github.com/rubiojr/aurosearch/pkg/resilience"
	"golang.org/x/time/rate"
)

var l = log.ForService("backend")

// DefaultTopK caps the number of results requested per search.
const DefaultTopK = 100

// Observer receives one observation per backend call.
type Observer interface {
	ObserveBackendCall(endpoint, outcome string, d time.Duration)
}

// Options configures a Client. Only BaseURL is required.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	Guard      *resilience.Guard
	// Limiter throttles outbound calls; nil means unlimited.
	Limiter  *rate.Limiter
	Observer Observer
}

// Client talks to the search backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	guard      *resilience.Guard
	limiter    *rate.Limiter
	observer   Observer
}

// NewClient validates opts and returns a Client.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", opts.BaseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	guard := opts.Guard
	if guard == nil {
		guard = resilience.NewGuard(resilience.DefaultConfig())
	}

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
		guard:      guard,
		limiter:    opts.Limiter,
		observer:   opts.Observer,
	}, nil
}

// BaseURL returns the normalized backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Filters fetches the filter catalogue. book_titles_by_group is optional in
// the response and defaults to an empty map.
func (c *Client) Filters(ctx context.Context) (filters.Options, error) {
	var opts filters.Options
	if err := c.get(ctx, "filters", nil, &opts); err != nil {
		l.Errorf("fetching filters: %v", err)
		return filters.Options{}, err
	}
	if opts.BookTitlesByGroup == nil {
		opts.BookTitlesByGroup = map[string][]string{}
	}
	return opts, nil
}

// Search runs one query against the backend. Empty filter values are omitted
// from the request.
func (c *Client) Search(ctx context.Context, req Request) ([]Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	params := SearchParams(req)
	var resp searchResponse
	if err := c.get(ctx, "search", params, &resp); err != nil {
		l.Errorf("search %q: %v", query, err)
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []Result{}
	}
	l.Debugf("search %q returned %d results", query, len(resp.Results))
	return resp.Results, nil
}

// SearchParams builds the /search query string for req.
func SearchParams(req Request) url.Values {
	topK := req.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	params := url.Values{}
	params.Set("query", req.Query)
	sel := req.Selection
	if sel.Author != "" {
		params.Set("author", sel.Author)
	}
	if sel.Group != "" {
		params.Set("group", sel.Group)
	}
	if sel.BookTitle != "" {
		params.Set("book_title", sel.BookTitle)
	}
	if sel.SearchType != "" {
		params.Set("search_type", string(sel.SearchType))
	}
	params.Set("top_k", strconv.Itoa(topK))
	return params
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for backend rate limit: %w", err)
		}
	}

	start := time.Now()
	err := c.guard.Execute(ctx, endpoint, func(ctx context.Context) error {
		return c.doGet(ctx, endpoint, params, out)
	}, countsAsFailure)

	if c.observer != nil {
		c.observer.ObserveBackendCall(endpoint, outcome(err), time.Since(start))
	}
	return err
}

func (c *Client) doGet(ctx context.Context, endpoint string, params url.Values, out any) error {
	target := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case resilience.IsOpen(err):
		return "breaker_open"
	case isStatusError(err):
		return "status"
	default:
		return "error"
	}
}

func isStatusError(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr)
}
