package cmd

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rubiojr/aurosearch/cmd/web/components"
	"github.com/rubiojr/aurosearch/cmd/web/components/types"
	"github.com/rubiojr/aurosearch/pkg/api"
	"github.com/rubiojr/aurosearch/pkg/backend"
	"github.com/rubiojr/aurosearch/pkg/config"
	"github.com/rubiojr/aurosearch/pkg/filters"
	"github.com/rubiojr/aurosearch/pkg/history"
	"github.com/rubiojr/aurosearch/pkg/log"
	"github.com/rubiojr/aurosearch/pkg/metrics"
	"github.com/rubiojr/aurosearch/pkg/query"
	"github.com/rubiojr/aurosearch/pkg/realtime"
	"github.com/rubiojr/aurosearch/pkg/render"
	"github.com/rubiojr/aurosearch/pkg/resilience"
	"github.com/rubiojr/aurosearch/pkg/session"
	"github.com/rubiojr/aurosearch/pkg/version"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

//go:embed web/static/*
var staticFS embed.FS

var webLog = log.ForService("web")

const recentSearches = 10

// WebCommand creates the web command serving the search UI and the JSON API
func WebCommand() *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Start the search web interface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "port",
				Usage: "Port to listen on",
				Value: "8080",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind to",
				Value: "localhost",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return startWebServer(ctx, c.String("config"), c.String("host"), c.String("port"))
		},
	}
}

// WebServer holds the server configuration and dependencies
type WebServer struct {
	config     *config.Config
	client     *backend.Client
	guard      *resilience.Guard
	sessions   *session.Store
	history    *history.Store
	hub        *realtime.Hub
	metrics    *metrics.Metrics
	apiServer  *api.Server
	components *components.Set
	limiter    *rate.Limiter
	upgrader   websocket.Upgrader
}

// NewWebServer wires the backend client, sessions, history and metrics
// described by cfg. Close releases them.
func NewWebServer(cfg *config.Config) (*WebServer, error) {
	m := metrics.New()
	guard := newResilienceGuard(cfg)

	client, err := newBackendClient(cfg, guard, m)
	if err != nil {
		return nil, err
	}

	var hist *history.Store
	if cfg.HistoryPath != "" {
		hist, err = history.Open(cfg.HistoryPath)
		if err != nil {
			return nil, fmt.Errorf("opening search history: %w", err)
		}
	}

	set, err := components.NewSet(cfg.GroupLabels)
	if err != nil {
		if hist != nil {
			hist.Close()
		}
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	s := &WebServer{
		config:     cfg,
		client:     client,
		guard:      guard,
		history:    hist,
		hub:        realtime.NewHub(32),
		metrics:    m,
		components: set,
	}
	if cfg.RateLimit.WebRPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.WebRPS), max(cfg.RateLimit.WebBurst, 1))
	}

	s.sessions = session.NewStore(client, session.Options{
		TTL: cfg.SessionTTL.Duration,
		Query: query.Options{
			Debounce: cfg.Debounce.Duration,
			TopK:     cfg.TopK,
			PageSize: cfg.PageSize,
			Observer: m,
		},
		AuthorOrder: cfg.AuthorOrder,
		Gauge:       m,
		OnSearch:    s.onSearch,
	})

	apiOpts := api.Options{
		PageSize:     cfg.PageSize,
		TopK:         cfg.TopK,
		AuthorOrder:  cfg.AuthorOrder,
		GroupLabels:  cfg.GroupLabels,
		BreakerState: func() string { return guard.State("search") },
	}
	if hist != nil {
		apiOpts.History = hist
	}
	s.apiServer = api.NewServer(client, apiOpts)

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     sameOrigin,
	}
	return s, nil
}

// LoadFilters fetches the filter options once. A failure is not fatal: the
// UI shows a notice and works without filters.
func (s *WebServer) LoadFilters(ctx context.Context) {
	if err := s.sessions.LoadOptions(ctx, s.client); err != nil {
		webLog.Warnf("continuing without filters: %v", err)
	}
}

// Handler returns the routes wrapped in the middleware chain.
func (s *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	s.apiServer.RegisterRoutes(mux)

	// Web UI routes
	mux.HandleFunc("/", s.handleHome)
	mux.HandleFunc("/search", s.handleSearch)
	mux.Handle("/metrics", s.metrics.Handler())

	// Static assets
	mux.HandleFunc("/static/", s.handleStatic)

	// The websocket route must see the raw connection, so it bypasses gzip.
	root := http.NewServeMux()
	root.HandleFunc("/ws", s.handleLive)
	root.Handle("/", gzhttp.GzipHandler(mux))

	var handler http.Handler = root
	handler = api.CorsMiddleware(handler)
	handler = rateLimitMiddleware(handler, s.limiter)
	handler = s.metrics.Middleware(handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

// Close stops all sessions and closes the history database.
func (s *WebServer) Close() error {
	s.sessions.Close()
	if s.history != nil {
		return s.history.Close()
	}
	return nil
}

// startWebServer starts the web server with both API and UI
func startWebServer(ctx context.Context, configPath, host, port string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	webServer, err := NewWebServer(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := webServer.Close(); err != nil {
			webLog.Warnf("failed to close web server: %v", err)
		}
	}()

	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.RequestTimeout.Duration)
	webServer.LoadFilters(loadCtx)
	cancelLoad()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go webServer.sessions.Run(sweepCtx)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", host, port),
		Handler:           webServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		webLog.Infof("Starting web server on http://%s:%s (backend %s)", host, port, cfg.BackendURL)
		webLog.Infof("Available endpoints:")
		webLog.Infof("  Web UI:")
		webLog.Infof("    GET / - Search page")
		webLog.Infof("    GET /search - Search results")
		webLog.Infof("    GET /ws - Live search websocket")
		webLog.Infof("  API:")
		webLog.Infof("    GET /api/filters - Filter options")
		webLog.Infof("    GET /api/search - Search passthrough")
		webLog.Infof("    GET /api/history - Recent searches")
		webLog.Infof("    GET /health - Health check")
		webLog.Infof("    GET /metrics - Prometheus metrics")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return fmt.Errorf("web server: %w", err)
	case <-sigCh:
	case <-ctx.Done():
	}

	webLog.Infof("Shutting down web server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// Web UI Handlers

// handleHome renders the search form, the session's current results and the
// recent searches.
func (s *WebServer) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	// Queries sent to / are handled by the search page
	if r.URL.Query().Get("query") != "" {
		http.Redirect(w, r, "/search?"+r.URL.RawQuery, http.StatusFound)
		return
	}

	sess := s.sessions.FromRequest(w, r)
	data := s.pageData(r.Context(), sess, sess.Query.Snapshot())
	data.Title = "aurosearch"

	if err := s.components.Index(data).Render(r.Context(), w); err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
	}
}

// handleSearch merges the submitted filters into the session and either runs
// a new search or moves to another page of the current results.
func (s *WebServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.FromRequest(w, r)
	params := r.URL.Query()

	sel, err := api.ParseSelection(params)
	if err != nil {
		data := s.pageData(r.Context(), sess, sess.Query.Snapshot())
		data.Error = "Invalid search type."
		w.WriteHeader(http.StatusBadRequest)
		s.renderSearch(w, r, data)
		return
	}
	sel = sess.Filters.Apply(sel)

	q := params.Get("query")
	page := api.ParsePage(params.Get("page"))
	st := sess.Query.Snapshot()

	// Pagination links carry a page parameter; form submissions do not and
	// always search again.
	fresh := !params.Has("page")
	changed := !st.HasSearched || st.Searched.Query != q || st.Searched.Selection != sel
	if fresh || changed {
		ctx, cancel := context.WithTimeout(r.Context(), s.searchWait())
		st, err = sess.Query.Submit(q, sel).Wait(ctx)
		cancel()
		if err != nil {
			webLog.Warnf("search %q did not settle: %v", q, err)
		}
		if page > 1 && st.Err == "" {
			sess.Query.GoToPage(page)
			st = sess.Query.Snapshot()
		}
	} else {
		sess.Query.GoToPage(page)
		st = sess.Query.Snapshot()
	}

	data := s.pageData(r.Context(), sess, st)
	data.Query = q
	s.renderSearch(w, r, data)
}

func (s *WebServer) renderSearch(w http.ResponseWriter, r *http.Request, data types.PageData) {
	if err := s.components.Search(data).Render(r.Context(), w); err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
	}
}

// handleStatic serves static assets from embedded files
func (s *WebServer) handleStatic(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	filePath := "web/static/" + strings.TrimPrefix(path, "/static/")

	content, err := staticFS.ReadFile(filePath)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".png"):
		w.Header().Set("Content-Type", "image/png")
	}
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := w.Write(content); err != nil {
		webLog.Errorf("writing static content: %v", err)
	}
}

// Helper methods

// pageData builds the template data for a session in state st.
func (s *WebServer) pageData(ctx context.Context, sess *session.Session, st query.State) types.PageData {
	opts, filtersErr := s.sessions.Options()

	groups := make([]types.GroupOption, len(opts.Groups))
	for i, g := range opts.Groups {
		groups[i] = types.GroupOption{Code: g, Label: filters.GroupLabel(s.config.GroupLabels, g)}
	}
	searchTypes := make([]types.SearchTypeOption, len(filters.SearchTypes))
	for i, t := range filters.SearchTypes {
		searchTypes[i] = types.SearchTypeOption{Value: t, Label: t.Label()}
	}

	title := "aurosearch"
	if st.Query != "" {
		title = st.Query + " - aurosearch"
	}

	return types.PageData{
		Title:        title,
		Version:      version.APIVersion(),
		Query:        st.Query,
		Selection:    sess.Filters.Selected(),
		Authors:      opts.Authors,
		Groups:       groups,
		BookTitles:   sess.Filters.BookTitleOptions(),
		SearchTypes:  searchTypes,
		Cards:        render.Cards(st.Results, st.Searched.Query, st.Offset),
		Searched:     st.HasSearched,
		Loading:      st.Loading,
		TotalCount:   st.Total,
		CurrentPage:  st.Page,
		TotalPages:   st.TotalPages,
		PageWindow:   st.Window,
		HasPrevPage:  st.HasPrev(),
		HasNextPage:  st.HasNext(),
		Error:        st.Err,
		FiltersError: filtersErr,
		Recent:       s.recent(ctx),
		Live:         true,
	}
}

func (s *WebServer) recent(ctx context.Context) []history.Entry {
	if s.history == nil {
		return nil
	}
	entries, err := s.history.Recent(ctx, recentSearches)
	if err != nil {
		webLog.Warnf("reading recent searches: %v", err)
		return nil
	}
	return entries
}

// onSearch records a completed search and announces it to live sessions.
func (s *WebServer) onSearch(sessionID string, req backend.Request, results int) {
	ev := realtime.SearchEvent{
		Query:      req.Query,
		Selection:  req.Selection,
		Results:    results,
		SearchedAt: time.Now().UTC(),
		Session:    sessionID,
	}
	if s.history != nil {
		if err := s.history.Record(context.Background(), ev.Query, ev.Selection, ev.Results, ev.SearchedAt); err != nil {
			webLog.Warnf("recording search: %v", err)
		}
	}
	s.hub.Publish(ev)
}

// searchWait bounds how long an HTTP request waits for its search to settle.
func (s *WebServer) searchWait() time.Duration {
	return s.config.Debounce.Duration + s.config.RequestTimeout.Duration + time.Second
}

func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	host := strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://")
	return strings.EqualFold(host, r.Host)
}
