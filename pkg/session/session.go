// Package session keeps the per-browser view state of the web UI: the filter
// selection, the query controller and its pages of results.
package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rubiojr/aurosearch/pkg/backend"
	"github.com/rubiojr/aurosearch/pkg/filters"
	"github.com/rubiojr/aurosearch/pkg/log"
	"github.com/rubiojr/aurosearch/pkg/query"
)

var l = log.ForService("session")

// CookieName is the name of the session cookie.
const CookieName = "aurosearch_session"

// ErrFiltersUnavailable is shown when the filter options could not be loaded.
const ErrFiltersUnavailable = "Failed to load filters."

// DefaultTTL is the idle time after which a session is dropped.
const DefaultTTL = 30 * time.Minute

// FilterLoader fetches the filter options. *backend.Client implements it.
type FilterLoader interface {
	Filters(ctx context.Context) (filters.Options, error)
}

// Gauge tracks the number of live sessions.
type Gauge interface {
	SetSessions(n int)
}

// Options configures a Store.
type Options struct {
	TTL         time.Duration
	Query       query.Options
	AuthorOrder []string
	Gauge       Gauge
	// OnSearch runs after a session applied a successful search.
	OnSearch func(sessionID string, req backend.Request, results int)
}

// Session is the view state of one browser.
type Session struct {
	ID      string
	Filters *filters.Holder
	Query   *query.Controller

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Store holds the live sessions in memory.
type Store struct {
	searcher query.Searcher
	opts     Options
	now      func() time.Time

	mu         sync.RWMutex
	sessions   map[string]*Session
	options    filters.Options
	filtersErr string
}

// NewStore returns an empty store whose sessions search through searcher.
func NewStore(searcher query.Searcher, opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &Store{
		searcher: searcher,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// LoadOptions fetches the filter options once. On failure the store keeps
// working with empty options and reports ErrFiltersUnavailable.
func (s *Store) LoadOptions(ctx context.Context, loader FilterLoader) error {
	opts, err := loader.Filters(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		l.Errorf("loading filters: %v", err)
		s.filtersErr = ErrFiltersUnavailable
		return err
	}
	s.options = filters.NormalizeOptions(opts, s.opts.AuthorOrder)
	s.filtersErr = ""
	l.Infof("loaded %d authors, %d groups, %d book titles",
		len(s.options.Authors), len(s.options.Groups), len(s.options.BookTitles))
	return nil
}

// Options returns the filter options and the error message to show when
// they could not be loaded.
func (s *Store) Options() (filters.Options, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options, s.filtersErr
}

// Get returns the live session with id and marks it as used.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	sess.touch(s.now())
	return sess, true
}

// Create starts a new session.
func (s *Store) Create() *Session {
	id := uuid.NewString()
	qopts := s.opts.Query
	if s.opts.OnSearch != nil {
		onSearch := s.opts.OnSearch
		prev := qopts.OnSuccess
		qopts.OnSuccess = func(req backend.Request, n int) {
			if prev != nil {
				prev(req, n)
			}
			onSearch(id, req, n)
		}
	}

	s.mu.Lock()
	sess := &Session{
		ID:       id,
		Filters:  filters.NewHolder(s.options),
		Query:    query.NewController(s.searcher, qopts),
		lastSeen: s.now(),
	}
	s.sessions[id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.report(n)
	l.Debugf("created session %s", id)
	return sess
}

// Resolve returns the session named by the request cookie. When the cookie
// is missing or names an expired session a new session is created and the
// cookie to set is returned as well.
func (s *Store) Resolve(r *http.Request) (*Session, *http.Cookie) {
	if c, err := r.Cookie(CookieName); err == nil {
		if sess, ok := s.Get(c.Value); ok {
			return sess, nil
		}
	}
	sess := s.Create()
	return sess, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest is Resolve for regular handlers: a new session cookie is set
// on w.
func (s *Store) FromRequest(w http.ResponseWriter, r *http.Request) *Session {
	sess, cookie := s.Resolve(r)
	if cookie != nil {
		http.SetCookie(w, cookie)
	}
	return sess
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.opts.TTL)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	for _, sess := range expired {
		sess.Query.Close()
	}
	if len(expired) > 0 {
		s.report(n)
		l.Debugf("expired %d sessions", len(expired))
	}
	return len(expired)
}

// Run sweeps expired sessions periodically until ctx is done.
func (s *Store) Run(ctx context.Context) {
	interval := max(s.opts.TTL/2, time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Close stops every session.
func (s *Store) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Query.Close()
	}
	s.report(0)
}

func (s *Store) report(n int) {
	if s.opts.Gauge != nil {
		s.opts.Gauge.SetSessions(n)
	}
}
