// Package query runs search submissions against the backend. Submissions are
// debounced, each dispatch carries a token and only the completion of the
// latest dispatch is applied.
package query

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rubiojr/aurosearch/pkg/backend"
	"github.com/rubiojr/aurosearch/pkg/filters"
	"github.com/rubiojr/aurosearch/pkg/log"
	"github.com/rubiojr/aurosearch/pkg/paginate"
)

var l = log.ForService("query")

// User-facing error messages.
const (
	ErrEmptyQuery   = "Please enter a search query."
	ErrSearchFailed = "Search failed. Please try again."
)

// DefaultDebounce is the quiet period before a submission is dispatched.
const DefaultDebounce = 300 * time.Millisecond

// Searcher runs one backend search. *backend.Client implements it.
type Searcher interface {
	Search(ctx context.Context, req backend.Request) ([]backend.Result, error)
}

// Observer receives the outcome of every dispatched search: ok, error or
// stale.
type Observer interface {
	ObserveSearch(outcome string, results int)
}

// Options configures a Controller.
type Options struct {
	Debounce time.Duration
	TopK     int
	PageSize int
	Observer Observer
	// OnSuccess is called after a search result list has been applied. It
	// runs without the controller locked, before waiters of the burst return.
	OnSuccess func(req backend.Request, results int)
}

// State is an immutable view of the controller.
type State struct {
	Query     string
	Selection filters.Selection
	// Searched is the request that produced Results; HasSearched is false
	// until the first successful search.
	Searched    backend.Request
	HasSearched bool
	// Results is the current page of results.
	Results    []backend.Result
	Total      int
	Offset     int
	Loading    bool
	Err        string
	Page       int
	TotalPages int
	Window     []int
	Token      uint64
}

// HasPrev reports whether a page before the current one exists.
func (s State) HasPrev() bool { return s.Page > 1 }

// HasNext reports whether a page after the current one exists.
func (s State) HasNext() bool { return s.Page < s.TotalPages }

type burst struct {
	req  backend.Request
	done chan struct{}
	// next is the burst that superseded this one, guarded by Controller.mu.
	next *burst
}

// Ticket tracks a single Submit call.
type Ticket struct {
	c *Controller
	b *burst
}

// Wait blocks until the burst the submission joined has settled, following
// superseding bursts, and returns the resulting state.
func (t *Ticket) Wait(ctx context.Context) (State, error) {
	b := t.b
	for b != nil {
		select {
		case <-b.done:
		case <-ctx.Done():
			return t.c.Snapshot(), ctx.Err()
		}
		t.c.mu.Lock()
		b = b.next
		t.c.mu.Unlock()
	}
	return t.c.Snapshot(), nil
}

// Controller debounces search submissions and holds the result list.
type Controller struct {
	searcher Searcher
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	pager     *paginate.Paginator[backend.Result]
	query     string
	selection filters.Selection
	searched  backend.Request
	hasResult bool
	loading   bool
	errMsg    string
	token     uint64
	pending   *burst
	timer     *time.Timer
	last      *burst
	listeners map[int]func(State)
	nextID    int
	closed    bool
}

// NewController returns a Controller dispatching to s.
func NewController(s Searcher, opts Options) *Controller {
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	if opts.TopK <= 0 {
		opts.TopK = backend.DefaultTopK
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		searcher:  s,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		pager:     paginate.New[backend.Result](nil, opts.PageSize),
		selection: filters.Selection{SearchType: filters.SearchAll},
	}
}

// OnChange registers fn to run after every state transition and returns a
// function that removes it. Listeners run with the controller locked and
// must not call back into it.
func (c *Controller) OnChange(fn func(State)) (remove func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listeners == nil {
		c.listeners = make(map[int]func(State))
	}
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Submit schedules a search for query with the given selection. An empty
// query fails immediately without contacting the backend. Otherwise the
// search runs once the debounce period passes with no further submissions.
func (c *Controller) Submit(query string, sel filters.Selection) *Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.query = query
	c.selection = sel
	if strings.TrimSpace(query) == "" || c.closed {
		if !c.closed {
			// An empty submission ends the current burst without a request.
			if c.pending != nil {
				c.timer.Stop()
				close(c.pending.done)
				c.pending = nil
			}
			c.errMsg = ErrEmptyQuery
			c.notify()
		}
		b := &burst{done: make(chan struct{})}
		close(b.done)
		return &Ticket{c: c, b: b}
	}

	req := backend.Request{Query: query, Selection: sel, TopK: c.opts.TopK}
	if c.pending != nil {
		c.pending.req = req
		c.timer.Reset(c.opts.Debounce)
		return &Ticket{c: c, b: c.pending}
	}

	b := &burst{req: req, done: make(chan struct{})}
	if c.last != nil {
		c.last.next = b
	}
	c.last = b
	c.pending = b
	c.timer = time.AfterFunc(c.opts.Debounce, func() { c.dispatch(b) })
	c.notify()
	return &Ticket{c: c, b: b}
}

func (c *Controller) dispatch(b *burst) {
	c.mu.Lock()
	if c.pending != b || c.closed {
		c.mu.Unlock()
		return
	}
	c.pending = nil
	c.token++
	token := c.token
	req := b.req
	c.loading = true
	c.errMsg = ""
	c.notify()
	c.mu.Unlock()

	defer close(b.done)
	results, err := c.searcher.Search(c.ctx, req)

	if c.settle(req, token, results, err) && c.opts.OnSuccess != nil {
		c.opts.OnSuccess(req, len(results))
	}
}

// settle applies a completed request and reports whether it produced a new
// result list. The success hook runs after settle, outside the lock.
func (c *Controller) settle(req backend.Request, token uint64, results []backend.Result, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.token || c.closed {
		l.Debugf("discarding stale response for %q (token %d, latest %d)", req.Query, token, c.token)
		c.observe("stale", len(results))
		return false
	}

	c.loading = false
	if err != nil {
		l.Errorf("search %q failed: %v", req.Query, err)
		c.errMsg = ErrSearchFailed
		c.observe("error", 0)
		c.notify()
		return false
	}

	c.pager.Reset(results)
	c.searched = req
	c.hasResult = true
	c.observe("ok", len(results))
	c.notify()
	return true
}

// GoToPage moves to page n. Out of range pages are ignored.
func (c *Controller) GoToPage(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pager.GoToPage(n) {
		return false
	}
	c.notify()
	return true
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

// Close stops pending work. In-flight requests are cancelled and their
// results dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	if c.pending != nil {
		c.timer.Stop()
		close(c.pending.done)
		c.pending = nil
	}
}

func (c *Controller) snapshot() State {
	return State{
		Query:       c.query,
		Selection:   c.selection,
		Searched:    c.searched,
		HasSearched: c.hasResult,
		Results:     c.pager.CurrentSlice(),
		Total:       c.pager.Len(),
		Offset:      c.pager.Offset(),
		Loading:     c.loading,
		Err:         c.errMsg,
		Page:        c.pager.Page(),
		TotalPages:  c.pager.TotalPages(),
		Window:      c.pager.Window(paginate.DefaultWindow),
		Token:       c.token,
	}
}

func (c *Controller) notify() {
	if len(c.listeners) == 0 {
		return
	}
	s := c.snapshot()
	for _, fn := range c.listeners {
		fn(s)
	}
}

func (c *Controller) observe(outcome string, n int) {
	if c.opts.Observer != nil {
		c.opts.Observer.ObserveSearch(outcome, n)
	}
}
