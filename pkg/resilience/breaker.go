// Package resilience guards calls to the search backend with a circuit
// breaker. Failed calls are never retried: a failure is reported to the user
// right away, and repeated failures open the breaker so later calls fail fast
// until the backend recovers.
package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rubiojr/aurosearch/pkg/log"
	"github.com/sony/gobreaker/v2"
)

var l = log.ForService("breaker")

// Config tunes the breakers created by a Guard.
type Config struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

// DefaultConfig returns the breaker settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		MinRequests:      10,
		FailureRatio:     0.5,
		OpenTimeout:      30 * time.Second,
		HalfOpenMaxCalls: 2,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.MinRequests == 0 {
		c.MinRequests = def.MinRequests
	}
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		c.FailureRatio = def.FailureRatio
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = def.OpenTimeout
	}
	if c.HalfOpenMaxCalls == 0 {
		c.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	return c
}

// Classifier reports whether err should count against the breaker.
type Classifier func(err error) bool

// Guard keeps one breaker per operation name.
type Guard struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

// NewGuard returns a Guard using cfg.
func NewGuard(cfg Config) *Guard {
	return &Guard{
		cfg:      cfg.normalize(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

// Execute runs fn once through the breaker for operation.
func (g *Guard) Execute(ctx context.Context, operation string, fn func(context.Context) error, countsAsFailure Classifier) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if countsAsFailure == nil {
		countsAsFailure = defaultClassifier
	}
	if !g.cfg.Enabled {
		return fn(ctx)
	}

	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	_, err := g.breaker(op, countsAsFailure).Execute(func() (any, error) {
		return nil, fn(ctx)
	})
	return err
}

// State returns the breaker state for operation, "closed" if it was never used.
func (g *Guard) State(operation string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if b, ok := g.breakers[operation]; ok {
		return b.State().String()
	}
	return gobreaker.StateClosed.String()
}

func (g *Guard) breaker(operation string, countsAsFailure Classifier) *gobreaker.CircuitBreaker[any] {
	g.mu.Lock()
	defer g.mu.Unlock()

	if b, ok := g.breakers[operation]; ok {
		return b
	}

	settings := gobreaker.Settings{
		Name:        operation,
		MaxRequests: g.cfg.HalfOpenMaxCalls,
		Timeout:     g.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < g.cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= g.cfg.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !countsAsFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warnf("breaker %s: %s -> %s", name, from, to)
		},
	}

	b := gobreaker.NewCircuitBreaker[any](settings)
	g.breakers[operation] = b
	return b
}

// IsOpen reports whether err was produced by an open or saturated breaker.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func defaultClassifier(err error) bool {
	return !errors.Is(err, context.Canceled)
}
