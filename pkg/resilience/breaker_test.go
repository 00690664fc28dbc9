package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBackend = errors.New("backend unavailable")

func TestExecuteRunsOnce(t *testing.T) {
	g := NewGuard(DefaultConfig())
	calls := 0
	err := g.Execute(context.Background(), "search", func(context.Context) error {
		calls++
		return errBackend
	}, nil)

	if !errors.Is(err, errBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("failed calls must not be retried, got %d calls", calls)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	g := NewGuard(Config{
		Enabled:          true,
		MinRequests:      2,
		FailureRatio:     0.5,
		OpenTimeout:      time.Minute,
		HalfOpenMaxCalls: 1,
	})
	fail := func(context.Context) error { return errBackend }

	for i := 0; i < 2; i++ {
		_ = g.Execute(context.Background(), "search", fail, nil)
	}
	if g.State("search") != "open" {
		t.Fatalf("expected open breaker, got %s", g.State("search"))
	}

	called := false
	err := g.Execute(context.Background(), "search", func(context.Context) error {
		called = true
		return nil
	}, nil)
	if !IsOpen(err) {
		t.Fatalf("expected open-state error, got %v", err)
	}
	if called {
		t.Fatal("open breaker must not call through")
	}
}

func TestClassifierSkipsNonFailures(t *testing.T) {
	g := NewGuard(Config{Enabled: true, MinRequests: 1, FailureRatio: 0.1, OpenTimeout: time.Minute})
	notCounted := func(error) bool { return false }

	for i := 0; i < 5; i++ {
		_ = g.Execute(context.Background(), "filters", func(context.Context) error { return errBackend }, notCounted)
	}
	if g.State("filters") != "closed" {
		t.Fatalf("errors not counted as failures must keep breaker closed, got %s", g.State("filters"))
	}
}

func TestDisabledGuardCallsThrough(t *testing.T) {
	g := NewGuard(Config{Enabled: false})
	calls := 0
	for i := 0; i < 20; i++ {
		_ = g.Execute(context.Background(), "search", func(context.Context) error {
			calls++
			return errBackend
		}, nil)
	}
	if calls != 20 {
		t.Fatalf("expected every call to run, got %d", calls)
	}
}

func TestExecuteHonoursCancelledContext(t *testing.T) {
	g := NewGuard(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := g.Execute(ctx, "search", func(context.Context) error {
		t.Fatal("fn must not run with a cancelled context")
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
