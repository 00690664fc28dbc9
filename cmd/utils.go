package cmd

import (
	"fmt"

	"github.com/rubiojr/aurosearch/pkg/backend"
	"github.com/rubiojr/aurosearch/pkg/config"
	"github.com/rubiojr/aurosearch/pkg/resilience"
	"golang.org/x/time/rate"
)

// newResilienceGuard builds the backend circuit breaker from the [breaker]
// section.
func newResilienceGuard(cfg *config.Config) *resilience.Guard {
	return resilience.NewGuard(resilience.Config{
		Enabled:          cfg.Breaker.Enabled,
		MinRequests:      cfg.Breaker.MinRequests,
		FailureRatio:     cfg.Breaker.FailureRatio,
		OpenTimeout:      cfg.Breaker.OpenTimeout.Duration,
		HalfOpenMaxCalls: cfg.Breaker.HalfOpenMaxCalls,
	})
}

// newBackendClient creates the search backend client. observer may be nil.
func newBackendClient(cfg *config.Config, guard *resilience.Guard, observer backend.Observer) (*backend.Client, error) {
	opts := backend.Options{
		BaseURL:  cfg.BackendURL,
		Timeout:  cfg.RequestTimeout.Duration,
		Guard:    guard,
		Observer: observer,
	}
	if cfg.RateLimit.BackendRPS > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.BackendRPS), max(cfg.RateLimit.BackendBurst, 1))
	}

	client, err := backend.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("creating backend client: %w", err)
	}
	return client, nil
}
