package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyQuery is returned when a search is attempted without a query.
var ErrEmptyQuery = errors.New("empty search query")

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "backend status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("backend %s status: %s", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("backend %s status: %s: %s", e.Endpoint, e.Status, strings.TrimSpace(e.Body))
}

// countsAsFailure decides which errors trip the breaker. Client errors and
// cancellations say nothing about backend health.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrEmptyQuery) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 || statusErr.StatusCode == 429
	}
	return true
}
