package critique

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

// ResilientConfig tunes the retry and circuit breaker around a Critic.
type ResilientConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	// FailuresToTrip opens the breaker after this many consecutive failures.
	FailuresToTrip int
	OpenTimeout    time.Duration
	Logger         *slog.Logger
}

// DefaultResilientConfig returns the settings used by the CLI.
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		FailuresToTrip: 3,
		OpenTimeout:    30 * time.Second,
	}
}

// Resilient wraps a Critic with retries and a circuit breaker.
type Resilient struct {
	critic  Critic
	retrier retry.Retry[string]
	breaker circuitbreaker.CircuitBreaker[string]
}

// NewResilient wraps critic.
func NewResilient(critic Critic, cfg ResilientConfig) *Resilient {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.FailuresToTrip <= 0 {
		cfg.FailuresToTrip = 3
	}
	logger := cfg.Logger
	r := &Resilient{critic: critic}
	r.retrier = retry.New[string](retry.Config{
		MaxAttempts:   cfg.MaxAttempts,
		InitialDelay:  cfg.InitialDelay,
		MaxDelay:      cfg.MaxDelay,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   IsRetryable,
	})
	r.breaker = circuitbreaker.New[string](circuitbreaker.Config{
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= cfg.FailuresToTrip
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			if logger != nil {
				logger.Warn("critic circuit breaker state change", "from", from.String(), "to", to.String())
			}
		},
	})
	return r
}

// Critique implements Critic.
func (r *Resilient) Critique(ctx context.Context, req Request) (string, error) {
	return r.breaker.Execute(ctx, func(ctx context.Context) (string, error) {
		return r.retrier.Do(ctx, func(ctx context.Context) (string, error) {
			return r.critic.Critique(ctx, req)
		})
	})
}

// IsRetryable reports whether a failed call may succeed on retry.
// Cancellation, empty answers, refusals and client-side API errors are
// final. Errors reported in a response body are transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrEmptyResponse) {
		return false
	}
	var respErr *ResponseError
	if errors.As(err, &respErr) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
	return !errors.Is(err, ErrServiceError)
}
