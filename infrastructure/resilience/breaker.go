// Package resilience guards the remote stores with circuit breakers and
// records every remote call.
package resilience

import (
	"context"
	"errors"
	"time"

	"silo-planner/application/ports"
	appErrors "silo-planner/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// BreakerConfig holds configuration for a circuit breaker
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the breaker
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before trying again
	OpenTimeout time.Duration
	// HalfOpenCalls is the number of trial calls allowed while half-open
	HalfOpenCalls uint32
}

// DefaultBreakerConfig returns the default breaker configuration
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:   5,
		OpenTimeout:   30 * time.Second,
		HalfOpenCalls: 1,
	}
}

type guard struct {
	name    string
	cb      *gobreaker.CircuitBreaker
	metrics ports.Metrics
	logger  *zap.Logger
}

func newGuard(name string, cfg BreakerConfig, metrics ports.Metrics, logger *zap.Logger) *guard {
	if cfg.MaxFailures == 0 {
		cfg = DefaultBreakerConfig()
	}
	g := &guard{name: name, metrics: metrics, logger: logger}
	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenCalls,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: isSuccessful,
	})
	return g
}

// isSuccessful keeps caller mistakes from tripping the breaker
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	if appErrors.IsConfiguration(err) || appErrors.IsValidation(err) {
		return true
	}
	status := appErrors.UpstreamStatus(err)
	return status >= 400 && status < 500 && status != 429
}

// run executes fn through the breaker and records the call
func (g *guard) run(operation string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	result, err := g.cb.Execute(fn)
	duration := time.Since(start)

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		g.metrics.RemoteCall(g.name, operation, ports.OutcomeRejected, duration)
		g.logger.Warn("Remote call rejected by circuit breaker",
			zap.String("store", g.name),
			zap.String("operation", operation),
		)
		return nil, appErrors.NewRemoteStoreError(g.name, 0, "circuit open", err)
	case err != nil:
		g.metrics.RemoteCall(g.name, operation, ports.OutcomeFailure, duration)
		return nil, err
	default:
		g.metrics.RemoteCall(g.name, operation, ports.OutcomeSuccess, duration)
		return result, nil
	}
}

// State returns the breaker state name
func (g *guard) State() string {
	return g.cb.State().String()
}
