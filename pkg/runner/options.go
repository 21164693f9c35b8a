package runner

import (
	"github.com/RunFleet/RunFleet/internal/httpclient"
	"github.com/RunFleet/RunFleet/internal/logger"
	"github.com/RunFleet/RunFleet/internal/metrics"
	"github.com/RunFleet/RunFleet/internal/ratelimit"
)

// Option is a functional option for configuring the Runner.
type Option func(*Runner) error

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) error {
		r.logger = l
		return nil
	}
}

// WithHTTPClient sets a pre-built HTTP client.
func WithHTTPClient(c *httpclient.Client) Option {
	return func(r *Runner) error {
		r.client = c
		return nil
	}
}

// WithClientConfig builds the HTTP client from the given configuration.
func WithClientConfig(cfg httpclient.Config) Option {
	return func(r *Runner) error {
		r.client = httpclient.New(cfg)
		return nil
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(r *Runner) error {
		r.metrics = m
		return nil
	}
}

// WithRateLimit bounds outbound invocations to the given rate per host.
// The runner applies no rate limit unless this option is used.
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(r *Runner) error {
		r.limiter = ratelimit.NewLimiter(requestsPerSecond, burst)
		return nil
	}
}

// WithOutcomeCallback registers a callback fired as each outcome completes.
// Multiple callbacks run in registration order.
func WithOutcomeCallback(cb OutcomeCallback) Option {
	return func(r *Runner) error {
		r.callbacks = append(r.callbacks, cb)
		return nil
	}
}
