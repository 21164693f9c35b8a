// Package runner implements the concurrent fan-out execution engine: it takes
// an ordered batch of endpoint descriptors and an execution policy, invokes
// every endpoint with per-call failure isolation, and produces an aggregate
// report whose ordering always matches the input regardless of completion
// order.
package runner

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	rferrors "github.com/RunFleet/RunFleet/internal/errors"
	"github.com/RunFleet/RunFleet/internal/httpclient"
	"github.com/RunFleet/RunFleet/internal/logger"
	"github.com/RunFleet/RunFleet/internal/metrics"
	"github.com/RunFleet/RunFleet/internal/ratelimit"
)

// OutcomeCallback receives each outcome as it completes. Callbacks fire in
// completion order, which under parallel execution is not input order.
type OutcomeCallback func(Outcome)

// Runner executes endpoint batches. A Runner is safe for concurrent use;
// per-run state lives on the stack of Execute.
type Runner struct {
	client    *httpclient.Client
	logger    *logger.Logger
	metrics   *metrics.Collector
	limiter   *ratelimit.Limiter
	callbacks []OutcomeCallback
}

// New creates a runner with the given options.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.client == nil {
		r.client = httpclient.New(httpclient.DefaultConfig())
	}
	if r.logger == nil {
		r.logger = logger.New(logger.Config{
			Level:     logger.WarnLevel,
			Pretty:    true,
			Component: "runner",
		})
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}

	return r, nil
}

// Metrics returns the runner's metrics collector.
func (r *Runner) Metrics() *metrics.Collector {
	return r.metrics
}

// Execute runs one batch and returns its aggregate report.
//
// The report always returns normally: per-endpoint failures of any kind are
// outcomes, never errors. Execution is sequential when the policy disables
// parallelism or the batch has exactly one endpoint; otherwise a worker pool
// bounded by the policy (clamped to the batch size) fans the batch out.
// Execute blocks until every endpoint has finished.
func (r *Runner) Execute(ctx context.Context, endpoints []Endpoint, policy Policy, defaultPayload map[string]interface{}) *Report {
	sequential := !policy.Parallel || len(endpoints) == 1
	mode := ModeParallel
	if sequential {
		mode = ModeSequential
	}

	// One slot per input index, each written exactly once. Reading the slots
	// in index order afterwards is what makes the report order-stable.
	outcomes := make([]Outcome, len(endpoints))

	if sequential {
		r.logger.Debugf("executing %d endpoints sequentially", len(endpoints))
		for i, ep := range endpoints {
			outcomes[i] = r.invoke(ctx, i, ep, defaultPayload)
		}
	} else {
		bound := policy.workerBound(len(endpoints))
		r.logger.Debugf("executing %d endpoints with %d workers", len(endpoints), bound)

		jobs := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < bound; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for idx := range jobs {
					outcomes[idx] = r.invoke(ctx, idx, endpoints[idx], defaultPayload)
				}
			}()
		}
		for i := range endpoints {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	results := make([]Outcome, 0, len(endpoints))
	errs := make([]Outcome, 0)
	for _, o := range outcomes {
		if o.Success {
			results = append(results, o)
		} else {
			errs = append(errs, o)
		}
	}

	r.metrics.RecordRun()

	return &Report{
		Success:    len(errs) == 0,
		Total:      len(endpoints),
		Successful: len(results),
		Failed:     len(errs),
		Mode:       mode,
		Results:    results,
		Errors:     errs,
		Timestamp:  time.Now().Format(time.RFC3339),
	}
}

// invoke performs exactly one HTTP call and classifies the result. Errors
// never escape: every path ends in an Outcome.
func (r *Runner) invoke(ctx context.Context, idx int, ep Endpoint, defaultPayload map[string]interface{}) Outcome {
	r.metrics.RecordRequest()
	r.metrics.WorkerStarted()
	defer r.metrics.WorkerDone()

	if err := ep.Validate(); err != nil {
		return r.failure(idx, ep, rferrors.Config, err)
	}

	// A body on the descriptor always wins over the caller's default payload.
	body := ep.Body
	if body == nil && len(defaultPayload) > 0 {
		body = StructuredBody(defaultPayload)
	}

	var data []byte
	var contentType string
	switch b := body.(type) {
	case StructuredBody:
		encoded, err := json.Marshal(b)
		if err != nil {
			return r.failure(idx, ep, rferrors.Parse, rferrors.NewParseError(ep.Label(), "encode_body", err))
		}
		data = encoded
		contentType = "application/json"
	case RawBody:
		data = []byte(b)
	case nil:
		// no payload
	}

	if r.limiter != nil {
		if err := r.limiter.WaitHost(ctx, ratelimit.HostOf(ep.URL)); err != nil {
			return r.failure(idx, ep, rferrors.Cancelled, err)
		}
	}

	resp, err := r.client.Do(ctx, &httpclient.Request{
		Method:      ep.Method,
		URL:         ep.URL,
		Headers:     ep.Headers,
		Params:      ep.Params,
		Body:        data,
		ContentType: contentType,
		Timeout:     ep.Timeout,
	})
	if err != nil {
		categorized := rferrors.Categorize(err, ep.Label())
		return r.failure(idx, ep, categorized.Type, err)
	}

	r.metrics.RecordSuccess(resp.StatusCode)
	r.metrics.RecordResponseTime(resp.Latency)

	outcome := Outcome{
		Index:      idx,
		Endpoint:   ep.Label(),
		Method:     ep.Method,
		Success:    true,
		StatusCode: resp.StatusCode,
		Response:   parseResponseBody(resp.Body),
		Timestamp:  time.Now().Format(time.RFC3339),
	}

	r.logger.OutcomeEvent(logger.DebugLevel, outcome.Endpoint, idx, outcome.StatusCode).
		Msg("endpoint completed")
	r.notify(outcome)

	return outcome
}

// failure builds a failure outcome and records it.
func (r *Runner) failure(idx int, ep Endpoint, errType rferrors.ErrorType, err error) Outcome {
	r.metrics.RecordFailure(errType.String())

	outcome := Outcome{
		Index:     idx,
		Endpoint:  ep.Label(),
		Method:    ep.Method,
		Error:     err.Error(),
		Timestamp: time.Now().Format(time.RFC3339),
	}

	r.logger.OutcomeEvent(logger.WarnLevel, outcome.Endpoint, idx, 0).
		Str("error_type", errType.String()).
		Str("error", outcome.Error).
		Msg("endpoint failed")
	r.notify(outcome)

	return outcome
}

func (r *Runner) notify(o Outcome) {
	for _, cb := range r.callbacks {
		cb(o)
	}
}

// parseResponseBody attempts to decode the response body as JSON, degrading
// to the raw text when it is not parseable. An empty body stays an empty
// string.
func parseResponseBody(body []byte) interface{} {
	if len(body) == 0 {
		return ""
	}

	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return string(body)
	}
	return parsed
}
