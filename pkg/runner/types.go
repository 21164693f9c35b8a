package runner

import (
	"net/http"
	"time"
)

// Execution modes reported in the aggregate result.
const (
	ModeParallel   = "parallel"
	ModeSequential = "sequential"
)

// Descriptor defaults and limits.
const (
	DefaultMethod     = http.MethodPost
	DefaultTimeout    = 30 * time.Second
	MaxTimeout        = 300 * time.Second
	DefaultMaxWorkers = 10
)

// supportedMethods is the whitelist of methods a descriptor may carry.
var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// Body is the request payload of a descriptor. It is a closed two-variant
// sum: StructuredBody is sent JSON-encoded with a JSON content type, RawBody
// is sent as an opaque byte payload with no implicit encoding.
type Body interface {
	isBody()
}

// StructuredBody is a key-value payload transmitted as JSON.
type StructuredBody map[string]interface{}

func (StructuredBody) isBody() {}

// RawBody is an opaque string payload transmitted as-is.
type RawBody string

func (RawBody) isBody() {}

// Endpoint is one fully resolved HTTP call to make. Endpoints are immutable
// once handed to Execute; the runner never mutates them.
type Endpoint struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Body    Body              `json:"-"`
	Timeout time.Duration     `json:"timeout"`
}

// Label returns the identifier used for this endpoint in reports.
func (e Endpoint) Label() string {
	return e.URL
}

// Policy is the per-run execution configuration.
type Policy struct {
	// Parallel selects the bounded worker pool. A single-endpoint batch
	// always runs sequentially regardless of this flag.
	Parallel bool `json:"parallel"`

	// MaxWorkers bounds simultaneous invocations in parallel mode.
	// Zero means DefaultMaxWorkers. Always clamped to the batch size.
	MaxWorkers int `json:"max_workers"`
}

// DefaultPolicy returns the default execution policy: parallel with the
// standard worker bound.
func DefaultPolicy() Policy {
	return Policy{Parallel: true}
}

// workerBound resolves the effective worker count for a batch of n endpoints.
func (p Policy) workerBound(n int) int {
	w := p.MaxWorkers
	if w <= 0 {
		w = DefaultMaxWorkers
	}
	if w > n {
		w = n
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Outcome is the result of invoking one descriptor.
//
// A completed HTTP response is a success at this layer whatever its status
// code; Success is false only for configuration and transport failures.
type Outcome struct {
	Index      int         `json:"index"`
	Endpoint   string      `json:"endpoint"`
	Method     string      `json:"method"`
	Success    bool        `json:"-"`
	StatusCode int         `json:"status_code,omitempty"`
	Response   interface{} `json:"response,omitempty"`
	Error      string      `json:"error,omitempty"`
	Timestamp  string      `json:"timestamp"`
}

// Report is the aggregate result of one batch execution.
//
// Results and Errors partition the input index set: every index appears in
// exactly one of the two, and both are ordered by original input position.
type Report struct {
	Success    bool      `json:"success"`
	Total      int       `json:"total_endpoints"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Mode       string    `json:"execution_mode"`
	Results    []Outcome `json:"results"`
	Errors     []Outcome `json:"errors"`
	Timestamp  string    `json:"timestamp"`
}
