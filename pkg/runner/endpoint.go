package runner

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	rferrors "github.com/RunFleet/RunFleet/internal/errors"
)

// NewEndpoint normalizes a bare URL into a canonical descriptor: POST, no
// headers or params, no body, default timeout.
func NewEndpoint(rawURL string) Endpoint {
	return Endpoint{
		URL:     rawURL,
		Method:  DefaultMethod,
		Timeout: DefaultTimeout,
	}
}

// FromValue builds a descriptor from a decoded configuration value: either a
// bare URL string or a map with url/method/headers/body/json/params/timeout
// keys. The returned descriptor is normalized and validated.
func FromValue(v interface{}) (Endpoint, error) {
	switch cfg := v.(type) {
	case string:
		ep := NewEndpoint(cfg)
		return ep, ep.Validate()
	case map[string]interface{}:
		ep, err := fromMap(cfg)
		if err != nil {
			return ep, err
		}
		return ep, ep.Validate()
	default:
		return Endpoint{}, rferrors.NewConfigError("", fmt.Sprintf("invalid endpoint configuration type: %T", v))
	}
}

// ParseList builds descriptors from a decoded configuration array.
// Any invalid entry fails the whole list; partial batches are never produced
// by the descriptor source.
func ParseList(vs []interface{}) ([]Endpoint, error) {
	endpoints := make([]Endpoint, 0, len(vs))
	for i, v := range vs {
		ep, err := FromValue(v)
		if err != nil {
			return nil, fmt.Errorf("endpoint %d: %w", i, err)
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

func fromMap(cfg map[string]interface{}) (Endpoint, error) {
	ep := Endpoint{
		Method:  DefaultMethod,
		Timeout: DefaultTimeout,
	}

	if u, ok := cfg["url"].(string); ok {
		ep.URL = u
	}

	if m, ok := cfg["method"].(string); ok && m != "" {
		ep.Method = strings.ToUpper(m)
	}

	var err error
	if h, ok := cfg["headers"]; ok {
		if ep.Headers, err = stringMap(h); err != nil {
			return ep, rferrors.NewConfigError(ep.URL, fmt.Sprintf("invalid headers: %v", err))
		}
	}
	if p, ok := cfg["params"]; ok {
		if ep.Params, err = stringMap(p); err != nil {
			return ep, rferrors.NewConfigError(ep.URL, fmt.Sprintf("invalid params: %v", err))
		}
	}

	// A "json" payload always wins over "body"; a map body is structured, a
	// string body is raw. Anything else is rejected so the transmission
	// encoding is never guessed.
	if j, ok := cfg["json"]; ok && j != nil {
		m, ok := j.(map[string]interface{})
		if !ok {
			return ep, rferrors.NewConfigError(ep.URL, fmt.Sprintf("json payload must be an object, got %T", j))
		}
		ep.Body = StructuredBody(m)
	} else if b, ok := cfg["body"]; ok && b != nil {
		switch body := b.(type) {
		case map[string]interface{}:
			ep.Body = StructuredBody(body)
		case string:
			ep.Body = RawBody(body)
		default:
			return ep, rferrors.NewConfigError(ep.URL, fmt.Sprintf("body must be an object or string, got %T", b))
		}
	}

	if t, ok := cfg["timeout"]; ok {
		secs, err := toSeconds(t)
		if err != nil {
			return ep, rferrors.NewConfigError(ep.URL, fmt.Sprintf("invalid timeout: %v", err))
		}
		ep.Timeout = secs
	}

	return ep, nil
}

// Validate checks the descriptor against the shape rules: well-formed
// http(s) URL, whitelisted method, positive timeout. Oversized timeouts are
// clamped to MaxTimeout rather than rejected.
func (e *Endpoint) Validate() error {
	if e.URL == "" {
		return rferrors.NewConfigError("", "endpoint url is required")
	}

	u, err := url.Parse(e.URL)
	if err != nil {
		return rferrors.NewConfigError(e.URL, fmt.Sprintf("invalid url: %v", err))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return rferrors.NewConfigError(e.URL, fmt.Sprintf("unsupported url scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return rferrors.NewConfigError(e.URL, "url has no host")
	}

	if !supportedMethods[e.Method] {
		return rferrors.NewConfigError(e.URL, fmt.Sprintf("unsupported method %q", e.Method))
	}

	if e.Timeout <= 0 {
		return rferrors.NewConfigError(e.URL, "timeout must be positive")
	}
	if e.Timeout > MaxTimeout {
		e.Timeout = MaxTimeout
	}

	return nil
}

// stringMap coerces a decoded map value into map[string]string.
func stringMap(v interface{}) (map[string]string, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected an object, got %T", v)
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		s, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("value for %q is not a string", k)
		}
		out[k] = s
	}
	return out, nil
}

// toSeconds coerces a decoded timeout value (JSON float64, YAML int) into a
// duration in seconds.
func toSeconds(v interface{}) (time.Duration, error) {
	switch n := v.(type) {
	case float64:
		return time.Duration(n * float64(time.Second)), nil
	case int:
		return time.Duration(n) * time.Second, nil
	case int64:
		return time.Duration(n) * time.Second, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
