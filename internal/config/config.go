// Package config implements the descriptor source: it loads runner and
// endpoint configuration from the environment or from files, resolves
// ${VAR} template references, and validates the result before any run
// starts. Loading happens once at process start and fails fast; the engine
// only ever sees a fully resolved, validated configuration value.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RunFleet/RunFleet/pkg/runner"
)

// Environment variable names. PORT, REQUEST_TIMEOUT and ENDPOINTS follow the
// conventions of hosted schedulers (Cloud Run and friends).
const (
	EnvPort           = "PORT"
	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvEndpoints      = "ENDPOINTS"
	EnvLogLevel       = "LOG_LEVEL"
	EnvHistoryFile    = "HISTORY_FILE"
)

// ConfigurationError is a batch-level descriptor source failure. It is
// distinct from per-endpoint failures: the host renders it as a zero-result
// report with a single top-level error.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func newError(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// Config holds process-level settings, immutable after Load.
type Config struct {
	Port           int
	RequestTimeout time.Duration
	LogLevel       string
	HistoryFile    string
}

// Load reads process settings from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           8080,
		RequestTimeout: 30 * time.Second,
		LogLevel:       "info",
	}

	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			return nil, newError("invalid %s value %q", EnvPort, v)
		}
		cfg.Port = port
	}

	if v := os.Getenv(EnvRequestTimeout); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 1 {
			return nil, newError("invalid %s value %q", EnvRequestTimeout, v)
		}
		cfg.RequestTimeout = time.Duration(secs) * time.Second
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	cfg.HistoryFile = os.Getenv(EnvHistoryFile)

	return cfg, nil
}

// LoadEndpointsFromEnv loads the ENDPOINTS variable: a JSON array whose
// elements are bare URL strings or descriptor objects. Template variables
// are resolved before parsing.
func LoadEndpointsFromEnv() ([]runner.Endpoint, error) {
	text := os.Getenv(EnvEndpoints)
	if text == "" {
		return nil, newError("%s environment variable is not set; configure a JSON array of endpoints", EnvEndpoints)
	}

	resolved, err := ResolveTemplates(text)
	if err != nil {
		return nil, err
	}

	var raw []interface{}
	if err := json.Unmarshal([]byte(resolved), &raw); err != nil {
		return nil, newError("error parsing %s: %v; it must be a valid JSON array", EnvEndpoints, err)
	}

	return endpointsFromValues(raw)
}

// LoadEndpointsFromFile loads endpoints from a YAML or JSON file. The file
// may contain a top-level array, or a document with an "endpoints" key.
// Template variables are resolved before parsing.
func LoadEndpointsFromFile(path string) ([]runner.Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newError("failed to read endpoints file: %v", err)
	}

	resolved, err := ResolveTemplates(string(data))
	if err != nil {
		return nil, err
	}

	// YAML is a superset of JSON, so one decoder covers both formats.
	var doc interface{}
	if err := yaml.Unmarshal([]byte(resolved), &doc); err != nil {
		return nil, newError("failed to parse endpoints file: %v", err)
	}

	switch v := doc.(type) {
	case []interface{}:
		return endpointsFromValues(v)
	case map[string]interface{}:
		list, ok := v["endpoints"].([]interface{})
		if !ok {
			return nil, newError("endpoints file must contain an array or an \"endpoints\" key")
		}
		return endpointsFromValues(list)
	default:
		return nil, newError("endpoints file must contain an array, got %T", doc)
	}
}

// LoadEndpoints loads from the file when a path is given, falling back to
// the ENDPOINTS environment variable.
func LoadEndpoints(path string) ([]runner.Endpoint, error) {
	if path != "" {
		return LoadEndpointsFromFile(path)
	}
	return LoadEndpointsFromEnv()
}

func endpointsFromValues(raw []interface{}) ([]runner.Endpoint, error) {
	if len(raw) == 0 {
		return nil, newError("endpoints array cannot be empty")
	}

	endpoints, err := runner.ParseList(raw)
	if err != nil {
		return nil, newError("%v", err)
	}
	applyDefaultTimeout(endpoints, raw)
	return endpoints, nil
}

// applyDefaultTimeout overrides the built-in per-endpoint timeout with the
// REQUEST_TIMEOUT environment value for descriptors that did not set one
// explicitly.
func applyDefaultTimeout(endpoints []runner.Endpoint, raw []interface{}) {
	v := os.Getenv(EnvRequestTimeout)
	if v == "" {
		return
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 1 {
		return // Load reports the error; descriptors keep the default
	}

	timeout := time.Duration(secs) * time.Second
	for i := range endpoints {
		if m, ok := raw[i].(map[string]interface{}); ok {
			if _, has := m["timeout"]; has {
				continue
			}
		}
		endpoints[i].Timeout = timeout
	}
}
