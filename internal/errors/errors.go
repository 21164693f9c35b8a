// Package errors provides error types and classification for the endpoint runner.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorType categorizes errors for reporting decisions.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// Config represents a malformed descriptor detected before any network call.
	Config
	// Network represents connection-level errors (refused, reset, unreachable).
	Network
	// DNS represents name resolution errors.
	DNS
	// Timeout represents timeout errors.
	Timeout
	// TLS represents TLS handshake or certificate errors.
	TLS
	// Parse represents payload encoding/decoding errors.
	Parse
	// Cancelled represents context cancellation.
	Cancelled
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case Config:
		return "config"
	case Network:
		return "network"
	case DNS:
		return "dns"
	case Timeout:
		return "timeout"
	case TLS:
		return "tls"
	case Parse:
		return "parse"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// IsTransport reports whether errors of this type occurred during the network
// call, as opposed to being rejected before it was attempted.
func (t ErrorType) IsTransport() bool {
	switch t {
	case Network, DNS, Timeout, TLS, Cancelled:
		return true
	default:
		return false
	}
}

// RunError represents a categorized per-endpoint execution error.
type RunError struct {
	Type      ErrorType
	Endpoint  string
	Operation string
	Message   string
	Cause     error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Type.String(), e.Operation, e.Endpoint, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Type.String(), e.Operation, e.Endpoint, e.Message)
}

// Unwrap returns the underlying error.
func (e *RunError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target.
func (e *RunError) Is(target error) bool {
	t, ok := target.(*RunError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// NewRunError creates a new RunError.
func NewRunError(errType ErrorType, endpoint, operation, message string, cause error) *RunError {
	return &RunError{
		Type:      errType,
		Endpoint:  endpoint,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewConfigError creates a descriptor configuration error.
func NewConfigError(endpoint, message string) *RunError {
	return NewRunError(Config, endpoint, "validate", message, nil)
}

// NewNetworkError creates a network error.
func NewNetworkError(endpoint string, cause error) *RunError {
	return NewRunError(Network, endpoint, "request", "network failure", cause)
}

// NewDNSError creates a name resolution error.
func NewDNSError(endpoint string, cause error) *RunError {
	return NewRunError(DNS, endpoint, "request", "name resolution failed", cause)
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(endpoint string, cause error) *RunError {
	return NewRunError(Timeout, endpoint, "request", "request timed out", cause)
}

// NewTLSError creates a TLS error.
func NewTLSError(endpoint string, cause error) *RunError {
	return NewRunError(TLS, endpoint, "request", "tls handshake failed", cause)
}

// NewParseError creates a payload encoding error.
func NewParseError(endpoint, operation string, cause error) *RunError {
	return NewRunError(Parse, endpoint, operation, "encoding failed", cause)
}

// NewCancelledError creates a cancellation error.
func NewCancelledError(endpoint string) *RunError {
	return NewRunError(Cancelled, endpoint, "request", "operation cancelled", nil)
}

// Categorize determines the error type from a generic error returned by the
// transport layer.
func Categorize(err error, endpoint string) *RunError {
	if err == nil {
		return nil
	}

	// Already a RunError
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr
	}

	if errors.Is(err, context.Canceled) {
		return NewCancelledError(endpoint)
	}

	if isDNSError(err) {
		return NewDNSError(endpoint, err)
	}

	if isTimeout(err) {
		return NewTimeoutError(endpoint, err)
	}

	if isTLSError(err) {
		return NewTLSError(endpoint, err)
	}

	if isNetworkError(err) {
		return NewNetworkError(endpoint, err)
	}

	return NewRunError(Unknown, endpoint, "request", err.Error(), err)
}

// isTimeout checks if an error is a timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// isDNSError checks if an error is name-resolution related.
func isDNSError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return strings.Contains(err.Error(), "no such host")
}

// isTLSError checks if an error is TLS related.
func isTLSError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "tls:") ||
		strings.Contains(errStr, "x509:") ||
		strings.Contains(errStr, "certificate")
}

// isNetworkError checks if an error is connection related.
func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp")
}

// IsTransport checks if an error happened at the transport layer.
func IsTransport(err error) bool {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Type.IsTransport()
	}
	return isTimeout(err) || isNetworkError(err) || isDNSError(err) || isTLSError(err)
}

// GetErrorType extracts the error type from an error.
func GetErrorType(err error) ErrorType {
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Type
	}
	return Unknown
}
