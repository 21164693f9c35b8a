package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"
)

// =============================================================================
// ErrorType Tests
// =============================================================================

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{Unknown, "unknown"},
		{Config, "config"},
		{Network, "network"},
		{DNS, "dns"},
		{Timeout, "timeout"},
		{TLS, "tls"},
		{Parse, "parse"},
		{Cancelled, "cancelled"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.errType.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorType_IsTransport(t *testing.T) {
	tests := []struct {
		errType   ErrorType
		transport bool
	}{
		{Network, true},
		{DNS, true},
		{Timeout, true},
		{TLS, true},
		{Cancelled, true},
		{Config, false},
		{Parse, false},
		{Unknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.errType.String(), func(t *testing.T) {
			if got := tt.errType.IsTransport(); got != tt.transport {
				t.Errorf("IsTransport() = %v, want %v", got, tt.transport)
			}
		})
	}
}

// =============================================================================
// RunError Tests
// =============================================================================

func TestRunError_Error(t *testing.T) {
	err := NewRunError(Network, "https://example.com", "request", "connection failed", nil)

	errStr := err.Error()
	for _, part := range []string{"network", "request", "https://example.com", "connection failed"} {
		if !contains(errStr, part) {
			t.Errorf("Error() = %s, missing %q", errStr, part)
		}
	}
}

func TestRunError_Error_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewRunError(Network, "https://example.com", "request", "connection failed", cause)

	if !contains(err.Error(), "underlying error") {
		t.Errorf("Error() = %s, missing cause", err.Error())
	}
}

func TestRunError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewTimeoutError("https://example.com", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the wrapped cause")
	}
}

func TestRunError_Is_MatchesType(t *testing.T) {
	a := NewConfigError("https://a.example.com", "bad url")
	b := NewConfigError("https://b.example.com", "bad method")

	if !errors.Is(a, b) {
		t.Error("errors with the same type should match")
	}
	if errors.Is(a, NewTimeoutError("https://a.example.com", nil)) {
		t.Error("errors with different types should not match")
	}
}

// =============================================================================
// Categorize Tests
// =============================================================================

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, Unknown},
		{"context cancelled", context.Canceled, Cancelled},
		{"deadline exceeded", context.DeadlineExceeded, Timeout},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "bad.example"}, DNS},
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, Network},
		{"tls failure", errors.New("tls: handshake failure"), TLS},
		{"certificate failure", errors.New("x509: certificate signed by unknown authority"), TLS},
		{"string timeout", errors.New("request timeout while waiting"), Timeout},
		{"unknown", errors.New("something odd"), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(tt.err, "https://example.com")
			if tt.err == nil {
				if got != nil {
					t.Errorf("Categorize(nil) = %v, want nil", got)
				}
				return
			}
			if got.Type != tt.want {
				t.Errorf("Categorize() type = %v, want %v", got.Type, tt.want)
			}
			if got.Endpoint != "https://example.com" {
				t.Errorf("Categorize() endpoint = %s", got.Endpoint)
			}
		})
	}
}

func TestCategorize_PassesThroughRunError(t *testing.T) {
	original := NewConfigError("https://example.com", "bad descriptor")
	wrapped := fmt.Errorf("request failed: %w", original)

	got := Categorize(wrapped, "https://other.example.com")
	if got != original {
		t.Errorf("Categorize() = %v, want the original RunError unwrapped", got)
	}
}

func TestGetErrorType(t *testing.T) {
	if got := GetErrorType(NewDNSError("https://example.com", nil)); got != DNS {
		t.Errorf("GetErrorType() = %v, want DNS", got)
	}
	if got := GetErrorType(errors.New("plain")); got != Unknown {
		t.Errorf("GetErrorType() = %v, want Unknown", got)
	}
}

func TestIsTransport(t *testing.T) {
	if !IsTransport(NewNetworkError("https://example.com", nil)) {
		t.Error("network RunError should be transport")
	}
	if IsTransport(NewConfigError("https://example.com", "bad")) {
		t.Error("config RunError should not be transport")
	}
	if !IsTransport(&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNRESET}) {
		t.Error("bare net.OpError should be transport")
	}
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
