package runner

import (
	"strings"
	"testing"
	"time"

	rferrors "github.com/RunFleet/RunFleet/internal/errors"
)

// =============================================================================
// NewEndpoint Tests
// =============================================================================

func TestNewEndpoint_Defaults(t *testing.T) {
	ep := NewEndpoint("https://api.example.com/hook")

	if ep.URL != "https://api.example.com/hook" {
		t.Errorf("URL = %s", ep.URL)
	}
	if ep.Method != DefaultMethod {
		t.Errorf("Method = %s, want %s", ep.Method, DefaultMethod)
	}
	if ep.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %s, want %s", ep.Timeout, DefaultTimeout)
	}
	if ep.Body != nil {
		t.Errorf("Body = %v, want nil", ep.Body)
	}
}

// =============================================================================
// FromValue Tests
// =============================================================================

func TestFromValue_BareURL(t *testing.T) {
	ep, err := FromValue("https://example.com/a")
	if err != nil {
		t.Fatalf("FromValue() error = %v", err)
	}
	if ep.Method != DefaultMethod || ep.Timeout != DefaultTimeout {
		t.Errorf("bare URL not normalized: %+v", ep)
	}
}

func TestFromValue_FullDescriptor(t *testing.T) {
	ep, err := FromValue(map[string]interface{}{
		"url":     "https://example.com/users",
		"method":  "put",
		"headers": map[string]interface{}{"Authorization": "Bearer tok"},
		"params":  map[string]interface{}{"page": "2"},
		"json":    map[string]interface{}{"name": "alice"},
		"timeout": float64(12),
	})
	if err != nil {
		t.Fatalf("FromValue() error = %v", err)
	}

	if ep.Method != "PUT" {
		t.Errorf("Method = %s, want PUT (uppercased)", ep.Method)
	}
	if ep.Headers["Authorization"] != "Bearer tok" {
		t.Errorf("Headers = %v", ep.Headers)
	}
	if ep.Params["page"] != "2" {
		t.Errorf("Params = %v", ep.Params)
	}
	if ep.Timeout != 12*time.Second {
		t.Errorf("Timeout = %s, want 12s", ep.Timeout)
	}
	if _, ok := ep.Body.(StructuredBody); !ok {
		t.Errorf("Body = %T, want StructuredBody", ep.Body)
	}
}

func TestFromValue_BodyVariants(t *testing.T) {
	tests := []struct {
		name    string
		cfg     map[string]interface{}
		want    interface{} // nil, StructuredBody, or RawBody
		wantErr bool
	}{
		{
			name: "json wins over body",
			cfg: map[string]interface{}{
				"url":  "https://example.com",
				"json": map[string]interface{}{"a": float64(1)},
				"body": "ignored",
			},
			want: StructuredBody{"a": float64(1)},
		},
		{
			name: "map body is structured",
			cfg: map[string]interface{}{
				"url":  "https://example.com",
				"body": map[string]interface{}{"k": "v"},
			},
			want: StructuredBody{"k": "v"},
		},
		{
			name: "string body is raw",
			cfg: map[string]interface{}{
				"url":  "https://example.com",
				"body": "col1,col2\n1,2",
			},
			want: RawBody("col1,col2\n1,2"),
		},
		{
			name: "no body",
			cfg:  map[string]interface{}{"url": "https://example.com"},
			want: nil,
		},
		{
			name: "numeric body rejected",
			cfg: map[string]interface{}{
				"url":  "https://example.com",
				"body": float64(7),
			},
			wantErr: true,
		},
		{
			name: "json array rejected",
			cfg: map[string]interface{}{
				"url":  "https://example.com",
				"json": []interface{}{"a"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := FromValue(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("FromValue() error = nil, want config error")
				}
				if rferrors.GetErrorType(err) != rferrors.Config {
					t.Errorf("error type = %v, want Config", rferrors.GetErrorType(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("FromValue() error = %v", err)
			}
			switch want := tt.want.(type) {
			case nil:
				if ep.Body != nil {
					t.Errorf("Body = %v, want nil", ep.Body)
				}
			case StructuredBody:
				got, ok := ep.Body.(StructuredBody)
				if !ok {
					t.Fatalf("Body = %T, want StructuredBody", ep.Body)
				}
				for k, v := range want {
					if got[k] != v {
						t.Errorf("Body[%q] = %v, want %v", k, got[k], v)
					}
				}
			case RawBody:
				if ep.Body != want {
					t.Errorf("Body = %v, want %v", ep.Body, want)
				}
			}
		})
	}
}

func TestFromValue_InvalidType(t *testing.T) {
	if _, err := FromValue(42); err == nil {
		t.Error("FromValue(42) error = nil, want config error")
	}
}

// =============================================================================
// ParseList Tests
// =============================================================================

func TestParseList_AllOrNothing(t *testing.T) {
	_, err := ParseList([]interface{}{
		"https://good.example.com",
		map[string]interface{}{"url": "https://also-good.example.com", "method": "TRACE"},
	})
	if err == nil {
		t.Fatal("ParseList() error = nil, want failure on invalid entry")
	}
	if !strings.Contains(err.Error(), "endpoint 1") {
		t.Errorf("error = %v, want the failing index named", err)
	}
}

func TestParseList_PreservesOrder(t *testing.T) {
	urls := []interface{}{
		"https://a.example.com",
		"https://b.example.com",
		"https://c.example.com",
	}
	endpoints, err := ParseList(urls)
	if err != nil {
		t.Fatalf("ParseList() error = %v", err)
	}
	for i, ep := range endpoints {
		if ep.URL != urls[i] {
			t.Errorf("endpoints[%d].URL = %s, want %s", i, ep.URL, urls[i])
		}
	}
}

// =============================================================================
// Validate Tests
// =============================================================================

func TestEndpoint_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ep      Endpoint
		wantErr bool
	}{
		{"valid", Endpoint{URL: "https://example.com", Method: "GET", Timeout: time.Second}, false},
		{"missing url", Endpoint{Method: "GET", Timeout: time.Second}, true},
		{"no host", Endpoint{URL: "https://", Method: "GET", Timeout: time.Second}, true},
		{"bad scheme", Endpoint{URL: "ftp://example.com", Method: "GET", Timeout: time.Second}, true},
		{"bad method", Endpoint{URL: "https://example.com", Method: "TRACE", Timeout: time.Second}, true},
		{"zero timeout", Endpoint{URL: "https://example.com", Method: "GET"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ep.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEndpoint_Validate_ClampsOversizedTimeout(t *testing.T) {
	ep := Endpoint{URL: "https://example.com", Method: "GET", Timeout: 2 * MaxTimeout}
	if err := ep.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if ep.Timeout != MaxTimeout {
		t.Errorf("Timeout = %s, want clamped to %s", ep.Timeout, MaxTimeout)
	}
}
