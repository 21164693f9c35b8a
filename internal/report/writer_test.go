package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/RunFleet/RunFleet/pkg/runner"
)

func sampleReport() *runner.Report {
	return &runner.Report{
		Success:    false,
		Total:      3,
		Successful: 2,
		Failed:     1,
		Mode:       runner.ModeParallel,
		Results: []runner.Outcome{
			{Index: 0, Endpoint: "https://a.example.com", Method: "GET", Success: true, StatusCode: 200},
			{Index: 2, Endpoint: "https://c.example.com", Method: "POST", Success: true, StatusCode: 404},
		},
		Errors: []runner.Outcome{
			{Index: 1, Endpoint: "https://b.example.com", Method: "GET", Error: "connection refused"},
		},
		Timestamp: "2026-01-02T15:04:05Z",
	}
}

// =============================================================================
// JSONWriter Tests
// =============================================================================

func TestJSONWriter_WriteReport(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, false)

	if err := w.WriteReport(sampleReport()); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	out := buf.String()
	if !strings.HasSuffix(out, "\n") {
		t.Error("output should end with a newline")
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["total_endpoints"] != float64(3) {
		t.Errorf("total_endpoints = %v, want 3", decoded["total_endpoints"])
	}
	if decoded["execution_mode"] != "parallel" {
		t.Errorf("execution_mode = %v", decoded["execution_mode"])
	}
	if decoded["success"] != false {
		t.Errorf("success = %v, want false", decoded["success"])
	}
}

func TestJSONWriter_Pretty(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, true)

	if err := w.WriteReport(sampleReport()); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("pretty output should be indented")
	}
}

func TestJSONWriter_ClosedIsNoop(t *testing.T) {
	var buf bytes.Buffer
	w := NewJSONWriter(&buf, false)
	w.Close()

	if err := w.WriteReport(sampleReport()); err != nil {
		t.Fatalf("WriteReport() after Close error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("closed writer produced output: %s", buf.String())
	}
}

// =============================================================================
// TextWriter Tests
// =============================================================================

func TestTextWriter_WriteReport(t *testing.T) {
	var buf bytes.Buffer
	w := NewTextWriter(&buf)

	if err := w.WriteReport(sampleReport()); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"FAILED",
		"total=3",
		"ok   [GET] https://a.example.com -> 200",
		"ok   [POST] https://c.example.com -> 404",
		"fail [GET] https://b.example.com: connection refused",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTextWriter_SuccessStatus(t *testing.T) {
	var buf bytes.Buffer
	rep := sampleReport()
	rep.Success = true
	rep.Errors = nil
	rep.Failed = 0

	if err := NewTextWriter(&buf).WriteReport(rep); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "OK") {
		t.Errorf("output = %s, want OK prefix", buf.String())
	}
}

// =============================================================================
// NewWriter Tests
// =============================================================================

func TestNewWriter_FormatDispatch(t *testing.T) {
	var buf bytes.Buffer

	if _, ok := NewWriter(&buf, Config{Format: "text"}).(*TextWriter); !ok {
		t.Error("format text should produce a TextWriter")
	}
	if _, ok := NewWriter(&buf, Config{Format: "json"}).(*JSONWriter); !ok {
		t.Error("format json should produce a JSONWriter")
	}
	if _, ok := NewWriter(&buf, Config{}).(*JSONWriter); !ok {
		t.Error("empty format should default to JSON")
	}
}
