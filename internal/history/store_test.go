package history

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/RunFleet/RunFleet/pkg/runner"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testReport(success bool) *runner.Report {
	rep := &runner.Report{
		Success:    success,
		Total:      2,
		Successful: 2,
		Mode:       runner.ModeParallel,
		Results: []runner.Outcome{
			{Index: 0, Endpoint: "https://a.example.com", Method: "POST", Success: true, StatusCode: 200},
			{Index: 1, Endpoint: "https://b.example.com", Method: "GET", Success: true, StatusCode: 201},
		},
		Errors:    []runner.Outcome{},
		Timestamp: "2026-01-02T15:04:05Z",
	}
	if !success {
		rep.Successful = 1
		rep.Failed = 1
	}
	return rep
}

// =============================================================================
// Save / Get Tests
// =============================================================================

func TestStore_SaveAndGet(t *testing.T) {
	s := openTestStore(t)

	record, err := s.Save(testReport(true))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if record.ID == "" {
		t.Fatal("Save() returned empty ID")
	}
	if record.CreatedAt.IsZero() {
		t.Error("Save() returned zero CreatedAt")
	}

	got, err := s.Get(record.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != record.ID {
		t.Errorf("Get() ID = %s, want %s", got.ID, record.ID)
	}
	if got.Report == nil || got.Report.Total != 2 {
		t.Errorf("Get() report = %+v", got.Report)
	}
	if len(got.Report.Results) != 2 {
		t.Errorf("got %d results, want 2", len(got.Report.Results))
	}
}

func TestStore_GetNotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Get("no-such-run"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

// =============================================================================
// List Tests
// =============================================================================

func TestStore_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)

	var ids []string
	for i := 0; i < 5; i++ {
		record, err := s.Save(testReport(i%2 == 0))
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		ids = append(ids, record.ID)
	}

	summaries, err := s.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 5 {
		t.Fatalf("got %d summaries, want 5", len(summaries))
	}
	for i, summary := range summaries {
		if want := ids[len(ids)-1-i]; summary.ID != want {
			t.Errorf("summaries[%d].ID = %s, want %s", i, summary.ID, want)
		}
	}
	if summaries[0].Mode != runner.ModeParallel || summaries[0].Total != 2 {
		t.Errorf("summary fields not populated: %+v", summaries[0])
	}
}

func TestStore_ListRespectsLimit(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 10; i++ {
		if _, err := s.Save(testReport(true)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	summaries, err := s.List(3)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 3 {
		t.Errorf("got %d summaries, want 3", len(summaries))
	}
}

func TestStore_ListEmpty(t *testing.T) {
	s := openTestStore(t)

	summaries, err := s.List(10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(summaries) != 0 {
		t.Errorf("got %d summaries, want 0", len(summaries))
	}
}

// =============================================================================
// Persistence Tests
// =============================================================================

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	record, err := s.Save(testReport(false))
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(record.ID)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got.Report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", got.Report.Failed)
	}
}

func TestStore_UniqueIDs(t *testing.T) {
	s := openTestStore(t)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		record, err := s.Save(testReport(true))
		if err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if seen[record.ID] {
			t.Fatalf("duplicate run ID %s", record.ID)
		}
		seen[record.ID] = true
	}
}
