// Package history persists completed run reports so past executions can be
// inspected after the fact.
package history

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/RunFleet/RunFleet/pkg/runner"
)

var (
	bucketRuns  = []byte("runs")
	bucketIndex = []byte("run_index")
)

// ErrNotFound is returned when a run ID has no stored record.
var ErrNotFound = fmt.Errorf("run not found")

// RunRecord is one archived execution.
type RunRecord struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Report    *runner.Report `json:"report"`
}

// RunSummary is the list view of an archived execution.
type RunSummary struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Success    bool      `json:"success"`
	Total      int       `json:"total_endpoints"`
	Successful int       `json:"successful"`
	Failed     int       `json:"failed"`
	Mode       string    `json:"execution_mode"`
}

// Store is a BoltDB-backed run archive.
type Store struct {
	db   *bolt.DB
	path string
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketRuns); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketIndex)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Save archives a report and returns its record.
func (s *Store) Save(report *runner.Report) (*RunRecord, error) {
	record := &RunRecord{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
		Report:    report,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run record: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		runs := tx.Bucket(bucketRuns)
		seq, err := runs.NextSequence()
		if err != nil {
			return err
		}

		key := make([]byte, 8)
		binary.BigEndian.PutUint64(key, seq)

		if err := runs.Put(key, data); err != nil {
			return err
		}
		return tx.Bucket(bucketIndex).Put([]byte(record.ID), key)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save run record: %w", err)
	}

	return record, nil
}

// Get returns the full record for a run ID.
func (s *Store) Get(id string) (*RunRecord, error) {
	var record *RunRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		key := tx.Bucket(bucketIndex).Get([]byte(id))
		if key == nil {
			return ErrNotFound
		}

		data := tx.Bucket(bucketRuns).Get(key)
		if data == nil {
			return ErrNotFound
		}

		record = &RunRecord{}
		return json.Unmarshal(data, record)
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// List returns summaries of the most recent runs, newest first.
func (s *Store) List(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	summaries := make([]RunSummary, 0, limit)

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil && len(summaries) < limit; k, v = c.Prev() {
			var record RunRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}

			summary := RunSummary{
				ID:        record.ID,
				CreatedAt: record.CreatedAt,
			}
			if record.Report != nil {
				summary.Success = record.Report.Success
				summary.Total = record.Report.Total
				summary.Successful = record.Report.Successful
				summary.Failed = record.Report.Failed
				summary.Mode = record.Report.Mode
			}
			summaries = append(summaries, summary)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return summaries, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
