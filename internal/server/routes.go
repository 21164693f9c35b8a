package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RunFleet/RunFleet/internal/config"
	"github.com/RunFleet/RunFleet/internal/history"
	"github.com/RunFleet/RunFleet/internal/report"
	"github.com/RunFleet/RunFleet/pkg/runner"
)

// executeRequest is the /execute request body. Every field is optional;
// missing endpoints fall back to the configured descriptor source.
type executeRequest struct {
	Endpoints      json.RawMessage        `json:"endpoints"`
	DefaultPayload map[string]interface{} `json:"default_payload"`
	Payload        map[string]interface{} `json:"payload"` // alias for default_payload
	Parallel       *bool                  `json:"parallel"`
	MaxWorkers     int                    `json:"max_workers"`
}

func (s *Server) handleIndex(c *gin.Context) {
	count := 0
	if endpoints, err := config.LoadEndpoints(s.endpointsFile); err == nil {
		count = len(endpoints)
	}

	c.JSON(http.StatusOK, gin.H{
		"name":                 "RunFleet",
		"status":               "running",
		"configured_endpoints": count,
		"timestamp":            time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleExecute runs a batch. Endpoint failures are part of the report;
// only descriptor source failures produce the batch-level error shape.
func (s *Server) handleExecute(c *gin.Context) {
	var req executeRequest
	// A missing or malformed body means "run the configured endpoints".
	_ = c.ShouldBindJSON(&req)

	var endpoints []runner.Endpoint
	var err error

	if len(req.Endpoints) > 0 {
		var raw []interface{}
		if jsonErr := json.Unmarshal(req.Endpoints, &raw); jsonErr != nil {
			s.batchError(c, "endpoints must be a JSON array: "+jsonErr.Error())
			return
		}
		endpoints, err = runner.ParseList(raw)
	} else {
		endpoints, err = config.LoadEndpoints(s.endpointsFile)
	}
	if err != nil {
		s.batchError(c, err.Error())
		return
	}

	policy := runner.DefaultPolicy()
	if req.Parallel != nil {
		policy.Parallel = *req.Parallel
	}
	policy.MaxWorkers = req.MaxWorkers

	payload := req.DefaultPayload
	if payload == nil {
		payload = req.Payload
	}

	s.renderReport(c, s.execute(endpoints, policy, payload))
}

// handleExecuteGet runs the configured endpoints sequentially. Kept for
// hosted schedulers that can only issue GET requests.
func (s *Server) handleExecuteGet(c *gin.Context) {
	endpoints, err := config.LoadEndpoints(s.endpointsFile)
	if err != nil {
		s.batchError(c, err.Error())
		return
	}

	policy := runner.Policy{Parallel: false}
	s.renderReport(c, s.execute(endpoints, policy, nil))
}

// execute dispatches one batch. The batch deliberately runs on a fresh
// context: a client disconnect must not cancel endpoints already dispatched.
func (s *Server) execute(endpoints []runner.Endpoint, policy runner.Policy, payload map[string]interface{}) *runner.Report {
	rep := s.runner.Execute(context.Background(), endpoints, policy, payload)

	if s.store != nil {
		if _, err := s.store.Save(rep); err != nil {
			s.logger.Errorf("failed to archive run: %v", err)
		}
	}

	return rep
}

func (s *Server) renderReport(c *gin.Context, rep *runner.Report) {
	status := http.StatusOK
	if rep.Failed > 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, rep)
}

// batchError renders a descriptor source failure: a zero-result report with
// a single top-level error, distinguishable from "all endpoints failed".
func (s *Server) batchError(c *gin.Context, message string) {
	s.logger.Errorf("batch setup failed: %s", message)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success":         false,
		"total_endpoints": 0,
		"successful":      0,
		"failed":          0,
		"results":         []runner.Outcome{},
		"errors":          []runner.Outcome{},
		"error":           message,
		"timestamp":       time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetSnapshot())
}

func (s *Server) handleRuns(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	summaries, err := s.store.List(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": len(summaries),
		"items": summaries,
	})
}

func (s *Server) handleRunByID(c *gin.Context) {
	record, err := s.store.Get(c.Param("id"))
	if err != nil {
		if err == history.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}

// handleRunEmail renders the notification email for an archived run, so the
// message can be previewed or handed to an external mailer.
func (s *Server) handleRunEmail(c *gin.Context) {
	record, err := s.store.Get(c.Param("id"))
	if err != nil {
		if err == history.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	msg, err := report.BuildEmail(record.Report, "scheduled")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("X-Email-Subject", msg.Subject)
	c.Header("X-Email-Attachments", strconv.Itoa(len(msg.Attachments)))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(msg.HTMLBody))
}
