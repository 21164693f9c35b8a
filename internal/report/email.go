package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/RunFleet/RunFleet/pkg/runner"
)

// Email status lines.
const (
	emailStatusSuccess = "SUCCESS"
	emailStatusFailed  = "FAILED"
)

// Attachment is one file attached to a notification message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailMessage is a fully rendered notification: subject, HTML body and one
// JSON attachment per outcome. Delivery is up to the host; this package only
// formats.
type EmailMessage struct {
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// BuildEmail renders a notification message for a completed run.
func BuildEmail(rep *runner.Report, context string) (*EmailMessage, error) {
	status := emailStatusSuccess
	if !rep.Success {
		status = emailStatusFailed
	}

	if context == "" {
		context = "manual"
	}

	msg := &EmailMessage{
		Subject:  fmt.Sprintf("RunFleet - %s execution report - %s", context, status),
		HTMLBody: buildHTMLBody(rep, status),
	}

	for i, result := range rep.Results {
		att, err := jsonAttachment(result, fmt.Sprintf("%02d_%s_result.json", i+1, sanitizeFilename(result.Endpoint)))
		if err != nil {
			return nil, err
		}
		msg.Attachments = append(msg.Attachments, att)
	}
	for i, failure := range rep.Errors {
		att, err := jsonAttachment(failure, fmt.Sprintf("ERROR_%02d_%s.json", i+1, sanitizeFilename(failure.Endpoint)))
		if err != nil {
			return nil, err
		}
		msg.Attachments = append(msg.Attachments, att)
	}

	return msg, nil
}

func buildHTMLBody(rep *runner.Report, status string) string {
	var b strings.Builder

	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>Execution %s</h2>", status)
	fmt.Fprintf(&b, "<p>Mode: %s &mdash; %d total, %d successful, %d failed</p>",
		rep.Mode, rep.Total, rep.Successful, rep.Failed)

	if len(rep.Results) > 0 {
		b.WriteString("<h3 style='color: #28a745;'>Successful Executions</h3><ul>")
		for _, r := range rep.Results {
			fmt.Fprintf(&b,
				"<li><strong>%s</strong> [%s] - Status: %d<br><small>Timestamp: %s</small></li>",
				r.Endpoint, r.Method, r.StatusCode, r.Timestamp)
		}
		b.WriteString("</ul>")
	}

	if len(rep.Errors) > 0 {
		b.WriteString("<h3 style='color: #dc3545;'>Errors</h3><ul>")
		for _, e := range rep.Errors {
			fmt.Fprintf(&b,
				"<li style=\"color: #dc3545;\"><strong>%s</strong><br>Error: %s<br><small>Timestamp: %s</small></li>",
				e.Endpoint, e.Error, e.Timestamp)
		}
		b.WriteString("</ul>")
	}

	b.WriteString("</body></html>")
	return b.String()
}

func jsonAttachment(v interface{}, filename string) (Attachment, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Attachment{}, fmt.Errorf("failed to build attachment %s: %w", filename, err)
	}
	return Attachment{
		Filename:    filename,
		ContentType: "application/json",
		Data:        data,
	}, nil
}

// sanitizeFilename turns an endpoint URL into a safe attachment filename.
func sanitizeFilename(endpoint string) string {
	s := strings.TrimPrefix(endpoint, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ":", "_")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}
