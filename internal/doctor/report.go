// Package doctor parses the doctor script's JSON health report for the
// Doctor view.
package doctor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the outcome of one health check.
type Status string

const (
	StatusPass Status = "PASS"
	StatusWarn Status = "WARN"
	StatusFail Status = "FAIL"
	StatusSkip Status = "SKIP"
	StatusInfo Status = "INFO"
)

// Icon returns the single-cell marker used in list rendering.
func (s Status) Icon() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "!"
	case StatusFail:
		return "✗"
	case StatusInfo:
		return "i"
	default:
		return "-"
	}
}

// Check is one health check result.
type Check struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail"`
	Fix    string `json:"fix"`
}

// Group is a named collection of checks.
type Group struct {
	Name   string  `json:"name"`
	Checks []Check `json:"checks"`
}

// Score summarizes a report. SKIP and INFO checks are excluded from the
// percentage denominator.
type Score struct {
	Percentage int `json:"percentage"`
	Passed     int `json:"passed"`
	Warns      int `json:"warns"`
	Fails      int `json:"fails"`
	Skips      int `json:"skips"`
	Infos      int `json:"infos"`
	Total      int `json:"total"`
}

// Report is a parsed doctor report.
type Report struct {
	ProjectName string  `json:"project_name"`
	GeneratedAt string  `json:"generated_at"`
	Groups      []Group `json:"groups"`
	Score       Score   `json:"score"`
}

// Parse decodes a doctor report. An empty group list is an error: the
// view must show "re-run" rather than a blank but plausible report.
func Parse(data []byte) (*Report, error) {
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse doctor report: %w", err)
	}
	if len(r.Groups) == 0 {
		return nil, fmt.Errorf("doctor report has no check groups")
	}
	return &r, nil
}

// ParseTranscript extracts the report from a job transcript, discarding
// progress lines before the JSON object.
func ParseTranscript(lines []string) (*Report, error) {
	joined := strings.Join(lines, "\n")
	start := strings.IndexByte(joined, '{')
	if start < 0 {
		return nil, fmt.Errorf("doctor output contains no report")
	}
	return Parse([]byte(joined[start:]))
}
