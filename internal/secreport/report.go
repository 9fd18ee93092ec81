// Package secreport parses the external security scanner's JSON report
// into the Security view's finding model.
package secreport

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Severity ranks a finding. Lower rank sorts first.
type Severity int

const (
	SevCritical Severity = iota
	SevHigh
	SevMedium
	SevLow
)

// Severities in rank order, for filter cycling and group rendering.
var Severities = []Severity{SevCritical, SevHigh, SevMedium, SevLow}

// String returns the canonical upper-case label.
func (s Severity) String() string {
	switch s {
	case SevCritical:
		return "CRITICAL"
	case SevHigh:
		return "HIGH"
	case SevMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// ParseSeverity maps a report label to a Severity. Unknown labels rank
// as LOW rather than failing the whole report.
func ParseSeverity(label string) Severity {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "CRITICAL":
		return SevCritical
	case "HIGH":
		return SevHigh
	case "MEDIUM":
		return SevMedium
	default:
		return SevLow
	}
}

// Finding is one security-relevant observation.
type Finding struct {
	Severity   Severity
	Category   string
	Message    string
	FilePath   string // display-relative to the scanned target
	LineNumber int
	Snippet    string
	InComment  bool
}

// Report is a parsed scan report.
type Report struct {
	TargetDir      string
	RiskLevel      string
	AggregateScore float64
	Findings       []Finding
}

// CountBySeverity returns finding counts keyed by severity.
func (r *Report) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, len(Severities))
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// rawReport mirrors the scanner's JSON output.
type rawReport struct {
	TargetDir      string          `json:"target_dir"`
	RiskLevel      string          `json:"risk_level"`
	AggregateScore float64         `json:"aggregate_score"`
	FileReports    []rawFileReport `json:"file_reports"`
}

type rawFileReport struct {
	Findings []rawFinding `json:"findings"`
}

type rawFinding struct {
	Severity   string `json:"severity"`
	Category   string `json:"category"`
	Message    string `json:"message"`
	FilePath   string `json:"file_path"`
	LineNumber int    `json:"line_number"`
	Snippet    string `json:"snippet"`
	InComment  bool   `json:"in_comment"`
}

// Parse decodes a scan report. File paths are made display-relative by
// stripping the report's own target_dir prefix, and findings are sorted
// by (severity rank, file path, line number).
func Parse(data []byte) (*Report, error) {
	var raw rawReport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse scan report: %w", err)
	}

	r := &Report{
		TargetDir:      raw.TargetDir,
		RiskLevel:      raw.RiskLevel,
		AggregateScore: raw.AggregateScore,
	}
	for _, fr := range raw.FileReports {
		for _, f := range fr.Findings {
			r.Findings = append(r.Findings, Finding{
				Severity:   ParseSeverity(f.Severity),
				Category:   f.Category,
				Message:    f.Message,
				FilePath:   relativize(f.FilePath, raw.TargetDir),
				LineNumber: f.LineNumber,
				Snippet:    f.Snippet,
				InComment:  f.InComment,
			})
		}
	}
	Sort(r.Findings)
	return r, nil
}

// ParseTranscript extracts the report from a job transcript: progress
// lines may precede the JSON object, so everything before the first '{'
// is discarded.
func ParseTranscript(lines []string) (*Report, error) {
	joined := strings.Join(lines, "\n")
	start := strings.IndexByte(joined, '{')
	if start < 0 {
		return nil, fmt.Errorf("scan output contains no report")
	}
	return Parse([]byte(joined[start:]))
}

// Sort orders findings by severity rank, then file path, then line.
// The sort is stable so equal keys keep their report order.
func Sort(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity != b.Severity {
			return a.Severity < b.Severity
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		return a.LineNumber < b.LineNumber
	})
}

// FilterSeverity returns the findings of one severity, or all of them
// when sev is nil. The input slice is never modified.
func FilterSeverity(findings []Finding, sev *Severity) []Finding {
	if sev == nil {
		return findings
	}
	var out []Finding
	for _, f := range findings {
		if f.Severity == *sev {
			out = append(out, f)
		}
	}
	return out
}

func relativize(path, targetDir string) string {
	if targetDir == "" {
		return path
	}
	trimmed := strings.TrimPrefix(path, strings.TrimRight(targetDir, "/")+"/")
	return trimmed
}
