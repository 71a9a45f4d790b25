package scan

import (
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/scornlab/scorn/internal/detect"
)

// Severity represents the severity level of a finding.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityCritical Severity = "critical"
)

// SeverityRank returns a numeric rank for ordering (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMinor:
		return 1
	default:
		return 0
	}
}

// MeetsThreshold returns true if severity is at or above the threshold.
// A minor threshold admits everything.
func MeetsThreshold(s, threshold Severity) bool {
	return SeverityRank(s) >= SeverityRank(threshold)
}

// ParseSeverity normalizes a severity string, defaulting to minor.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeverityMinor, SeverityModerate, SeverityCritical:
		return Severity(s)
	default:
		return SeverityMinor
	}
}

// Finding is one detected code issue. Findings are immutable once created
// and belong to the scan that produced them.
type Finding struct {
	ID       string   `json:"id"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line"`   // 1-based
	Column   int      `json:"column"` // 0-based, best-effort
	Message  string   `json:"message"`
	RuleID   string   `json:"ruleId"`
	Context  string   `json:"context,omitempty"`
}

// Result aggregates the findings of one scan with the derived curse score.
// OverallScore is always recomputable from Findings via CurseScore and is
// never mutated independently.
type Result struct {
	Findings     []Finding `json:"findings"`
	OverallScore int       `json:"overallScore"`
}

// Report wraps a Result with scan metadata for output and persistence.
type Report struct {
	ScanID   string          `json:"scanId"`
	Language detect.Language `json:"language"`
	Result
	Degraded   bool  `json:"degraded"`
	DurationMs int64 `json:"durationMs"`
}

// FindingID derives a stable identifier from a finding's rule, position, and
// message.
func FindingID(f Finding) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d:%d:%s", f.RuleID, f.Line, f.Column, f.Message)))
	return fmt.Sprintf("%x", h[:8])
}

// SortFindings orders findings by line, then column, then rule id.
func SortFindings(findings []Finding) {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		if findings[i].Column != findings[j].Column {
			return findings[i].Column < findings[j].Column
		}
		return findings[i].RuleID < findings[j].RuleID
	})
}

// FilterBySeverity returns the findings at or above the threshold, preserving
// order.
func FilterBySeverity(findings []Finding, threshold Severity) []Finding {
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if MeetsThreshold(f.Severity, threshold) {
			out = append(out, f)
		}
	}
	return out
}
