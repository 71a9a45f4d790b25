package scan

import (
	"regexp"
	"strings"

	"github.com/scornlab/scorn/internal/detect"
)

const maxContextLen = 80

// rule is one deterministic pattern check. match returns the 0-based column
// of the first hit on the line, or -1.
type rule struct {
	id       string
	severity Severity
	message  string
	cFamily  bool // only applies to C-family/script languages
	match    func(line string) int
}

func regexMatcher(re *regexp.Regexp) func(string) int {
	return func(line string) int {
		loc := re.FindStringIndex(line)
		if loc == nil {
			return -1
		}
		return loc[0]
	}
}

// fallbackRules is the fixed, ordered rule set. A single line may produce
// multiple findings if multiple rules match.
var fallbackRules = []rule{
	{
		id:       "no-debug-print",
		severity: SeverityMinor,
		message:  "Debug print statement left in code",
		match: regexMatcher(regexp.MustCompile(
			`console\.(log|debug|info|warn)\s*\(|\bprint\s*\(|fmt\.Print|System\.out\.print|println!\s*\(|\bvar_dump\s*\(`)),
	},
	{
		id:       "stale-todo",
		severity: SeverityMinor,
		message:  "Stale TODO/FIXME marker",
		match: regexMatcher(regexp.MustCompile(
			`(?i)(//|#|/\*)\s*(TODO|FIXME|HACK|XXX)\b`)),
	},
	{
		id:       "long-line",
		severity: SeverityMinor,
		message:  "Line exceeds 120 characters",
		match: func(line string) int {
			if len(line) > 120 {
				return 120
			}
			return -1
		},
	},
	{
		id:       "no-var",
		severity: SeverityModerate,
		message:  "Legacy mutable variable declaration; prefer const/let",
		cFamily:  true,
		match:    regexMatcher(regexp.MustCompile(`\bvar\s+\w+`)),
	},
	{
		id:       "no-loose-equality",
		severity: SeverityModerate,
		message:  "Loose equality comparison; use strict equality",
		cFamily:  true,
		match: func(line string) int {
			loc := looseEqRe.FindStringSubmatchIndex(line)
			if loc == nil {
				return -1
			}
			// Column of the operator itself (second capture group).
			return loc[4]
		},
	},
	{
		id:       "no-empty-catch",
		severity: SeverityCritical,
		message:  "Empty exception handler swallows errors",
		match: regexMatcher(regexp.MustCompile(
			`catch\s*(\([^)]*\))?\s*\{\s*\}|except[^:]*:\s*pass\b`)),
	},
	{
		id:       "no-eval",
		severity: SeverityCritical,
		message:  "Dynamic code execution call",
		match: regexMatcher(regexp.MustCompile(
			`\beval\s*\(|\bexec\s*\(|new\s+Function\s*\(`)),
	},
	{
		id:       "no-hardcoded-secret",
		severity: SeverityCritical,
		message:  "Hard-coded secret-like assignment",
		match: regexMatcher(regexp.MustCompile(
			`(?i)(password|secret|api[_-]?key|token)\s*=\s*["'][^"']+["']`)),
	},
}

var looseEqRe = regexp.MustCompile(`(^|[^=!<>+\-*/%&|^])(==|!=)([^=]|$)`)

// FallbackAnalyzer is the deterministic rule-based scanner used when the
// generative analyzer is unavailable or returns unusable output.
type FallbackAnalyzer struct{}

// NewFallbackAnalyzer returns the deterministic analyzer.
func NewFallbackAnalyzer() *FallbackAnalyzer {
	return &FallbackAnalyzer{}
}

// Analyze runs a single pass over the code, line by line, evaluating every
// rule in order, then filters by the minimum severity threshold.
func (a *FallbackAnalyzer) Analyze(code string, lang detect.Language, minSeverity Severity) []Finding {
	var findings []Finding
	for i, line := range strings.Split(code, "\n") {
		for _, r := range fallbackRules {
			if r.cFamily && !detect.CStyle(lang) {
				continue
			}
			col := r.match(line)
			if col < 0 {
				continue
			}
			f := Finding{
				Severity: r.severity,
				Line:     i + 1,
				Column:   col,
				Message:  r.message,
				RuleID:   r.id,
				Context:  snippet(line),
			}
			f.ID = FindingID(f)
			findings = append(findings, f)
		}
	}
	return FilterBySeverity(findings, minSeverity)
}

func snippet(line string) string {
	s := strings.TrimSpace(line)
	if len(s) > maxContextLen {
		s = s[:maxContextLen]
	}
	return s
}
