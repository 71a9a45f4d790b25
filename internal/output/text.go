package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/scornlab/scorn/internal/patch"
	"github.com/scornlab/scorn/internal/scan"
)

// TextWriter renders a human-readable report. Rand supplies the phrase
// selection index; nil pins the first phrase, which tests rely on.
type TextWriter struct {
	Rand func(n int) int
}

func (t *TextWriter) Write(w io.Writer, report *scan.Report, patches []patch.Patch) error {
	ew := &errWriter{w: w}

	findings := report.Result.Findings
	ew.printf("Scorn — %s\n", report.Language)
	ew.println(strings.Repeat("─", 60))
	ew.printf("Curse score: %d/100", report.Result.OverallScore)
	if report.Degraded {
		ew.printf("  (degraded: deterministic rules only)")
	}
	ew.println("")

	if len(findings) == 0 {
		ew.println("\nNothing to curse. Clean code, or a very good liar.")
		ew.printf("\nCompleted in %dms\n", report.DurationMs)
		return ew.err
	}

	worst := worstSeverity(findings)
	persona := scan.SelectPersona(worst)
	ew.printf("Verdict (%s): %s\n", persona.Tone, persona.Phrase(t.Rand))
	ew.println(strings.Repeat("─", 60))

	grouped := groupBySeverity(findings)
	for _, sev := range []scan.Severity{scan.SeverityCritical, scan.SeverityModerate, scan.SeverityMinor} {
		group := grouped[sev]
		if len(group) == 0 {
			continue
		}
		ew.printf("\n%s %s\n", severityIcon(sev), strings.ToUpper(string(sev)))
		ew.println(strings.Repeat("─", 40))
		for _, f := range group {
			ew.printf("\n  line %d, col %d  [%s]\n", f.Line, f.Column, f.RuleID)
			for _, line := range wrapText(f.Message, 70) {
				ew.printf("    %s\n", line)
			}
			if f.Context != "" {
				ew.printf("    > %s\n", strings.TrimSpace(f.Context))
			}
		}
	}

	if len(patches) > 0 {
		ew.printf("\n%s\n", strings.Repeat("─", 60))
		ew.println("Proposed fixes")
		for _, p := range patches {
			ew.printf("\n  finding %s (confidence %.2f)\n", p.FindingID, p.Confidence)
			for _, line := range wrapText(p.Rationale, 70) {
				ew.printf("    %s\n", line)
			}
			ew.println("    ---")
			for _, line := range strings.Split(strings.TrimRight(p.CorrectedCode, "\n"), "\n") {
				ew.printf("    %s\n", line)
			}
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms\n", report.DurationMs)
	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func groupBySeverity(findings []scan.Finding) map[scan.Severity][]scan.Finding {
	m := make(map[scan.Severity][]scan.Finding)
	for _, f := range findings {
		m[f.Severity] = append(m[f.Severity], f)
	}
	return m
}

func worstSeverity(findings []scan.Finding) scan.Severity {
	worst := scan.SeverityMinor
	for _, f := range findings {
		if scan.SeverityRank(f.Severity) > scan.SeverityRank(worst) {
			worst = f.Severity
		}
	}
	return worst
}

func severityIcon(s scan.Severity) string {
	switch s {
	case scan.SeverityCritical:
		return "[!!]"
	case scan.SeverityModerate:
		return "[!]"
	case scan.SeverityMinor:
		return "[-]"
	default:
		return "[?]"
	}
}

func wrapText(text string, width int) []string {
	if len(text) <= width {
		return []string{text}
	}
	var lines []string
	words := strings.Fields(text)
	var current strings.Builder
	for _, word := range words {
		if current.Len()+len(word)+1 > width && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
