package output

import (
	"strings"
	"testing"

	"github.com/scornlab/scorn/internal/detect"
	"github.com/scornlab/scorn/internal/patch"
	"github.com/scornlab/scorn/internal/scan"
)

func sampleReport() *scan.Report {
	return &scan.Report{
		ScanID:   "scan-1",
		Language: detect.LangJavaScript,
		Result: scan.Result{
			Findings: []scan.Finding{
				{ID: "f1", Severity: scan.SeverityModerate, Line: 1, Column: 0, Message: "Use let or const instead of var.", RuleID: "no-var", Context: "var x = 1;"},
				{ID: "f2", Severity: scan.SeverityCritical, Line: 2, Column: 0, Message: "eval() executes arbitrary code.", RuleID: "no-eval", Context: `eval("x")`},
			},
			OverallScore: 65,
		},
		DurationMs: 12,
	}
}

func TestTextWriter(t *testing.T) {
	var sb strings.Builder
	w := &TextWriter{} // nil Rand pins the first phrase

	if err := w.Write(&sb, sampleReport(), nil); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := sb.String()

	if !strings.Contains(out, "Curse score: 65/100") {
		t.Errorf("missing curse score: %q", out)
	}
	// Worst severity is critical, so the wrathful persona speaks.
	if !strings.Contains(out, "Verdict (wrathful)") {
		t.Errorf("missing persona verdict: %q", out)
	}
	if !strings.Contains(out, "Burn it. Start over.") {
		t.Errorf("nil Rand should pin first phrase: %q", out)
	}
	if !strings.Contains(out, "[!!] CRITICAL") {
		t.Errorf("missing critical section: %q", out)
	}
	if !strings.Contains(out, "no-var") || !strings.Contains(out, "no-eval") {
		t.Errorf("missing rule ids: %q", out)
	}
	if !strings.Contains(out, "Completed in 12ms") {
		t.Errorf("missing timing: %q", out)
	}
}

func TestTextWriter_RandSelectsPhrase(t *testing.T) {
	var sb strings.Builder
	w := &TextWriter{Rand: func(n int) int { return 1 }}

	if err := w.Write(&sb, sampleReport(), nil); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(sb.String(), "This line has doomed better codebases than yours.") {
		t.Errorf("Rand index 1 not honored: %q", sb.String())
	}
}

func TestTextWriter_CleanReport(t *testing.T) {
	rep := &scan.Report{
		ScanID:   "scan-2",
		Language: detect.LangGo,
		Result:   scan.Result{OverallScore: 0},
	}
	var sb strings.Builder
	if err := (&TextWriter{}).Write(&sb, rep, nil); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "Curse score: 0/100") {
		t.Errorf("missing zero score: %q", out)
	}
	if !strings.Contains(out, "Nothing to curse") {
		t.Errorf("missing clean verdict: %q", out)
	}
	if strings.Contains(out, "Verdict") {
		t.Errorf("clean report should not carry a persona verdict: %q", out)
	}
}

func TestTextWriter_Degraded(t *testing.T) {
	rep := sampleReport()
	rep.Degraded = true
	var sb strings.Builder
	if err := (&TextWriter{}).Write(&sb, rep, nil); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if !strings.Contains(sb.String(), "degraded: deterministic rules only") {
		t.Errorf("missing degraded marker: %q", sb.String())
	}
}

func TestTextWriter_Patches(t *testing.T) {
	patches := []patch.Patch{
		{
			ID:            "p1",
			FindingID:     "f1",
			OriginalCode:  "var x = 1;",
			CorrectedCode: "const x = 1;",
			Rationale:     "const prevents accidental reassignment.",
			Confidence:    0.7,
		},
	}
	var sb strings.Builder
	if err := (&TextWriter{}).Write(&sb, sampleReport(), patches); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "Proposed fixes") {
		t.Errorf("missing patches section: %q", out)
	}
	if !strings.Contains(out, "confidence 0.70") {
		t.Errorf("missing confidence: %q", out)
	}
	if !strings.Contains(out, "const x = 1;") {
		t.Errorf("missing corrected code: %q", out)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six seven eight nine ten", 20)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %v", lines)
	}
	for _, l := range lines {
		if len(l) > 20 {
			t.Errorf("line too long: %q", l)
		}
	}
}

func TestWorstSeverity(t *testing.T) {
	findings := []scan.Finding{
		{Severity: scan.SeverityMinor},
		{Severity: scan.SeverityModerate},
	}
	if got := worstSeverity(findings); got != scan.SeverityModerate {
		t.Errorf("worstSeverity = %q", got)
	}
}
