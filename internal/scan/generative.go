package scan

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/scornlab/scorn/internal/detect"
	"github.com/scornlab/scorn/internal/invoke"
	"github.com/scornlab/scorn/internal/providers"
)

const (
	analyzeMaxTokens   = 8192
	analyzeTemperature = 0.2
)

// rawFinding is the JSON structure exchanged with the generative analyzer.
type rawFinding struct {
	LineNumber int    `json:"lineNumber"`
	Severity   string `json:"severity"`
	Message    string `json:"message"`
	RuleID     string `json:"ruleId"`
	Context    string `json:"context"`
}

// GenerativeAnalyzer builds a severity-aware prompt, sends it through the
// resilient invoker, and parses a findings list out of the free-form
// response.
type GenerativeAnalyzer struct {
	gen providers.Generator
	inv *invoke.Invoker
	log *zap.Logger
}

// NewGenerativeAnalyzer wires a generator and invoker into an analyzer.
func NewGenerativeAnalyzer(gen providers.Generator, inv *invoke.Invoker, log *zap.Logger) *GenerativeAnalyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &GenerativeAnalyzer{gen: gen, inv: inv, log: log}
}

// Analyze invokes the model and parses findings out of its response.
// ok=false means the response contained nothing parseable, an empty-result
// outcome rather than an error; the caller is expected to degrade to the
// fallback analyzer on ok=false or err != nil. A parsed empty array is a
// valid "no issues" result with ok=true.
func (a *GenerativeAnalyzer) Analyze(ctx context.Context, code string, lang detect.Language, minSeverity Severity) (findings []Finding, ok bool, err error) {
	prompt := BuildAnalyzePrompt(code, lang, minSeverity)

	text, err := a.inv.Do(ctx, func(ctx context.Context) (string, error) {
		resp, genErr := a.gen.Generate(ctx, providers.GenerateRequest{
			System:      AnalyzeSystemPrompt(),
			Prompt:      prompt,
			MaxTokens:   analyzeMaxTokens,
			Temperature: analyzeTemperature,
		})
		if genErr != nil {
			return "", genErr
		}
		return resp.Text, nil
	})
	if err != nil {
		return nil, false, err
	}

	raw, parsed := parseRawFindings(text)
	if !parsed {
		a.log.Debug("no parseable findings array in model output",
			zap.Int("responseLen", len(text)))
		return nil, false, nil
	}

	lines := strings.Split(code, "\n")
	findings = make([]Finding, 0, len(raw))
	for _, r := range raw {
		if strings.TrimSpace(r.Message) == "" {
			continue
		}
		f := Finding{
			Severity: ParseSeverity(r.Severity),
			Line:     clampLine(r.LineNumber, len(lines)),
			Message:  r.Message,
			RuleID:   ruleIDOrDefault(r.RuleID),
			Context:  r.Context,
		}
		f.Column = locateColumn(lines, f.Line, r.Context, r.Message)
		f.ID = FindingID(f)
		findings = append(findings, f)
	}
	return FilterBySeverity(findings, minSeverity), true, nil
}

// parseRawFindings extracts the first top-level JSON array from free-form
// text and unmarshals it.
func parseRawFindings(text string) ([]rawFinding, bool) {
	arr, found := FirstJSONArray(text)
	if !found {
		return nil, false
	}
	var raw []rawFinding
	if err := json.Unmarshal([]byte(arr), &raw); err != nil {
		return nil, false
	}
	return raw, true
}

func clampLine(n, max int) int {
	if n < 1 {
		return 1
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

func ruleIDOrDefault(id string) string {
	if strings.TrimSpace(id) == "" {
		return "model-finding"
	}
	return id
}

// locateColumn recomputes the column as the best-effort index of the
// reported snippet (or the message, truncated) within the source line,
// clamped to >= 0. Advisory, not exact.
func locateColumn(lines []string, line int, snippet, message string) int {
	if line < 1 || line > len(lines) {
		return 0
	}
	src := lines[line-1]
	if s := strings.TrimSpace(snippet); s != "" {
		if idx := strings.Index(src, s); idx >= 0 {
			return idx
		}
	}
	probe := message
	if len(probe) > 20 {
		probe = probe[:20]
	}
	if idx := strings.Index(src, probe); idx >= 0 {
		return idx
	}
	return 0
}
