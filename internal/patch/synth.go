package patch

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scornlab/scorn/internal/invoke"
	"github.com/scornlab/scorn/internal/providers"
	"github.com/scornlab/scorn/internal/scan"
)

const (
	fixMaxTokens       = 4096
	rationaleMaxTokens = 256

	confidenceBase  = 0.7
	confidenceFloor = 0.3
	confidenceCeil  = 0.95
)

// Patch is a validated proposed replacement for a code fragment, tied to one
// finding. A Patch either passed Validate or does not exist.
type Patch struct {
	ID            string  `json:"id"`
	FindingID     string  `json:"findingId"`
	OriginalCode  string  `json:"originalCode"`
	CorrectedCode string  `json:"correctedCode"`
	Rationale     string  `json:"rationale"`
	Confidence    float64 `json:"confidence"`
}

// Synthesizer runs the two-stage generative patch flow: propose a fix,
// validate it, then explain it.
type Synthesizer struct {
	gen providers.Generator
	inv *invoke.Invoker
	log *zap.Logger
}

// NewSynthesizer wires a generator and invoker into a synthesizer.
func NewSynthesizer(gen providers.Generator, inv *invoke.Invoker, log *zap.Logger) *Synthesizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Synthesizer{gen: gen, inv: inv, log: log}
}

// Synthesize attempts a patch for one finding. It returns (nil, nil) when no
// patch could be produced — a generative call failed, the deadline expired,
// or the candidate failed validation. Patch absence is an expected,
// non-exceptional outcome, never an error.
func (s *Synthesizer) Synthesize(ctx context.Context, finding scan.Finding, originalCode string) (*Patch, error) {
	fix, err := s.Propose(ctx, finding, originalCode)
	if err != nil {
		s.log.Info("fix generation failed, no patch", zap.String("rule", finding.RuleID), zap.Error(err))
		return nil, nil
	}

	if err := Validate(originalCode, fix); err != nil {
		s.log.Info("candidate fix rejected, no patch", zap.String("rule", finding.RuleID), zap.Error(err))
		return nil, nil
	}

	rationale, err := s.Explain(ctx, finding, originalCode, fix)
	if err != nil {
		s.log.Info("rationale generation failed, no patch", zap.String("rule", finding.RuleID), zap.Error(err))
		return nil, nil
	}

	return &Patch{
		ID:            uuid.NewString(),
		FindingID:     finding.ID,
		OriginalCode:  originalCode,
		CorrectedCode: fix,
		Rationale:     rationale,
		Confidence:    Confidence(finding.Severity, originalCode, fix),
	}, nil
}

// Propose runs the fix-generation call and extracts the candidate fix from
// the response: a fenced code block's contents when present, otherwise the
// raw trimmed response.
func (s *Synthesizer) Propose(ctx context.Context, finding scan.Finding, originalCode string) (string, error) {
	prompt := buildFixPrompt(finding, originalCode)
	text, err := s.inv.Do(ctx, func(ctx context.Context) (string, error) {
		resp, genErr := s.gen.Generate(ctx, providers.GenerateRequest{
			System:    fixSystemPrompt,
			Prompt:    prompt,
			MaxTokens: fixMaxTokens,
		})
		if genErr != nil {
			return "", genErr
		}
		return resp.Text, nil
	})
	if err != nil {
		return "", err
	}
	fix := ExtractFencedCode(text)
	if fix == "" {
		return "", fmt.Errorf("model returned an empty fix")
	}
	return fix, nil
}

// Explain runs the rationale call for an already-validated fix.
func (s *Synthesizer) Explain(ctx context.Context, finding scan.Finding, originalCode, fix string) (string, error) {
	prompt := buildRationalePrompt(finding, originalCode, fix)
	text, err := s.inv.Do(ctx, func(ctx context.Context) (string, error) {
		resp, genErr := s.gen.Generate(ctx, providers.GenerateRequest{
			System:    rationaleSystemPrompt,
			Prompt:    prompt,
			MaxTokens: rationaleMaxTokens,
		})
		if genErr != nil {
			return "", genErr
		}
		return resp.Text, nil
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// Forge builds a Patch from externally supplied, asserted-correct fields.
// Unlike Synthesize, a validation failure here is a hard error: the caller
// claimed correctness and was wrong.
func Forge(finding scan.Finding, originalCode, correctedCode, rationale string, confidence float64) (*Patch, error) {
	if !validConfidence(confidence) {
		return nil, fmt.Errorf("confidence %v outside [0,1]", confidence)
	}
	if err := Validate(originalCode, correctedCode); err != nil {
		return nil, fmt.Errorf("forged patch failed validation: %w", err)
	}
	return &Patch{
		ID:            uuid.NewString(),
		FindingID:     finding.ID,
		OriginalCode:  originalCode,
		CorrectedCode: correctedCode,
		Rationale:     rationale,
		Confidence:    confidence,
	}, nil
}

// Confidence estimates how trustworthy a fix is. Base 0.7, adjusted for the
// finding's severity and the relative size of the change, clamped to
// [0.3, 0.95].
func Confidence(severity scan.Severity, original, fix string) float64 {
	c := confidenceBase
	switch severity {
	case scan.SeverityMinor:
		c += 0.15
	case scan.SeverityCritical:
		c -= 0.1
	}
	if len(original) > 0 {
		changeRatio := math.Abs(float64(len(fix))-float64(len(original))) / float64(len(original))
		if changeRatio < 0.2 {
			c += 0.1
		} else if changeRatio > 0.5 {
			c -= 0.15
		}
	}
	return math.Min(confidenceCeil, math.Max(confidenceFloor, c))
}

// ExtractFencedCode returns the contents of the first fenced code block in
// text, trimmed; when no fence is present the whole trimmed response is the
// candidate.
func ExtractFencedCode(text string) string {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			start = i
			break
		}
	}
	if start < 0 {
		return strings.TrimSpace(text)
	}
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "```" {
			return strings.TrimSpace(strings.Join(lines[start+1:i], "\n"))
		}
	}
	// Unterminated fence: take everything after the opener.
	return strings.TrimSpace(strings.Join(lines[start+1:], "\n"))
}

const fixSystemPrompt = `You are an expert code fixer. You receive a code block and one specific finding about it. Respond with the corrected code ONLY, inside a single fenced code block. No explanation, no commentary.`

const rationaleSystemPrompt = `You are an expert code reviewer. Explain a code change briefly and concretely. Respond with at most 2 sentences of plain prose. No code blocks.`

func buildFixPrompt(finding scan.Finding, originalCode string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Finding (%s, line %d, rule %s): %s\n", finding.Severity, finding.Line, finding.RuleID, finding.Message)
	b.WriteString("\nFix the issue in this code:\n\n```\n")
	b.WriteString(originalCode)
	b.WriteString("\n```\n")
	return b.String()
}

func buildRationalePrompt(finding scan.Finding, originalCode, fix string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The issue: %s\n\n", finding.Message)
	b.WriteString("Original code:\n```\n")
	b.WriteString(originalCode)
	b.WriteString("\n```\n\nCorrected code:\n```\n")
	b.WriteString(fix)
	b.WriteString("\n```\n\nExplain the change in at most 2 sentences.\n")
	return b.String()
}
