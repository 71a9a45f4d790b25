package scan

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scornlab/scorn/internal/detect"
	"github.com/scornlab/scorn/internal/invoke"
	"github.com/scornlab/scorn/internal/providers"
	"github.com/scornlab/scorn/internal/redact"
)

// Engine is the analysis pipeline's public surface. It holds no shared
// mutable state across scans; every scan operates on its own values, so
// concurrent Analyze calls never contend.
type Engine struct {
	generative *GenerativeAnalyzer
	fallback   *FallbackAnalyzer
	redact     bool
	log        *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithoutRedaction disables secret scrubbing before code is embedded in
// prompts.
func WithoutRedaction() Option {
	return func(e *Engine) { e.redact = false }
}

// NewEngine builds an engine around an explicitly constructed generator.
// A nil generator skips the generative tier entirely and every scan runs
// the deterministic fallback analyzer.
func NewEngine(gen providers.Generator, inv *invoke.Invoker, log *zap.Logger, opts ...Option) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		fallback: NewFallbackAnalyzer(),
		redact:   true,
		log:      log,
	}
	if gen != nil {
		e.generative = NewGenerativeAnalyzer(gen, inv, log)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze scans a block of code and returns ordered findings with the
// aggregate curse score. Generative analysis that fails, exceeds its
// deadline, or yields nothing parseable degrades to the fallback analyzer;
// degradation is a designed path, never surfaced as a failure.
func (e *Engine) Analyze(ctx context.Context, code string, lang detect.Language, minSeverity Severity) (*Report, error) {
	start := time.Now()

	rep := &Report{
		ScanID:   uuid.NewString(),
		Language: lang,
	}

	if strings.TrimSpace(code) == "" {
		rep.Findings = []Finding{}
		rep.DurationMs = time.Since(start).Milliseconds()
		return rep, nil
	}

	prompted := code
	if e.redact {
		prompted = redact.Secrets(code)
	}

	findings, degraded := e.runAnalyzers(ctx, prompted, code, lang, minSeverity)
	SortFindings(findings)

	rep.Findings = findings
	rep.OverallScore = CurseScore(findings)
	rep.Degraded = degraded
	rep.DurationMs = time.Since(start).Milliseconds()
	return rep, nil
}

// runAnalyzers tries the generative tier first and degrades to the rule
// engine. The fallback scans the unredacted code so its secret rule still
// fires.
func (e *Engine) runAnalyzers(ctx context.Context, prompted, original string, lang detect.Language, minSeverity Severity) ([]Finding, bool) {
	if e.generative == nil {
		return e.fallback.Analyze(original, lang, minSeverity), false
	}

	findings, ok, err := e.generative.Analyze(ctx, prompted, lang, minSeverity)
	if err != nil {
		e.log.Warn("generative analyzer failed, degrading to rule engine", zap.Error(err))
		return e.fallback.Analyze(original, lang, minSeverity), true
	}
	if !ok {
		e.log.Info("generative analyzer returned nothing parseable, degrading to rule engine")
		return e.fallback.Analyze(original, lang, minSeverity), true
	}
	if findings == nil {
		findings = []Finding{}
	}
	return findings, false
}
