package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scornlab/scorn/internal/detect"
	"github.com/scornlab/scorn/internal/invoke"
	"github.com/scornlab/scorn/internal/providers"
)

// fakeGenerator returns scripted responses, one per call.
type fakeGenerator struct {
	responses []string
	errs      []error
	calls     int
	prompts   []providers.GenerateRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, req)
	if i < len(f.errs) && f.errs[i] != nil {
		return providers.GenerateResponse{}, f.errs[i]
	}
	if i < len(f.responses) {
		return providers.GenerateResponse{Text: f.responses[i]}, nil
	}
	return providers.GenerateResponse{}, errors.New("no scripted response")
}

func (f *fakeGenerator) Name() string { return "fake" }

func testInvoker() *invoke.Invoker {
	return invoke.New(invoke.Policy{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
		Multiplier:   2,
		Deadline:     time.Second,
	}, nil)
}

func TestGenerative_ParsesFindings(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		"Sure! Here you go:\n```json\n" +
			`[{"lineNumber": 2, "severity": "critical", "message": "eval is dangerous", "ruleId": "no-eval", "context": "eval(x)"}]` +
			"\n```",
	}}
	a := NewGenerativeAnalyzer(gen, testInvoker(), nil)

	code := "var x = 1;\nfoo(); eval(x)"
	findings, ok, err := a.Analyze(context.Background(), code, detect.LangJavaScript, SeverityMinor)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, SeverityCritical, f.Severity)
	assert.Equal(t, 2, f.Line)
	assert.Equal(t, "no-eval", f.RuleID)
	// Column recomputed from the snippet's position in line 2.
	assert.Equal(t, 7, f.Column)
	assert.NotEmpty(t, f.ID)
}

func TestGenerative_EmptyArrayIsValidNoIssues(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"[]"}}
	a := NewGenerativeAnalyzer(gen, testInvoker(), nil)

	findings, ok, err := a.Analyze(context.Background(), "const x = 1;", detect.LangJavaScript, SeverityMinor)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, findings)
}

func TestGenerative_UnparseableIsEmptyResultNotError(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"I cannot review this code, sorry."}}
	a := NewGenerativeAnalyzer(gen, testInvoker(), nil)

	findings, ok, err := a.Analyze(context.Background(), "x", detect.LangUnknown, SeverityMinor)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, findings)
}

func TestGenerative_InvocationFailurePropagates(t *testing.T) {
	gen := &fakeGenerator{errs: []error{&providers.AuthError{Message: "bad key"}}}
	a := NewGenerativeAnalyzer(gen, testInvoker(), nil)

	_, _, err := a.Analyze(context.Background(), "x", detect.LangUnknown, SeverityMinor)
	require.Error(t, err)
	assert.True(t, providers.IsAuthError(err))
	assert.Equal(t, 1, gen.calls, "auth errors must not be retried")
}

func TestGenerative_RetriesThrottling(t *testing.T) {
	gen := &fakeGenerator{
		errs:      []error{&providers.RateLimitError{}, &providers.RateLimitError{}},
		responses: []string{"", "", "[]"},
	}
	a := NewGenerativeAnalyzer(gen, testInvoker(), nil)

	_, ok, err := a.Analyze(context.Background(), "x", detect.LangUnknown, SeverityMinor)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, gen.calls)
}

func TestGenerative_FiltersBelowThreshold(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`[{"lineNumber": 1, "severity": "minor", "message": "nit", "ruleId": "nit"},
		  {"lineNumber": 1, "severity": "critical", "message": "bad", "ruleId": "bad"}]`,
	}}
	a := NewGenerativeAnalyzer(gen, testInvoker(), nil)

	findings, ok, err := a.Analyze(context.Background(), "x", detect.LangUnknown, SeverityModerate)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, findings, 1)
	assert.Equal(t, "bad", findings[0].RuleID)
}

func TestGenerative_ClampsLineAndColumn(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`[{"lineNumber": 99, "severity": "minor", "message": "m", "ruleId": "r", "context": "not in source"},
		  {"lineNumber": -3, "severity": "minor", "message": "m2", "ruleId": "r2"}]`,
	}}
	a := NewGenerativeAnalyzer(gen, testInvoker(), nil)

	findings, ok, err := a.Analyze(context.Background(), "one\ntwo", detect.LangUnknown, SeverityMinor)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, findings, 2)
	assert.Equal(t, 2, findings[0].Line)
	assert.Equal(t, 0, findings[0].Column)
	assert.Equal(t, 1, findings[1].Line)
	assert.GreaterOrEqual(t, findings[1].Column, 0)
}

func TestGenerative_PromptEmbedsInputs(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"[]"}}
	a := NewGenerativeAnalyzer(gen, testInvoker(), nil)

	_, _, err := a.Analyze(context.Background(), "const x = 1;", detect.LangTypeScript, SeverityModerate)
	require.NoError(t, err)
	require.Len(t, gen.prompts, 1)

	p := gen.prompts[0]
	assert.Contains(t, p.Prompt, "const x = 1;")
	assert.Contains(t, p.Prompt, "typescript")
	assert.Contains(t, p.Prompt, "moderate")
	assert.Contains(t, p.System, "JSON array")
}
