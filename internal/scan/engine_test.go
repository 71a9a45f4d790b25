package scan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scornlab/scorn/internal/detect"
	"github.com/scornlab/scorn/internal/providers"
)

func TestEngine_GenerativePath(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`[{"lineNumber": 1, "severity": "moderate", "message": "legacy var", "ruleId": "no-var", "context": "var x = 1;"}]`,
	}}
	e := NewEngine(gen, testInvoker(), nil)

	rep, err := e.Analyze(context.Background(), "var x = 1;", detect.LangJavaScript, SeverityMinor)
	require.NoError(t, err)
	assert.False(t, rep.Degraded)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, 30, rep.OverallScore)
	assert.NotEmpty(t, rep.ScanID)
}

func TestEngine_DegradesOnFailure(t *testing.T) {
	gen := &fakeGenerator{errs: []error{&providers.RequestError{StatusCode: 400, Body: "bad"}}}
	e := NewEngine(gen, testInvoker(), nil)

	code := "var x = 1;\neval(\"x\")"
	rep, err := e.Analyze(context.Background(), code, detect.LangJavaScript, SeverityMinor)
	require.NoError(t, err, "degradation must never surface as a failure")
	assert.True(t, rep.Degraded)
	require.Len(t, rep.Findings, 2)
	assert.Equal(t, 65, rep.OverallScore)
}

func TestEngine_DegradesOnUnparseableOutput(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"I refuse to answer in JSON."}}
	e := NewEngine(gen, testInvoker(), nil)

	rep, err := e.Analyze(context.Background(), "eval(x)", detect.LangJavaScript, SeverityMinor)
	require.NoError(t, err)
	assert.True(t, rep.Degraded)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "no-eval", rep.Findings[0].RuleID)
}

func TestEngine_EmptyModelResultIsNotDegraded(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"[]"}}
	e := NewEngine(gen, testInvoker(), nil)

	// The fallback would flag this line; a parsed empty array means the
	// model legitimately found nothing and must not trigger the fallback.
	rep, err := e.Analyze(context.Background(), "eval(x)", detect.LangJavaScript, SeverityMinor)
	require.NoError(t, err)
	assert.False(t, rep.Degraded)
	assert.Empty(t, rep.Findings)
	assert.Equal(t, 0, rep.OverallScore)
}

func TestEngine_NilGeneratorUsesFallback(t *testing.T) {
	e := NewEngine(nil, nil, nil)

	rep, err := e.Analyze(context.Background(), "var x = 1;", detect.LangJavaScript, SeverityMinor)
	require.NoError(t, err)
	assert.False(t, rep.Degraded)
	require.Len(t, rep.Findings, 1)
	assert.Equal(t, "no-var", rep.Findings[0].RuleID)
}

func TestEngine_EmptyCode(t *testing.T) {
	e := NewEngine(nil, nil, nil)
	rep, err := e.Analyze(context.Background(), "   \n  ", detect.LangUnknown, SeverityMinor)
	require.NoError(t, err)
	assert.Empty(t, rep.Findings)
	assert.Equal(t, 0, rep.OverallScore)
}

func TestEngine_FindingsSorted(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`[{"lineNumber": 5, "severity": "minor", "message": "b", "ruleId": "b"},
		  {"lineNumber": 2, "severity": "critical", "message": "a", "ruleId": "a"},
		  {"lineNumber": 5, "severity": "minor", "message": "aa", "ruleId": "aa"}]`,
	}}
	e := NewEngine(gen, testInvoker(), nil)

	rep, err := e.Analyze(context.Background(), "1\n2\n3\n4\n5\n", detect.LangUnknown, SeverityMinor)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 3)
	assert.Equal(t, 2, rep.Findings[0].Line)
	assert.Equal(t, 5, rep.Findings[1].Line)
	assert.Equal(t, "aa", rep.Findings[1].RuleID)
	assert.Equal(t, "b", rep.Findings[2].RuleID)
}

func TestEngine_ScoreRecomputableFromFindings(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`[{"lineNumber": 1, "severity": "critical", "message": "x", "ruleId": "x"},
		  {"lineNumber": 1, "severity": "minor", "message": "y", "ruleId": "y"}]`,
	}}
	e := NewEngine(gen, testInvoker(), nil)

	rep, err := e.Analyze(context.Background(), "code here", detect.LangUnknown, SeverityMinor)
	require.NoError(t, err)
	assert.Equal(t, CurseScore(rep.Findings), rep.OverallScore)
}
