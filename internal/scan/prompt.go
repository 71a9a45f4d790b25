package scan

import (
	"fmt"
	"strings"

	"github.com/scornlab/scorn/internal/detect"
)

const analyzeSystemPrompt = `You are a merciless, expert code reviewer. Your job is to inspect a block of source code and produce structured findings in JSON format.

Rules:
1. Report quality, style, and security issues in the code shown. Do not speculate about code you cannot see.
2. Rate severity as "minor", "moderate", or "critical".
3. Reference 1-based line numbers from the code block.
4. Give each finding a short kebab-case ruleId and include the offending snippet as context.
5. Be concise. One sentence per message.

You MUST respond with ONLY a JSON array of findings. No markdown, no explanation, no preamble. Just the JSON array.

Each finding must have this exact structure:
{
  "lineNumber": 1,
  "severity": "minor|moderate|critical",
  "message": "What is wrong and why it matters",
  "ruleId": "short-rule-id",
  "context": "the offending code snippet"
}

If there are no issues, respond with an empty array: []`

// AnalyzeSystemPrompt returns the system prompt for the generative analyzer.
func AnalyzeSystemPrompt() string {
	return analyzeSystemPrompt
}

// BuildAnalyzePrompt constructs the user prompt embedding the code, target
// language, and minimum severity.
func BuildAnalyzePrompt(code string, lang detect.Language, minSeverity Severity) string {
	var b strings.Builder

	b.WriteString("Review the following code.\n\n")
	if lang != "" && lang != detect.LangUnknown {
		fmt.Fprintf(&b, "Language: %s\n", lang)
	}
	fmt.Fprintf(&b, "Only report findings with severity %s or above.\n", minSeverity)

	b.WriteString("\n--- BEGIN CODE ---\n")
	b.WriteString(code)
	b.WriteString("\n--- END CODE ---\n")

	return b.String()
}
