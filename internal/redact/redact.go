package redact

import (
	"path/filepath"
	"regexp"
	"strings"
)

// rule names a secret shape so the placeholder says what was removed
// without leaking it.
type rule struct {
	name string
	re   *regexp.Regexp
}

var rules = []rule{
	{"aws-access-key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws-secret-key", regexp.MustCompile(`(?i)aws[_-]?secret[_-]?access[_-]?key\s*[:=]\s*["']?[A-Za-z0-9/+=]{40}["']?`)},
	{"github-token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"slack-token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"anthropic-key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"openai-key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"private-key", regexp.MustCompile(`-----BEGIN\s+(RSA\s+|EC\s+)?PRIVATE KEY-----`)},
	{"bearer-token", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"api-key", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?[A-Za-z0-9/+=_-]{20,}["']?`)},
	{"credential", regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["'][^"']{8,}["']`)},
	{"hex-secret", regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
}

// Secrets replaces detected secrets in text with named placeholders so that
// code never leaves the machine with credentials embedded in a prompt.
func Secrets(text string) string {
	result := text
	for _, r := range rules {
		result = r.re.ReplaceAllString(result, "[REDACTED:"+r.name+"]")
	}
	return result
}

// ShouldRedactPath checks whether a file path matches any redaction path
// pattern (e.g. "**/.env").
func ShouldRedactPath(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
		// Patterns like "**/.env" should also match on basename.
		if trimmed := strings.TrimPrefix(pattern, "**/"); trimmed != pattern {
			if matched, err := filepath.Match(trimmed, filepath.Base(path)); err == nil && matched {
				return true
			}
		}
	}
	return false
}

// Content scrubs secrets from file content, replacing the whole body when
// the path itself matches a redaction pattern.
func Content(content, path string, redactPaths []string) string {
	if ShouldRedactPath(path, redactPaths) {
		return "[REDACTED:path-policy]\n"
	}
	return Secrets(content)
}
