package detect

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Language identifies a detected source language.
type Language string

const (
	LangGo         Language = "go"
	LangPython     Language = "python"
	LangJavaScript Language = "javascript"
	LangTypeScript Language = "typescript"
	LangJava       Language = "java"
	LangRust       Language = "rust"
	LangRuby       Language = "ruby"
	LangCSharp     Language = "csharp"
	LangCPP        Language = "cpp"
	LangC          Language = "c"
	LangPHP        Language = "php"
	LangSwift      Language = "swift"
	LangKotlin     Language = "kotlin"
	LangShell      Language = "shell"
	LangSQL        Language = "sql"
	LangUnknown    Language = "unknown"
)

var extLang = map[string]Language{
	".go":    LangGo,
	".py":    LangPython,
	".js":    LangJavaScript,
	".jsx":   LangJavaScript,
	".mjs":   LangJavaScript,
	".cjs":   LangJavaScript,
	".ts":    LangTypeScript,
	".tsx":   LangTypeScript,
	".java":  LangJava,
	".rs":    LangRust,
	".rb":    LangRuby,
	".cs":    LangCSharp,
	".cpp":   LangCPP,
	".cc":    LangCPP,
	".cxx":   LangCPP,
	".hpp":   LangCPP,
	".c":     LangC,
	".h":     LangC,
	".php":   LangPHP,
	".swift": LangSwift,
	".kt":    LangKotlin,
	".kts":   LangKotlin,
	".sh":    LangShell,
	".bash":  LangShell,
	".sql":   LangSQL,
}

// probe is one ordered content heuristic. The first matching probe wins,
// so more specific syntaxes must come before the generic ones.
type probe struct {
	lang Language
	re   *regexp.Regexp
}

var probes = []probe{
	{LangShell, regexp.MustCompile(`^#!\s*/(usr/)?bin/(env\s+)?(ba|z)?sh`)},
	{LangPHP, regexp.MustCompile(`<\?php`)},
	{LangGo, regexp.MustCompile(`(?m)^package\s+\w+\s*$`)},
	{LangGo, regexp.MustCompile(`(?m)^func\s+(\(\w+\s+\*?\w+\)\s+)?\w+\s*\(`)},
	{LangPython, regexp.MustCompile(`(?m)^\s*def\s+\w+\s*\([^)]*\)\s*:`)},
	{LangPython, regexp.MustCompile(`(?m)^\s*(from\s+[\w.]+\s+import|import\s+\w+\s*$)`)},
	{LangRust, regexp.MustCompile(`(?m)^\s*(pub\s+)?fn\s+\w+|let\s+mut\s+\w+|use\s+\w+::`)},
	{LangJava, regexp.MustCompile(`(?m)^\s*(public|private|protected)\s+(static\s+)?(final\s+)?(class|void|int|String)\b`)},
	{LangCSharp, regexp.MustCompile(`(?m)^\s*(using\s+System|namespace\s+[\w.]+\s*[;{])`)},
	{LangRuby, regexp.MustCompile(`(?m)^\s*(def\s+\w+\s*$|require\s+['"]|puts\s+)`)},
	{LangTypeScript, regexp.MustCompile(`(?m)(^\s*(export\s+)?interface\s+\w+\s*\{|:\s*(string|number|boolean|void)\b|^\s*type\s+\w+\s*=)`)},
	{LangJavaScript, regexp.MustCompile(`(?m)(^\s*(import\s+.+\s+from\s+['"]|export\s+(default\s+)?)|\b(const|let|var)\s+\w+\s*=|function\s*\w*\s*\(|=>\s*[{(])`)},
	{LangSQL, regexp.MustCompile(`(?mi)^\s*(SELECT\s+.+\s+FROM|CREATE\s+TABLE|INSERT\s+INTO)\b`)},
}

// Detect infers the language of a code block. A filename extension that maps
// to a known language takes precedence over content; otherwise the ordered
// content probes are evaluated and the first match wins. Unrecognizable input
// yields LangUnknown. Detect never fails.
func Detect(code, filename string) Language {
	if lang, ok := FromExtension(filename); ok {
		return lang
	}
	for _, p := range probes {
		if p.re.MatchString(code) {
			return p.lang
		}
	}
	return LangUnknown
}

// FromExtension resolves a language from a filename extension alone.
func FromExtension(filename string) (Language, bool) {
	if filename == "" {
		return LangUnknown, false
	}
	ext := strings.ToLower(filepath.Ext(filename))
	lang, ok := extLang[ext]
	return lang, ok
}

// CStyle reports whether the language belongs to the C-family/script group
// that the mutable-declaration and loose-equality rules apply to.
func CStyle(l Language) bool {
	switch l {
	case LangJavaScript, LangTypeScript, LangPHP, LangUnknown:
		return true
	default:
		return false
	}
}
