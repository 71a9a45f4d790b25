package patch

import (
	"fmt"
	"regexp"
	"strings"
)

// brokenPatterns are shapes no plausible fix contains: adjacent bracket
// pairs with no separator and runs of statement terminators.
var brokenPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\)\(`),
	regexp.MustCompile(`\}\{`),
	regexp.MustCompile(`;;`),
}

// Validate is the deterministic sanity gate applied to every candidate fix,
// synthesized or hand-built, before it may leave the pipeline. A nil return
// means the pair passed every check. A candidate that fails does not exist
// as a patch; callers must discard it, never surface it as a degraded
// result.
func Validate(original, corrected string) error {
	orig := strings.TrimSpace(original)
	fix := strings.TrimSpace(corrected)

	if orig == "" {
		return fmt.Errorf("original code is empty")
	}
	if fix == "" {
		return fmt.Errorf("corrected code is empty")
	}
	if orig == fix {
		return fmt.Errorf("corrected code is identical to the original")
	}
	if err := checkBalanced(fix); err != nil {
		return err
	}
	for _, pat := range brokenPatterns {
		if pat.MatchString(fix) {
			return fmt.Errorf("corrected code matches broken pattern %q", pat.String())
		}
	}
	return nil
}

// checkBalanced runs a single-pass stack scan over brackets, braces, and
// parentheses: push the expected closer on an opener, pop and compare on a
// closer, fail on mismatch or a non-empty stack at end of scan.
func checkBalanced(code string) error {
	var stack []byte
	for i := 0; i < len(code); i++ {
		switch c := code[i]; c {
		case '(':
			stack = append(stack, ')')
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ')', ']', '}':
			if len(stack) == 0 {
				return fmt.Errorf("unexpected %q at offset %d", c, i)
			}
			want := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if c != want {
				return fmt.Errorf("mismatched bracket %q at offset %d, expected %q", c, i, want)
			}
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("%d unclosed bracket(s)", len(stack))
	}
	return nil
}

// validConfidence checks an externally supplied confidence value.
func validConfidence(c float64) bool {
	return c >= 0 && c <= 1
}
