package diff

import (
	"fmt"
	"strconv"
	"strings"
)

// Line is one post-image line of a changed file.
type Line struct {
	Number int    // 1-based line number in the new file
	Text   string // line content without the diff marker
	Added  bool   // true for '+' lines, false for context lines
}

// ChangedFile collects the post-image lines a diff touches in one file.
type ChangedFile struct {
	Path  string
	Lines []Line
}

// Snippet reassembles the file's changed hunks into one code block for
// analysis, hunks separated by a blank line.
func (f ChangedFile) Snippet() string {
	var b strings.Builder
	prev := 0
	for _, l := range f.Lines {
		if prev != 0 && l.Number > prev+1 {
			b.WriteString("\n")
		}
		b.WriteString(l.Text)
		b.WriteString("\n")
		prev = l.Number
	}
	return b.String()
}

// AddedOnly returns just the lines the diff introduced.
func (f ChangedFile) AddedOnly() []Line {
	var out []Line
	for _, l := range f.Lines {
		if l.Added {
			out = append(out, l)
		}
	}
	return out
}

// ChangedLines parses a unified diff and returns the post-image lines
// per file. Deleted lines and file metadata are discarded; context
// lines are kept so snippets stay readable. Binary files and files
// removed by the diff produce no entry.
func ChangedLines(unified string) ([]ChangedFile, error) {
	var (
		files   []ChangedFile
		current *ChangedFile
		newLine int
		inHunk  bool
	)
	flush := func() {
		if current != nil && len(current.Lines) > 0 {
			files = append(files, *current)
		}
		current = nil
		inHunk = false
	}

	for _, raw := range strings.Split(unified, "\n") {
		switch {
		case strings.HasPrefix(raw, "diff --git "):
			flush()
		case strings.HasPrefix(raw, "+++ "):
			path := strings.TrimPrefix(raw, "+++ ")
			path = strings.TrimPrefix(path, "b/")
			if path == "/dev/null" {
				current = nil
				continue
			}
			current = &ChangedFile{Path: path}
			inHunk = false
		case strings.HasPrefix(raw, "@@"):
			if current == nil {
				continue
			}
			start, err := hunkNewStart(raw)
			if err != nil {
				return nil, err
			}
			newLine = start
			inHunk = true
		case inHunk && current != nil:
			switch {
			case strings.HasPrefix(raw, "+"):
				current.Lines = append(current.Lines, Line{Number: newLine, Text: raw[1:], Added: true})
				newLine++
			case strings.HasPrefix(raw, "-"):
				// old-file line, no post-image position
			case strings.HasPrefix(raw, `\`):
				// "\ No newline at end of file"
			case strings.HasPrefix(raw, " "):
				current.Lines = append(current.Lines, Line{Number: newLine, Text: raw[1:], Added: false})
				newLine++
			default:
				// end of hunk body (next file header or trailing noise)
				inHunk = false
			}
		}
	}
	flush()
	return files, nil
}

// hunkNewStart extracts the new-file start line from a hunk header of
// the form "@@ -a,b +c,d @@".
func hunkNewStart(header string) (int, error) {
	fields := strings.Fields(header)
	for _, f := range fields {
		if !strings.HasPrefix(f, "+") {
			continue
		}
		spec := strings.TrimPrefix(f, "+")
		if i := strings.Index(spec, ","); i >= 0 {
			spec = spec[:i]
		}
		n, err := strconv.Atoi(spec)
		if err != nil {
			return 0, fmt.Errorf("malformed hunk header %q: %w", header, err)
		}
		return n, nil
	}
	return 0, fmt.Errorf("malformed hunk header %q", header)
}
