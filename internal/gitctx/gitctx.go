package gitctx

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// Options controls diff collection.
type Options struct {
	ContextLines int
	MaxBytes     int
	Exclude      []string
}

// Diff is a collected unified diff plus metadata about where it came from.
type Diff struct {
	Unified string
	Files   []string
	Mode    string
	Repo    Meta
}

// Meta is git repository metadata.
type Meta struct {
	Root   string
	Head   string
	Branch string
}

// RepoMeta collects repository metadata from git.
func RepoMeta() (Meta, error) {
	root, err := git("rev-parse", "--show-toplevel")
	if err != nil {
		return Meta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := git("rev-parse", "HEAD")
	if err != nil {
		head = "" // repo with no commits yet
	}
	branch, err := git("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return Meta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// Unstaged returns the diff of working tree vs index.
func Unstaged(opts Options) (Diff, error) {
	out, err := git(append([]string{"diff"}, diffArgs(opts)...)...)
	if err != nil {
		return Diff{}, fmt.Errorf("git diff: %w", err)
	}
	return assemble(out, "unstaged", opts)
}

// Staged returns the diff of index vs HEAD.
func Staged(opts Options) (Diff, error) {
	out, err := git(append([]string{"diff", "--cached"}, diffArgs(opts)...)...)
	if err != nil {
		return Diff{}, fmt.Errorf("git diff --cached: %w", err)
	}
	return assemble(out, "staged", opts)
}

func diffArgs(opts Options) []string {
	var args []string
	if opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	return args
}

func assemble(unified, mode string, opts Options) (Diff, error) {
	meta, err := RepoMeta()
	if err != nil {
		meta = Meta{}
	}

	files := listFiles(unified)
	if len(opts.Exclude) > 0 {
		unified = dropExcluded(unified, opts.Exclude)
		files = keepIncluded(files, opts.Exclude)
	}
	if opts.MaxBytes > 0 && len(unified) > opts.MaxBytes {
		unified = unified[:opts.MaxBytes] + "\n... (diff truncated)\n"
	}

	return Diff{
		Unified: unified,
		Files:   files,
		Mode:    mode,
		Repo:    meta,
	}, nil
}

func listFiles(unified string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(unified, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			f := strings.TrimPrefix(line, "+++ b/")
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files
}

// dropExcluded removes whole per-file sections whose path matches an
// exclude pattern.
func dropExcluded(unified string, excludes []string) string {
	var kept []string
	for _, section := range splitSections(unified) {
		path := sectionPath(section)
		if path == "" || !MatchesAny(path, excludes) {
			kept = append(kept, section)
		}
	}
	return strings.Join(kept, "")
}

func splitSections(unified string) []string {
	var sections []string
	var current strings.Builder
	for _, line := range strings.Split(unified, "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

func sectionPath(section string) string {
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			return strings.TrimPrefix(line, "+++ b/")
		}
	}
	return ""
}

func keepIncluded(files, excludes []string) []string {
	var out []string
	for _, f := range files {
		if !MatchesAny(f, excludes) {
			out = append(out, f)
		}
	}
	return out
}

// MatchesAny reports whether path matches any of the glob patterns.
// A leading "**/" in a pattern also matches at the repository root.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean == pattern {
			continue
		}
		if matched, err := filepath.Match(clean, filepath.Base(path)); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(clean, path); err == nil && matched {
			return true
		}
	}
	return false
}

func git(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}
