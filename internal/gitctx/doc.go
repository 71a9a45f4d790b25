// Package gitctx collects staged and unstaged diffs from the local git
// repository for the scan command's change-based source modes.
package gitctx
