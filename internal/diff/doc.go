// Package diff extracts changed lines from unified diffs so pull
// request scans analyze only the code a change actually touches.
package diff
