// Package cli wires the scan pipeline, patch synthesis, history store,
// and GitHub integration into the scorn command tree.
package cli
