// Package output renders scan reports as human-readable text, voiced by
// the severity persona, or as machine-readable JSON.
package output
