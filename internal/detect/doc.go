// Package detect infers source languages from filename extensions or, failing
// that, from a fixed ordered set of content heuristics.
package detect
