// Package scan implements the analysis pipeline: a generative-model-backed
// analyzer with a deterministic rule-based fallback, severity aggregation
// into a curse score, and severity-keyed personas for phrasing findings.
//
// The Engine is the package's public surface. A scan flows raw code through
// redaction, the generative analyzer (degrading to the rule engine when the
// model fails or returns nothing parseable), threshold filtering, ordering,
// and scoring.
package scan
