// Package patch synthesizes and validates corrections for findings. The
// flow is an explicit three-state pipeline — Propose, Validate, Explain —
// where a candidate that fails any stage yields "no patch" rather than an
// error, and only validated patches exist at all.
package patch
