// Scorn is a CLI that analyzes code with an LLM, scores how cursed it
// is, and proposes validated fixes. When no model is reachable it
// degrades to deterministic rules and says so.
//
// Usage:
//
//	scorn scan main.js                # scan a file
//	cat main.js | scorn scan          # scan stdin
//	scorn scan --staged               # scan staged changes
//	scorn patch main.js               # scan and synthesize fixes
//	scorn pr 42 --post                # scan a pull request and post a review
//	scorn history                     # list recent scans
//
// Exit code 1 signals findings at or above --fail-on, which makes scorn
// usable as a CI gate.
package main
