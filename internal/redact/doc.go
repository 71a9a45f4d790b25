// Package redact scrubs secret-like material from code before it is
// embedded in any prompt sent to a remote provider.
package redact
