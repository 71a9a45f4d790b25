// Package store keeps scan history in a local SQLite database so past
// reports and patches can be listed and inspected later.
package store
