// Package cache stores model responses on disk so repeated scans of the
// same code with the same provider and model skip the network entirely.
package cache
