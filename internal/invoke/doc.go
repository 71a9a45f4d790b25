// Package invoke wraps remote generation calls in bounded retries with
// exponential backoff and an overall deadline. It is the single path every
// generative call in the pipeline goes through.
package invoke
