// Package providers implements clients for remote text-generation endpoints
// (Anthropic, OpenAI, Gemini, and Ollama/LM Studio).
//
// Each client performs exactly one HTTP attempt per Generate call and maps
// failures onto a typed taxonomy: RateLimitError and ServerError are
// retryable, AuthError and RequestError are not. Retry and deadline policy
// live in the invoke package.
package providers
