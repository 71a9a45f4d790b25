package providers

import "fmt"

// RateLimitError signals provider throttling (HTTP 429).
type RateLimitError struct{}

func (*RateLimitError) Error() string   { return "rate limited" }
func (*RateLimitError) Retryable() bool { return true }

// ServerError signals a 5xx-class provider failure.
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Body)
}
func (*ServerError) Retryable() bool { return true }

// AuthError signals malformed or rejected credentials. Never retried.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return "authentication error: " + e.Message
}

// RequestError signals a non-retryable 4xx-class failure.
type RequestError struct {
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	_, ok := err.(*AuthError)
	return ok
}

// classifyStatus converts a non-200 HTTP status into a typed error.
func classifyStatus(status int, body []byte) error {
	switch {
	case status == 429:
		return &RateLimitError{}
	case status == 401 || status == 403:
		return &AuthError{Message: string(body)}
	case status >= 500:
		return &ServerError{StatusCode: status, Body: string(body)}
	default:
		return &RequestError{StatusCode: status, Body: string(body)}
	}
}
