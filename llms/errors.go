package llms

import (
	"fmt"
	"net/http"
)

// ProviderError represents a failed provider request. StatusCode is zero
// when the request never reached the provider.
type ProviderError struct {
	StatusCode int
	Message    string
	Model      string
	Retriable  bool
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error (model %s, HTTP %d): %s", e.Model, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error (model %s): %s", e.Model, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError builds a ProviderError, deriving Retriable from the
// status code: rate limits and server errors are retriable.
func NewProviderError(statusCode int, message, model string, err error) *ProviderError {
	return &ProviderError{
		StatusCode: statusCode,
		Message:    message,
		Model:      model,
		Retriable:  isRetriableStatus(statusCode),
		Err:        err,
	}
}

func isRetriableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
