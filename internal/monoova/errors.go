package monoova

import (
	"errors"
	"fmt"
)

// APIError is returned when the provider answers with a non-2xx status.
type APIError struct {
	Operation  string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	body := string(e.Body)
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("monoova %s: status %d: %s", e.Operation, e.StatusCode, body)
}

// StatusCode returns the provider status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
