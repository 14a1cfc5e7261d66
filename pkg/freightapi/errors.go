package freightapi

import (
	"errors"
	"fmt"
)

// APIError is a response the backend rejected, either with a non-2xx status
// or with a success:false payload. Message is the backend text verbatim and
// is empty when the backend gave none.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend rejected request (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("backend rejected request (status %d): %s", e.StatusCode, e.Message)
}

// BackendMessage returns the backend-provided text of err, if err is an *APIError.
func BackendMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message, true
	}
	return "", false
}
