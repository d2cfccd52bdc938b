package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Kotlang/fasalneetiGo/service"
)

// APIError is a non-2xx answer from the farmer API.
type APIError struct {
	Status  int                 `json:"-"`
	Message string              `json:"message"`
	Fields  service.FieldErrors `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("farmer api: %s", http.StatusText(e.Status))
	}
	return fmt.Sprintf("farmer api: %d %s", e.Status, e.Message)
}

// Retryable reports whether the same request may succeed later. Client errors never do.
func (e *APIError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError || e.Status == http.StatusRequestTimeout
}

// IsRetryable treats transport failures as retryable unless the caller gave up.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return true
}
