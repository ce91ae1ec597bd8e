package domain

import "fmt"

// SecurityError is a failure raised by the security middleware layer.
// It carries its own type tag and HTTP status.
type SecurityError struct {
	Type       string `json:"type"` // authentication, rate_limit, validation
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security error (%s, status %d): %s", e.Type, e.StatusCode, e.Message)
}

// HTTPError is a failure carrying an HTTP status code from an upstream
// response.
type HTTPError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}
