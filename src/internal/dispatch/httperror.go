package dispatch

import (
	"fmt"
	"net/http"
)

// HTTPError is a user-thrown request error carrying an intended HTTP status
// and an expose flag. Exposed messages pass through to the response body;
// non-exposed ones are replaced with the generic status text so internal
// details never leak to clients.
type HTTPError struct {
	Status  int
	Message string
	Expose  bool
}

// NewHTTPError creates an HTTPError. Client errors (4xx) expose their
// message by default; server errors do not.
func NewHTTPError(status int, message string) *HTTPError {
	if message == "" {
		message = http.StatusText(status)
	}
	return &HTTPError{
		Status:  status,
		Message: message,
		Expose:  status < http.StatusInternalServerError,
	}
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message)
}
