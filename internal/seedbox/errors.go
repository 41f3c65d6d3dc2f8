package seedbox

import (
	"fmt"
	"net/http"
)

// APIError is a failure reported by the seedbox service, either through a
// non-2xx status or an error field in a JSON body.
type APIError struct {
	Op          string
	Status      int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	msg := e.Description
	if msg == "" {
		msg = e.Code
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Op == opLogin {
		return fmt.Sprintf("seedbox login failed: %s", msg)
	}
	return fmt.Sprintf("seedbox %s: %s", e.Op, msg)
}

// Message returns the service-provided text without the operation prefix.
func (e *APIError) Message() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Code != "" {
		return e.Code
	}
	return http.StatusText(e.Status)
}
