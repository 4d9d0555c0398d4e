package moodle

import (
	"errors"
	"fmt"
)

// ErrInvalidUser is returned before any request is sent when a user lacks
// the fields a web service function requires.
var ErrInvalidUser = errors.New("invalid user")

// APIError is an exception reported by the web service.
// The HTTP status of such responses is 200.
type APIError struct {
	Function  string `json:"-"`
	Exception string `json:"exception"`
	ErrorCode string `json:"errorcode"`
	Message   string `json:"message"`
	DebugInfo string `json:"debuginfo,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Function, e.Message, e.ErrorCode)
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	Function   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Function, e.StatusCode)
}

// Warning is a per-item warning returned by bulk functions.
type Warning struct {
	Item        string `json:"item"`
	ItemID      int    `json:"itemid"`
	WarningCode string `json:"warningcode"`
	Message     string `json:"message"`
}

// WarningsError wraps warnings returned for a rejected update.
type WarningsError struct {
	Function string
	Warnings []Warning
}

func (e *WarningsError) Error() string {
	if len(e.Warnings) == 0 {
		return e.Function + ": rejected"
	}
	w := e.Warnings[0]
	return fmt.Sprintf("%s: %s (%s)", e.Function, w.Message, w.WarningCode)
}
