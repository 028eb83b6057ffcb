package api

import (
	"errors"
	"fmt"
)

// RejectedError is a request the server understood and refused, e.g. an
// illegal placement or an unknown game. Reason is the server's message.
type RejectedError struct {
	Route  string
	Status int
	Reason string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: rejected (%d): %s", e.Route, e.Status, e.Reason)
}

// Rejection returns the server's reason if err wraps a RejectedError.
func Rejection(err error) (string, bool) {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej.Reason, true
	}
	return "", false
}
