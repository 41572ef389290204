package platform

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrDiscarded marks a request the client dropped on purpose (shutdown,
// superseded edit). It is not a user-caused failure.
var ErrDiscarded = errors.New("platform: request discarded")

// codeMissingPermissions is Discord's JSON error code for "Missing Permissions".
const codeMissingPermissions = 50013

// ClientError is a failed REST call to the platform.
type ClientError struct {
	Op      string
	Status  int
	Code    int
	Message string
	Err     error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != 0 {
		return fmt.Sprintf("%s: %d %s (code %d): %s", e.Op, e.Status, http.StatusText(e.Status), e.Code, msg)
	}
	return fmt.Sprintf("%s: %d %s: %s", e.Op, e.Status, http.StatusText(e.Status), msg)
}

func (e *ClientError) Unwrap() error { return e.Err }

// StatusCode lets retry helpers classify the error.
func (e *ClientError) StatusCode() int { return e.Status }

// Forbidden reports whether the platform denied the bot itself.
func (e *ClientError) Forbidden() bool {
	return e.Status == http.StatusForbidden || e.Code == codeMissingPermissions
}

// IsForbidden reports whether err carries a forbidden ClientError.
func IsForbidden(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Forbidden()
}
