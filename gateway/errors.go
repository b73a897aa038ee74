package gateway

import (
	"errors"
	"fmt"
	"time"
)

// NetworkError means the server could not be reached at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: server unreachable: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// AbortError means the client cancelled the request because it exceeded its timeout.
type AbortError struct {
	Op      string
	Timeout time.Duration
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("%s: request took too long (over %s)", e.Op, e.Timeout)
}

// ServerError is any non-2xx response. Message is the server-supplied text
// when the body carried one, otherwise the HTTP status text.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// IsNetwork reports whether err is (or wraps) a NetworkError.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsTimeout reports whether err is (or wraps) an AbortError.
func IsTimeout(err error) bool {
	var ae *AbortError
	return errors.As(err, &ae)
}

// IsServer reports whether err is (or wraps) a ServerError.
func IsServer(err error) bool {
	var se *ServerError
	return errors.As(err, &se)
}

// IsConnectivity reports whether err means the server was not reachable in
// time, the condition that blocks the client until a refresh succeeds.
func IsConnectivity(err error) bool {
	return IsNetwork(err) || IsTimeout(err)
}

// UserMessage renders err for a notification.
func UserMessage(err error) string {
	var (
		se *ServerError
		ae *AbortError
		ne *NetworkError
	)
	switch {
	case errors.As(err, &se):
		return se.Message
	case errors.As(err, &ae):
		return "The request took too long. Try again."
	case errors.As(err, &ne):
		return "Could not reach the server. Check your connection."
	case err == nil:
		return ""
	default:
		return err.Error()
	}
}
