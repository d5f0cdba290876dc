package api

import (
	"errors"
	"fmt"
)

// Fixed user-facing messages for authentication failures. They replace the
// server's raw message so callers know to re-authenticate rather than retry.
const (
	MsgUnauthorized = "not authorized, please log in"
	MsgNotLoggedIn  = "not logged in, please log in first"
)

var (
	// ErrUnauthorized is returned for any 401 response.
	ErrUnauthorized = errors.New(MsgUnauthorized)
	// ErrNotLoggedIn is returned, without a network call, when an endpoint
	// needs a token and none is stored.
	ErrNotLoggedIn = errors.New(MsgNotLoggedIn)
)

// StatusError is a non-2xx response other than 401.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.Code)
}

// BusinessError is a 2xx response whose envelope reports success=false.
type BusinessError struct {
	Message string
	TraceID string
}

func (e *BusinessError) Error() string {
	if e.Message == "" {
		return "request failed"
	}
	return e.Message
}

// TransportError wraps a network-level failure or an unreadable response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Message converts err into the string shown next to the affected widget.
// Business failures without a server message use fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var business *BusinessError
	switch {
	case errors.Is(err, ErrUnauthorized):
		return MsgUnauthorized
	case errors.Is(err, ErrNotLoggedIn):
		return MsgNotLoggedIn
	case errors.As(err, &business):
		if business.Message == "" {
			return fallback
		}
		return business.Message
	}

	var status *StatusError
	if errors.As(err, &status) {
		return status.Error()
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport.Err.Error()
	}
	return err.Error()
}

// IsAuthError reports whether err asks the user to log in.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotLoggedIn)
}
