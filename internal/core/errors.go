package core

import (
	"errors"
	"fmt"
)

// Error codes for registry errors.
const (
	ErrCodeAlreadyJoined = "already_joined"
	ErrCodeBadRequest    = "bad_request"
	ErrCodeShuttingDown  = "shutting_down"
)

var (
	// ErrAuthentication is returned when a session presents no token or a token
	// that fails verification. It never distinguishes expired from malformed.
	ErrAuthentication = errors.New("authentication failed")
	// ErrDisconnected is returned by Conn.Receive when the peer closed cleanly.
	ErrDisconnected = errors.New("disconnected")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// IsCode reports whether err is a CoreError carrying code.
func IsCode(err error, code string) bool {
	var ce *CoreError
	return errors.As(err, &ce) && ce.Code == code
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// TransportError is a send or receive failure on an established connection.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
