package irc

import (
	"errors"
	"fmt"
)

// Errors returned by connection operations.
var (
	// ErrInvalidConfig is returned when a required configuration field is missing.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrInvalidArgument is returned for nil handlers, nil dispatchers and similar misuse.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyRunning is returned when Connect or Close is called while the worker is active.
	ErrAlreadyRunning = errors.New("connection already running")
	// ErrNotConnected is returned when an operation needs an active session.
	ErrNotConnected = errors.New("not connected")
	// ErrConnectionClosed is returned when operating on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrMessageTooLong is returned when an outgoing line exceeds MaxMessageLength.
	// Nothing is written to the transport and the send may be retried.
	ErrMessageTooLong = errors.New("message too long")
	// ErrLineTooLong is returned when unterminated input outgrows the reassembly buffer.
	ErrLineTooLong = errors.New("line too long")
	// ErrNicknameInUse is the disconnect cause when the server answers 433 during registration.
	ErrNicknameInUse = errors.New("nickname already in use")
)

// TransportError wraps a failure of the underlying stream.
type TransportError struct {
	Op  string // dial, read, write or close
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServerError is the disconnect cause when the server sends an ERROR line.
type ServerError struct {
	Reason string
}

func (e *ServerError) Error() string {
	return "server error: " + e.Reason
}
