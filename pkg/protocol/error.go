package protocol

import (
	"errors"
	"fmt"
)

// Error exposes methods useful for categorizing errors.
type Error interface {
	error

	// MayHaveSucceeded returns true if the Error was triggered by a command that might have been
	// executed. For example, if the link drops after a command was written but before the device
	// replied, the client cannot tell whether the device acted on it.
	MayHaveSucceeded() bool

	// Temporary returns true if the Error might be the result of a transient condition.
	Temporary() bool
}

var (
	// ErrInvalidArgument indicates a facade operation rejected its input. The command was not
	// queued.
	ErrInvalidArgument = NewError("invalid argument", false, false)
	// ErrTransportWrite indicates the transport failed to write a command. The underlying
	// transport error is wrapped alongside it.
	ErrTransportWrite = NewError("failed to write command to device", false, true)
	// ErrServiceNotFound indicates the connected peripheral does not expose the DreamScreen
	// service.
	ErrServiceNotFound = NewError("service discovery failed: DreamScreen service not found", false, false)
	// ErrCharacteristicNotFound indicates the DreamScreen service lacks a required
	// characteristic.
	ErrCharacteristicNotFound = NewError("required characteristic not found", false, false)
	// ErrNotConnected indicates a command was not sent because the connection was closed first.
	ErrNotConnected = NewError("device not connected", false, false)
	// ErrDisconnected indicates the link dropped while a command was in flight. The device may
	// have executed it.
	ErrDisconnected = NewError("device disconnected before command completed", true, false)
)

type CommandError struct {
	Err               error
	PossibleSuccess   bool
	PossibleTemporary bool
}

func NewError(message string, mayHaveSucceeded bool, temporary bool) error {
	return &CommandError{Err: errors.New(message), PossibleSuccess: mayHaveSucceeded, PossibleTemporary: temporary}
}

func (e *CommandError) Error() string {
	return e.Err.Error()
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func (e *CommandError) MayHaveSucceeded() bool {
	return e.PossibleSuccess
}

func (e *CommandError) Temporary() bool {
	return e.PossibleTemporary
}

// InvalidArgument returns an error wrapping ErrInvalidArgument that describes the rejected input.
func InvalidArgument(format string, a ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, a...))
}

// WriteError wraps a transport write failure so that errors.Is matches both ErrTransportWrite
// and err.
func WriteError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransportWrite, err)
}

// MayHaveSucceeded returns true if err indicates the command may have been executed but the
// client did not receive a confirmation from the device.
func MayHaveSucceeded(err error) bool {
	var commErr Error
	if errors.As(err, &commErr) && commErr.MayHaveSucceeded() {
		return true
	}
	return false
}

// Temporary returns true if err indicates the command failed due to possibly transient
// conditions.
func Temporary(err error) bool {
	var commErr Error
	if errors.As(err, &commErr) && commErr.Temporary() {
		return true
	}
	return false
}
