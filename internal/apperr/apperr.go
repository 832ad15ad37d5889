// Package apperr holds the error categories the CLI treats specially.
//
//	UserError     bad flags, unreadable or malformed batch payloads. Only the
//	              message is printed; usage help is not repeated. Exit code 1.
//	ErrCancelled  the user aborted an interactive prompt. Exit code 0.
//
// Everything else is a plain error wrapped with fmt.Errorf("context: %w").
package apperr

import (
	"errors"
	"fmt"
)

// ErrCancelled is returned when the user aborts an interactive prompt.
var ErrCancelled = errors.New("operation cancelled")

// UserError is an error caused by the user's input. Path names the payload
// file at fault, when there is one.
type UserError struct {
	Message string
	Path    string
	Err     error
}

func (e *UserError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UserError) Unwrap() error { return e.Err }

func User(msg string) error { return &UserError{Message: msg} }

func Userf(format string, args ...any) error {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}

// Input marks err as a problem with the payload at path.
func Input(path string, err error) error {
	if err == nil {
		return nil
	}
	return &UserError{Message: "cannot use batch payload", Path: path, Err: err}
}

// IsUser reports whether err is or wraps a *UserError.
func IsUser(err error) bool {
	var u *UserError
	return errors.As(err, &u)
}
