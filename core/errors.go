package chatlisp

import (
	"errors"
	"fmt"
)

// GenericFailure is the only text a caller ever sees for a fatal error.
const GenericFailure = "invalid input or code!"

// FatalError aborts an evaluation. It propagates as a Go error through the
// parser, evaluator and builtins until Run turns it into GenericFailure.
// Recoverable failures are sentinel values instead (see ErrorVal).
type FatalError struct {
	Op  string // "parse", "lambda", "/", ...
	Msg string
}

func (e *FatalError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
	return e.Msg
}

func fatalf(op, format string, args ...any) *FatalError {
	return &FatalError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsFatal reports whether err is, or wraps, a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
