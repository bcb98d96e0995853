package coalesce

import (
	"errors"
	"fmt"
)

var (
	ErrNilFunc = errors.New("coalesce: nil func")
	ErrClosed  = errors.New("coalesce: group closed")
	ErrPanic   = errors.New("coalesce: func panicked")
)

// PanicError carries a value recovered from a panicking func. Every waiter of
// that execution receives the same *PanicError.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("coalesce: func panicked: %v", e.Value)
}

func (e *PanicError) Unwrap() error { return ErrPanic }
