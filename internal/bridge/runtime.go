package bridge

import (
	"errors"
	"fmt"

	"github.com/roach88/flatbind/internal/ir"
)

var (
	ErrNotConstructed     = errors.New("slot not constructed")
	ErrAlreadyConstructed = errors.New("slot already constructed")
)

// CallError is a failed bridged call translated into a Go error.
type CallError struct {
	Symbol  string
	Status  ir.StatusCode
	Message string // empty when no message was recorded
}

func (e *CallError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %s", e.Symbol, ir.ErrNativeException)
	}
	return fmt.Sprintf("%s: %s: %s", e.Symbol, ir.ErrNativeException, e.Message)
}

func (e *CallError) Unwrap() error {
	return ir.ErrNativeException
}

// Check translates the status of a bridged call into an error. message, if
// non-nil, is called only on failure to fetch the calling thread's exception
// text.
func Check(symbol string, status ir.StatusCode, message func() string) error {
	if !status.IsException() {
		return nil
	}
	e := &CallError{Symbol: symbol, Status: status}
	if message != nil {
		e.Message = message()
	}
	return e
}

// Guard runs fn and reports its outcome as a status code. Errors and panics
// both map to StatusException; nothing is retained between calls.
func Guard(fn func() error) (status ir.StatusCode) {
	defer func() {
		if r := recover(); r != nil {
			status = ir.StatusException
		}
	}()
	if err := fn(); err != nil {
		return ir.StatusException
	}
	return ir.StatusOK
}

// Slot is caller-owned storage for a value constructed in place by a bridged
// constructor. A slot whose construction failed is never destroyed.
type Slot[T any] struct {
	value       T
	constructed bool
}

// Construct runs ctor on the slot's storage. On failure the storage is reset
// and the slot stays unconstructed.
func (s *Slot[T]) Construct(symbol string, ctor func(*T) ir.StatusCode) error {
	if s.constructed {
		return fmt.Errorf("%s: %w", symbol, ErrAlreadyConstructed)
	}
	if err := Check(symbol, ctor(&s.value), nil); err != nil {
		var zero T
		s.value = zero
		return err
	}
	s.constructed = true
	return nil
}

// Destroy runs dtor on a constructed slot. The slot is unconstructed
// afterwards whatever the status, since a destructor runs at most once.
func (s *Slot[T]) Destroy(symbol string, dtor func(*T) ir.StatusCode) error {
	if !s.constructed {
		return fmt.Errorf("%s: %w", symbol, ErrNotConstructed)
	}
	s.constructed = false
	return Check(symbol, dtor(&s.value), nil)
}

// Get returns the constructed value.
func (s *Slot[T]) Get() (*T, bool) {
	if !s.constructed {
		return nil, false
	}
	return &s.value, true
}

// Constructed reports whether the slot holds a live value.
func (s *Slot[T]) Constructed() bool {
	return s.constructed
}
