package ir

import "errors"

// StatusCode is the out-of-band result of a bridged call. It has exactly two
// classes: StatusOK and everything else, which means a native exception was
// intercepted.
type StatusCode uint32

const (
	// StatusOK reports that no exception was raised.
	StatusOK StatusCode = 0
	// StatusException is what generated shims return on interception (C's -1).
	StatusException StatusCode = 0xFFFFFFFF
)

// ErrNativeException is the host-side error for a StatusCode in the
// exception class. The nominal return of the failed call must not be read.
var ErrNativeException = errors.New("native exception raised across the binding boundary")

// IsException reports whether the call failed.
func (s StatusCode) IsException() bool {
	return s != StatusOK
}

// Err translates the status to the Go error idiom.
func (s StatusCode) Err() error {
	if s.IsException() {
		return ErrNativeException
	}
	return nil
}

func (s StatusCode) String() string {
	if s.IsException() {
		return "exception"
	}
	return "ok"
}
