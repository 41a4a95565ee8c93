// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceUnavailable is returned when the capture source fails or disconnects.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	// ErrFormatMismatch is returned when the source is not stereo F32LE at the
	// configured sample rate.
	ErrFormatMismatch = errors.New("capture format mismatch")

	// ErrUnderrun is returned when a read ends before a full buffer arrived.
	ErrUnderrun = errors.New("capture read underrun")

	// ErrEndOfStream is returned when a finite source ends on a buffer boundary.
	ErrEndOfStream = errors.New("end of capture stream")

	// ErrUnsupportedFile is returned by OpenFile for unknown extensions.
	ErrUnsupportedFile = errors.New("unsupported audio file")
)

// CaptureError reports a capture failure. Kind is one of the sentinel errors
// above; Err carries the underlying cause, if any.
type CaptureError struct {
	Kind error
	Err  error
}

func (e *CaptureError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

// Unwrap lets errors.Is match both the kind and the cause.
func (e *CaptureError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func captureErr(kind, err error) *CaptureError {
	return &CaptureError{Kind: kind, Err: err}
}
