// SPDX-License-Identifier: MIT
package render

import "fmt"

// SetupError reports a failure to attach one of the pipeline's
// collaborators: the capture source, the analyzer or the canvas.
type SetupError struct {
	Component string
	Err       error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup %s: %v", e.Component, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }

// RenderError reports a canvas present failure.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
