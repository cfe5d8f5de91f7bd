// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"github.com/pkg/errors"
)

// package errors
var (
	ErrNoDevice      = errors.New("no physical device available")
	ErrNoQueueFamily = errors.New("no queue family supports both graphics and present")
	ErrNoMemoryType  = errors.New("suitable memory type not found")
	ErrNoDepthFormat = errors.New("no supported depth format")
	ErrFenceTimeout  = errors.New("fence wait timed out")
	ErrBackendClosed = errors.New("backend already disposed")
)

// FatalError marks an initialisation failure the application can not
// recover from. Op names the failing call.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// Cause returns the underlying error for pkg/errors.
func (e *FatalError) Cause() error {
	return e.Err
}

// Fatal wraps err as a FatalError. Returns nil for a nil err,
// and err itself when it already is fatal.
func Fatal(err error, op string) error {
	if err == nil {
		return nil
	}
	var fe *FatalError
	if errors.As(err, &fe) {
		return err
	}
	return &FatalError{Op: op, Err: err}
}

// IsFatal tells if any error in the chain is a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
