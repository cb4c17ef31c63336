package browsershot

import (
	"context"
	"errors"
	"os"
)

var (
	// ErrInvalidArgument signals a bad dimension, quality, URL or output path.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPrecondition signals that the rendering binary is missing.
	ErrPrecondition = errors.New("precondition failed")
	// ErrRenderFailure signals that the engine did not produce a usable screenshot.
	ErrRenderFailure = errors.New("could not create screenshot")
)

// IsTimeoutError reports whether err was caused by a render running past its deadline.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded)
}
