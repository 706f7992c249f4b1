package fatimg

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

type DriverError interface {
	error
	WithMessage(message string) DriverError
	Wrap(err error) DriverError
}

type baseFatError string

const rootError = baseFatError("")

// ErrIOFailed covers short reads, failed seeks, and failed writes to an
// extraction destination.
var ErrIOFailed = rootError.WithMessage("Input/output error")

// ErrAllocationFailed is returned when the geometry of a volume would require
// buffers larger than any FAT12 volume can describe.
var ErrAllocationFailed = rootError.WithMessage("Cannot allocate memory")

// ErrChainCycle is returned when a cluster chain revisits a cluster before
// reaching the end-of-chain marker.
var ErrChainCycle = rootError.WithMessage("Cluster chain cycle detected")

// ErrMalformedGeometry is returned when a boot sector field that the reader
// divides or multiplies by is zero or otherwise unusable.
var ErrMalformedGeometry = rootError.WithMessage("Malformed volume geometry")

var ErrFileSystemCorrupted = rootError.WithMessage("Structure needs cleaning")
var ErrInvalidArgument = rootError.WithMessage("Invalid argument")
var ErrNotFound = rootError.WithMessage("No such file or directory")
var ErrVolumeClosed = rootError.WithMessage("File descriptor in bad state")

func (e baseFatError) Error() string {
	return string(e)
}

func (e baseFatError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       message,
		originalError: e,
	}
}

func (e baseFatError) Wrap(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

// -----------------------------------------------------------------------------

type customDriverError struct {
	message       string
	originalError error
}

// Error implements the `error` object interface. When called, it returns a string
// describing the error.
func (e customDriverError) Error() string {
	return e.message
}

func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		originalError: e,
	}
}

func (e customDriverError) Wrap(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		originalError: multierror.Append(e, err),
	}
}

func (e customDriverError) Unwrap() error {
	return e.originalError
}
