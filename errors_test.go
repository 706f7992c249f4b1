package fatimg_test

import (
	"errors"
	"io"
	"testing"

	"github.com/dargueta/fatimg"
	"github.com/stretchr/testify/assert"
)

func TestDriverErrorWithMessage(t *testing.T) {
	newErr := fatimg.ErrMalformedGeometry.WithMessage("bytes per sector is 0")
	assert.Equal(
		t,
		"Malformed volume geometry: bytes per sector is 0",
		newErr.Error(),
		"error message is wrong")
	assert.ErrorIs(t, newErr, fatimg.ErrMalformedGeometry)
	assert.NotErrorIs(t, newErr, fatimg.ErrIOFailed)
}

func TestDriverErrorWrap(t *testing.T) {
	newErr := fatimg.ErrIOFailed.Wrap(io.ErrUnexpectedEOF)
	expectedMessage := "Input/output error: unexpected EOF"

	assert.EqualValues(t, expectedMessage, newErr.Error(), "error message is wrong")
	assert.ErrorIs(t, newErr, io.ErrUnexpectedEOF, "original error not set as parent")
	assert.ErrorIs(t, newErr, fatimg.ErrIOFailed, "sentinel not set as parent")
}

func TestDriverErrorWrapThenMessage(t *testing.T) {
	cause := errors.New("disk on fire")
	newErr := fatimg.ErrIOFailed.Wrap(cause).WithMessage("reading cluster 7")

	assert.Equal(t, "Input/output error: disk on fire: reading cluster 7", newErr.Error())
	assert.ErrorIs(t, newErr, cause)
	assert.ErrorIs(t, newErr, fatimg.ErrIOFailed)
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		fatimg.ErrIOFailed,
		fatimg.ErrAllocationFailed,
		fatimg.ErrChainCycle,
		fatimg.ErrMalformedGeometry,
		fatimg.ErrFileSystemCorrupted,
		fatimg.ErrInvalidArgument,
		fatimg.ErrNotFound,
		fatimg.ErrVolumeClosed,
	}

	for i, left := range sentinels {
		for j, right := range sentinels {
			if i == j {
				continue
			}
			assert.NotErrorIsf(t, left, right, "%q must not match %q", left, right)
		}
	}
}
