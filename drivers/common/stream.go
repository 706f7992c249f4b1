package common

import (
	"fmt"
	"io"
	"sync"

	"github.com/dargueta/fatimg"
)

// NewPositionedReader returns an [io.ReaderAt] view of a stream. If the stream
// already supports positioned reads it's returned as is; otherwise reads are
// emulated by seeking, and are serialized so concurrent callers don't trample
// each other's stream position.
func NewPositionedReader(stream io.ReadSeeker) io.ReaderAt {
	if readerAt, ok := stream.(io.ReaderAt); ok {
		return readerAt
	}
	return &seekingReaderAt{stream: stream}
}

type seekingReaderAt struct {
	lock   sync.Mutex
	stream io.ReadSeeker
}

func (r *seekingReaderAt) ReadAt(buffer []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, fatimg.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("negative read offset %d", offset))
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	_, err := r.stream.Seek(offset, io.SeekStart)
	if err != nil {
		return 0, err
	}
	return io.ReadFull(r.stream, buffer)
}

// StreamSize gives the total size of a stream, in bytes. The stream pointer is
// restored to where it was before the call.
func StreamSize(stream io.Seeker) (int64, error) {
	current, err := stream.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}

	end, err := stream.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}

	_, err = stream.Seek(current, io.SeekStart)
	if err != nil {
		return 0, err
	}
	return end, nil
}

// Skip advances the stream pointer by `count` bytes. Streams that can seek are
// seeked; anything else has the bytes read and discarded.
func Skip(stream io.Reader, count int64) error {
	if count < 0 {
		return fatimg.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("can't skip a negative number of bytes: %d", count))
	} else if count == 0 {
		return nil
	}

	if seeker, ok := stream.(io.Seeker); ok {
		_, err := seeker.Seek(count, io.SeekCurrent)
		return err
	}

	discarded, err := io.CopyN(io.Discard, stream, count)
	if err == io.EOF {
		return fmt.Errorf(
			"%w: skipped %d of %d bytes", io.ErrUnexpectedEOF, discarded, count)
	}
	return err
}
