package compression

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

type countingWriter struct {
	writer  io.Writer
	written int64
}

func (w *countingWriter) Write(data []byte) (int, error) {
	n, err := w.writer.Write(data)
	w.written += int64(n)
	return n, err
}

// PackImage run-length encodes and gzips an image. It returns the number of
// bytes written to `output`, i.e. the packed size.
func PackImage(input io.Reader, output io.Writer) (int64, error) {
	counter := &countingWriter{writer: output}

	// Images are small enough that the difference in speed between the default
	// and best compression levels doesn't matter.
	gzWriter, err := gzip.NewWriterLevel(counter, gzip.BestCompression)
	if err != nil {
		return 0, err
	}

	_, err = EncodeRLE8(input, gzWriter)
	if err != nil {
		gzWriter.Close()
		return counter.written, err
	}

	err = gzWriter.Close()
	if err != nil {
		return counter.written, fmt.Errorf("failed to flush compressed image: %w", err)
	}
	return counter.written, nil
}

// UnpackImage reverses [PackImage]. It returns the number of bytes written to
// `output`, i.e. the size of the raw image.
func UnpackImage(input io.Reader, output io.Writer) (int64, error) {
	gzReader, err := gzip.NewReader(input)
	if err != nil {
		return 0, fmt.Errorf("packed image isn't gzipped: %w", err)
	}
	defer gzReader.Close()
	return DecodeRLE8(gzReader, output)
}

// UnpackImageToBytes is a convenience wrapper around [UnpackImage] that returns
// the raw image in a new byte slice.
func UnpackImageToBytes(input io.Reader) ([]byte, error) {
	buffer := bytes.Buffer{}
	_, err := UnpackImage(input, &buffer)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
