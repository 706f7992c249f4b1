package compression

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// maxRunLength is the longest run a single RLE8 triple can represent.
const maxRunLength = 257

// EncodeRLE8 run-length encodes everything read from `input` to `output`. It
// returns the number of bytes written.
func EncodeRLE8(input io.Reader, output io.Writer) (int64, error) {
	source := bufio.NewReader(input)
	totalWritten := int64(0)

	writeRun := func(value byte, length int) error {
		for length >= 2 {
			chunk := length
			if chunk > maxRunLength {
				chunk = maxRunLength
			}
			n, err := output.Write([]byte{value, value, byte(chunk - 2)})
			totalWritten += int64(n)
			if err != nil {
				return err
			}
			length -= chunk
		}
		if length == 1 {
			n, err := output.Write([]byte{value})
			totalWritten += int64(n)
			return err
		}
		return nil
	}

	runByte := byte(0)
	runLength := 0
	for {
		current, err := source.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return totalWritten, fmt.Errorf("error reading input: %w", err)
			}
			break
		}

		if runLength > 0 && current == runByte {
			runLength++
			continue
		}

		err = writeRun(runByte, runLength)
		if err != nil {
			return totalWritten, fmt.Errorf("failed to write to output: %w", err)
		}
		runByte = current
		runLength = 1
	}

	err := writeRun(runByte, runLength)
	if err != nil {
		return totalWritten, fmt.Errorf("failed to write to output: %w", err)
	}
	return totalWritten, nil
}

// DecodeRLE8 reverses [EncodeRLE8]. It returns the number of decoded bytes
// written to `output`.
func DecodeRLE8(input io.Reader, output io.Writer) (int64, error) {
	source := bufio.NewReader(input)
	previous := -1
	totalWritten := int64(0)

	for {
		current, err := source.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return totalWritten, nil
			}
			return totalWritten, fmt.Errorf("error reading input: %w", err)
		}

		var decoded []byte
		if int(current) == previous {
			repeatCount, err := source.ReadByte()
			if err != nil {
				if errors.Is(err, io.EOF) {
					err = fmt.Errorf(
						"%w: missing repeat count after two %02x bytes",
						io.ErrUnexpectedEOF,
						current)
				}
				return totalWritten, err
			}

			// The first byte of the pair was already written on the previous
			// iteration.
			decoded = bytes.Repeat([]byte{current}, int(repeatCount)+1)
			previous = -1
		} else {
			decoded = []byte{current}
			previous = int(current)
		}

		n, err := output.Write(decoded)
		totalWritten += int64(n)
		if err != nil {
			return totalWritten, fmt.Errorf("failed to write to output: %w", err)
		}
	}
}
