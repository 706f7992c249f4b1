package fat_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/dargueta/fatimg/drivers/fat"
	fattest "github.com/dargueta/fatimg/testing"
	"github.com/stretchr/testify/require"
)

// seekOnly hides the ReadAt method of the wrapped reader so that positioned
// reads get emulated.
type seekOnly struct {
	io.ReadSeeker
}

func openImage(t *testing.T, spec fattest.ImageSpec) (*fat.Volume, []byte) {
	image := fattest.BuildImage(t, spec)
	volume, err := fat.Open(bytes.NewReader(image))
	require.NoError(t, err, "failed to open generated image")
	t.Cleanup(func() { volume.Close() })
	return volume, image
}

func uint32Ptr(value uint32) *uint32 {
	return &value
}

// patternBytes returns `size` bytes that differ between clusters, so reading
// the wrong cluster is noticed.
func patternBytes(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i*7 + i/512)
	}
	return data
}
