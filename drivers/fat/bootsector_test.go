package fat_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/dargueta/fatimg"
	"github.com/dargueta/fatimg/drivers/fat"
	fattest "github.com/dargueta/fatimg/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBootSector__Default(t *testing.T) {
	image := fattest.BuildImage(t, fattest.ReadmeSpec())
	reader := bytes.NewReader(image)

	params, err := fat.DecodeBootSector(reader)
	require.NoError(t, err)

	assert.EqualValues(t, 512, params.BytesPerSector)
	assert.EqualValues(t, 1, params.SectorsPerCluster)
	assert.EqualValues(t, 1, params.ReservedSectors)
	assert.EqualValues(t, 1, params.FATCopies)
	assert.EqualValues(t, 16, params.MaxRootEntries)
	assert.EqualValues(t, 4, params.TotalSectors)
	assert.EqualValues(t, 0xF8, params.MediaType)
	assert.EqualValues(t, 1, params.SectorsPerFAT)
	assert.Equal(t, "FATIMG", params.OEM())
	assert.True(t, params.HasBootSignature())
	assert.EqualValues(t, 0, params.RemainingBootBytes)

	assert.Equal(
		t,
		fat.Geometry{
			BytesPerCluster: 512,
			ReservedBytes:   512,
			FATBytes:        512,
			RootDirBytes:    512,
			RootDirStart:    1024,
			DataRegionBase:  1536,
		},
		params.Geometry)

	position, err := reader.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, 512, position, "reader should be at the second sector")
}

func TestDecodeBootSector__LargeSectorsSkipRemainder(t *testing.T) {
	spec := fattest.DefaultSpec()
	spec.BytesPerSector = 1024
	spec.SectorsPerCluster = 2
	spec.FATCopies = 2
	image := fattest.BuildImage(t, spec)
	reader := bytes.NewReader(image)

	params, err := fat.DecodeBootSector(reader)
	require.NoError(t, err)
	assert.EqualValues(t, 512, params.RemainingBootBytes)
	assert.EqualValues(t, 2048, params.Geometry.BytesPerCluster)
	assert.EqualValues(t, 1024+2*1024+512, params.Geometry.DataRegionBase)

	position, err := reader.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, 1024, position)
}

func TestDecodeBootSector__MalformedGeometry(t *testing.T) {
	tests := []struct {
		Name   string
		Offset int
		Width  int
	}{
		{"bytes per sector", 11, 2},
		{"sectors per cluster", 13, 1},
		{"reserved sectors", 14, 2},
		{"FAT copies", 16, 1},
		{"sectors per FAT", 22, 2},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			image := fattest.BuildImage(t, fattest.DefaultSpec())
			for i := 0; i < test.Width; i++ {
				image[test.Offset+i] = 0
			}

			_, err := fat.DecodeBootSector(bytes.NewReader(image))
			assert.ErrorIs(t, err, fatimg.ErrMalformedGeometry)
		})
	}
}

func TestDecodeBootSector__SectorSmallerThanBootRecord(t *testing.T) {
	image := fattest.BuildImage(t, fattest.DefaultSpec())
	binary.LittleEndian.PutUint16(image[11:], 256)

	_, err := fat.DecodeBootSector(bytes.NewReader(image))
	assert.ErrorIs(t, err, fatimg.ErrMalformedGeometry)
}

func TestDecodeBootSector__ShortRead(t *testing.T) {
	image := fattest.BuildImage(t, fattest.DefaultSpec())

	_, err := fat.DecodeBootSector(bytes.NewReader(image[:100]))
	assert.ErrorIs(t, err, fatimg.ErrIOFailed)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeBootSector__Empty(t *testing.T) {
	_, err := fat.DecodeBootSector(bytes.NewReader(nil))
	assert.ErrorIs(t, err, fatimg.ErrIOFailed)
}
