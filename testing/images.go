// Package testing builds FAT12 images in memory for tests. Images are packed
// here independently of the decoder so that tests check one against the other.

package testing

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"
	"testing"

	"github.com/dargueta/fatimg"
	"github.com/dargueta/fatimg/utilities/compression"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// FileSpec describes one root directory entry of a generated image.
type FileSpec struct {
	Name       string
	Extension  string
	Attributes uint8
	Contents   []byte
	Date       uint16
	Time       uint16

	// Clusters is the chain to store the file in. If nil, the builder allocates
	// just enough consecutive clusters after the ones used so far.
	Clusters []uint16
	// StartCluster, if nonzero, is stored in the entry instead of Clusters[0].
	StartCluster uint16
	// Size, if not nil, is stored in the entry instead of len(Contents).
	Size *uint32

	// Deleted entries get their first name byte replaced with 0xE5.
	Deleted bool
	// Free entries get their first name byte replaced with 0x00.
	Free bool
}

// ImageSpec describes a complete generated image.
type ImageSpec struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FATCopies         uint8
	MaxRootEntries    uint16
	SectorsPerFAT     uint16
	MediaType         uint8
	EOFMarker         uint16
	OEMName           string

	// DataClusters is the minimum number of clusters in the data region. The
	// image is grown if files need more.
	DataClusters int
	VolumeLabel  string
	Files        []FileSpec
	// Links are written to the FAT after all files, overriding their chains.
	Links map[uint16]uint16
}

// DefaultSpec is the smallest sensible image: one boot sector, a one-sector
// FAT, a one-sector root directory with 16 entries, and 512-byte clusters.
func DefaultSpec() ImageSpec {
	return ImageSpec{
		BytesPerSector:    512,
		SectorsPerCluster: 1,
		ReservedSectors:   1,
		FATCopies:         1,
		MaxRootEntries:    16,
		SectorsPerFAT:     1,
		MediaType:         0xF8,
		EOFMarker:         0xFFF,
		OEMName:           "FATIMG",
		DataClusters:      1,
	}
}

func (spec *ImageSpec) ClusterSize() int {
	return int(spec.BytesPerSector) * int(spec.SectorsPerCluster)
}

func (spec *ImageSpec) FATBytes() int {
	return int(spec.SectorsPerFAT) * int(spec.BytesPerSector)
}

func (spec *ImageSpec) RootDirStart() int {
	return int(spec.ReservedSectors)*int(spec.BytesPerSector) +
		spec.FATBytes()*int(spec.FATCopies)
}

func (spec *ImageSpec) DataRegionBase() int {
	return spec.RootDirStart() + int(spec.MaxRootEntries)*32
}

// ClusterOffset gives the offset in the image of the given data cluster.
func (spec *ImageSpec) ClusterOffset(cluster uint16) int {
	return spec.DataRegionBase() + (int(cluster)-2)*spec.ClusterSize()
}

// BuildImage lays out an image according to `spec`. It fails the test if the
// spec can't be satisfied.
func BuildImage(t *testing.T, spec ImageSpec) []byte {
	clusterSize := spec.ClusterSize()
	require.Greater(t, clusterSize, 0, "cluster size must be positive")

	tableEntries := spec.FATBytes() * 2 / 3
	links := make([]uint16, tableEntries)
	require.GreaterOrEqual(t, tableEntries, 2, "FAT is too small")
	links[0] = 0xF00 | uint16(spec.MediaType)
	links[1] = spec.EOFMarker

	// Assign chains to files first so we know how big the image must be.
	chains := make([][]uint16, len(spec.Files))
	nextFree := uint16(2)
	highestCluster := uint16(1)
	for i, file := range spec.Files {
		chain := file.Clusters
		if chain == nil && len(file.Contents) > 0 {
			count := (len(file.Contents) + clusterSize - 1) / clusterSize
			for j := 0; j < count; j++ {
				chain = append(chain, nextFree)
				nextFree++
			}
		}
		for j, cluster := range chain {
			require.Lessf(
				t, int(cluster), tableEntries, "cluster %d is outside the FAT", cluster)
			if j == len(chain)-1 {
				links[cluster] = spec.EOFMarker
			} else {
				links[cluster] = chain[j+1]
			}
			if cluster > highestCluster {
				highestCluster = cluster
			}
			if cluster >= nextFree {
				nextFree = cluster + 1
			}
		}
		chains[i] = chain
	}
	for cluster, link := range spec.Links {
		require.Lessf(
			t, int(cluster), tableEntries, "cluster %d is outside the FAT", cluster)
		links[cluster] = link
	}

	dataClusters := int(highestCluster) - 1
	if spec.DataClusters > dataClusters {
		dataClusters = spec.DataClusters
	}
	imageSize := spec.DataRegionBase() + dataClusters*clusterSize
	image := make([]byte, imageSize)

	writeBootSector(image, &spec, imageSize)

	fat := packTable(links, spec.FATBytes())
	fatStart := int(spec.ReservedSectors) * int(spec.BytesPerSector)
	for i := 0; i < int(spec.FATCopies); i++ {
		copy(image[fatStart+i*len(fat):], fat)
	}

	slot := 0
	writeEntry := func(entry []byte) {
		require.Lessf(
			t, slot, int(spec.MaxRootEntries), "too many entries for the root directory")
		copy(image[spec.RootDirStart()+slot*32:], entry)
		slot++
	}
	if spec.VolumeLabel != "" {
		label := padded(spec.VolumeLabel, 11)
		writeEntry(packDirent(label[:8], label[8:], 0x08, 0, 0, 0, 0))
	}

	for i, file := range spec.Files {
		chain := chains[i]
		start := file.StartCluster
		if start == 0 && len(chain) > 0 {
			start = chain[0]
		}
		size := uint32(len(file.Contents))
		if file.Size != nil {
			size = *file.Size
		}

		entry := packDirent(
			padded(file.Name, 8),
			padded(file.Extension, 3),
			file.Attributes,
			file.Time,
			file.Date,
			start,
			size)
		if file.Deleted {
			entry[0] = 0xE5
		}
		if file.Free {
			entry[0] = 0x00
		}
		writeEntry(entry)

		remaining := file.Contents
		for _, cluster := range chain {
			if len(remaining) == 0 {
				break
			}
			n := copy(image[spec.ClusterOffset(cluster):spec.ClusterOffset(cluster)+clusterSize], remaining)
			remaining = remaining[n:]
		}
		require.Emptyf(t, remaining, "chain of %s is too short for its contents", file.Name)
	}

	return image
}

func writeBootSector(image []byte, spec *ImageSpec, imageSize int) {
	copy(image[0:3], []byte{0xEB, 0x3C, 0x90})
	copy(image[3:11], padded(spec.OEMName, 8))
	binary.LittleEndian.PutUint16(image[11:], spec.BytesPerSector)
	image[13] = spec.SectorsPerCluster
	binary.LittleEndian.PutUint16(image[14:], spec.ReservedSectors)
	image[16] = spec.FATCopies
	binary.LittleEndian.PutUint16(image[17:], spec.MaxRootEntries)
	if spec.BytesPerSector != 0 {
		binary.LittleEndian.PutUint16(image[19:], uint16(imageSize/int(spec.BytesPerSector)))
	}
	image[21] = spec.MediaType
	binary.LittleEndian.PutUint16(image[22:], spec.SectorsPerFAT)
	binary.LittleEndian.PutUint16(image[24:], 9)
	binary.LittleEndian.PutUint16(image[26:], 2)
	image[510] = 0x55
	image[511] = 0xAA
}

// packTable stores 12-bit links two at a time in three bytes: the low byte of
// the first, then the high nibble of the first below the low nibble of the
// second, then the high byte of the second.
func packTable(links []uint16, size int) []byte {
	packed := make([]byte, size)
	for i := 0; i+1 < len(links); i += 2 {
		offset := i / 2 * 3
		first := links[i] & 0xFFF
		second := links[i+1] & 0xFFF
		packed[offset] = byte(first & 0xFF)
		packed[offset+1] = byte(first>>8) | byte(second&0xF)<<4
		packed[offset+2] = byte(second >> 4)
	}
	if len(links)%2 == 1 {
		last := len(links) - 1
		offset := last / 2 * 3
		packed[offset] = byte(links[last] & 0xFF)
		packed[offset+1] = byte(links[last]>>8) & 0x0F
	}
	return packed
}

func packDirent(
	name, extension []byte, attributes uint8, clock, date, start uint16, size uint32,
) []byte {
	entry := make([]byte, 32)
	copy(entry[0:8], name)
	copy(entry[8:11], extension)
	entry[11] = attributes
	binary.LittleEndian.PutUint16(entry[22:], clock)
	binary.LittleEndian.PutUint16(entry[24:], date)
	binary.LittleEndian.PutUint16(entry[26:], start)
	binary.LittleEndian.PutUint32(entry[28:], size)
	return entry
}

func padded(text string, width int) []byte {
	if len(text) > width {
		text = text[:width]
	}
	return []byte(text + strings.Repeat(" ", width-len(text)))
}

// ReadmeSpec is a one-cluster volume holding a single 19-byte file, README.TXT.
func ReadmeSpec() ImageSpec {
	spec := DefaultSpec()
	spec.Files = []FileSpec{
		{
			Name:      "README",
			Extension: "TXT",
			Contents:  []byte("Hello from FAT12!\r\n"),
			Date:      EncodeDate(1994, 6, 3),
			Time:      EncodeTime(13, 45, 30),
		},
	}
	return spec
}

func EncodeDate(year, month, day int) uint16 {
	return uint16((year-1980)<<9 | month<<5 | day)
}

func EncodeTime(hour, minute, second int) uint16 {
	return uint16(hour<<11 | minute<<5 | second/2)
}

// NewImageSource wraps an image in a seekable in-memory stream. The image is
// not copied.
func NewImageSource(image []byte) fatimg.ImageSource {
	return bytesextra.NewReadWriteSeeker(image)
}

// PackImage compresses an image the way packed fixtures are stored.
func PackImage(t *testing.T, image []byte) []byte {
	packed := bytes.Buffer{}
	_, err := compression.PackImage(bytes.NewReader(image), &packed)
	require.NoError(t, err, "failed to pack image")
	return packed.Bytes()
}

// LoadPackedImage takes a packed image and returns a stream to access the
// unpacked data. It fails the test if the image doesn't unpack to exactly
// `expectedSize` bytes.
func LoadPackedImage(t *testing.T, packed []byte, expectedSize int) io.ReadSeeker {
	require.Greater(t, len(packed), 0, "packed image is empty")

	image, err := compression.UnpackImageToBytes(bytes.NewReader(packed))
	require.NoError(t, err)
	require.Equal(t, expectedSize, len(image), "unpacked image is wrong size")
	return bytesextra.NewReadWriteSeeker(image)
}
