package fat_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/dargueta/fatimg"
	"github.com/dargueta/fatimg/drivers/common"
	"github.com/dargueta/fatimg/drivers/fat"
	fattest "github.com/dargueta/fatimg/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePair__KnownValues(t *testing.T) {
	first, second := fat.DecodePair([3]byte{0xF8, 0xFF, 0xFF})
	assert.EqualValues(t, 0xFF8, first)
	assert.EqualValues(t, 0xFFF, second)

	first, second = fat.DecodePair([3]byte{0xBC, 0x3A, 0x12})
	assert.EqualValues(t, 0xABC, first)
	assert.EqualValues(t, 0x123, second)

	assert.Equal(t, [3]byte{0xBC, 0x3A, 0x12}, fat.EncodePair(0xABC, 0x123))
}

// Every possible 3-byte input. Assertions only run on a mismatch, since
// testify is far too slow to call 2^24 times.
func TestDecodePair__RoundTrip(t *testing.T) {
	for value := 0; value < 1<<24; value++ {
		packed := [3]byte{byte(value), byte(value >> 8), byte(value >> 16)}
		first, second := fat.DecodePair(packed)
		if first > 0xFFF || second > 0xFFF || fat.EncodePair(first, second) != packed {
			require.Failf(
				t,
				"round trip failed",
				"% x decoded to %#03x, %#03x and re-encoded to % x",
				packed,
				first,
				second,
				fat.EncodePair(first, second))
		}
	}
}

func TestEncodePair__IgnoresHighBits(t *testing.T) {
	assert.Equal(t, fat.EncodePair(0x123, 0x456), fat.EncodePair(0xF123, 0xF456))
}

func paramsForFAT(fatBytes int64, copies uint8) *fat.BootParameters {
	params := &fat.BootParameters{}
	params.FATCopies = copies
	params.Geometry.FATBytes = fatBytes
	return params
}

func TestDecodeTable__Length(t *testing.T) {
	tests := []struct {
		FATBytes int64
		Expected int
	}{
		{512, 339},
		{1024, 680},
		{1536, 1022},
		{4608, 3070},
		{6, 2},
		{8, 3},
	}

	for _, test := range tests {
		raw := make([]byte, test.FATBytes)
		table, err := fat.DecodeTable(bytes.NewReader(raw), paramsForFAT(test.FATBytes, 1))
		require.NoError(t, err)
		assert.Equalf(
			t, test.Expected, table.Len(), "wrong table length for %d bytes", test.FATBytes)
	}
}

func TestDecodeTable__ReservedEntries(t *testing.T) {
	raw := []byte{0xF0, 0xFF, 0xFF, 0x03, 0xF0, 0xFF}
	table, err := fat.DecodeTable(bytes.NewReader(raw), paramsForFAT(6, 1))
	require.NoError(t, err)

	assert.EqualValues(t, 0xF0, table.MediaDescriptor)
	assert.EqualValues(t, 0xFFF, table.EOFMarker)

	link, err := table.Link(2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, link)

	link, err = table.Link(3)
	require.NoError(t, err)
	assert.EqualValues(t, 0xFFF, link)
	assert.True(t, table.IsEndOfChain(link))
}

func TestDecodeTable__SkipsRedundantCopies(t *testing.T) {
	spec := fattest.DefaultSpec()
	spec.FATCopies = 3
	image := fattest.BuildImage(t, spec)

	reader := bytes.NewReader(image)
	params, err := fat.DecodeBootSector(reader)
	require.NoError(t, err)

	_, err = fat.DecodeTable(reader, &params)
	require.NoError(t, err)

	position, err := reader.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, params.Geometry.RootDirStart, position)
}

func TestDecodeTable__ShortRead(t *testing.T) {
	_, err := fat.DecodeTable(bytes.NewReader(make([]byte, 300)), paramsForFAT(512, 1))
	assert.ErrorIs(t, err, fatimg.ErrIOFailed)
}

func TestDecodeTable__TooLarge(t *testing.T) {
	_, err := fat.DecodeTable(bytes.NewReader(nil), paramsForFAT(1<<20, 1))
	assert.ErrorIs(t, err, fatimg.ErrAllocationFailed)
}

func TestTable__LinkOutOfRange(t *testing.T) {
	table := fat.NewTable(0xF8, 0xFFF, []uint16{0xFFF, 0, 0})

	for _, cluster := range []common.ClusterID{0, 1, 5, 0xFFF} {
		_, err := table.Link(cluster)
		assert.ErrorIsf(t, err, fatimg.ErrFileSystemCorrupted, "cluster %d", cluster)
	}

	link, err := table.Link(4)
	require.NoError(t, err)
	assert.EqualValues(t, 0, link)
}

func TestTable__EndOfChainIsExactMatch(t *testing.T) {
	table := fat.NewTable(0xF0, 0xFF8, nil)

	assert.True(t, table.IsEndOfChain(0xFF8))
	assert.False(t, table.IsEndOfChain(0xFFF))
	assert.False(t, table.IsEndOfChain(0xFF9))
}

func TestNewTable__CopiesLinks(t *testing.T) {
	links := []uint16{3, 0xFFF}
	table := fat.NewTable(0xF8, 0xFFF, links)
	links[0] = 100

	link, err := table.Link(2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, link)
}

func TestTable__Usage(t *testing.T) {
	table := fat.NewTable(
		0xF8, 0xFFF, []uint16{3, 0xFFF, fat.LinkFree, fat.LinkBad, 0xFFF, fat.LinkFree})

	assert.Equal(
		t,
		fat.TableUsage{Total: 6, Free: 2, Bad: 1, Used: 3, ChainEnds: 2},
		table.Usage())
}
