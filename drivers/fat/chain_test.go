package fat_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dargueta/fatimg"
	"github.com/dargueta/fatimg/drivers/common"
	"github.com/dargueta/fatimg/drivers/fat"
	fattest "github.com/dargueta/fatimg/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChainReader(t *testing.T, volume *fat.Volume, image []byte) fat.ChainReader {
	params, err := volume.BootParameters()
	require.NoError(t, err)
	table, err := volume.Table()
	require.NoError(t, err)

	clusters, err := common.NewClusterStream(
		bytes.NewReader(image),
		params.Geometry.DataRegionBase,
		params.Geometry.BytesPerCluster,
		int64(len(image)))
	require.NoError(t, err)
	return fat.NewChainReader(table, clusters)
}

func TestChainReader__Extents(t *testing.T) {
	spec := fattest.DefaultSpec()
	clusterSize := spec.ClusterSize()
	contents := patternBytes(2*clusterSize + 37)
	spec.Files = []fattest.FileSpec{
		{Name: "SPREAD", Extension: "BIN", Contents: contents, Clusters: []uint16{5, 7, 9}},
	}

	volume, image := openImage(t, spec)
	reader := newChainReader(t, volume, image)
	entry, err := volume.Lookup("SPREAD.BIN")
	require.NoError(t, err)

	extents, err := reader.Extents(&entry)
	require.NoError(t, err)
	assert.Equal(
		t,
		[]common.Extent{
			{Offset: int64(spec.ClusterOffset(5)), Length: int64(clusterSize)},
			{Offset: int64(spec.ClusterOffset(7)), Length: int64(clusterSize)},
			{Offset: int64(spec.ClusterOffset(9)), Length: 37},
		},
		extents)

	output := bytes.Buffer{}
	n, err := reader.CopyTo(&output, &entry)
	require.NoError(t, err)
	assert.EqualValues(t, len(contents), n)
	assert.Equal(t, contents, output.Bytes())
}

func TestChainReader__ExactMultipleOfClusterSize(t *testing.T) {
	spec := fattest.DefaultSpec()
	clusterSize := spec.ClusterSize()
	spec.Files = []fattest.FileSpec{
		{Name: "EXACT", Contents: patternBytes(2 * clusterSize)},
	}

	volume, image := openImage(t, spec)
	reader := newChainReader(t, volume, image)
	entry, err := volume.Lookup("EXACT")
	require.NoError(t, err)

	extents, err := reader.Extents(&entry)
	require.NoError(t, err)
	require.Len(t, extents, 2)
	assert.EqualValues(t, clusterSize, extents[0].Length)
	assert.EqualValues(t, clusterSize, extents[1].Length)
}

func TestChainReader__ReservedStartClusters(t *testing.T) {
	for _, start := range []uint16{0, 1} {
		spec := fattest.DefaultSpec()
		spec.Files = []fattest.FileSpec{
			{Name: "GHOST", StartCluster: start, Size: uint32Ptr(1000)},
		}

		volume, image := openImage(t, spec)
		reader := newChainReader(t, volume, image)
		entry, err := volume.Lookup("GHOST")
		require.NoError(t, err)

		extents, err := reader.Extents(&entry)
		require.NoError(t, err)
		assert.Emptyf(t, extents, "start cluster %d", start)

		output := bytes.Buffer{}
		n, err := reader.CopyTo(&output, &entry)
		require.NoError(t, err)
		assert.EqualValues(t, 0, n)
		assert.Equal(t, 0, output.Len())
	}
}

func TestChainReader__EmptyFile(t *testing.T) {
	spec := fattest.DefaultSpec()
	spec.Files = []fattest.FileSpec{
		{Name: "EMPTY", Clusters: []uint16{2}, Size: uint32Ptr(0)},
	}

	volume, image := openImage(t, spec)
	reader := newChainReader(t, volume, image)
	entry, err := volume.Lookup("EMPTY")
	require.NoError(t, err)

	extents, err := reader.Extents(&entry)
	require.NoError(t, err)
	assert.Empty(t, extents)
}

func TestChainReader__StopsAtFileSize(t *testing.T) {
	spec := fattest.DefaultSpec()
	spec.Files = []fattest.FileSpec{
		{
			Name:     "LONGCHN",
			Contents: patternBytes(100),
			Clusters: []uint16{2, 3, 4},
		},
	}

	volume, image := openImage(t, spec)
	reader := newChainReader(t, volume, image)
	entry, err := volume.Lookup("LONGCHN")
	require.NoError(t, err)

	extents, err := reader.Extents(&entry)
	require.NoError(t, err)
	assert.Equal(
		t,
		[]common.Extent{{Offset: int64(spec.ClusterOffset(2)), Length: 100}},
		extents)
}

func TestChainReader__Cycle(t *testing.T) {
	spec := fattest.DefaultSpec()
	clusterSize := spec.ClusterSize()
	spec.Files = []fattest.FileSpec{
		{
			Name:     "LOOP",
			Clusters: []uint16{2, 3, 4},
			Size:     uint32Ptr(uint32(10 * clusterSize)),
		},
	}
	spec.Links = map[uint16]uint16{4: 3}

	volume, image := openImage(t, spec)
	reader := newChainReader(t, volume, image)
	entry, err := volume.Lookup("LOOP")
	require.NoError(t, err)

	_, err = reader.Extents(&entry)
	assert.ErrorIs(t, err, fatimg.ErrChainCycle)
	assert.EqualError(
		t, err, `chain of "LOOP" returns to cluster 3 after visiting 3 clusters`)

	output := bytes.Buffer{}
	n, err := reader.CopyTo(&output, &entry)
	assert.ErrorIs(t, err, fatimg.ErrChainCycle)
	assert.EqualValues(t, 0, n, "nothing should be written for a bad chain")
	assert.Equal(t, 0, output.Len())
}

func TestChainReader__LinkOutsideTable(t *testing.T) {
	spec := fattest.DefaultSpec()
	clusterSize := spec.ClusterSize()
	spec.Files = []fattest.FileSpec{
		{Name: "WILD", Clusters: []uint16{2}, Size: uint32Ptr(uint32(3 * clusterSize))},
	}
	spec.Links = map[uint16]uint16{2: 0xFF0}

	volume, image := openImage(t, spec)
	reader := newChainReader(t, volume, image)
	entry, err := volume.Lookup("WILD")
	require.NoError(t, err)

	_, err = reader.Extents(&entry)
	assert.ErrorIs(t, err, fatimg.ErrFileSystemCorrupted)
}

func TestChainReader__ChainShorterThanFile(t *testing.T) {
	spec := fattest.DefaultSpec()
	clusterSize := spec.ClusterSize()
	spec.Files = []fattest.FileSpec{
		{
			Name:     "TRUNC",
			Clusters: []uint16{2},
			Size:     uint32Ptr(uint32(3*clusterSize + 10)),
		},
	}

	volume, image := openImage(t, spec)
	reader := newChainReader(t, volume, image)
	entry, err := volume.Lookup("TRUNC")
	require.NoError(t, err)

	_, err = reader.Extents(&entry)
	assert.ErrorIs(t, err, fatimg.ErrFileSystemCorrupted)
}

func TestChainReader__ClusterPastEndOfImage(t *testing.T) {
	spec := fattest.DefaultSpec()
	spec.Files = []fattest.FileSpec{
		{Name: "TAIL", Contents: patternBytes(50), Clusters: []uint16{3}},
	}

	volume, image := openImage(t, spec)
	truncated := image[:spec.ClusterOffset(3)+20]
	reader := newChainReader(t, volume, truncated)
	entry, err := volume.Lookup("TAIL")
	require.NoError(t, err)

	_, err = reader.Extents(&entry)
	assert.ErrorIs(t, err, fatimg.ErrIOFailed)
}

type failingWriter struct{}

func (failingWriter) Write(data []byte) (int, error) {
	return 0, errors.New("disk full")
}

type shortWriter struct{}

func (shortWriter) Write(data []byte) (int, error) {
	return len(data) / 2, nil
}

func TestChainReader__WriteErrors(t *testing.T) {
	volume, image := openImage(t, fattest.ReadmeSpec())
	reader := newChainReader(t, volume, image)
	entry, err := volume.Lookup("README.TXT")
	require.NoError(t, err)

	_, err = reader.CopyTo(failingWriter{}, &entry)
	assert.ErrorIs(t, err, fatimg.ErrIOFailed)

	n, err := reader.CopyTo(shortWriter{}, &entry)
	assert.ErrorIs(t, err, fatimg.ErrIOFailed)
	assert.EqualValues(t, 9, n)
}
