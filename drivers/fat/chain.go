package fat

import (
	"fmt"
	"io"

	"github.com/dargueta/fatimg"
	"github.com/dargueta/fatimg/drivers/common"
)

// ChainReader follows cluster chains through a [Table] and reads the clusters
// they name from the data region of an image.
type ChainReader struct {
	table    *Table
	clusters common.ClusterStream
}

func NewChainReader(table *Table, clusters common.ClusterStream) ChainReader {
	return ChainReader{table: table, clusters: clusters}
}

// Extents computes the byte ranges of the image holding the contents of
// `entry`, in file order. Their lengths add up to the size of the file.
//
// An entry whose start cluster is 0 or 1 has no data, regardless of the size it
// claims. All clusters but the last are read in full; the last holds the size of
// the file modulo the cluster size, or a full cluster if that's zero.
func (reader *ChainReader) Extents(entry *Dirent) ([]common.Extent, error) {
	if entry.FirstCluster() < common.FirstDataCluster {
		return []common.Extent{}, nil
	}

	clusterSize := reader.clusters.BytesPerCluster
	fileSize := entry.Size()
	remaining := fileSize

	expectedClusters := (fileSize + clusterSize - 1) / clusterSize
	if expectedClusters > int64(reader.table.Len()) {
		expectedClusters = int64(reader.table.Len())
	}
	extents := make([]common.Extent, 0, expectedClusters)
	visited := common.NewClusterSet(uint(reader.table.Len()) + uint(common.FirstDataCluster))

	cluster := entry.FirstCluster()
	for remaining > 0 {
		link, err := reader.table.Link(cluster)
		if err != nil {
			return nil, err
		}

		isNew, err := visited.Add(cluster)
		if err != nil {
			return nil, err
		}
		if !isNew {
			return nil, fatimg.ErrChainCycle.WithMessage(
				fmt.Sprintf(
					"chain of %q returns to cluster %d after visiting %d clusters",
					entry.Name(),
					cluster,
					visited.Len()))
		}

		isLast := reader.table.IsEndOfChain(link)
		length := clusterSize
		if isLast {
			length = fileSize % clusterSize
			if length == 0 {
				length = clusterSize
			}
		}
		if length > remaining {
			length = remaining
		}

		extent, err := reader.clusters.ExtentOf(cluster, length)
		if err != nil {
			return nil, err
		}
		extents = append(extents, extent)
		remaining -= length

		if isLast {
			break
		}
		cluster = common.ClusterID(link)
	}

	if remaining > 0 {
		return nil, fatimg.ErrFileSystemCorrupted.WithMessage(
			fmt.Sprintf(
				"chain of %q ends %d bytes short of its %d-byte size",
				entry.Name(),
				remaining,
				fileSize))
	}
	return extents, nil
}

// CopyTo writes the contents of `entry` to `writer` and returns the number of
// bytes written. The whole chain is validated before anything is written, so a
// corrupted chain produces no output.
func (reader *ChainReader) CopyTo(writer io.Writer, entry *Dirent) (int64, error) {
	extents, err := reader.Extents(entry)
	if err != nil {
		return 0, err
	}

	buffer := make([]byte, reader.clusters.BytesPerCluster)
	totalWritten := int64(0)
	for _, extent := range extents {
		data, err := reader.clusters.ReadExtent(extent, buffer)
		if err != nil {
			return totalWritten, err
		}

		nWritten, err := writer.Write(data)
		totalWritten += int64(nWritten)
		if err == nil && nWritten < len(data) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return totalWritten, fatimg.ErrIOFailed.Wrap(err).WithMessage(
				fmt.Sprintf("writing contents of %q", entry.Name()))
		}
	}
	return totalWritten, nil
}
