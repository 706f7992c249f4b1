package common

import (
	"fmt"
	"io"

	"github.com/dargueta/fatimg"
)

// ClusterStream maps cluster numbers onto byte ranges of an image and reads
// them. Every range it hands out is checked against the size of the image.
type ClusterStream struct {
	Source io.ReaderAt
	// DataStart is the byte offset of FirstValidCluster in the image.
	DataStart       int64
	BytesPerCluster int64
	// ImageSize is the total size of the image, in bytes. No extent may end
	// past this.
	ImageSize         int64
	FirstValidCluster ClusterID
}

func NewClusterStream(
	source io.ReaderAt,
	dataStart int64,
	bytesPerCluster int64,
	imageSize int64,
) (ClusterStream, error) {
	if bytesPerCluster <= 0 {
		return ClusterStream{}, fatimg.ErrMalformedGeometry.WithMessage(
			fmt.Sprintf("cluster size must be positive, got %d", bytesPerCluster))
	}
	if dataStart < 0 {
		return ClusterStream{}, fatimg.ErrMalformedGeometry.WithMessage(
			fmt.Sprintf("data region can't start at negative offset %d", dataStart))
	}

	return ClusterStream{
		Source:            source,
		DataStart:         dataStart,
		BytesPerCluster:   bytesPerCluster,
		ImageSize:         imageSize,
		FirstValidCluster: FirstDataCluster,
	}, nil
}

// ClusterOffset gives the byte offset in the image where `cluster` begins.
func (stream *ClusterStream) ClusterOffset(cluster ClusterID) (int64, error) {
	if cluster < stream.FirstValidCluster {
		return -1, fatimg.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"invalid cluster ID %d: data clusters start at %d",
				cluster,
				stream.FirstValidCluster))
	}
	relative := int64(cluster - stream.FirstValidCluster)
	return stream.DataStart + relative*stream.BytesPerCluster, nil
}

// ExtentOf gives the first `length` bytes of `cluster` as an extent of the
// image. It fails with [fatimg.ErrIOFailed] if the extent would run off the end
// of the image.
func (stream *ClusterStream) ExtentOf(cluster ClusterID, length int64) (Extent, error) {
	if length < 0 || length > stream.BytesPerCluster {
		return Extent{}, fatimg.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"can't take %d bytes of a %d-byte cluster", length, stream.BytesPerCluster))
	}

	offset, err := stream.ClusterOffset(cluster)
	if err != nil {
		return Extent{}, err
	}

	extent := Extent{Offset: offset, Length: length}
	if extent.End() > stream.ImageSize {
		return Extent{}, fatimg.ErrIOFailed.WithMessage(
			fmt.Sprintf(
				"cluster %d (bytes [%d, %d)) extends past the end of the image (%d bytes)",
				cluster,
				extent.Offset,
				extent.End(),
				stream.ImageSize))
	}
	return extent, nil
}

// ReadExtent reads an extent into the beginning of `buffer` and returns the
// filled portion. `buffer` must be at least `extent.Length` bytes.
func (stream *ClusterStream) ReadExtent(extent Extent, buffer []byte) ([]byte, error) {
	if int64(len(buffer)) < extent.Length {
		return nil, fatimg.ErrInvalidArgument.WithMessage(
			fmt.Sprintf(
				"buffer of %d bytes can't hold a %d-byte extent", len(buffer), extent.Length))
	}

	data := buffer[:extent.Length]
	nRead, err := stream.Source.ReadAt(data, extent.Offset)
	if nRead < len(data) {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, fatimg.ErrIOFailed.Wrap(err).WithMessage(
			fmt.Sprintf(
				"short read at offset %d: wanted %d bytes, got %d",
				extent.Offset,
				len(data),
				nRead))
	}
	return data, nil
}
