package fat

import (
	"fmt"
	"io"

	"github.com/dargueta/fatimg"
	"github.com/dargueta/fatimg/drivers/common"
)

// maxTableEntries bounds the size of a decoded table. Cluster numbers are 16
// bits wide in a directory entry, so a bigger table can't be addressed anyway.
const maxTableEntries = 1 << 16

// Link values with special meaning in a FAT12 table.
const (
	LinkFree = 0x000
	LinkBad  = 0xFF7
)

// DecodePair unpacks two 12-bit table entries from three bytes.
func DecodePair(packed [3]byte) (uint16, uint16) {
	first := uint16(packed[0]) | (uint16(packed[1]&0x0F) << 8)
	second := (uint16(packed[2]) << 4) | (uint16(packed[1]&0xF0) >> 4)
	return first, second
}

// EncodePair is the inverse of [DecodePair]. Only the low 12 bits of each value
// are stored.
func EncodePair(first, second uint16) [3]byte {
	return [3]byte{
		byte(first),
		byte((first>>8)&0x0F) | byte((second&0x0F)<<4),
		byte(second >> 4),
	}
}

// Table is a decoded FAT. Links are indexed by cluster number, starting at
// cluster 2; the two reserved leading entries are kept separately.
type Table struct {
	// MediaDescriptor is the low byte of entry 0.
	MediaDescriptor uint8
	// EOFMarker is the value of entry 1. A link equal to it ends a chain.
	EOFMarker uint16
	links     []uint16
}

// NewTable creates a table from already-decoded links. links[0] is the link for
// cluster 2.
func NewTable(mediaDescriptor uint8, eofMarker uint16, links []uint16) *Table {
	owned := make([]uint16, len(links))
	copy(owned, links)
	return &Table{
		MediaDescriptor: mediaDescriptor,
		EOFMarker:       eofMarker,
		links:           owned,
	}
}

// DecodeTable reads one copy of the FAT from the current position of `reader`
// and then skips the remaining redundant copies. On success the reader is
// positioned at the start of the root directory.
func DecodeTable(reader io.Reader, params *BootParameters) (*Table, error) {
	fatBytes := params.Geometry.FATBytes
	totalEntries := fatBytes * 2 / 3
	if totalEntries > maxTableEntries {
		return nil, fatimg.ErrAllocationFailed.WithMessage(
			fmt.Sprintf(
				"FAT of %d bytes holds %d entries, more than the %d a volume can address",
				fatBytes,
				totalEntries,
				maxTableEntries))
	}

	raw := make([]byte, fatBytes)
	_, err := io.ReadFull(reader, raw)
	if err != nil {
		return nil, fatimg.ErrIOFailed.Wrap(err).WithMessage(
			fmt.Sprintf("reading %d-byte FAT", fatBytes))
	}

	entries := make([]uint16, 0, totalEntries)
	fullPairsEnd := len(raw) - len(raw)%3
	for i := 0; i < fullPairsEnd; i += 3 {
		first, second := DecodePair([3]byte(raw[i : i+3]))
		entries = append(entries, first, second)
	}
	// Two leftover bytes are enough for one more entry; a single byte isn't.
	if len(raw)%3 == 2 {
		first, _ := DecodePair([3]byte{raw[fullPairsEnd], raw[fullPairsEnd+1], 0})
		entries = append(entries, first)
	}

	table := &Table{
		MediaDescriptor: uint8(entries[0]),
		EOFMarker:       entries[1],
		links:           entries[2:],
	}

	redundantBytes := int64(params.FATCopies-1) * fatBytes
	err = common.Skip(reader, redundantBytes)
	if err != nil {
		return nil, fatimg.ErrIOFailed.Wrap(err).WithMessage(
			fmt.Sprintf("skipping %d redundant FAT copies", params.FATCopies-1))
	}
	return table, nil
}

// Len gives the number of links in the table, i.e. the number of data clusters
// it can describe.
func (table *Table) Len() int {
	return len(table.links)
}

// Link returns the value stored in the table for `cluster`: the next cluster in
// its chain, the end-of-chain marker, or one of the special link values.
func (table *Table) Link(cluster common.ClusterID) (uint16, error) {
	if cluster < common.FirstDataCluster ||
		int(cluster-common.FirstDataCluster) >= len(table.links) {
		return 0, fatimg.ErrFileSystemCorrupted.WithMessage(
			fmt.Sprintf(
				"cluster %d is outside the allocation table: not in range [%d, %d)",
				cluster,
				common.FirstDataCluster,
				len(table.links)+int(common.FirstDataCluster)))
	}
	return table.links[cluster-common.FirstDataCluster], nil
}

// IsEndOfChain returns true if `link` is this volume's end-of-chain marker.
//
// Only exact equality with the marker recorded in entry 1 counts. Values in the
// 0xFF8-0xFFF range that differ from the marker are treated as ordinary links.
func (table *Table) IsEndOfChain(link uint16) bool {
	return link == table.EOFMarker
}

// TableUsage summarizes how the clusters of a volume are allocated.
type TableUsage struct {
	Total int
	Free  int
	Bad   int
	Used  int
	// ChainEnds counts links holding the end-of-chain marker, which is one per
	// non-empty file.
	ChainEnds int
}

// Usage counts free, bad, and allocated clusters.
func (table *Table) Usage() TableUsage {
	usage := TableUsage{Total: len(table.links)}
	for _, link := range table.links {
		switch {
		case link == LinkFree:
			usage.Free++
		case link == LinkBad:
			usage.Bad++
		default:
			usage.Used++
			if table.IsEndOfChain(link) {
				usage.ChainEnds++
			}
		}
	}
	return usage
}
