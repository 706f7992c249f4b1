// Package fat decodes FAT12 volume images. It reads the boot sector, the packed
// allocation table, and the root directory in a single forward pass, then
// rebuilds file contents by walking cluster chains through the table.

package fat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/dargueta/fatimg"
	"github.com/dargueta/fatimg/drivers/common"
)

// BootSectorSize is the size of the fixed boot record at the start of every
// volume. Sectors larger than this have their remainder skipped.
const BootSectorSize = 512

// RawBootSector is the on-disk representation of the boot record. The layout is
// positional, so the field order must not be changed.
type RawBootSector struct {
	JmpBoot           [3]byte
	OEMName           [8]byte
	BytesPerSector    uint16
	SectorsPerCluster uint8
	ReservedSectors   uint16
	FATCopies         uint8
	MaxRootEntries    uint16
	TotalSectors      uint16
	MediaType         uint8
	SectorsPerFAT     uint16
	SectorsPerTrack   uint16
	NumHeads          uint16
	HiddenSectors     uint16
	Bootstrap         [480]byte
	Signature         [2]byte
}

// Geometry holds the byte sizes and offsets derived from the boot sector. It's
// computed once when the boot sector is decoded.
type Geometry struct {
	BytesPerCluster int64
	ReservedBytes   int64
	// FATBytes is the size of a single copy of the FAT.
	FATBytes     int64
	RootDirBytes int64
	RootDirStart int64
	// DataRegionBase is the byte offset of cluster 2.
	DataRegionBase int64
}

// BootParameters is a decoded boot sector along with the geometry derived from
// it.
type BootParameters struct {
	RawBootSector
	Geometry Geometry
	// RemainingBootBytes is how much of the first sector follows the 512-byte
	// boot record.
	RemainingBootBytes int64
}

// DecodeBootSector reads the boot record from the current position of `reader`
// and skips the rest of the first sector. On success the reader is positioned
// at the start of the second sector.
//
// Zero values for the fields used as divisors or multipliers are reported as
// [fatimg.ErrMalformedGeometry] rather than trusted.
func DecodeBootSector(reader io.Reader) (BootParameters, error) {
	raw := RawBootSector{}

	err := binary.Read(reader, binary.LittleEndian, &raw)
	if err != nil {
		return BootParameters{}, fatimg.ErrIOFailed.Wrap(err).WithMessage("reading boot sector")
	}

	err = raw.checkGeometry()
	if err != nil {
		return BootParameters{}, err
	}

	params := BootParameters{
		RawBootSector:      raw,
		Geometry:           raw.geometry(),
		RemainingBootBytes: int64(raw.BytesPerSector) - BootSectorSize,
	}

	err = common.Skip(reader, params.RemainingBootBytes)
	if err != nil {
		return BootParameters{}, fatimg.ErrIOFailed.Wrap(err).WithMessage(
			fmt.Sprintf("skipping %d bytes after the boot record", params.RemainingBootBytes))
	}
	return params, nil
}

func (raw *RawBootSector) checkGeometry() error {
	var problem string

	switch {
	case raw.BytesPerSector == 0:
		problem = "bytes per sector is 0"
	case raw.BytesPerSector < BootSectorSize:
		problem = fmt.Sprintf(
			"bytes per sector is %d, smaller than the %d-byte boot record",
			raw.BytesPerSector,
			BootSectorSize)
	case raw.SectorsPerFAT == 0:
		problem = "sectors per FAT is 0"
	case raw.SectorsPerCluster == 0:
		problem = "sectors per cluster is 0"
	case raw.FATCopies == 0:
		problem = "volume has no copies of the FAT"
	case raw.ReservedSectors == 0:
		problem = "reserved sector count is 0; the FAT would overlap the boot sector"
	default:
		return nil
	}
	return fatimg.ErrMalformedGeometry.WithMessage(problem)
}

func (raw *RawBootSector) geometry() Geometry {
	bytesPerSector := int64(raw.BytesPerSector)

	geo := Geometry{
		BytesPerCluster: bytesPerSector * int64(raw.SectorsPerCluster),
		ReservedBytes:   bytesPerSector * int64(raw.ReservedSectors),
		FATBytes:        bytesPerSector * int64(raw.SectorsPerFAT),
		RootDirBytes:    int64(raw.MaxRootEntries) * DirentSize,
	}
	geo.RootDirStart = geo.ReservedBytes + geo.FATBytes*int64(raw.FATCopies)
	geo.DataRegionBase = geo.RootDirStart + geo.RootDirBytes
	return geo
}

// OEM returns the OEM name with trailing padding removed.
func (params *BootParameters) OEM() string {
	return string(bytes.TrimRight(params.OEMName[:], " \x00"))
}

// HasBootSignature returns true if the boot record ends with the 0x55 0xAA
// marker. The signature isn't required to read the volume.
func (params *BootParameters) HasBootSignature() bool {
	return params.Signature == [2]byte{0x55, 0xAA}
}
