package fat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/dargueta/fatimg"
	"github.com/dargueta/fatimg/drivers/common"
)

// DirentSize is the size of a single raw directory entry, in bytes.
const DirentSize = 32

const (
	// AttrReadOnly is an attribute flag marking a directory entry as read-only.
	AttrReadOnly = 0x01

	// AttrHidden marks a directory entry as "hidden", meaning it wouldn't show up
	// in normal directory listings on DOS. Listings here ignore it.
	AttrHidden = 0x02

	// AttrSystem marks a directory entry as essential to the operating system.
	AttrSystem = 0x04

	// AttrVolumeLabel marks the entry holding the true volume label of the file
	// system. It must reside in the root directory, and there must be only one.
	AttrVolumeLabel = 0x08

	// AttrDirectory marks a directory entry as being a directory.
	AttrDirectory = 0x10

	// AttrArchived is set whenever the entry is created or modified, and cleared
	// by backup tools.
	AttrArchived = 0x20
)

// Markers found in the first byte of a name.
const (
	markerFree    = 0x00
	markerDeleted = 0xE5
	// markerE5 stands in for a real 0xE5 first character, since that value
	// already means "deleted".
	markerE5 = 0x05
)

// RawDirent is the on-disk representation of a root directory entry.
type RawDirent struct {
	Name         [8]byte
	Extension    [3]byte
	Attributes   uint8
	Reserved     [10]byte
	Time         uint16
	Date         uint16
	StartCluster uint16
	FileSize     uint32
}

// Kind classifies a directory entry. It's determined once, when the entry is
// decoded.
type Kind int

const (
	KindRegular Kind = iota
	// KindFree marks an entry that has never been used. All entries after it are
	// unused too.
	KindFree
	KindDeleted
	KindVolumeLabel
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindFree:
		return "free"
	case KindDeleted:
		return "deleted"
	case KindVolumeLabel:
		return "volume label"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Classify determines the kind of a raw entry. Free takes precedence over
// deleted, which takes precedence over the volume label attribute.
func Classify(raw *RawDirent) Kind {
	switch {
	case raw.Name[0] == markerFree:
		return KindFree
	case raw.Name[0] == markerDeleted:
		return KindDeleted
	case raw.Attributes&AttrVolumeLabel != 0:
		return KindVolumeLabel
	default:
		return KindRegular
	}
}

// Dirent is a decoded directory entry.
type Dirent struct {
	RawDirent
	Kind Kind
}

// NewDirentFromBytes decodes a single 32-byte directory entry.
func NewDirentFromBytes(data []byte) (Dirent, error) {
	if len(data) != DirentSize {
		return Dirent{}, fatimg.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("directory entry must be %d bytes, got %d", DirentSize, len(data)))
	}

	raw := RawDirent{
		Attributes:   data[11],
		Time:         binary.LittleEndian.Uint16(data[22:24]),
		Date:         binary.LittleEndian.Uint16(data[24:26]),
		StartCluster: binary.LittleEndian.Uint16(data[26:28]),
		FileSize:     binary.LittleEndian.Uint32(data[28:32]),
	}
	copy(raw.Name[:], data[0:8])
	copy(raw.Extension[:], data[8:11])
	copy(raw.Reserved[:], data[12:22])

	return Dirent{RawDirent: raw, Kind: Classify(&raw)}, nil
}

// ScanRootDirectory reads up to `maxEntries` directory entries from the current
// position of `reader`. Scanning stops at the first free entry, which is not
// included in the result; deleted and volume label entries are kept in on-disk
// order. The rest of the root directory region is skipped, so on success the
// reader is positioned at the start of the data region.
func ScanRootDirectory(reader io.Reader, maxEntries uint16) ([]Dirent, error) {
	dirents := []Dirent{}
	record := make([]byte, DirentSize)

	for i := 0; i < int(maxEntries); i++ {
		_, err := io.ReadFull(reader, record)
		if err != nil {
			return nil, fatimg.ErrIOFailed.Wrap(err).WithMessage(
				fmt.Sprintf("reading root directory entry %d of %d", i, maxEntries))
		}

		dirent, _ := NewDirentFromBytes(record)
		if dirent.Kind == KindFree {
			unread := int64(int(maxEntries)-i-1) * DirentSize
			err = common.Skip(reader, unread)
			if err != nil {
				return nil, fatimg.ErrIOFailed.Wrap(err).WithMessage(
					"skipping unused root directory entries")
			}
			break
		}
		dirents = append(dirents, dirent)
	}

	return dirents, nil
}

// Name returns the display name of the entry: the trimmed name, followed by a
// period and the trimmed extension if there is one. The first character of a
// deleted entry is lost on disk and is shown as "?".
func (d *Dirent) Name() string {
	stem := d.Stem()
	extension := d.Ext()
	if extension == "" {
		return stem
	}
	return stem + "." + extension
}

// Stem returns the name part of the entry without its extension.
func (d *Dirent) Stem() string {
	name := d.RawDirent.Name
	switch name[0] {
	case markerDeleted:
		name[0] = '?'
	case markerE5:
		name[0] = markerDeleted
	}
	return string(bytes.TrimRight(name[:], " "))
}

// Ext returns the extension of the entry with its padding removed.
func (d *Dirent) Ext() string {
	return string(bytes.TrimRight(d.Extension[:], " "))
}

// Label returns the volume label stored in a volume label entry. Unlike file
// names, the label spans all eleven bytes and has no period.
func (d *Dirent) Label() string {
	label := make([]byte, 0, 11)
	label = append(label, d.RawDirent.Name[:]...)
	label = append(label, d.Extension[:]...)
	return string(bytes.TrimRight(label, " "))
}

// Size is the size of the file, in bytes.
func (d *Dirent) Size() int64 { return int64(d.FileSize) }

func (d *Dirent) IsReadOnly() bool { return d.Attributes&AttrReadOnly != 0 }

func (d *Dirent) IsHidden() bool { return d.Attributes&AttrHidden != 0 }

func (d *Dirent) IsDir() bool { return d.Attributes&AttrDirectory != 0 }

func (d *Dirent) FirstCluster() common.ClusterID { return common.ClusterID(d.StartCluster) }

// Date is a calendar date as stored in a directory entry.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateFromInt decodes the FAT on-disk representation of a date:
//
//	bits 0-4:  day of month
//	bits 5-8:  month
//	bits 9-15: years since 1980
func DateFromInt(value uint16) Date {
	return Date{
		Year:  1980 + int(value>>9),
		Month: time.Month((value >> 5) & 0x000F),
		Day:   int(value & 0x001F),
	}
}

// IsValid returns false for the day or month value 0, which DOS never writes.
func (d Date) IsValid() bool {
	return d.Day != 0 && d.Month >= time.January && d.Month <= time.December
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Clock is a time of day as stored in a directory entry, with two-second
// resolution.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ClockFromInt decodes the FAT on-disk representation of a time:
//
//	bits 0-4:   seconds / 2
//	bits 5-10:  minutes
//	bits 11-15: hours
func ClockFromInt(value uint16) Clock {
	return Clock{
		Hour:   int(value >> 11),
		Minute: int((value >> 5) & 0x003F),
		Second: int(value&0x001F) * 2,
	}
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

func (d *Dirent) LastModifiedDate() Date { return DateFromInt(d.Date) }

func (d *Dirent) LastModifiedTime() Clock { return ClockFromInt(d.Time) }

// ModTime combines the date and time of the entry into a UTC timestamp. An
// invalid date gives the zero time, so [time.Time.IsZero] can be used to
// detect it.
func (d *Dirent) ModTime() time.Time {
	date := d.LastModifiedDate()
	if !date.IsValid() {
		return time.Time{}
	}
	clock := d.LastModifiedTime()
	return time.Date(
		date.Year, date.Month, date.Day, clock.Hour, clock.Minute, clock.Second, 0, time.UTC)
}
