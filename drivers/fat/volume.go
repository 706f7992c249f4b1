package fat

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dargueta/fatimg"
	"github.com/dargueta/fatimg/drivers/common"
	"github.com/hashicorp/go-multierror"
	"github.com/noxer/bytewriter"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Volume is a decoded FAT12 image. Everything but file contents is read when
// the volume is opened; file contents are read on demand with positioned reads.
//
// A Volume doesn't own its source and never closes it.
type Volume struct {
	params  BootParameters
	table   *Table
	entries []Dirent
	label   *Dirent
	chains  ChainReader
	logger  *zap.SugaredLogger

	lock   sync.RWMutex
	closed bool
}

type Option func(*Volume)

// WithLogger sets the logger a volume reports its progress to. By default
// nothing is logged.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(volume *Volume) {
		volume.logger = logger
	}
}

// Open decodes the boot sector, allocation table, and root directory of the
// image in `source`. Decoding starts at the beginning of the source no matter
// where it's currently positioned.
func Open(source fatimg.ImageSource, options ...Option) (*Volume, error) {
	volume := &Volume{logger: zap.NewNop().Sugar()}
	for _, option := range options {
		option(volume)
	}

	imageSize, err := common.StreamSize(source)
	if err != nil {
		return nil, fatimg.ErrIOFailed.Wrap(err).WithMessage("determining image size")
	}
	_, err = source.Seek(0, io.SeekStart)
	if err != nil {
		return nil, fatimg.ErrIOFailed.Wrap(err).WithMessage("rewinding image")
	}

	volume.params, err = DecodeBootSector(source)
	if err != nil {
		return nil, err
	}
	geometry := &volume.params.Geometry
	volume.logger.Debugf(
		"boot sector: %d bytes/sector, %d sectors/cluster, %d reserved, %d FAT copies of %d sectors, %d root entries",
		volume.params.BytesPerSector,
		volume.params.SectorsPerCluster,
		volume.params.ReservedSectors,
		volume.params.FATCopies,
		volume.params.SectorsPerFAT,
		volume.params.MaxRootEntries)

	if geometry.FATBytes > imageSize || geometry.RootDirBytes > imageSize {
		return nil, fatimg.ErrAllocationFailed.WithMessage(
			fmt.Sprintf(
				"%d-byte FAT and %d-byte root directory can't fit in a %d-byte image",
				geometry.FATBytes,
				geometry.RootDirBytes,
				imageSize))
	}

	err = common.Skip(
		source,
		int64(volume.params.ReservedSectors-1)*int64(volume.params.BytesPerSector))
	if err != nil {
		return nil, fatimg.ErrIOFailed.Wrap(err).WithMessage("skipping reserved sectors")
	}

	volume.table, err = DecodeTable(source, &volume.params)
	if err != nil {
		return nil, err
	}
	volume.logger.Debugf(
		"FAT: %d clusters, media descriptor %#02x, end-of-chain marker %#03x",
		volume.table.Len(),
		volume.table.MediaDescriptor,
		volume.table.EOFMarker)

	volume.entries, err = ScanRootDirectory(source, volume.params.MaxRootEntries)
	if err != nil {
		return nil, err
	}
	for i := range volume.entries {
		if volume.entries[i].Kind == KindVolumeLabel && volume.label == nil {
			volume.label = &volume.entries[i]
		}
	}
	volume.logger.Debugf("root directory: %d entries in use", len(volume.entries))

	clusters, err := common.NewClusterStream(
		common.NewPositionedReader(source),
		geometry.DataRegionBase,
		geometry.BytesPerCluster,
		imageSize)
	if err != nil {
		return nil, err
	}
	volume.chains = NewChainReader(volume.table, clusters)
	return volume, nil
}

func (volume *Volume) checkOpen() error {
	if volume.closed {
		return fatimg.ErrVolumeClosed
	}
	return nil
}

// Close releases the decoded state of the volume. Closing a volume more than
// once has no effect; any other method called after Close fails with
// [fatimg.ErrVolumeClosed].
func (volume *Volume) Close() error {
	volume.lock.Lock()
	defer volume.lock.Unlock()

	volume.closed = true
	volume.table = nil
	volume.entries = nil
	volume.label = nil
	volume.chains = ChainReader{}
	return nil
}

// BootParameters returns a copy of the decoded boot sector.
func (volume *Volume) BootParameters() (BootParameters, error) {
	volume.lock.RLock()
	defer volume.lock.RUnlock()
	if err := volume.checkOpen(); err != nil {
		return BootParameters{}, err
	}
	return volume.params, nil
}

func (volume *Volume) Table() (*Table, error) {
	volume.lock.RLock()
	defer volume.lock.RUnlock()
	if err := volume.checkOpen(); err != nil {
		return nil, err
	}
	return volume.table, nil
}

// Entries returns every decoded root directory entry up to the first free one,
// including deleted entries and the volume label.
func (volume *Volume) Entries() ([]Dirent, error) {
	volume.lock.RLock()
	defer volume.lock.RUnlock()
	if err := volume.checkOpen(); err != nil {
		return nil, err
	}

	entries := make([]Dirent, len(volume.entries))
	copy(entries, volume.entries)
	return entries, nil
}

// VolumeLabel returns the label stored in the root directory. The second return
// value is false if the volume has no label entry.
func (volume *Volume) VolumeLabel() (string, bool) {
	volume.lock.RLock()
	defer volume.lock.RUnlock()
	if volume.closed || volume.label == nil {
		return "", false
	}
	return volume.label.Label(), true
}

// Listing describes one file in the root directory.
type Listing struct {
	Name         string
	Stem         string
	Extension    string
	Size         int64
	Date         Date
	Time         Clock
	Attributes   uint8
	StartCluster uint16
}

func newListing(entry *Dirent) Listing {
	return Listing{
		Name:         entry.Name(),
		Stem:         entry.Stem(),
		Extension:    entry.Ext(),
		Size:         entry.Size(),
		Date:         entry.LastModifiedDate(),
		Time:         entry.LastModifiedTime(),
		Attributes:   entry.Attributes,
		StartCluster: entry.StartCluster,
	}
}

func (listing *Listing) IsReadOnly() bool { return listing.Attributes&AttrReadOnly != 0 }

func (listing *Listing) IsDir() bool { return listing.Attributes&AttrDirectory != 0 }

// ModTime gives the last modification time as a UTC timestamp, or the zero time
// if the stored date is invalid.
func (listing *Listing) ModTime() time.Time {
	if !listing.Date.IsValid() {
		return time.Time{}
	}
	return time.Date(
		listing.Date.Year,
		listing.Date.Month,
		listing.Date.Day,
		listing.Time.Hour,
		listing.Time.Minute,
		listing.Time.Second,
		0,
		time.UTC)
}

// List describes the regular entries of the root directory in on-disk order.
// Deleted entries and the volume label are left out.
func (volume *Volume) List() ([]Listing, error) {
	volume.lock.RLock()
	defer volume.lock.RUnlock()
	if err := volume.checkOpen(); err != nil {
		return nil, err
	}

	listings := make([]Listing, 0, len(volume.entries))
	for i := range volume.entries {
		if volume.entries[i].Kind == KindRegular {
			listings = append(listings, newListing(&volume.entries[i]))
		}
	}
	return listings, nil
}

func (volume *Volume) lookup(name string) (*Dirent, error) {
	for i := range volume.entries {
		entry := &volume.entries[i]
		if entry.Kind == KindRegular && strings.EqualFold(entry.Name(), name) {
			return entry, nil
		}
	}
	return nil, fatimg.ErrNotFound.WithMessage(fmt.Sprintf("%q", name))
}

// Lookup finds a regular entry by its display name, ignoring case the way DOS
// does.
func (volume *Volume) Lookup(name string) (Dirent, error) {
	volume.lock.RLock()
	defer volume.lock.RUnlock()
	if err := volume.checkOpen(); err != nil {
		return Dirent{}, err
	}

	entry, err := volume.lookup(name)
	if err != nil {
		return Dirent{}, err
	}
	return *entry, nil
}

// Extract writes the contents of the file named `name` to `writer`, returning
// the number of bytes written.
func (volume *Volume) Extract(name string, writer io.Writer) (int64, error) {
	volume.lock.RLock()
	defer volume.lock.RUnlock()
	if err := volume.checkOpen(); err != nil {
		return 0, err
	}

	entry, err := volume.lookup(name)
	if err != nil {
		return 0, err
	}
	return volume.chains.CopyTo(writer, entry)
}

// ReadFile returns the contents of the file named `name`.
func (volume *Volume) ReadFile(name string) ([]byte, error) {
	volume.lock.RLock()
	defer volume.lock.RUnlock()
	if err := volume.checkOpen(); err != nil {
		return nil, err
	}

	entry, err := volume.lookup(name)
	if err != nil {
		return nil, err
	}

	contents := make([]byte, entry.Size())
	nWritten, err := volume.chains.CopyTo(bytewriter.New(contents), entry)
	if err != nil {
		return nil, err
	}
	return contents[:nWritten], nil
}

type extractConfig struct {
	progress io.Writer
}

type ExtractOption func(*extractConfig)

// WithProgress makes ExtractAll copy every byte it extracts to `progress` as
// well, e.g. to drive a progress bar.
func WithProgress(progress io.Writer) ExtractOption {
	return func(config *extractConfig) {
		config.progress = progress
	}
}

// ExtractAll writes every regular file in the root directory to `destination`,
// named by its display name. Files with the read-only attribute are given
// [fatimg.ModeReadOnly] permissions, all others [fatimg.ModeReadWrite].
// Existing files are replaced, including read-only ones. Subdirectory entries are skipped.
//
// A failure to extract one file doesn't stop the others. All failures are
// returned together as a [multierror.Error]; a file that failed is removed from
// `destination`.
func (volume *Volume) ExtractAll(destination afero.Fs, options ...ExtractOption) error {
	volume.lock.RLock()
	defer volume.lock.RUnlock()
	if err := volume.checkOpen(); err != nil {
		return err
	}

	config := extractConfig{}
	for _, option := range options {
		option(&config)
	}

	var result *multierror.Error
	for i := range volume.entries {
		entry := &volume.entries[i]
		if entry.Kind != KindRegular {
			continue
		}
		if entry.IsDir() {
			volume.logger.Debugf("skipping subdirectory %q", entry.Name())
			continue
		}

		err := volume.extractOne(destination, entry, config.progress)
		if err != nil {
			volume.logger.Warnf("failed to extract %q: %v", entry.Name(), err)
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// hostNameOf checks that an entry's display name can be used as-is as a file
// name in a flat destination directory.
func hostNameOf(entry *Dirent) (string, error) {
	name := entry.Name()
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fatimg.ErrInvalidArgument.WithMessage(
			fmt.Sprintf("%q can't be used as a file name", name))
	}
	return name, nil
}

func (volume *Volume) extractOne(
	destination afero.Fs, entry *Dirent, progress io.Writer,
) error {
	name, err := hostNameOf(entry)
	if err != nil {
		return err
	}

	// A read-only file left by an earlier extraction can't be opened for
	// writing, so it's replaced instead of truncated.
	err = destination.Remove(name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fatimg.ErrIOFailed.Wrap(err).WithMessage(
			fmt.Sprintf("replacing existing %q", name))
	}

	file, err := destination.OpenFile(
		name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fatimg.ModeReadWrite)
	if err != nil {
		return fatimg.ErrIOFailed.Wrap(err).WithMessage(
			fmt.Sprintf("creating %q", name))
	}

	var writer io.Writer = file
	if progress != nil {
		writer = io.MultiWriter(file, progress)
	}

	nWritten, err := volume.chains.CopyTo(writer, entry)
	closeErr := file.Close()
	if err == nil && closeErr != nil {
		err = fatimg.ErrIOFailed.Wrap(closeErr).WithMessage(
			fmt.Sprintf("closing %q", name))
	}
	if err == nil {
		err = destination.Chmod(name, fatimg.ExtractedFileMode(entry.IsReadOnly()))
		if err != nil {
			err = fatimg.ErrIOFailed.Wrap(err).WithMessage(
				fmt.Sprintf("setting permissions of %q", name))
		}
	}
	if err != nil {
		removeErr := destination.Remove(name)
		if removeErr != nil {
			volume.logger.Warnf("failed to remove partial file %q: %v", name, removeErr)
		}
		return err
	}

	volume.logger.Debugf("extracted %q (%d bytes)", name, nWritten)
	return nil
}
