// Package compression packs FAT12 volume images for storage and unpacks them
// for reading.
//
// A floppy image is mostly empty sectors and unallocated clusters, i.e. long
// runs of a single byte. Images are first run-length encoded with RLE8, then
// compressed with gzip. Run-length encoding first lets gzip see a handful of
// short runs instead of kilobytes of identical data, and a 1.44 MB image that's
// mostly free space packs into a few hundred bytes.
//
// RLE8 is the scheme used by the BMP file format. If a byte B occurs N >= 2
// times in a row, B is written twice followed by a third byte holding N - 2.
// Single bytes are written as-is:
//
//	WXXXXXXXXXXXXXXXYZZ
//	W XX 13 Y ZZ 0
//
// A run of up to 257 bytes fits in three bytes. Longer runs are split, so 300
// "X" becomes `XX 255 XX 41`.
//
// The CLI accepts packed images with --packed, and test fixtures are stored in
// this form.

package compression
