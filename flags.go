package fatimg

import "os"

const (
	S_IXOTH = 1 << iota // 00001
	S_IWOTH = 1 << iota // 00002
	S_IROTH = 1 << iota
	S_IXGRP = 1 << iota
	S_IWGRP = 1 << iota // 00010
	S_IRGRP = 1 << iota
	S_IXUSR = 1 << iota
	S_IWUSR = 1 << iota
	S_IRUSR = 1 << iota // 00100
)

const S_IRALL = S_IRUSR | S_IRGRP | S_IROTH

// ModeReadOnly is the permission set given to extracted files whose directory
// entry has the read-only attribute.
const ModeReadOnly os.FileMode = S_IRALL

// ModeReadWrite is the permission set given to every other extracted file.
const ModeReadWrite os.FileMode = S_IRALL | S_IWUSR

// ExtractedFileMode maps the FAT read-only attribute onto host permissions.
// FAT has no notion of an executable bit, so it is never set.
func ExtractedFileMode(readOnly bool) os.FileMode {
	if readOnly {
		return ModeReadOnly
	}
	return ModeReadWrite
}
