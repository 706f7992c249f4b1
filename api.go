package fatimg

import (
	"io"
)

//go:generate mockgen -destination=testing/mocks/mock_source.go -package=mocks github.com/dargueta/fatimg ImageSource

// ImageSource is the byte source a volume is decoded from. Files, in-memory
// buffers, and anything else that can be read sequentially and repositioned
// qualify.
//
// If the source also implements [io.ReaderAt], cluster reads use it directly and
// a decoded volume can serve extractions from multiple goroutines at once.
// Otherwise positioned reads are emulated with Seek and Read and are serialized.
type ImageSource interface {
	io.Reader
	io.Seeker
}
