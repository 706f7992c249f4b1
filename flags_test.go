package fatimg_test

import (
	"os"
	"testing"

	"github.com/dargueta/fatimg"
	"github.com/stretchr/testify/assert"
)

func TestExtractedFileMode(t *testing.T) {
	assert.Equal(t, os.FileMode(0o444), fatimg.ExtractedFileMode(true))
	assert.Equal(t, os.FileMode(0o644), fatimg.ExtractedFileMode(false))
}
