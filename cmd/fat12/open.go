package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dargueta/fatimg"
	"github.com/dargueta/fatimg/drivers/fat"
	"github.com/dargueta/fatimg/utilities/compression"
	"github.com/urfave/cli/v2"
	"github.com/xaionaro-go/bytesextra"
)

var packedFlag = &cli.BoolFlag{
	Name:  "packed",
	Usage: "the image was packed with fat12 pack",
}

// openVolume opens the image at `path` and decodes it. The returned function
// releases the volume and the file behind it.
func openVolume(ctx *cli.Context, path string) (*fat.Volume, func(), error) {
	logger := loggerFrom(ctx)

	var source fatimg.ImageSource
	release := func() {}

	if ctx.Bool(packedFlag.Name) {
		packed, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		image, err := compression.UnpackImageToBytes(bytes.NewReader(packed))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to unpack %s: %w", path, err)
		}
		logger.Debugf("unpacked %s: %d -> %d bytes", path, len(packed), len(image))
		source = bytesextra.NewReadWriteSeeker(image)
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		source = file
		release = func() { file.Close() }
	}

	volume, err := fat.Open(source, fat.WithLogger(logger))
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("failed to read file system in %s: %w", path, err)
	}

	return volume, func() {
		volume.Close()
		release()
	}, nil
}
