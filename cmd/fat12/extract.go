package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dargueta/fatimg/drivers/fat"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Copy every file in the root directory of an image into a directory",
		ArgsUsage: "IMAGE OUTPUT_DIR",
		Flags: []cli.Flag{
			packedFlag,
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "show a progress bar on stderr",
			},
		},
		OnUsageError: onUsageError,
		Action:       extractImage,
	}
}

func extractImage(ctx *cli.Context) error {
	if err := requireArgs(ctx, 2); err != nil {
		return err
	}
	imagePath := ctx.Args().Get(0)
	outputDir := ctx.Args().Get(1)

	volume, release, err := openVolume(ctx, imagePath)
	if err != nil {
		return err
	}
	defer release()

	listings, err := volume.List()
	if err != nil {
		return err
	}
	totalFiles := 0
	totalBytes := int64(0)
	for _, listing := range listings {
		if !listing.IsDir() {
			totalFiles++
			totalBytes += listing.Size
		}
	}

	err = os.MkdirAll(outputDir, 0o755)
	if err != nil {
		return err
	}
	destination := afero.NewBasePathFs(afero.NewOsFs(), outputDir)

	options := []fat.ExtractOption{}
	var bar *progressbar.ProgressBar
	if ctx.Bool("progress") {
		bar = newProgressBar(ctx.App.ErrWriter, totalBytes)
		options = append(options, fat.WithProgress(bar))
	}

	extractErr := volume.ExtractAll(destination, options...)
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(ctx.App.ErrWriter)
	}
	if extractErr != nil {
		return extractErr
	}

	_, err = fmt.Fprintf(
		ctx.App.Writer, "Extracted %d file(s), %d bytes, to %s\n", totalFiles, totalBytes, outputDir)
	return err
}

func newProgressBar(output io.Writer, totalBytes int64) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		totalBytes,
		progressbar.OptionSetWriter(output),
		progressbar.OptionSetDescription("extracting"),
		progressbar.OptionShowBytes(true),
	)
}
