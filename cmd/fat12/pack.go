package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dargueta/fatimg/utilities/compression"
	"github.com/urfave/cli/v2"
)

func packCommand() *cli.Command {
	return &cli.Command{
		Name:         "pack",
		Usage:        "Compress a raw image with RLE8 and gzip",
		ArgsUsage:    "RAW_IMAGE PACKED_IMAGE",
		OnUsageError: onUsageError,
		Action: func(ctx *cli.Context) error {
			return convertImage(ctx, compression.PackImage, "Packed")
		},
	}
}

func unpackCommand() *cli.Command {
	return &cli.Command{
		Name:         "unpack",
		Usage:        "Expand an image compressed with fat12 pack",
		ArgsUsage:    "PACKED_IMAGE RAW_IMAGE",
		OnUsageError: onUsageError,
		Action: func(ctx *cli.Context) error {
			return convertImage(ctx, compression.UnpackImage, "Unpacked")
		},
	}
}

func convertImage(
	ctx *cli.Context,
	convert func(io.Reader, io.Writer) (int64, error),
	verb string,
) error {
	if err := requireArgs(ctx, 2); err != nil {
		return err
	}
	sourcePath := ctx.Args().Get(0)
	outputPath := ctx.Args().Get(1)

	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open file for reading: `%v`: %w", sourcePath, err)
	}
	defer sourceFile.Close()

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to open file for writing: `%v`: %w", outputPath, err)
	}

	nWritten, err := convert(sourceFile, outFile)
	closeErr := outFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("error converting %s: %w", sourcePath, err)
	}

	_, err = fmt.Fprintf(ctx.App.Writer, "%s %s to %d bytes.\n", verb, sourcePath, nWritten)
	return err
}
