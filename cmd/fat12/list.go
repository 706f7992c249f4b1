package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dargueta/fatimg/drivers/fat"
	"github.com/gocarina/gocsv"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"dir"},
		Usage:     "List the files in the root directory of an image",
		ArgsUsage: "IMAGE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "format",
				Value: "text",
				Usage: "output format: text, csv, or yaml",
			},
			packedFlag,
		},
		OnUsageError: onUsageError,
		Action:       listImage,
	}
}

// listingRow is a single file in machine-readable listings.
type listingRow struct {
	Name         string `csv:"name" yaml:"name"`
	Size         int64  `csv:"size" yaml:"size"`
	Modified     string `csv:"modified" yaml:"modified,omitempty"`
	Attributes   string `csv:"attributes" yaml:"attributes"`
	StartCluster uint16 `csv:"start_cluster" yaml:"start_cluster"`
}

type yamlListing struct {
	Label string       `yaml:"label,omitempty"`
	Files []listingRow `yaml:"files"`
}

func newListingRow(listing *fat.Listing) listingRow {
	row := listingRow{
		Name:         listing.Name,
		Size:         listing.Size,
		Attributes:   attributeString(listing.Attributes),
		StartCluster: listing.StartCluster,
	}
	if listing.Date.IsValid() {
		row.Modified = listing.Date.String() + " " + listing.Time.String()
	}
	return row
}

// attributeString shows the attribute flags in the order DOS's ATTRIB does,
// with a dash for each one that isn't set.
func attributeString(attributes uint8) string {
	flags := []struct {
		Mask   uint8
		Letter byte
	}{
		{fat.AttrArchived, 'A'},
		{fat.AttrDirectory, 'D'},
		{fat.AttrVolumeLabel, 'V'},
		{fat.AttrSystem, 'S'},
		{fat.AttrHidden, 'H'},
		{fat.AttrReadOnly, 'R'},
	}

	out := make([]byte, len(flags))
	for i, flag := range flags {
		if attributes&flag.Mask != 0 {
			out[i] = flag.Letter
		} else {
			out[i] = '-'
		}
	}
	return string(out)
}

func listImage(ctx *cli.Context) error {
	if err := requireArgs(ctx, 1); err != nil {
		return err
	}

	format := strings.ToLower(ctx.String("format"))
	if format != "text" && format != "csv" && format != "yaml" {
		return usageErrorf("unknown listing format %q; expected text, csv, or yaml", format)
	}

	volume, release, err := openVolume(ctx, ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer release()

	listings, err := volume.List()
	if err != nil {
		return err
	}
	label, hasLabel := volume.VolumeLabel()

	rows := make([]listingRow, len(listings))
	for i := range listings {
		rows[i] = newListingRow(&listings[i])
	}

	output := ctx.App.Writer
	switch format {
	case "csv":
		return gocsv.Marshal(rows, output)
	case "yaml":
		encoder := yaml.NewEncoder(output)
		encoder.SetIndent(2)
		err = encoder.Encode(yamlListing{Label: label, Files: rows})
		if err != nil {
			return err
		}
		return encoder.Close()
	default:
		return writeTextListing(output, label, hasLabel, listings)
	}
}

func writeTextListing(
	output io.Writer, label string, hasLabel bool, listings []fat.Listing,
) error {
	if hasLabel {
		fmt.Fprintf(output, " Volume label is %s\n\n", label)
	} else {
		fmt.Fprint(output, " Volume has no label\n\n")
	}

	totalFiles := 0
	totalBytes := int64(0)
	for _, listing := range listings {
		size := fmt.Sprintf("%10d", listing.Size)
		if listing.IsDir() {
			size = fmt.Sprintf("%-10s", "<DIR>")
		}

		modified := strings.Repeat(" ", 19)
		if listing.Date.IsValid() {
			modified = listing.Date.String() + " " + listing.Time.String()
		}

		fmt.Fprintf(
			output,
			"%-8s %-3s %s  %s  %s\n",
			listing.Stem,
			listing.Extension,
			size,
			modified,
			attributeString(listing.Attributes))
		if !listing.IsDir() {
			totalFiles++
			totalBytes += listing.Size
		}
	}

	_, err := fmt.Fprintf(
		output, "%9d file(s) %12d bytes\n", totalFiles, totalBytes)
	return err
}
