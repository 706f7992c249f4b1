package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

func infoCommand() *cli.Command {
	return &cli.Command{
		Name:         "info",
		Usage:        "Show the boot sector parameters and cluster usage of an image",
		ArgsUsage:    "IMAGE",
		Flags:        []cli.Flag{packedFlag},
		OnUsageError: onUsageError,
		Action:       showInfo,
	}
}

func showInfo(ctx *cli.Context) error {
	if err := requireArgs(ctx, 1); err != nil {
		return err
	}

	volume, release, err := openVolume(ctx, ctx.Args().Get(0))
	if err != nil {
		return err
	}
	defer release()

	params, err := volume.BootParameters()
	if err != nil {
		return err
	}
	table, err := volume.Table()
	if err != nil {
		return err
	}
	usage := table.Usage()
	label, hasLabel := volume.VolumeLabel()
	if !hasLabel {
		label = "(none)"
	}

	writer := tabwriter.NewWriter(ctx.App.Writer, 0, 4, 2, ' ', 0)
	rows := []struct {
		Name  string
		Value interface{}
	}{
		{"OEM name", params.OEM()},
		{"Volume label", label},
		{"Bytes per sector", params.BytesPerSector},
		{"Sectors per cluster", params.SectorsPerCluster},
		{"Reserved sectors", params.ReservedSectors},
		{"FAT copies", params.FATCopies},
		{"Sectors per FAT", params.SectorsPerFAT},
		{"Root directory entries", params.MaxRootEntries},
		{"Total sectors", params.TotalSectors},
		{"Media descriptor", fmt.Sprintf("%#02x", params.MediaType)},
		{"End-of-chain marker", fmt.Sprintf("%#03x", table.EOFMarker)},
		{"Boot signature", params.HasBootSignature()},
		{"Data region offset", params.Geometry.DataRegionBase},
		{"Clusters", usage.Total},
		{"Clusters used", usage.Used},
		{"Clusters free", usage.Free},
		{"Clusters bad", usage.Bad},
	}
	for _, row := range rows {
		fmt.Fprintf(writer, "%s:\t%v\n", row.Name, row.Value)
	}
	return writer.Flush()
}
