package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/ayinde07/readstata13"
)

func infoCmd() *cli.Command {
	var asJSON bool
	return &cli.Command{
		Name:      "info",
		Usage:     "Print the metadata of a dta file",
		ArgsUsage: "file.dta",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "emit machine-readable JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("info: expected one dta file")
			}
			ds, err := readstata13.ReadFile(cmd.Args().First())
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(ds)
			}
			printInfo(ds)
			return nil
		},
	}
}

type varInfo struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Format         string `json:"format,omitempty"`
	ValueLabelName string `json:"value_label,omitempty"`
	VarLabel       string `json:"label,omitempty"`
}

type fileInfo struct {
	Release         int       `json:"release"`
	ByteOrder       string    `json:"byte_order"`
	Rows            int       `json:"rows"`
	Label           string    `json:"label,omitempty"`
	TimeStamp       string    `json:"timestamp,omitempty"`
	Variables       []varInfo `json:"variables"`
	LabelSets       int       `json:"label_sets"`
	Characteristics int       `json:"characteristics"`
	StrLs           int       `json:"strls"`
}

func summarize(ds *readstata13.Dataset) fileInfo {
	bo := "LSF"
	if ds.ByteOrder == binary.BigEndian {
		bo = "MSF"
	}
	info := fileInfo{
		Release:         ds.Release,
		ByteOrder:       bo,
		Rows:            ds.RowCount(),
		Label:           ds.Label,
		TimeStamp:       ds.TimeStamp,
		LabelSets:       len(ds.LabelSets),
		Characteristics: len(ds.Characteristics),
		StrLs:           len(ds.StrLs),
	}
	for _, c := range ds.Columns {
		info.Variables = append(info.Variables, varInfo{
			Name:           c.Name,
			Type:           c.Type.String(),
			Format:         c.Format,
			ValueLabelName: c.ValueLabelName,
			VarLabel:       c.VarLabel,
		})
	}
	return info
}

func printJSON(ds *readstata13.Dataset) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(summarize(ds))
}

func printInfo(ds *readstata13.Dataset) {
	info := summarize(ds)
	fmt.Printf("release:    %d\n", info.Release)
	fmt.Printf("byte order: %s\n", info.ByteOrder)
	fmt.Printf("rows:       %d\n", info.Rows)
	fmt.Printf("variables:  %d\n", len(info.Variables))
	if info.Label != "" {
		fmt.Printf("label:      %s\n", info.Label)
	}
	if info.TimeStamp != "" {
		fmt.Printf("timestamp:  %s\n", info.TimeStamp)
	}
	fmt.Println()
	for _, v := range info.Variables {
		fmt.Printf("%-32s %-8s %-12s %s\n", v.Name, v.Type, v.Format, v.VarLabel)
	}
	if info.LabelSets > 0 {
		fmt.Printf("\nlabel sets:      %d\n", info.LabelSets)
	}
	if info.Characteristics > 0 {
		fmt.Printf("characteristics: %d\n", info.Characteristics)
	}
	if info.StrLs > 0 {
		fmt.Printf("strL entries:    %d\n", info.StrLs)
	}
}
