package main

// Convert a dta file to CSV on standard output.  Missing numeric
// cells are rendered as empty fields; strL references are resolved
// through the pool.

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/urfave/cli/v3"

	"github.com/ayinde07/readstata13"
)

func csvCmd() *cli.Command {
	var keepSentinels bool
	return &cli.Command{
		Name:      "csv",
		Usage:     "Convert a dta file to CSV on stdout",
		ArgsUsage: "file.dta",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "keep-sentinels",
				Usage:       "keep raw sentinel values instead of blanking missing cells",
				Destination: &keepSentinels,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("csv: expected one dta file")
			}
			f, err := os.Open(cmd.Args().First())
			if err != nil {
				return err
			}
			defer f.Close()

			rdr := readstata13.NewReader(f)
			rdr.PreserveSentinel = keepSentinels
			ds, err := rdr.Read()
			if err != nil {
				return err
			}
			return writeCSV(os.Stdout, ds)
		},
	}
}

func writeCSV(out io.Writer, ds *readstata13.Dataset) error {
	w := csv.NewWriter(out)

	ncol := len(ds.Columns)
	header := make([]string, ncol)
	for j, c := range ds.Columns {
		header[j] = c.Name
	}
	if err := w.Write(header); err != nil {
		return err
	}

	numbercols := make([][]float64, ncol)
	stringcols := make([][]string, ncol)
	for j, c := range ds.Columns {
		if s, ok := c.Strings(); ok {
			if c.Type.Kind == readstata13.KindStrL {
				resolved := make([]string, len(s))
				for i, id := range s {
					v, _ := ds.StrLValue(id)
					resolved[i] = v
				}
				s = resolved
			}
			stringcols[j] = s
			continue
		}
		v, err := c.UpcastNumeric()
		if err != nil {
			return err
		}
		numbercols[j] = v
	}

	row := make([]string, ncol)
	for i := 0; i < ds.RowCount(); i++ {
		for j, c := range ds.Columns {
			switch {
			case c.IsMissing(i):
				row[j] = ""
			case numbercols[j] != nil:
				row[j] = strconv.FormatFloat(numbercols[j][i], 'g', -1, 64)
			default:
				row[j] = stringcols[j][i]
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
