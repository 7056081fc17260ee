package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/ayinde07/readstata13"
)

func convertCmd() *cli.Command {
	var release int
	var outDir string
	return &cli.Command{
		Name:      "convert",
		Usage:     "Re-encode dta files at another format release",
		ArgsUsage: "file.dta...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "release",
				Usage:       "target dta release (102-118)",
				Value:       118,
				Destination: &release,
			},
			&cli.StringFlag{
				Name:        "out",
				Usage:       "output directory (default: alongside each input)",
				Destination: &outDir,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			files := cmd.Args().Slice()
			if len(files) == 0 {
				return fmt.Errorf("convert: expected at least one dta file")
			}

			g, _ := errgroup.WithContext(ctx)
			for _, name := range files {
				name := name
				g.Go(func() error {
					ds, err := readstata13.ReadFile(name)
					if err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
					out := convertedName(name, outDir, release)
					if err := readstata13.WriteFile(out, ds, release); err != nil {
						return fmt.Errorf("%s: %w", name, err)
					}
					fmt.Printf("%s -> %s\n", name, out)
					return nil
				})
			}
			return g.Wait()
		},
	}
}

func convertedName(name, outDir string, release int) string {
	dir := filepath.Dir(name)
	if outDir != "" {
		dir = outDir
	}
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return filepath.Join(dir, fmt.Sprintf("%s_v%d.dta", base, release))
}
