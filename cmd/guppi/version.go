package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/guppi/internal/version"
)

func versionCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:  "version",
		Usage: "Print version information",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print as JSON", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			info := version.Resolve()
			w := output(cmd)
			if asJSON {
				b, err := json.Marshal(info)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(w, string(b))
				return err
			}
			fmt.Fprintf(w, "version:    %s\n", info.Version)
			if info.Commit != "" {
				fmt.Fprintf(w, "commit:     %s\n", info.Commit)
			}
			if info.BuildTime != "" {
				fmt.Fprintf(w, "build time: %s\n", info.BuildTime)
			}
			if info.GoVersion != "" {
				fmt.Fprintf(w, "go:         %s\n", info.GoVersion)
			}
			return nil
		},
	}
}
