package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/guppi/internal/version"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "guppi",
		Usage:   "Read, write and serve GUPPI RAW voltage recordings",
		Version: version.String(),
		Flags:   globalFlags(),
		Before:  setup,
		After:   teardown,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			inspectCmd(),
			synthCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
