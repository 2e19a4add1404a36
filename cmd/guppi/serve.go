package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/guppi/internal/api"
	"github.com/samcharles93/guppi/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		stem        string
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:      "serve",
		Usage:     "Serve the block index of a stream over HTTP",
		ArgsUsage: "[stem]",
		Flags: []cli.Flag{
			stemFlag(&stem),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read header timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, cfg, &addr)

			path, err := resolveStem(stem, cmd.Args().Slice(), cfg.DataDir, os.Stdin, os.Stderr)
			if err != nil {
				return err
			}

			server := api.NewServer(api.NewIndex(path, log.With("component", "index")), log)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("starting server", "address", addr, "stem", path)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
