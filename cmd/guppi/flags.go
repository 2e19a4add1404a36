package main

import (
	"context"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/guppi/internal/logger"
)

var (
	configFile string
	logLevel   string
	logFormat  string
	logFile    string
	debug      bool

	// loaded by setup, read by the subcommands
	cfg       Config
	logCloser io.Closer
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml",
			Sources:     cli.EnvVars(envConfig),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.StringFlag{
			Name:        "log-file",
			Usage:       "write JSON logs to a rotating file instead of stderr",
			Destination: &logFile,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func stemFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "stem",
		Aliases:     []string{"s"},
		Usage:       "stream stem (files stem.0000.raw, ...) or a single .raw file",
		Destination: dst,
	}
}

// setup loads the config file and installs the logger on the context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := configFile
	if path == "" {
		path = configPath()
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	cfg = loaded
	applyLoggingConfig(cmd, cfg)

	level := logLevel
	if debug {
		level = "debug"
	}
	log, closer, err := logger.FromFlags(logFormat, level, logFile)
	if err != nil {
		return ctx, err
	}
	logCloser = closer
	if path != "" {
		log.Debug("config", "path", path)
	}
	return logger.WithContext(ctx, log), nil
}

func teardown(context.Context, *cli.Command) error {
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logCloser = nil
	return err
}
