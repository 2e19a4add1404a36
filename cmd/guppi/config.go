package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envConfig = "GUPPI_CONFIG"

// Config is ~/.config/guppi/config.yaml. Pointer fields distinguish "not
// set" from zero values.
type Config struct {
	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`

	// Stream discovery and output
	DataDir string `yaml:"data_dir"`
	OutDir  string `yaml:"out_dir"`

	// Writing
	BlocksPerFile *int    `yaml:"blocks_per_file"`
	DirectIO      *bool   `yaml:"directio"`
	Telescope     string  `yaml:"telescope"`
	Seed          *uint64 `yaml:"seed"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	if p := strings.TrimSpace(os.Getenv(envConfig)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "guppi", "config.yaml")
}

// LoadConfig reads path. A missing file yields a zero Config; a file that
// does not parse is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
	if cfg.LogFile != "" && !c.IsSet("log-file") {
		logFile = cfg.LogFile
	}
}

func applySynthConfig(c *cli.Command, cfg Config, blocksPerFile *int, directio *bool, telescope *string, seed *uint64) {
	if cfg.BlocksPerFile != nil && !c.IsSet("blocks-per-file") {
		*blocksPerFile = *cfg.BlocksPerFile
	}
	if cfg.DirectIO != nil && !c.IsSet("directio") {
		*directio = *cfg.DirectIO
	}
	if cfg.Telescope != "" && !c.IsSet("telescope") {
		*telescope = cfg.Telescope
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		*seed = *cfg.Seed
	}
}

func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
