package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		c, err := LoadConfig(filepath.Join(dir, "absent.yaml"))
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if c.BlocksPerFile != nil || c.LogLevel != "" {
			t.Fatalf("expected zero config, got %+v", c)
		}
	})

	t.Run("fields", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		data := []byte(`
log_level: debug
log_format: json
data_dir: /data/guppi
blocks_per_file: 128
directio: true
telescope: MeerKAT
seed: 42
server_address: 0.0.0.0:9000
`)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		c, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if c.LogLevel != "debug" || c.LogFormat != "json" || c.DataDir != "/data/guppi" {
			t.Fatalf("unexpected logging/data fields: %+v", c)
		}
		if c.BlocksPerFile == nil || *c.BlocksPerFile != 128 {
			t.Fatalf("blocks_per_file: %v", c.BlocksPerFile)
		}
		if c.DirectIO == nil || !*c.DirectIO {
			t.Fatalf("directio: %v", c.DirectIO)
		}
		if c.Seed == nil || *c.Seed != 42 || c.Telescope != "MeerKAT" {
			t.Fatalf("synth fields: %+v", c)
		}
		if c.ServerAddress != "0.0.0.0:9000" {
			t.Fatalf("server_address: %q", c.ServerAddress)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("blocks_per_file: [1, 2\n"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestConfigPathFromEnv(t *testing.T) {
	t.Setenv(envConfig, "/etc/guppi.yaml")
	if got := configPath(); got != "/etc/guppi.yaml" {
		t.Fatalf("configPath: got %q", got)
	}
}
