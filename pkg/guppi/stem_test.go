package guppi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveStemNumericOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	stem := filepath.Join(dir, "obs")
	for _, name := range []string{"obs.10000.raw", "obs.9999.raw", "obs.0002.raw", "obs.raw", "obs.00001.raw"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	got, err := ResolveStem(stem)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "obs.00001.raw"),
		filepath.Join(dir, "obs.0002.raw"),
		filepath.Join(dir, "obs.9999.raw"),
		filepath.Join(dir, "obs.10000.raw"),
		filepath.Join(dir, "obs.raw"),
	}, got)
}

func TestStemPath(t *testing.T) {
	t.Parallel()

	require.Equal(t, "run.0007.raw", StemPath("run", 7))
	require.Equal(t, "run.12345.raw", StemPath("run", 12345))
}
