package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/samcharles93/guppi/pkg/guppi"
)

const (
	envDataDir = "GUPPI_DATA_DIR"
	envOutDir  = "GUPPI_OUT_DIR"
)

// stdinIsTTY is a seam for tests.
var stdinIsTTY = isTTY

var sequenceName = regexp.MustCompile(`^(.*)\.\d{4}\.raw$`)

// resolveStem picks the stream to read: the --stem flag, then the first
// positional argument, then the only stream in the data directory. With
// several candidates an interactive terminal is asked to choose.
func resolveStem(flag string, args []string, dataDir string, stdin io.Reader, stderr io.Writer) (string, error) {
	if s := strings.TrimSpace(flag); s != "" {
		return filepath.Clean(s), nil
	}
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return filepath.Clean(args[0]), nil
	}

	dir := strings.TrimSpace(dataDir)
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv(envDataDir))
	}
	if dir == "" {
		return "", fmt.Errorf("--stem is required unless %s or data_dir is set", envDataDir)
	}

	stems, err := discoverStems(dir)
	if err != nil {
		return "", err
	}
	switch len(stems) {
	case 0:
		return "", fmt.Errorf("no GUPPI RAW streams found in %s", dir)
	case 1:
		_, _ = fmt.Fprintf(stderr, "guppi: using stream %s\n", stems[0])
		return stems[0], nil
	default:
		if !stdinIsTTY() {
			return "", fmt.Errorf("multiple streams found in %s but stdin is not interactive; set --stem", dir)
		}
		return selectStem(dir, stems, stdin, stderr)
	}
}

// discoverStems lists the streams in dir: stem for files named
// stem.NNNN.raw, the file itself for any other .raw file.
func discoverStems(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("data directory is empty")
	}
	st, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("data path is not a directory: %s", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var stems []string
	for _, e := range ents {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(name), guppi.FileSuffix) {
			continue
		}
		if m := sequenceName.FindStringSubmatch(name); m != nil {
			name = m[1]
		}
		stems = append(stems, filepath.Join(dir, name))
	}
	slices.Sort(stems)
	return slices.Compact(stems), nil
}

func selectStem(dir string, stems []string, stdin io.Reader, stderr io.Writer) (string, error) {
	_, _ = fmt.Fprintf(stderr, "guppi: select a stream from %s\n", dir)
	for i, s := range stems {
		_, _ = fmt.Fprintf(stderr, "%d. %s\n", i+1, displayName(dir, s))
	}

	reader := bufio.NewReader(stdin)
	for {
		_, _ = fmt.Fprintf(stderr, "guppi: enter selection [1-%d]: ", len(stems))
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no selection provided on stdin; set --stem")
			}
			continue
		}

		idx, convErr := strconv.Atoi(line)
		if convErr != nil || idx < 1 || idx > len(stems) {
			_, _ = fmt.Fprintf(stderr, "guppi: invalid selection %q\n", line)
			if errors.Is(err, io.EOF) {
				return "", errors.New("invalid selection provided on stdin; set --stem")
			}
			continue
		}
		return stems[idx-1], nil
	}
}

func displayName(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." {
		return filepath.Base(path)
	}
	return rel
}

// resolveOutStem returns where synth writes, creating the parent directory.
// Without --stem the stream goes to out_dir (or $GUPPI_OUT_DIR, or ./out)
// as "synth".
func resolveOutStem(flag, outDir string) (string, error) {
	stem := strings.TrimSpace(flag)
	if stem == "" {
		dir := strings.TrimSpace(outDir)
		if dir == "" {
			dir = strings.TrimSpace(os.Getenv(envOutDir))
		}
		if dir == "" {
			dir = filepath.Join(".", "out")
		}
		stem = filepath.Join(dir, "synth")
	}
	stem = filepath.Clean(stem)
	if err := os.MkdirAll(filepath.Dir(stem), 0o755); err != nil {
		return "", err
	}
	return stem, nil
}

func isTTY() bool {
	st, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (st.Mode() & os.ModeCharDevice) != 0
}
