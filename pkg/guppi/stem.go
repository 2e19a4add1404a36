package guppi

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// FileSuffix is the extension of GUPPI RAW files.
const FileSuffix = ".raw"

// StemPath names file i of the stream rooted at stem: stem.0000.raw,
// stem.0001.raw, ...
func StemPath(stem string, i int) string {
	return fmt.Sprintf("%s.%04d%s", stem, i, FileSuffix)
}

// ResolveStem lists the files of the stream rooted at stem. Numbered files
// come first in numeric order, so stem.10000.raw follows stem.9999.raw; any
// other match follows in name order.
func ResolveStem(stem string) ([]string, error) {
	paths, err := filepath.Glob(globEscape(stem) + "*" + FileSuffix)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(stem)
	slices.SortFunc(paths, func(a, b string) int {
		ia, oka := sequenceIndex(base, a)
		ib, okb := sequenceIndex(base, b)
		switch {
		case oka && okb:
			if c := cmp.Compare(ia, ib); c != 0 {
				return c
			}
		case oka:
			return -1
		case okb:
			return 1
		}
		return strings.Compare(a, b)
	})
	return paths, nil
}

// sequenceIndex parses N from base.N.raw.
func sequenceIndex(base, path string) (int, bool) {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, base+".") {
		return 0, false
	}
	digits := strings.TrimSuffix(name[len(base)+1:], FileSuffix)
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	return n, err == nil
}

// resolvePath treats an existing regular file as a one-file stream and
// anything else as a stem.
func resolvePath(pathOrStem string) ([]string, error) {
	if st, err := os.Stat(pathOrStem); err == nil && !st.IsDir() {
		return []string{pathOrStem}, nil
	}
	paths, err := ResolveStem(pathOrStem)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: nothing matches %s*%s", ErrNoFiles, pathOrStem, FileSuffix)
	}
	return paths, nil
}

func globEscape(s string) string {
	if filepath.Separator == '\\' {
		return s
	}
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '*', '?', '[', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
