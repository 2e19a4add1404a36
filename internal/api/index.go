package api

import (
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/samcharles93/guppi/pkg/guppi"
)

type fileStamp struct {
	path string
	size int64
	mod  time.Time
}

// Index caches the header index of one stream. It rescans when the set of
// files, or the size or mtime of any of them, changes, so a stream that is
// still being recorded stays current.
type Index struct {
	stem string
	diag guppi.Diagnostics

	mu      sync.Mutex
	stamps  []fileStamp
	entries []guppi.Entry
	err     error
}

func NewIndex(stem string, diag guppi.Diagnostics) *Index {
	return &Index{stem: stem, diag: diag}
}

func (x *Index) Stem() string { return x.stem }

// Entries returns the current index and the files it was built from. A
// stream that fails part way returns the entries before the fault together
// with the error.
func (x *Index) Entries() ([]guppi.Entry, []FileInfo, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	stamps, err := x.stat()
	if err != nil {
		return nil, nil, err
	}
	if x.stamps == nil || !slices.Equal(stamps, x.stamps) {
		x.entries, x.err = x.scan(stamps)
		x.stamps = stamps
	}
	files := make([]FileInfo, len(stamps))
	for i, st := range stamps {
		files[i] = FileInfo{Path: st.path, Size: st.size}
	}
	return x.entries, files, x.err
}

func (x *Index) stat() ([]fileStamp, error) {
	paths, err := guppi.ResolveStem(x.stem)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		if st, err := os.Stat(x.stem); err == nil && !st.IsDir() {
			paths = []string{x.stem}
		} else {
			return nil, fmt.Errorf("%w: nothing matches %s*%s", guppi.ErrNoFiles, x.stem, guppi.FileSuffix)
		}
	}
	out := make([]fileStamp, 0, len(paths))
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		out = append(out, fileStamp{path: p, size: st.Size(), mod: st.ModTime()})
	}
	return out, nil
}

func (x *Index) scan(stamps []fileStamp) ([]guppi.Entry, error) {
	paths := make([]string, len(stamps))
	for i, st := range stamps {
		paths[i] = st.path
	}
	var opts []guppi.ReaderOption
	if x.diag != nil {
		opts = append(opts, guppi.WithDiagnostics(x.diag))
	}
	r, err := guppi.Open(paths, opts...)
	if err != nil {
		return nil, err
	}
	return guppi.Scan(r)
}

// Entry looks up block i.
func (x *Index) Entry(i int) (guppi.Entry, error) {
	entries, _, err := x.Entries()
	if i < len(entries) {
		return entries[i], nil
	}
	if err != nil {
		return guppi.Entry{}, err
	}
	return guppi.Entry{}, newInvalidRequest("index", fmt.Sprintf("block %d out of range (stream has %d)", i, len(entries)))
}

// ReadBlock decodes block i straight from its recorded data offset.
func (x *Index) ReadBlock(i int) (*guppi.Block[float64], error) {
	e, err := x.Entry(i)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(e.Location.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	size := e.Header.BlockSize()
	if size <= 0 {
		return nil, fmt.Errorf("%w: %s=%d at %s:%d", guppi.ErrInvalidGeometry, guppi.KeyBlockSize, size, e.Location.Path, e.Location.Header)
	}
	raw := make([]byte, size)
	if _, err := f.ReadAt(raw, e.Location.Data); err != nil {
		if err == io.EOF {
			return nil, &guppi.TruncatedError{Path: e.Location.Path, Offset: e.Location.Data, Err: guppi.ErrTruncatedBlock}
		}
		return nil, err
	}
	return guppi.DecodeBlock[float64](e.Header, raw)
}

func blockStats(index int, b *guppi.Block[float64]) BlockStats {
	s := b.Shape
	npol := s.Polarizations()
	pols := make([]PolarizationStats, npol)
	n := s.Len() / npol
	for i, c := range b.Data {
		p := &pols[i%npol]
		p.MeanRe += c.Re
		p.MeanIm += c.Im
		pow := c.Re*c.Re + c.Im*c.Im
		p.RMS += pow
		p.Peak = max(p.Peak, math.Sqrt(pow))
	}
	for i := range pols {
		pols[i].MeanRe /= float64(n)
		pols[i].MeanIm /= float64(n)
		pols[i].RMS = math.Sqrt(pols[i].RMS / float64(n))
	}
	return BlockStats{
		Object:        "block.stats",
		Index:         index,
		BlockShape:    s,
		Samples:       s.Len(),
		Polarizations: pols,
	}
}
