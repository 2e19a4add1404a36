package guppi

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
)

const (
	readBufSize = 1 << 20 // 1 MiB

	// faultWindow is how many raw bytes either side of a bad card are
	// attached to a DecodeFaultError.
	faultWindow = 240
)

var errNoPendingHeader = errors.New("guppi: header does not precede the current block")

// Diagnostics receives fault context from a Reader. It is never required
// for correct operation; logger.Logger and *slog.Logger both satisfy it.
type Diagnostics interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithDiagnostics attaches a diagnostics sink.
func WithDiagnostics(d Diagnostics) ReaderOption {
	return func(r *Reader) {
		r.diag = d
	}
}

type readerState uint8

const (
	stateUnopened readerState = iota
	stateReading
	stateExhausted
	stateClosed
)

// Location is where the most recent header and its block start.
type Location struct {
	Path   string
	Header int64
	Data   int64
}

// Reader walks the header/block pairs of one or more files as a single
// stream. It owns at most one open file, which is closed before the next one
// is opened. A Reader is not safe for concurrent use and cannot be rewound.
type Reader struct {
	paths []string
	next  int
	path  string
	f     *os.File
	br    *bufio.Reader
	off   int64
	state readerState
	err   error

	blocks  int
	ref     Shape
	pending *Header
	loc     Location

	diag Diagnostics
}

// Open creates a Reader over the given files, in order. No file is opened
// until the first header is read.
func Open(paths []string, opts ...ReaderOption) (*Reader, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}
	r := &Reader{paths: append([]string(nil), paths...)}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// OpenStem opens a single existing file, or every file matching
// stem*.raw when pathOrStem is not a file.
func OpenStem(pathOrStem string, opts ...ReaderOption) (*Reader, error) {
	paths, err := resolvePath(pathOrStem)
	if err != nil {
		return nil, err
	}
	return Open(paths, opts...)
}

// Paths returns the files making up the stream.
func (r *Reader) Paths() []string { return append([]string(nil), r.paths...) }

// Location reports the file and offsets of the most recent header.
func (r *Reader) Location() Location { return r.loc }

// ReadHeader decodes the next header, moving to the next file when the
// current one ends cleanly where a header would start. It returns io.EOF
// once every file is exhausted.
//
// The first header is validated and fixes the stream's block shape; any
// later header with a different shape fails with ErrInconsistentBlockShape.
// If the previous block was not read it is skipped.
func (r *Reader) ReadHeader() (*Header, error) {
	if err := r.usable(); err != nil {
		return nil, err
	}
	if r.pending != nil {
		if err := r.SkipBlock(r.pending); err != nil {
			return nil, err
		}
	}

	for {
		if r.f == nil {
			if err := r.openNext(); err != nil {
				return nil, err
			}
		}

		start := r.off
		rec, n, err := decodeRecord(r.br, start)
		r.off += n
		if err == io.EOF {
			if cerr := r.closeFile(); cerr != nil {
				return nil, r.fail(cerr)
			}
			continue
		}
		if err != nil {
			return nil, r.fail(r.annotate(err, start))
		}

		h := Dispatch(rec)
		r.blocks++
		if err := r.checkShape(h); err != nil {
			return nil, r.fail(err)
		}
		if h.DirectIO() {
			r.skip(AlignGap(r.off))
		}
		r.loc = Location{Path: r.path, Header: start, Data: r.off}
		r.pending = h
		return h, nil
	}
}

// ReadBlock reads the raw bytes of the block that follows h.
func (r *Reader) ReadBlock(h *Header) ([]byte, error) {
	if err := r.expect(h); err != nil {
		return nil, err
	}
	size, err := r.blockSize(h)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	n, err := io.ReadFull(r.br, buf)
	r.off += int64(n)
	if err != nil {
		return nil, r.fail(r.blockErr(err))
	}
	r.finishBlock(h)
	return buf, nil
}

// SkipBlock moves past the block that follows h without decoding it.
func (r *Reader) SkipBlock(h *Header) error {
	if err := r.expect(h); err != nil {
		return err
	}
	size, err := r.blockSize(h)
	if err != nil {
		return err
	}
	n, err := r.br.Discard(size)
	r.off += int64(n)
	if err != nil {
		return r.fail(r.blockErr(err))
	}
	r.finishBlock(h)
	return nil
}

// Close releases the open file. It is safe to call more than once.
func (r *Reader) Close() error {
	if r.state == stateClosed {
		return nil
	}
	err := r.closeFile()
	r.state = stateClosed
	r.pending = nil
	return err
}

func (r *Reader) usable() error {
	switch {
	case r.state == stateClosed:
		return ErrClosed
	case r.err != nil:
		return r.err
	case r.state == stateExhausted:
		return io.EOF
	}
	return nil
}

func (r *Reader) expect(h *Header) error {
	if err := r.usable(); err != nil {
		return err
	}
	if h == nil || h != r.pending {
		return errNoPendingHeader
	}
	return nil
}

func (r *Reader) blockSize(h *Header) (int, error) {
	n := h.BlockSize()
	if n < 0 {
		return 0, r.fail(fmt.Errorf("%w: %s=%d at %s:%d", ErrInvalidGeometry, KeyBlockSize, n, r.path, r.loc.Header))
	}
	return n, nil
}

func (r *Reader) finishBlock(h *Header) {
	r.pending = nil
	if h.DirectIO() {
		r.skip(AlignGap(r.off))
	}
}

// skip discards padding. Running into the end of the file is not an error:
// the next header read sees a clean end of file.
func (r *Reader) skip(n int64) {
	if n <= 0 {
		return
	}
	d, _ := r.br.Discard(int(n))
	r.off += int64(d)
}

func (r *Reader) checkShape(h *Header) error {
	if r.blocks == 1 {
		if err := Validate(h); err != nil {
			return err
		}
		r.ref = h.BlockShape()
		return nil
	}
	if got := h.BlockShape(); got != r.ref {
		return &ShapeError{Block: r.blocks, Want: r.ref, Got: got}
	}
	return nil
}

func (r *Reader) openNext() error {
	if r.next >= len(r.paths) {
		r.state = stateExhausted
		return io.EOF
	}
	path := r.paths[r.next]
	r.next++

	f, err := os.Open(path)
	if err != nil {
		return r.fail(err)
	}
	adviseSequential(f)
	if r.br == nil {
		r.br = bufio.NewReaderSize(f, readBufSize)
	} else {
		r.br.Reset(f)
	}
	r.f = f
	r.path = path
	r.off = 0
	r.state = stateReading
	if r.diag != nil {
		r.diag.Debug("opened file", "path", path, "index", r.next-1, "files", len(r.paths))
	}
	return nil
}

func (r *Reader) closeFile() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}

// fail makes err sticky and releases the file; there is no way to resync
// with the stream after a fault.
func (r *Reader) fail(err error) error {
	r.err = err
	r.pending = nil
	_ = r.closeFile()
	return err
}

func (r *Reader) blockErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &TruncatedError{Path: r.path, Offset: r.off, Err: ErrTruncatedBlock}
	}
	return err
}

// annotate fills in the file context of a header decode error.
func (r *Reader) annotate(err error, start int64) error {
	var fault *DecodeFaultError
	var trunc *TruncatedError
	switch {
	case errors.As(err, &fault):
		fault.Path = r.path
		cardStart := fault.Offset - (fault.Offset-start)%CardSize
		fault.Before = r.window(cardStart-faultWindow, cardStart)
		fault.After = r.window(cardStart, cardStart+faultWindow)
		if r.diag != nil {
			r.diag.Error("header decode fault",
				"path", fault.Path,
				"offset", fault.Offset,
				"before", fmt.Sprintf("%q", fault.Before),
				"after", fmt.Sprintf("%q", fault.After),
			)
		}
	case errors.As(err, &trunc):
		trunc.Path = r.path
	default:
		return fmt.Errorf("%s: header at offset %d: %w", r.path, start, err)
	}
	return err
}

func (r *Reader) window(from, to int64) []byte {
	if from < 0 {
		from = 0
	}
	if r.f == nil || to <= from {
		return nil
	}
	buf := make([]byte, to-from)
	n, _ := r.f.ReadAt(buf, from)
	return buf[:n]
}

// Blocks yields each block of r decoded into components of type T. The
// reader is closed when iteration ends, fails, or the caller breaks out.
// Iteration stops after the first error.
func Blocks[T Component](r *Reader) iter.Seq2[*Block[T], error] {
	return func(yield func(*Block[T], error) bool) {
		defer func() { _ = r.Close() }()
		for {
			h, err := r.ReadHeader()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			raw, err := r.ReadBlock(h)
			if err != nil {
				yield(nil, err)
				return
			}
			b, err := DecodeBlock[T](h, raw)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

// Entry is one header of a scanned stream.
type Entry struct {
	Index    int
	Location Location
	Header   *Header
}

// Scan indexes every header of r without reading block data, then closes r.
func Scan(r *Reader) ([]Entry, error) {
	defer func() { _ = r.Close() }()
	var out []Entry
	for {
		h, err := r.ReadHeader()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, Entry{Index: len(out), Location: r.Location(), Header: h})
		if err := r.SkipBlock(h); err != nil {
			return out, err
		}
	}
}
