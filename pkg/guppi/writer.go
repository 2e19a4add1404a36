package guppi

import (
	"errors"
	"os"
)

// RawWriter accepts encoded blocks together with their headers.
type RawWriter interface {
	WriteRaw(h *Header, data []byte) error
}

// Writer appends header/block pairs to one file, padding both regions to
// sector boundaries when the header sets DIRECTIO.
type Writer struct {
	f    *os.File
	path string
	off  int64
}

// Create truncates or creates path.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer{f: f, path: path}, nil
}

// Append opens path for appending, creating it if needed.
func Append(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, path: path, off: st.Size()}, nil
}

func (w *Writer) Path() string { return w.path }

// Offset is the number of bytes in the file so far.
func (w *Writer) Offset() int64 { return w.off }

// WriteRaw writes the header cards and data. The header's geometry must
// already describe data; use WriteBlock to derive it from a Block.
func (w *Writer) WriteRaw(h *Header, data []byte) error {
	if w.f == nil {
		return errors.New("guppi: writer closed")
	}
	hdr, err := EncodeRecord(h.Record)
	if err != nil {
		return err
	}
	directio := h.DirectIO()

	if err := w.write(hdr); err != nil {
		return err
	}
	if directio {
		if err := w.fill(headerFill); err != nil {
			return err
		}
	}
	if err := w.write(data); err != nil {
		return err
	}
	if directio {
		return w.fill(dataFill)
	}
	return nil
}

func (w *Writer) write(p []byte) error {
	n, err := w.f.Write(p)
	w.off += int64(n)
	return err
}

func (w *Writer) fill(c byte) error {
	gap := AlignGap(w.off)
	if err := writeFill(w.f, c, gap); err != nil {
		return err
	}
	w.off += gap
	return nil
}

func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

// SequenceWriter spreads blocks over stem.0000.raw, stem.0001.raw, ...
// starting a new file every blocksPerFile blocks. Every block must have the
// shape of the first.
type SequenceWriter struct {
	stem          string
	blocksPerFile int

	w      *Writer
	inFile int
	files  []string
	ref    Shape
	blocks int
}

// NewSequenceWriter creates the writer; no file is created until the first
// block. blocksPerFile <= 0 keeps everything in one file.
func NewSequenceWriter(stem string, blocksPerFile int) *SequenceWriter {
	return &SequenceWriter{stem: stem, blocksPerFile: blocksPerFile}
}

// Paths lists the files written so far.
func (s *SequenceWriter) Paths() []string { return append([]string(nil), s.files...) }

func (s *SequenceWriter) WriteRaw(h *Header, data []byte) error {
	shape := h.BlockShape()
	if s.blocks > 0 && shape != s.ref {
		return &ShapeError{Block: s.blocks + 1, Want: s.ref, Got: shape}
	}

	if s.w == nil || (s.blocksPerFile > 0 && s.inFile == s.blocksPerFile) {
		if err := s.rotate(); err != nil {
			return err
		}
	}
	if err := s.w.WriteRaw(h, data); err != nil {
		return err
	}
	if s.blocks == 0 {
		s.ref = shape
	}
	s.blocks++
	s.inFile++
	return nil
}

func (s *SequenceWriter) rotate() error {
	if err := s.Close(); err != nil {
		return err
	}
	path := StemPath(s.stem, len(s.files))
	w, err := Create(path)
	if err != nil {
		return err
	}
	s.w = w
	s.inFile = 0
	s.files = append(s.files, path)
	return nil
}

func (s *SequenceWriter) Close() error {
	if s.w == nil {
		return nil
	}
	err := s.w.Close()
	s.w = nil
	return err
}

// WriteBlock encodes b at the width of T, updates h's geometry and writes
// both to w.
func WriteBlock[T Sample](w RawWriter, h *Header, b *Block[T]) error {
	data, err := EncodeBlock(h, b)
	if err != nil {
		return err
	}
	return w.WriteRaw(h, data)
}

// WriteBlock4 is WriteBlock with 4-bit packing.
func WriteBlock4(w RawWriter, h *Header, b *Block[int8]) error {
	data, err := EncodeBlock4(h, b)
	if err != nil {
		return err
	}
	return w.WriteRaw(h, data)
}
