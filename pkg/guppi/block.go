package guppi

import (
	"encoding/binary"
	"fmt"
)

// Sample is a signed integer component width that can be written to disk.
type Sample interface {
	~int8 | ~int16 | ~int32
}

// Component is any width a block can be decoded into.
type Component interface {
	Sample | ~float32 | ~float64
}

// Complex is one (real, imaginary) sample pair.
type Complex[T Component] struct {
	Re T
	Im T
}

func (c Complex[T]) Complex128() complex128 { return complex(float64(c.Re), float64(c.Im)) }
func (c Complex[T]) Complex64() complex64   { return complex(float32(c.Re), float32(c.Im)) }

// Block is the logical view of one data block: a row-major
// (antenna, channel, time, polarization) array of complex samples.
type Block[T Component] struct {
	Header *Header
	Shape  Shape
	Data   []Complex[T]
}

// NewBlock allocates a zeroed block of the given shape.
func NewBlock[T Component](shape Shape) *Block[T] {
	return &Block[T]{Shape: shape, Data: make([]Complex[T], shape.Len())}
}

func (b *Block[T]) index(a, f, t, p int) int {
	s := b.Shape
	return ((a*s[1]+f)*s[2]+t)*s[3] + p
}

func (b *Block[T]) At(a, f, t, p int) Complex[T] { return b.Data[b.index(a, f, t, p)] }

func (b *Block[T]) Set(a, f, t, p int, v Complex[T]) { b.Data[b.index(a, f, t, p)] = v }

// DecodeBlock converts exactly BlockSize raw bytes into a block shaped by
// the header. Samples are signed two's complement, little-endian for 16 and
// 32 bits; 4-bit samples are packed high nibble first.
func DecodeBlock[T Component](h *Header, raw []byte) (*Block[T], error) {
	if len(raw) != h.BlockSize() {
		return nil, fmt.Errorf("%w: got %d bytes want %d", ErrTruncatedBlock, len(raw), h.BlockSize())
	}
	shape := h.BlockShape()
	nbits := h.NBits()
	if shape.Len()*nbits*2 != len(raw)*8 {
		return nil, fmt.Errorf("%w: shape %v at %d bits does not cover %d bytes", ErrInvalidGeometry, shape, nbits, len(raw))
	}

	out := &Block[T]{Header: h, Shape: shape, Data: make([]Complex[T], shape.Len())}
	switch nbits {
	case 4:
		for i, c := range raw {
			out.Data[i] = Complex[T]{Re: T(int8(c) >> 4), Im: T(int8(c<<4) >> 4)}
		}
	case 8:
		for i := range out.Data {
			out.Data[i] = Complex[T]{Re: T(int8(raw[2*i])), Im: T(int8(raw[2*i+1]))}
		}
	case 16:
		for i := range out.Data {
			re := int16(binary.LittleEndian.Uint16(raw[4*i:]))
			im := int16(binary.LittleEndian.Uint16(raw[4*i+2:]))
			out.Data[i] = Complex[T]{Re: T(re), Im: T(im)}
		}
	case 32:
		for i := range out.Data {
			re := int32(binary.LittleEndian.Uint32(raw[8*i:]))
			im := int32(binary.LittleEndian.Uint32(raw[8*i+4:]))
			out.Data[i] = Complex[T]{Re: T(re), Im: T(im)}
		}
	default:
		return nil, &BitDepthError{Bits: nbits}
	}
	return out, nil
}

// EncodeBlock flattens b to interleaved real/imaginary samples at the width
// of T and writes the resulting geometry (OBSNCHAN, NANTS, NPOL, BLOCSIZE,
// NBITS) into h. The block shape is the only source of those fields on the
// write path.
func EncodeBlock[T Sample](h *Header, b *Block[T]) ([]byte, error) {
	if err := checkBlock(b); err != nil {
		return nil, err
	}
	width := binary.Size(T(0))
	out := make([]byte, len(b.Data)*2*width)
	switch width {
	case 1:
		for i, c := range b.Data {
			out[2*i] = byte(int8(c.Re))
			out[2*i+1] = byte(int8(c.Im))
		}
	case 2:
		for i, c := range b.Data {
			binary.LittleEndian.PutUint16(out[4*i:], uint16(int16(c.Re)))
			binary.LittleEndian.PutUint16(out[4*i+2:], uint16(int16(c.Im)))
		}
	case 4:
		for i, c := range b.Data {
			binary.LittleEndian.PutUint32(out[8*i:], uint32(int32(c.Re)))
			binary.LittleEndian.PutUint32(out[8*i+4:], uint32(int32(c.Im)))
		}
	default:
		return nil, &BitDepthError{Bits: width * 8}
	}
	setGeometry(h, b.Shape, out)
	return out, nil
}

// EncodeBlock4 packs b into 4-bit samples. Every component must lie in
// [-8, 7]. NBITS is set to 4.
func EncodeBlock4(h *Header, b *Block[int8]) ([]byte, error) {
	if err := checkBlock(b); err != nil {
		return nil, err
	}
	out := make([]byte, len(b.Data))
	for i, c := range b.Data {
		v, err := PackNibbles(c.Re, c.Im)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = v
	}
	setGeometry(h, b.Shape, out)
	return out, nil
}

// PackNibbles stores hi in the upper and lo in the lower four bits.
func PackNibbles(hi, lo int8) (byte, error) {
	if hi < -8 || hi > 7 || lo < -8 || lo > 7 {
		return 0, fmt.Errorf("nibble out of range: (%d, %d)", hi, lo)
	}
	return byte(hi)<<4 | byte(lo)&0x0f, nil
}

// UnpackNibbles sign-extends both halves of b.
func UnpackNibbles(b byte) (hi, lo int8) {
	return int8(b) >> 4, int8(b<<4) >> 4
}

func checkBlock[T Component](b *Block[T]) error {
	if b == nil {
		return fmt.Errorf("%w: nil block", ErrInvalidGeometry)
	}
	for _, d := range b.Shape {
		if d <= 0 {
			return fmt.Errorf("%w: shape %v", ErrInvalidGeometry, b.Shape)
		}
	}
	if len(b.Data) != b.Shape.Len() {
		return fmt.Errorf("%w: %d samples for shape %v", ErrInvalidGeometry, len(b.Data), b.Shape)
	}
	return nil
}

func setGeometry(h *Header, s Shape, data []byte) {
	h.SetObsNChan(s.Antennas() * s.Channels())
	h.SetNAnts(s.Antennas())
	h.SetNPol(s.Polarizations())
	h.SetBlockSize(len(data))
	h.SetNBits(len(data) * 8 / (s.Len() * 2))
}
