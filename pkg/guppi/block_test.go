package guppi

import (
	"encoding/binary"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// randomBlock fills a block from a seeded source so a test can regenerate it
// for comparison after a round trip.
func randomBlock[T Sample](shape Shape, seed uint64, lo, hi int) *Block[T] {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	b := NewBlock[T](shape)
	span := hi - lo + 1
	for i := range b.Data {
		b.Data[i] = Complex[T]{
			Re: T(lo + rng.IntN(span)),
			Im: T(lo + rng.IntN(span)),
		}
	}
	return b
}

func TestDecodeBlock8(t *testing.T) {
	t.Parallel()

	h := geometryHeader(8, 1, 2, 2, 8)
	raw := []byte{0x01, 0xff, 0x7f, 0x80, 0x00, 0x02, 0xfe, 0x03}
	b, err := DecodeBlock[int8](h, raw)
	require.NoError(t, err)
	require.Equal(t, Shape{1, 2, 1, 2}, b.Shape)
	require.Equal(t, Complex[int8]{1, -1}, b.At(0, 0, 0, 0))
	require.Equal(t, Complex[int8]{127, -128}, b.At(0, 0, 0, 1))
	require.Equal(t, Complex[int8]{0, 2}, b.At(0, 1, 0, 0))
	require.Equal(t, Complex[int8]{-2, 3}, b.At(0, 1, 0, 1))

	wide, err := DecodeBlock[float64](h, raw)
	require.NoError(t, err)
	require.Equal(t, complex(127, -128), wide.At(0, 0, 0, 1).Complex128())
}

func TestDecodeBlock16And32(t *testing.T) {
	t.Parallel()

	raw16 := make([]byte, 4)
	binary.LittleEndian.PutUint16(raw16, uint16(0x8000))
	binary.LittleEndian.PutUint16(raw16[2:], 300)
	b16, err := DecodeBlock[int32](geometryHeader(16, 1, 1, 1, 4), raw16)
	require.NoError(t, err)
	require.Equal(t, Complex[int32]{-32768, 300}, b16.Data[0])

	raw32 := make([]byte, 8)
	binary.LittleEndian.PutUint32(raw32, 0xffffffff)
	binary.LittleEndian.PutUint32(raw32[4:], 1<<30)
	b32, err := DecodeBlock[int32](geometryHeader(32, 1, 1, 1, 8), raw32)
	require.NoError(t, err)
	require.Equal(t, Complex[int32]{-1, 1 << 30}, b32.Data[0])
}

func TestDecodeBlock4(t *testing.T) {
	t.Parallel()

	h := geometryHeader(4, 1, 1, 2, 2)
	b, err := DecodeBlock[int8](h, []byte{0x7f, 0x80})
	require.NoError(t, err)
	require.Equal(t, Shape{1, 1, 1, 2}, b.Shape)
	require.Equal(t, Complex[int8]{7, -1}, b.Data[0])
	require.Equal(t, Complex[int8]{-8, 0}, b.Data[1])
}

func TestDecodeBlockRejectsWrongLength(t *testing.T) {
	t.Parallel()

	h := geometryHeader(8, 1, 2, 2, 8)
	_, err := DecodeBlock[int8](h, make([]byte, 7))
	require.ErrorIs(t, err, ErrTruncatedBlock)

	h = geometryHeader(12, 1, 1, 1, 3)
	_, err = DecodeBlock[int16](h, make([]byte, 3))
	require.Error(t, err)
}

func TestNibbles(t *testing.T) {
	t.Parallel()

	for v := range 256 {
		hi, lo := UnpackNibbles(byte(v))
		require.GreaterOrEqual(t, hi, int8(-8))
		require.LessOrEqual(t, hi, int8(7))
		packed, err := PackNibbles(hi, lo)
		require.NoError(t, err)
		require.Equal(t, byte(v), packed)
	}

	_, err := PackNibbles(8, 0)
	require.Error(t, err)
	_, err = PackNibbles(0, -9)
	require.Error(t, err)
}

func TestEncodeBlockGeometry(t *testing.T) {
	t.Parallel()

	shape := Shape{4, 16, 8, 2}

	check := func(t *testing.T, h *Header, data []byte, bits int) {
		t.Helper()
		require.Equal(t, bits, h.NBits())
		require.Equal(t, 64, h.ObsNChan())
		require.Equal(t, 4, h.NAnts())
		require.Equal(t, 2, h.NPol())
		require.Equal(t, len(data), h.BlockSize())
		require.Equal(t, shape, h.BlockShape())
		require.Equal(t, h.BlockSize()*8, shape.Len()*h.NBits()*2)
		require.NoError(t, Validate(h))
	}

	t.Run("int8", func(t *testing.T) {
		h := NewHeader("ATA")
		data, err := EncodeBlock(h, randomBlock[int8](shape, 1, -128, 127))
		require.NoError(t, err)
		check(t, h, data, 8)
	})
	t.Run("int16", func(t *testing.T) {
		h := NewHeader("ATA")
		data, err := EncodeBlock(h, randomBlock[int16](shape, 2, -32768, 32767))
		require.NoError(t, err)
		check(t, h, data, 16)
	})
	t.Run("int32", func(t *testing.T) {
		h := NewHeader("ATA")
		data, err := EncodeBlock(h, randomBlock[int32](shape, 3, -1<<31, 1<<31-1))
		require.NoError(t, err)
		check(t, h, data, 32)
	})
	t.Run("4-bit", func(t *testing.T) {
		h := NewHeader("ATA")
		data, err := EncodeBlock4(h, randomBlock[int8](shape, 4, -8, 7))
		require.NoError(t, err)
		check(t, h, data, 4)
	})
}

func TestEncodeDecodeSameWidth(t *testing.T) {
	t.Parallel()

	shape := Shape{2, 3, 5, 1}
	want := randomBlock[int16](shape, 7, -32768, 32767)
	h := NewHeader("MeerKAT")
	data, err := EncodeBlock(h, want)
	require.NoError(t, err)

	got, err := DecodeBlock[int16](h, data)
	require.NoError(t, err)
	require.Equal(t, want.Data, got.Data)
	require.Same(t, h, got.Header)
}

func TestEncodeBlock4OutOfRange(t *testing.T) {
	t.Parallel()

	b := NewBlock[int8](Shape{1, 1, 1, 1})
	b.Data[0] = Complex[int8]{Re: 9}
	_, err := EncodeBlock4(NewHeader("ATA"), b)
	require.Error(t, err)
}

func TestEncodeBlockRejectsBadShape(t *testing.T) {
	t.Parallel()

	b := &Block[int8]{Shape: Shape{1, 2, 2, 1}, Data: make([]Complex[int8], 3)}
	_, err := EncodeBlock(NewHeader("ATA"), b)
	require.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = EncodeBlock(NewHeader("ATA"), NewBlock[int8](Shape{1, 0, 2, 1}))
	require.ErrorIs(t, err, ErrInvalidGeometry)
}
