package guppi

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func card(s string) []byte {
	return []byte(s + strings.Repeat(" ", CardSize-len(s)))
}

func TestParseCardTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		card string
		key  string
		want Value
	}{
		{"int", "NBITS   =                    8", "NBITS", Int(8)},
		{"negative int", "PKTIDX  =                  -12", "PKTIDX", Int(-12)},
		{"float", "OBSFREQ =               1420.5", "OBSFREQ", Float(1420.5)},
		{"exponent", "TBIN    =               1.0E-6", "TBIN", Float(1e-6)},
		{"string", "TELESCOP= 'ATA     '", "TELESCOP", Str("ATA")},
		{"escaped quote", "SRC_NAME= 'O''Brien '", "SRC_NAME", Str("O'Brien")},
		{"empty string", "SRC_NAME= ''", "SRC_NAME", Str("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, v, end, err := ParseCard(card(tt.card))
			require.NoError(t, err)
			require.False(t, end)
			require.Equal(t, tt.key, key)
			require.Equal(t, tt.want, v)
		})
	}
}

func TestParseCardEnd(t *testing.T) {
	t.Parallel()

	_, _, end, err := ParseCard(card("END"))
	require.NoError(t, err)
	require.True(t, end)
}

func TestParseCardMalformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"TELESCOP= 'ATA",
		"TELESCOP= ATA",
		"NBITS = 8",
		"        = 8",
		"END     x",
	} {
		_, _, _, err := ParseCard(card(raw))
		require.ErrorIs(t, err, ErrMalformedHeaderValue, "card %q", raw)
	}

	_, _, _, err := ParseCard([]byte("NBITS   =                    8"))
	require.ErrorIs(t, err, ErrMalformedHeaderValue)

	var hv *HeaderValueError
	_, _, _, err = ParseCard(card("TELESCOP= 'ATA"))
	require.ErrorAs(t, err, &hv)
	require.Equal(t, "TELESCOP", hv.Key)
	require.Equal(t, "'ATA", hv.Raw)
}

func TestEncodeRecordRoundTrip(t *testing.T) {
	t.Parallel()

	rec := NewRecord()
	rec.Set("telescop", Str("MeerKAT"))
	rec.Set(KeyNBits, Int(8))
	rec.Set(KeyObsFreq, Float(1284))
	rec.Set(KeyTBin, Float(2.5e-7))
	rec.Set(KeySource, Str("J0437-4715"))
	rec.Set(KeyNBits, Int(4))

	raw, err := EncodeRecord(rec)
	require.NoError(t, err)
	require.Zero(t, len(raw)%CardSize)
	require.Equal(t, (rec.Len()+1)*CardSize, len(raw))
	require.Equal(t, endCard, raw[len(raw)-CardSize:])
	require.Equal(t, "NBITS   =                    4", strings.TrimRight(string(raw[CardSize:2*CardSize]), " "))

	got, err := DecodeRecord(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, rec.Keys(), got.Keys())
	for _, k := range rec.Keys() {
		want, _ := rec.Get(k)
		v, ok := got.Get(k)
		require.True(t, ok)
		require.Equal(t, want, v, "key %s", k)
	}
}

func TestEncodeRejectsBadCards(t *testing.T) {
	t.Parallel()

	rec := NewRecord()
	rec.Set("TOOLONGKEY", Int(1))
	_, err := EncodeRecord(rec)
	require.ErrorIs(t, err, ErrMalformedHeaderValue)

	rec = NewRecord()
	rec.Set(KeySource, Str(strings.Repeat("x", 80)))
	_, err = EncodeRecord(rec)
	require.ErrorIs(t, err, ErrMalformedHeaderValue)

	rec = NewRecord()
	rec.Set(KeySource, Str("café"))
	_, err = EncodeRecord(rec)
	require.ErrorIs(t, err, ErrMalformedHeaderValue)
}

func TestDecodeRecordBoundaries(t *testing.T) {
	t.Parallel()

	t.Run("empty input is a clean end", func(t *testing.T) {
		_, err := DecodeRecord(bytes.NewReader(nil))
		require.Equal(t, io.EOF, err)
	})

	t.Run("missing END is truncated", func(t *testing.T) {
		raw := card("NBITS   =                    8")
		_, err := DecodeRecord(bytes.NewReader(raw))
		require.ErrorIs(t, err, ErrTruncatedHeader)
		var te *TruncatedError
		require.ErrorAs(t, err, &te)
		require.EqualValues(t, CardSize, te.Offset)
	})

	t.Run("short card is malformed", func(t *testing.T) {
		raw := append(card("NBITS   =                    8"), "NPOL    ="...)
		_, err := DecodeRecord(bytes.NewReader(raw))
		require.ErrorIs(t, err, ErrMalformedHeaderValue)
		require.False(t, errors.Is(err, ErrTruncatedHeader))
	})

	t.Run("non-ASCII byte", func(t *testing.T) {
		raw := append(card("NBITS   =                    8"), card("SRC_NAME= 'x'")...)
		raw[CardSize+12] = 0xe9
		_, err := DecodeRecord(bytes.NewReader(raw))
		require.ErrorIs(t, err, ErrUnicodeDecode)
		var fault *DecodeFaultError
		require.ErrorAs(t, err, &fault)
		require.EqualValues(t, CardSize+12, fault.Offset)
	})
}

func TestFormatFloatStaysFloat(t *testing.T) {
	t.Parallel()

	for _, f := range []float64{0, 1, -3, 1e21, 1.5, 6.25e-9} {
		v, err := parseValue("X", formatFloat(f))
		require.NoError(t, err)
		require.Equal(t, TypeFloat, v.Type, "value %v rendered as %q", f, formatFloat(f))
		require.Equal(t, f, v.Value)
	}
}

func TestRecordOrderAndGetters(t *testing.T) {
	t.Parallel()

	rec := NewRecord()
	rec.Set("A", Int(1))
	rec.Set("B", Float(2))
	rec.Set("C", Str("three"))
	rec.Set("a", Int(10))
	rec.Delete("B")
	require.Equal(t, []string{"A", "C"}, rec.Keys())

	n, ok := rec.GetInt64("A")
	require.True(t, ok)
	require.EqualValues(t, 10, n)

	_, ok = rec.GetInt64("C")
	require.False(t, ok)

	rec.Set("F", Float(4))
	f, ok := rec.GetInt64("F")
	require.True(t, ok)
	require.EqualValues(t, 4, f)

	rec.Set("FLAG", Str("T"))
	b, ok := rec.GetBool("FLAG")
	require.True(t, ok)
	require.True(t, b)

	clone := rec.Clone()
	clone.Set("NEW", Int(1))
	_, ok = rec.Get("NEW")
	require.False(t, ok)
}
