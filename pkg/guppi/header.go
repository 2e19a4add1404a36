package guppi

import (
	"fmt"
	"strings"
)

// Header keys with structural meaning.
const (
	KeyTelescope = "TELESCOP"
	KeyDirectIO  = "DIRECTIO"
	KeyNBits     = "NBITS"
	KeyNPol      = "NPOL"
	KeyNAnts     = "NANTS"
	KeyObsNChan  = "OBSNCHAN"
	KeyBlockSize = "BLOCSIZE"

	KeyObsFreq = "OBSFREQ"
	KeyChanBW  = "CHAN_BW"
	KeyTBin    = "TBIN"
	KeySource  = "SRC_NAME"
	KeyPktIdx  = "PKTIDX"
)

const (
	defaultNBits = 8
	defaultNPol  = 1
	defaultNAnts = 1
)

// Shape is the logical block layout: antennas, channels per antenna, time
// samples, polarizations.
type Shape [4]int

func (s Shape) Antennas() int      { return s[0] }
func (s Shape) Channels() int      { return s[1] }
func (s Shape) Samples() int       { return s[2] }
func (s Shape) Polarizations() int { return s[3] }

// Len is the number of complex samples described by s.
func (s Shape) Len() int { return s[0] * s[1] * s[2] * s[3] }

func (s Shape) positive() bool { return s[0] > 0 && s[1] > 0 && s[2] > 0 && s[3] > 0 }

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", s[0], s[1], s[2], s[3])
}

// Header is one decoded header block. The card record is the source of
// truth; the accessors read through it.
type Header struct {
	Record  *Record
	variant Telescope
}

// Dispatch selects the dialect named by the TELESCOP card.
func Dispatch(rec *Record) *Header {
	ident, _ := rec.GetString(KeyTelescope)
	return &Header{Record: rec, variant: Lookup(ident)}
}

// NewHeader starts a write-side header for the given telescope identifier.
func NewHeader(telescope string) *Header {
	rec := NewRecord()
	rec.Set(KeyTelescope, Str(telescope))
	return Dispatch(rec)
}

// Variant is the dialect the header was dispatched to.
func (h *Header) Variant() Telescope { return h.variant }

func (h *Header) Telescope() string {
	if s, ok := h.Record.GetString(KeyTelescope); ok {
		return s
	}
	return h.variant.Ident()
}

func (h *Header) DirectIO() bool {
	b, _ := h.Record.GetBool(KeyDirectIO)
	return b
}

func (h *Header) NBits() int    { return h.intOr(KeyNBits, defaultNBits) }
func (h *Header) NPol() int     { return h.intOr(KeyNPol, defaultNPol) }
func (h *Header) NAnts() int    { return h.intOr(KeyNAnts, defaultNAnts) }
func (h *Header) ObsNChan() int { return h.intOr(KeyObsNChan, 0) }
func (h *Header) BlockSize() int {
	return h.intOr(KeyBlockSize, 0)
}

func (h *Header) ObsFreq() (float64, bool) { return h.Record.GetFloat64(KeyObsFreq) }
func (h *Header) ChanBW() (float64, bool)  { return h.Record.GetFloat64(KeyChanBW) }
func (h *Header) TBin() (float64, bool)    { return h.Record.GetFloat64(KeyTBin) }
func (h *Header) PktIdx() (int64, bool)    { return h.Record.GetInt64(KeyPktIdx) }
func (h *Header) Source() string {
	s, _ := h.Record.GetString(KeySource)
	return s
}

// Antennas returns the dialect's antenna name list, if it carries one.
func (h *Header) Antennas() []string { return h.variant.spec().antennas(h.Record) }

func (h *Header) SetDirectIO(on bool) {
	var v int64
	if on {
		v = 1
	}
	h.Record.Set(KeyDirectIO, Int(v))
}

func (h *Header) SetNBits(n int)     { h.Record.Set(KeyNBits, Int(int64(n))) }
func (h *Header) SetNPol(n int)      { h.Record.Set(KeyNPol, Int(int64(n))) }
func (h *Header) SetNAnts(n int)     { h.Record.Set(KeyNAnts, Int(int64(n))) }
func (h *Header) SetObsNChan(n int)  { h.Record.Set(KeyObsNChan, Int(int64(n))) }
func (h *Header) SetBlockSize(n int) { h.Record.Set(KeyBlockSize, Int(int64(n))) }

func (h *Header) intOr(key string, def int) int {
	if v, ok := h.Record.GetInt64(key); ok {
		return int(v)
	}
	return def
}

// BlockShape apportions the block's complex samples over antennas,
// channels per antenna and polarizations; the remainder is the time axis.
// It returns the zero Shape when the header cannot describe a block.
func (h *Header) BlockShape() Shape {
	nbits, nants, npol := h.NBits(), h.NAnts(), h.NPol()
	if nbits <= 0 || nants <= 0 || npol <= 0 {
		return Shape{}
	}
	chans := h.ObsNChan() / nants
	if chans <= 0 {
		return Shape{}
	}
	total := h.BlockSize() * 8 / (nbits * 2)
	return Shape{nants, chans, total / (nants * chans * npol), npol}
}

// Validate checks the header against what the block codec can handle.
func Validate(h *Header) error {
	switch nbits := h.NBits(); nbits {
	case 4, 8, 16, 32:
	default:
		return &BitDepthError{Bits: nbits}
	}
	if npol := h.NPol(); npol != 1 && npol != 2 {
		return &PolarizationError{NPol: npol}
	}
	shape := h.BlockShape()
	if h.BlockSize() <= 0 || !shape.positive() || shape.Len()*h.NBits()*2 != h.BlockSize()*8 {
		return fmt.Errorf("%w: %s=%d %s=%d %s=%d %s=%d %s=%d gives %v",
			ErrInvalidGeometry,
			KeyBlockSize, h.BlockSize(), KeyNBits, h.NBits(), KeyNAnts, h.NAnts(),
			KeyObsNChan, h.ObsNChan(), KeyNPol, h.NPol(), shape)
	}
	return nil
}

func (h *Header) String() string {
	var b strings.Builder
	for i, key := range h.Record.keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(formatValue(h.Record.kv[key]))
	}
	return b.String()
}
