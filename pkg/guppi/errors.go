package guppi

import (
	"errors"
	"fmt"
)

var (
	ErrTruncatedHeader              = errors.New("guppi: truncated header")
	ErrMalformedHeaderValue         = errors.New("guppi: malformed header value")
	ErrUnicodeDecode                = errors.New("guppi: non-ASCII byte in header")
	ErrUnsupportedBitDepth          = errors.New("guppi: unsupported bit depth")
	ErrUnsupportedPolarizationCount = errors.New("guppi: unsupported polarization count")
	ErrInconsistentBlockShape       = errors.New("guppi: inconsistent block shape")
	ErrInvalidGeometry              = errors.New("guppi: invalid block geometry")
	ErrTruncatedBlock               = errors.New("guppi: truncated data block")
	ErrNoFiles                      = errors.New("guppi: no files to read")
	ErrClosed                       = errors.New("guppi: reader closed")
)

// HeaderValueError reports a card whose value could not be typed.
type HeaderValueError struct {
	Key string
	Raw string
}

func (e *HeaderValueError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%v: %q", ErrMalformedHeaderValue, e.Raw)
	}
	return fmt.Sprintf("%v: %s = %q", ErrMalformedHeaderValue, e.Key, e.Raw)
}

func (e *HeaderValueError) Unwrap() error { return ErrMalformedHeaderValue }

// DecodeFaultError carries the location of a non-ASCII byte in a header
// region together with the raw bytes around it. The stream position is
// undefined after this error.
type DecodeFaultError struct {
	Path   string
	Offset int64
	Before []byte
	After  []byte
}

func (e *DecodeFaultError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v at offset %d", ErrUnicodeDecode, e.Offset)
	}
	return fmt.Sprintf("%v in %s at offset %d", ErrUnicodeDecode, e.Path, e.Offset)
}

func (e *DecodeFaultError) Unwrap() error { return ErrUnicodeDecode }

// TruncatedError reports a header or block that ended early.
type TruncatedError struct {
	Path   string
	Offset int64
	Err    error
}

func (e *TruncatedError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
	}
	return fmt.Sprintf("%v in %s at offset %d", e.Err, e.Path, e.Offset)
}

func (e *TruncatedError) Unwrap() error { return e.Err }

type BitDepthError struct {
	Bits int
}

func (e *BitDepthError) Error() string {
	return fmt.Sprintf("%v: %d (supported: 4, 8, 16, 32)", ErrUnsupportedBitDepth, e.Bits)
}

func (e *BitDepthError) Unwrap() error { return ErrUnsupportedBitDepth }

type PolarizationError struct {
	NPol int
}

func (e *PolarizationError) Error() string {
	return fmt.Sprintf("%v: %d (expected 1 or 2)", ErrUnsupportedPolarizationCount, e.NPol)
}

func (e *PolarizationError) Unwrap() error { return ErrUnsupportedPolarizationCount }

// ShapeError reports a block whose shape differs from the first block of the
// sequence. Block is 1-based.
type ShapeError struct {
	Block int
	Want  Shape
	Got   Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%v at block #%d: got %v want %v", ErrInconsistentBlockShape, e.Block, e.Got, e.Want)
}

func (e *ShapeError) Unwrap() error { return ErrInconsistentBlockShape }
