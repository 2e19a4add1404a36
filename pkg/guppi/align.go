package guppi

import (
	"bytes"
	"io"
)

// SectorSize is the DIRECTIO alignment unit.
const SectorSize = 512

const (
	headerFill = '*'
	dataFill   = ' '
)

// AlignGap is the number of bytes needed to move off to the next sector
// boundary.
func AlignGap(off int64) int64 {
	return (SectorSize - off%SectorSize) % SectorSize
}

// writeFill writes n copies of c.
func writeFill(w io.Writer, c byte, n int64) error {
	if n <= 0 {
		return nil
	}
	_, err := w.Write(bytes.Repeat([]byte{c}, int(n)))
	return err
}
