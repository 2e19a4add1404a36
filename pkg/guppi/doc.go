// Package guppi reads and writes GUPPI RAW voltage recordings.
//
// A GUPPI RAW stream is a sequence of header/block pairs. Each header is a
// run of 80-byte ASCII cards ("KEYWORD = value") closed by an END card, and
// is followed by BLOCSIZE bytes of interleaved complex samples. When the
// header sets DIRECTIO both regions are padded to 512-byte boundaries. A
// stream may be split over several files named stem.0000.raw,
// stem.0001.raw, ...; a header and its block never straddle two files.
//
// Reading:
//
//	r, err := guppi.OpenStem("obs/guppi_59000_1234")
//	if err != nil {
//		return err
//	}
//	for b, err := range guppi.Blocks[float32](r) {
//		if err != nil {
//			return err
//		}
//		_ = b.At(0, 0, 0, 0)
//	}
//
// Writing:
//
//	sw := guppi.NewSequenceWriter("out/synth", 5)
//	defer sw.Close()
//	h := guppi.NewHeader("ATA")
//	err := guppi.WriteBlock(sw, h, block)
package guppi
