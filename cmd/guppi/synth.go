package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/guppi/internal/logger"
	"github.com/samcharles93/guppi/pkg/guppi"
)

// synthOptions describes a synthetic recording. Block i is drawn from a PCG
// seeded with (Seed, i), so any block can be regenerated on its own.
type synthOptions struct {
	Stem          string
	Shape         guppi.Shape
	Blocks        int
	Bits          int
	Seed          uint64
	DirectIO      bool
	BlocksPerFile int
	Telescope     string
	ObsFreq       float64
	ChanBW        float64
	TBin          float64
	Source        string
}

type frame struct {
	h    *guppi.Header
	data []byte
}

func synthCmd() *cli.Command {
	var (
		stem          string
		shape         string
		opts          synthOptions
		noProgress    bool
		blocksPerFile int
		directio      bool
		telescope     string
		seed          uint64
	)

	return &cli.Command{
		Name:  "synth",
		Usage: "Write a deterministic pseudo-random GUPPI RAW stream",
		Flags: []cli.Flag{
			stemFlag(&stem),
			&cli.StringFlag{
				Name:        "shape",
				Usage:       "block shape as antennas,channels,samples,polarizations",
				Value:       "4,16,8,2",
				Destination: &shape,
			},
			&cli.IntFlag{Name: "blocks", Aliases: []string{"n"}, Usage: "number of blocks", Value: 7, Destination: &opts.Blocks},
			&cli.IntFlag{Name: "bits", Usage: "bits per component (4, 8, 16, 32)", Value: 8, Destination: &opts.Bits},
			&cli.Uint64Flag{Name: "seed", Usage: "random seed", Value: 1, Destination: &seed},
			&cli.BoolFlag{Name: "directio", Usage: "pad headers and blocks to 512-byte sectors", Destination: &directio},
			&cli.IntFlag{
				Name:        "blocks-per-file",
				Usage:       "start a new file after this many blocks (0 keeps one file)",
				Value:       0,
				Destination: &blocksPerFile,
			},
			&cli.StringFlag{
				Name:        "telescope",
				Usage:       fmt.Sprintf("TELESCOP value (%s)", strings.Join(guppi.Idents(), ", ")),
				Value:       "SoftwareUnitTest",
				Destination: &telescope,
			},
			&cli.FloatFlag{Name: "obsfreq", Usage: "centre frequency in MHz", Value: 1420.405752, Destination: &opts.ObsFreq},
			&cli.FloatFlag{Name: "chan-bw", Usage: "channel bandwidth in MHz", Value: 0.5, Destination: &opts.ChanBW},
			&cli.StringFlag{Name: "source", Usage: "SRC_NAME value", Value: "SYNTH", Destination: &opts.Source},
			&cli.BoolFlag{Name: "no-progress", Usage: "disable the progress bar", Destination: &noProgress},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applySynthConfig(cmd, cfg, &blocksPerFile, &directio, &telescope, &seed)

			s, err := parseShape(shape)
			if err != nil {
				return err
			}
			out, err := resolveOutStem(stem, cfg.OutDir)
			if err != nil {
				return err
			}
			opts.Stem = out
			opts.Shape = s
			opts.Seed = seed
			opts.DirectIO = directio
			opts.BlocksPerFile = blocksPerFile
			opts.Telescope = telescope
			if opts.ChanBW != 0 {
				opts.TBin = 1 / (math.Abs(opts.ChanBW) * 1e6)
			}

			var progress io.Writer = os.Stderr
			if noProgress {
				progress = io.Discard
			}
			paths, err := synthesize(ctx, opts, progress)
			if err != nil {
				return err
			}
			log.Info("synthesized stream", "stem", out, "files", len(paths), "blocks", opts.Blocks, "shape", s.String(), "nbits", opts.Bits)
			for _, p := range paths {
				fmt.Fprintln(output(cmd), p)
			}
			return nil
		},
	}
}

func parseShape(s string) (guppi.Shape, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return guppi.Shape{}, fmt.Errorf("shape %q: want antennas,channels,samples,polarizations", s)
	}
	var out guppi.Shape
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n <= 0 {
			return guppi.Shape{}, fmt.Errorf("shape %q: dimension %d must be a positive integer", s, i)
		}
		out[i] = n
	}
	if p := out.Polarizations(); p != 1 && p != 2 {
		return guppi.Shape{}, &guppi.PolarizationError{NPol: p}
	}
	return out, nil
}

// synthesize generates blocks ahead of the writer and returns the files
// written.
func synthesize(ctx context.Context, o synthOptions, progress io.Writer) ([]string, error) {
	switch o.Bits {
	case 4, 8, 16, 32:
	default:
		return nil, &guppi.BitDepthError{Bits: o.Bits}
	}
	if o.Blocks <= 0 {
		return nil, fmt.Errorf("blocks must be positive, got %d", o.Blocks)
	}

	obsID := uuid.NewString()
	sw := guppi.NewSequenceWriter(o.Stem, o.BlocksPerFile)
	defer sw.Close()

	p := mpb.NewWithContext(ctx, mpb.WithOutput(progress), mpb.WithWidth(48))
	bar := p.AddBar(int64(o.Blocks),
		mpb.PrependDecorators(
			decor.Name("synth", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Percentage(decor.WC{W: 5}), "done"),
		),
	)

	g, gctx := errgroup.WithContext(ctx)
	frames := make(chan frame, 4)

	g.Go(func() error {
		defer close(frames)
		for i := range o.Blocks {
			f, err := o.frame(i, obsID)
			if err != nil {
				return err
			}
			select {
			case frames <- f:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for f := range frames {
			if err := sw.WriteRaw(f.h, f.data); err != nil {
				return err
			}
			bar.Increment()
		}
		return nil
	})

	err := g.Wait()
	if err != nil {
		bar.Abort(false)
	}
	p.Wait()
	if err != nil {
		return sw.Paths(), err
	}
	return sw.Paths(), sw.Close()
}

func (o synthOptions) frame(i int, obsID string) (frame, error) {
	h := guppi.NewHeader(o.Telescope)
	h.SetDirectIO(o.DirectIO)
	h.Record.Set("OBSID", guppi.Str(obsID))
	h.Record.Set(guppi.KeySource, guppi.Str(o.Source))
	h.Record.Set(guppi.KeyObsFreq, guppi.Float(o.ObsFreq))
	h.Record.Set(guppi.KeyChanBW, guppi.Float(o.ChanBW))
	if o.TBin > 0 {
		h.Record.Set(guppi.KeyTBin, guppi.Float(o.TBin))
	}
	h.Record.Set(guppi.KeyPktIdx, guppi.Int(int64(i*o.Shape.Samples())))

	rng := rand.New(rand.NewPCG(o.Seed, uint64(i)))
	var (
		data []byte
		err  error
	)
	switch o.Bits {
	case 4:
		data, err = guppi.EncodeBlock4(h, fill[int8](o.Shape, rng, -8, 7))
	case 8:
		data, err = guppi.EncodeBlock(h, fill[int8](o.Shape, rng, -128, 127))
	case 16:
		data, err = guppi.EncodeBlock(h, fill[int16](o.Shape, rng, -32768, 32767))
	case 32:
		data, err = guppi.EncodeBlock(h, fill[int32](o.Shape, rng, -1<<31, 1<<31-1))
	}
	if err != nil {
		return frame{}, fmt.Errorf("block %d: %w", i, err)
	}
	return frame{h: h, data: data}, nil
}

func fill[T guppi.Sample](shape guppi.Shape, rng *rand.Rand, lo, hi int64) *guppi.Block[T] {
	b := guppi.NewBlock[T](shape)
	span := hi - lo + 1
	for i := range b.Data {
		b.Data[i] = guppi.Complex[T]{Re: T(lo + rng.Int64N(span)), Im: T(lo + rng.Int64N(span))}
	}
	return b
}
