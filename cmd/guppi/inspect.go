package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/guppi/internal/logger"
	"github.com/samcharles93/guppi/pkg/guppi"
)

type inspectReport struct {
	Stem       string        `json:"stem"`
	Files      []fileReport  `json:"files"`
	Blocks     int           `json:"blocks"`
	Telescope  string        `json:"telescope,omitempty"`
	Variant    string        `json:"variant,omitempty"`
	NBits      int           `json:"nbits,omitempty"`
	BlockShape [4]int        `json:"blockshape"`
	BlockSize  int           `json:"blocksize,omitempty"`
	DataBytes  int64         `json:"data_bytes"`
	Duration   float64       `json:"duration_seconds,omitempty"`
	Antennas   []string      `json:"antennas,omitempty"`
	Entries    []entryReport `json:"entries,omitempty"`
	Cards      []cardReport  `json:"cards,omitempty"`
	Error      string        `json:"error,omitempty"`
}

type fileReport struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

type entryReport struct {
	Index        int    `json:"index"`
	Path         string `json:"path"`
	HeaderOffset int64  `json:"header_offset"`
	DataOffset   int64  `json:"data_offset"`
	PktIdx       *int64 `json:"pktidx,omitempty"`
}

type cardReport struct {
	Key   string `json:"key"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

func inspectCmd() *cli.Command {
	var (
		stem      string
		asJSON    bool
		showCards bool
		limit     int
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Index the headers of a GUPPI RAW stream",
		ArgsUsage: "[stem]",
		Flags: []cli.Flag{
			stemFlag(&stem),
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON", Destination: &asJSON},
			&cli.BoolFlag{Name: "cards", Usage: "print the header cards of the first block", Destination: &showCards},
			&cli.IntFlag{
				Name:        "limit",
				Usage:       "maximum number of blocks to list (0 lists none, -1 lists all)",
				Value:       20,
				Destination: &limit,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			path, err := resolveStem(stem, cmd.Args().Slice(), cfg.DataDir, os.Stdin, os.Stderr)
			if err != nil {
				return err
			}
			r, err := guppi.OpenStem(path, guppi.WithDiagnostics(log.With("stem", path)))
			if err != nil {
				return err
			}
			entries, scanErr := guppi.Scan(r)
			rep, err := buildReport(path, r.Paths(), entries, limit, showCards)
			if err != nil {
				return err
			}
			if scanErr != nil {
				rep.Error = scanErr.Error()
				log.Error("stream ends in a fault", "blocks", len(entries), "error", scanErr)
			}

			w := output(cmd)
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				if err := enc.Encode(rep); err != nil {
					return err
				}
			} else {
				printReport(w, rep)
			}
			return scanErr
		},
	}
}

func buildReport(stem string, paths []string, entries []guppi.Entry, limit int, cards bool) (inspectReport, error) {
	rep := inspectReport{Stem: stem, Blocks: len(entries)}
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return rep, err
		}
		rep.Files = append(rep.Files, fileReport{Path: p, Size: st.Size()})
	}
	if len(entries) == 0 {
		return rep, nil
	}

	first := entries[0].Header
	rep.Telescope = first.Telescope()
	rep.Variant = first.Variant().String()
	rep.NBits = first.NBits()
	rep.BlockShape = first.BlockShape()
	rep.BlockSize = first.BlockSize()
	rep.Antennas = first.Antennas()
	rep.DataBytes = int64(rep.BlockSize) * int64(len(entries))
	if tbin, ok := first.TBin(); ok {
		rep.Duration = tbin * float64(first.BlockShape().Samples()*len(entries))
	}

	for i, e := range entries {
		if limit >= 0 && i >= limit {
			break
		}
		er := entryReport{
			Index:        e.Index,
			Path:         e.Location.Path,
			HeaderOffset: e.Location.Header,
			DataOffset:   e.Location.Data,
		}
		if idx, ok := e.Header.PktIdx(); ok {
			er.PktIdx = &idx
		}
		rep.Entries = append(rep.Entries, er)
	}

	if cards {
		rec := first.Record
		for _, key := range rec.Keys() {
			v, _ := rec.Get(key)
			rep.Cards = append(rep.Cards, cardReport{Key: key, Type: v.Type.String(), Value: v.String()})
		}
	}
	return rep, nil
}

func printReport(w io.Writer, rep inspectReport) {
	fmt.Fprintf(w, "stem:       %s\n", rep.Stem)
	for _, f := range rep.Files {
		fmt.Fprintf(w, "  %-40s %10s\n", filepath.Base(f.Path), humanize.IBytes(uint64(f.Size)))
	}
	fmt.Fprintf(w, "blocks:     %s\n", humanize.Comma(int64(rep.Blocks)))
	if rep.Blocks > 0 {
		fmt.Fprintf(w, "telescope:  %s (%s)\n", rep.Telescope, rep.Variant)
		fmt.Fprintf(w, "nbits:      %d\n", rep.NBits)
		fmt.Fprintf(w, "blockshape: %v\n", guppi.Shape(rep.BlockShape))
		fmt.Fprintf(w, "blocksize:  %s\n", humanize.IBytes(uint64(rep.BlockSize)))
		fmt.Fprintf(w, "data:       %s\n", humanize.IBytes(uint64(rep.DataBytes)))
	}
	if rep.Duration > 0 {
		fmt.Fprintf(w, "duration:   %s\n", time.Duration(rep.Duration*float64(time.Second)))
	}
	if len(rep.Antennas) > 0 {
		fmt.Fprintf(w, "antennas:   %d %v\n", len(rep.Antennas), rep.Antennas)
	}

	if len(rep.Entries) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "INDEX\tFILE\tHEADER\tDATA\tPKTIDX")
		for _, e := range rep.Entries {
			pkt := "-"
			if e.PktIdx != nil {
				pkt = humanize.Comma(*e.PktIdx)
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", e.Index, filepath.Base(e.Path), e.HeaderOffset, e.DataOffset, pkt)
		}
		_ = tw.Flush()
		if n := rep.Blocks - len(rep.Entries); n > 0 {
			fmt.Fprintf(w, "... %s more\n", humanize.Comma(int64(n)))
		}
	}

	if len(rep.Cards) > 0 {
		fmt.Fprintln(w)
		for _, c := range rep.Cards {
			fmt.Fprintf(w, "%-8s= %s\n", c.Key, c.Value)
		}
	}
	if rep.Error != "" {
		fmt.Fprintf(w, "\nerror: %s\n", rep.Error)
	}
}

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}
