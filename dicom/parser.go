package dicom

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/codeninja55/dcmflow/internal/bytepipe"
)

// Parse consumes a DICOM Part 10 byte stream and returns the fully
// materialised root dataset, or a structured error. The returned Dataset
// must be disposed by the caller exactly once; Parse never returns a
// non-nil Dataset alongside a non-nil error.
//
// Parsing runs as two goroutines under one errgroup.Group: a producer that
// pumps r into a backpressured pipe, and the state machine that drains it.
// Cancelling ctx stops both and releases every arena block rented so far.
func Parse(ctx context.Context, r io.Reader, opts ...Option) (*Dataset, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	header := make([]byte, 132)
	n, err := io.ReadFull(r, header)
	if err != nil {
		return nil, newParseError(KindTooSmall, int64(n), "input shorter than the 132-byte preamble and magic")
	}
	if string(header[128:132]) != "DICM" {
		return nil, newParseError(KindBadPreamble, 128, fmt.Sprintf("got %q", header[128:132]))
	}

	pools := cfg.pools()
	tablePools := cfg.tablePools()

	pipe := bytepipe.New(cfg.PipeCapacity)
	gate := bytepipe.NewGate()

	root := newRootDataset(tablePools)
	ps := newParseState(pools, tablePools, gate, root)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bytepipe.Pump(r, pipe, cfg.BlockSize, gate)
		return nil
	})
	g.Go(func() error {
		err := ps.run(gctx, pipe)
		if err != nil {
			// Close the read side so a producer blocked on backpressure
			// sees completion instead of waiting forever.
			pipe.CloseWithError(err)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		// Item datasets still open on the nesting stacks are not yet
		// registered under root; dispose them along with it.
		for _, d := range ps.datasetStack {
			d.Dispose()
		}
		for _, c := range ps.containerStack {
			for _, d := range c.items {
				d.Dispose()
			}
		}
		root.Dispose()
		return nil, err
	}

	root.transferSyntax = TransferSyntax{
		UID:        ps.transferSyntaxUID,
		ExplicitVR: ps.transferSyntaxUID != implicitVRLittleEndianUID,
		ByteOrder:  binary.LittleEndian,
		Deflated:   ps.deflate,
	}
	return root, nil
}

// ParseFile opens path and parses it with Parse, closing the file before
// returning.
func ParseFile(ctx context.Context, path string, opts ...Option) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(ctx, bufio.NewReaderSize(f, 64<<10), opts...)
}
