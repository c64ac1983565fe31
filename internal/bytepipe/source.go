package bytepipe

import (
	"io"
	"sync"
)

// Gate lets a consumer tell the producer, once it is known, the exact byte
// offset at which the underlying reader must be swapped for a transformed
// one (e.g. wrapped in a decompressor). It exists because the producer reads
// ahead of the consumer by design (up to the pipe's backpressure capacity):
// a naive mid-stream reader swap could happen after the producer has already
// read past the boundary using the wrong reader. Until Resolve is called the
// producer reads one byte at a time so it can never overshoot the eventual
// boundary; once resolved, it reads the exact remaining gap in a single
// read, swaps readers if a transform was given, and resumes normal
// block-sized reads.
type Gate struct {
	mu        sync.Mutex
	resolved  bool
	offset    int64
	transform func(io.Reader) io.Reader
}

// NewGate creates an unresolved Gate.
func NewGate() *Gate {
	return &Gate{}
}

// Resolve fixes the splice offset and optional reader transform. Only the
// first call has effect.
func (g *Gate) Resolve(offset int64, transform func(io.Reader) io.Reader) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.resolved {
		return
	}
	g.resolved = true
	g.offset = offset
	g.transform = transform
}

func (g *Gate) peek() (offset int64, transform func(io.Reader) io.Reader, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.offset, g.transform, g.resolved
}

// maxUnresolvedBytes bounds the byte-at-a-time phase: if the consumer never
// resolves the gate (e.g. a file missing the element the gate waits on),
// pumping falls back to unsplit normal-speed reads rather than crawling for
// the whole file.
const maxUnresolvedBytes = 4096

// Pump reads r in blockSize chunks and writes each into p, until r returns
// io.EOF or a read error. It always closes p with the terminal error (nil
// on clean EOF), so a blocked consumer is released even on failure.
//
// This is the single producer task. It exposes one "try-read-N-bytes"
// shaped loop rather than separate contiguous/multi-segment code paths:
// every read goes through the same r.Read call, and Write's backpressure
// loop is what throttles a fast producer against a slow consumer.
//
// gate may be nil, in which case Pump always reads blockSize chunks from r
// unmodified.
func Pump(r io.Reader, p *Pipe, blockSize int, gate *Gate) {
	if blockSize <= 0 {
		blockSize = 1 << 20
	}

	cur := r
	var total int64
	resolved := gate == nil
	transformApplied := false
	var boundary int64
	var transform func(io.Reader) io.Reader

	for {
		readSize := blockSize
		if !resolved {
			if off, tr, ok := gate.peek(); ok {
				resolved = true
				boundary = off
				transform = tr
				if boundary > total {
					readSize = int(boundary - total)
				}
			} else if total >= maxUnresolvedBytes {
				resolved = true
			} else {
				readSize = 1
			}
		}
		if resolved && !transformApplied && transform != nil && total >= boundary {
			cur = transform(cur)
			transformApplied = true
		}

		block := make([]byte, readSize)
		n, err := cur.Read(block)
		if n > 0 {
			total += int64(n)
			if werr := p.Write(block[:n]); werr != nil {
				return
			}
			if resolved && !transformApplied && transform != nil && total >= boundary {
				cur = transform(cur)
				transformApplied = true
			}
		}
		if err != nil {
			if err == io.EOF {
				p.CloseWithError(nil)
			} else {
				p.CloseWithError(err)
			}
			return
		}
	}
}
