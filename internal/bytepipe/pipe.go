// Package bytepipe implements the single suspension point of the parser: a
// bounded byte queue between a producer (the byte source) and a consumer
// (the parse state machine).
//
// The producer appends fixed-size blocks; the consumer peeks ("examines")
// as many bytes as a parse stage needs without blocking, and separately
// reports how many of those examined bytes it has actually consumed so the
// pipe can drop them. The producer suspends when the unconsumed backlog
// exceeds the configured capacity (backpressure); the consumer suspends
// only by explicitly calling AwaitMore — a stage itself never blocks, it
// just reports that it ran out of data.
package bytepipe

import (
	"context"
	"sync"
)

// Pipe is a single-producer/single-consumer byte queue with backpressure.
// It is not safe for multiple concurrent producers or multiple concurrent
// consumers — one logical parse runs exactly two cooperating tasks.
type Pipe struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond

	buf      []byte // bytes at buf[start:] are unconsumed; buf[:start] is a dead prefix awaiting compaction
	start    int
	examined int // bytes past start already looked at via TryRead/TryReadUpTo
	capacity int // backpressure threshold, in bytes of unconsumed backlog

	closed   bool
	closeErr error // nil on clean completion
}

// New creates a Pipe with the given backpressure capacity; callers
// typically size capacity as a multiple of the source's block size.
func New(capacity int) *Pipe {
	p := &Pipe{capacity: capacity}
	p.notEmpty = sync.NewCond(&p.mu)
	p.notFull = sync.NewCond(&p.mu)
	return p
}

// Write appends a producer-supplied chunk to the pipe, blocking while the
// unconsumed backlog is at or above capacity. It returns an error only if
// the pipe has already been closed (the consumer stopped reading).
func (p *Pipe) Write(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.buf)-p.start >= p.capacity && !p.closed {
		p.notFull.Wait()
	}
	if p.closed {
		return p.closeErr
	}

	p.buf = append(p.buf, chunk...)
	p.notEmpty.Broadcast()
	return nil
}

// CloseWithError signals that the producer is done: err == nil means clean
// completion, any other value is a producer-side failure. Close is
// idempotent; only the first call's error is retained.
func (p *Pipe) CloseWithError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	p.closeErr = err
	p.notEmpty.Broadcast()
	p.notFull.Broadcast()
}

// TryRead returns the first n unconsumed bytes without blocking and without
// consuming them (the "examined" position advances to n; a later Advance
// drops consumed bytes from the front). ok is false if fewer than n bytes
// are currently buffered — the caller must then call AwaitMore and retry.
//
// The returned slice aliases the pipe's internal buffer and is only valid
// until the next Write/Advance call; callers that need to retain bytes
// (e.g. into an arena block) must copy them out before returning.
func (p *Pipe) TryRead(n int) (data []byte, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.buf)-p.start < n {
		if n > p.examined {
			p.examined = n
		}
		return nil, false
	}
	if n > p.examined {
		p.examined = n
	}
	return p.buf[p.start : p.start+n], true
}

// TryReadUpTo returns between 1 and max currently-buffered bytes without
// blocking, consuming none of them. n is 0 (data nil) only when the pipe is
// currently empty. Unlike TryRead, this never waits for a full max bytes —
// it is the greedy partial-copy primitive the value stage uses to drain
// whatever has arrived so far.
func (p *Pipe) TryReadUpTo(max int) (data []byte, n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	backlog := len(p.buf) - p.start
	if max <= 0 || backlog == 0 {
		return nil, 0
	}
	n = max
	if n > backlog {
		n = backlog
	}
	if n > p.examined {
		p.examined = n
	}
	return p.buf[p.start : p.start+n], n
}

// compactThreshold bounds how large the dead prefix (bytes already dropped
// by Advance but not yet reclaimed) is allowed to grow before Advance pays
// the cost of sliding the remaining backlog down to the front of buf. This
// keeps most Advance calls O(1) — a pure cursor bump — instead of copying
// the whole backlog on every call.
const compactThreshold = 64 << 10

// Advance drops the first n bytes from the pipe's unconsumed backlog. This
// is normally just a cursor bump; the backing array is only compacted once
// the accumulated dead prefix exceeds compactThreshold, so repeated small
// Advance calls over a large buffer stay linear rather than quadratic.
// Calling Advance allows a blocked Write to proceed once the backlog falls
// back below capacity.
func (p *Pipe) Advance(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n <= 0 {
		return
	}
	backlog := len(p.buf) - p.start
	if n > backlog {
		n = backlog
	}
	p.start += n
	if p.examined > n {
		p.examined -= n
	} else {
		p.examined = 0
	}
	if p.start >= compactThreshold {
		p.buf = append(p.buf[:0], p.buf[p.start:]...)
		p.start = 0
	}
	p.notFull.Broadcast()
}

// AwaitMore blocks until either more bytes become available, the pipe is
// closed, or ctx is cancelled. It returns ctx.Err() on cancellation,
// otherwise nil (including when woken by a close with no further data —
// the caller distinguishes "no more data" from "more data" by retrying its
// TryRead). This is the parser's sole suspension point.
func (p *Pipe) AwaitMore(ctx context.Context) error {
	if ctx != nil {
		stop := context.AfterFunc(ctx, func() {
			p.mu.Lock()
			p.notEmpty.Broadcast()
			p.mu.Unlock()
		})
		defer stop()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	before := len(p.buf) - p.start
	for len(p.buf)-p.start == before && !p.closed {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		p.notEmpty.Wait()
	}
	if ctx != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
	return nil
}

// Closed reports whether the producer has signalled completion.
func (p *Pipe) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Err returns the producer's completion error (nil on clean completion,
// undefined before Closed() is true).
func (p *Pipe) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeErr
}

// Buffered returns the number of currently unconsumed bytes, for tests and
// diagnostics.
func (p *Pipe) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buf) - p.start
}
