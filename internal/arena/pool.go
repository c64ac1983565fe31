// Package arena provides the pooled byte blocks that back every value slice
// handed out by a parsed DICOM dataset.
//
// Three kinds of pool are exposed: a small-block pool (bump blocks for
// short values, and whole blocks for sub-threshold long values), a
// large-block pool (long values at or above the configured threshold), and
// a pair of dataset-table pools (root vs. sequence-item datasets). All are
// process-scoped, free-list based, and hard-capped — over-cap returns are
// dropped to the garbage collector rather than retained, so a pathological
// workload cannot grow a pool without bound.
//
// The free lists are built on buffered channels rather than sync.Pool: a
// sync.Pool can be swept by the GC between calls, which is fine for a pure
// allocation cache but wrong here, since this package wants hard caps with
// deterministic drop-to-allocator behaviour once a cap is reached. A
// channel gives a fixed-capacity, concurrency-safe FIFO with exactly that
// semantics.
package arena

// Block is a single pooled byte buffer. Bytes() is valid only between Rent
// and the matching Return; after Return the block is opaque and must not
// be read (Return zeroes it to make stale reads visibly wrong in tests).
type Block struct {
	buf  []byte
	pool *BlockPool
}

// Bytes returns the block's backing slice, with length exactly the size
// requested from Rent.
func (b *Block) Bytes() []byte { return b.buf }

// Cap returns the block's total capacity, which may exceed its current
// length when a larger freed block was reused for a smaller request.
func (b *Block) Cap() int { return cap(b.buf) }

// BlockPool is a fixed-capacity free list of byte blocks.
type BlockPool struct {
	free chan *Block
}

// NewBlockPool creates a pool retaining at most maxRetained returned
// blocks.
func NewBlockPool(maxRetained int) *BlockPool {
	return &BlockPool{free: make(chan *Block, maxRetained)}
}

// Rent returns a block whose Bytes() has length exactly n. It takes the
// next queued returned block and reuses it if its capacity is at least n;
// a queued block that is too small is dropped, and a fresh block is
// allocated. Only that one queued block is examined.
func (p *BlockPool) Rent(n int) *Block {
	select {
	case b := <-p.free:
		if cap(b.buf) >= n {
			b.buf = b.buf[:n]
			return b
		}
		// Too small for this request; let it go and allocate fresh.
	default:
	}
	return &Block{buf: make([]byte, n), pool: p}
}

// Release returns the block to whichever pool rented it. A dataset that
// registers its arena blocks only needs to keep the *Block, not the pool
// that produced it.
func (b *Block) Release() {
	if b != nil && b.pool != nil {
		b.pool.Return(b)
	}
}

// Return releases a block back to its origin pool. Over-cap returns are
// dropped: the block becomes ordinary garbage rather than staying pinned
// on a free list no one will drain. Returning a block rented from a
// different pool, or a nil block, is a no-op.
func (p *BlockPool) Return(b *Block) {
	if b == nil || b.pool != p {
		return
	}
	// Zero up to capacity: bump-block users slice past len(b.buf).
	full := b.buf[:cap(b.buf)]
	for i := range full {
		full[i] = 0
	}
	select {
	case p.free <- b:
	default:
	}
}

// Pools bundles the two byte-block pools used by the value-reading stage
// of the parser.
type Pools struct {
	Small *BlockPool // bump blocks for short values, and sub-threshold long values
	Large *BlockPool // long values at or above LargeThreshold

	LargeThreshold int // length (bytes) at which a long value rents from Large instead of Small
	BumpBlockSize  int // size of a freshly rented bump block for short values
	MaxLargeBlock  int // soft ceiling advertised for a single large block
}

// DefaultPools returns pools with the defaults: 64 small blocks retained,
// 32 large blocks retained, a 25 MiB advertised large-block ceiling (not
// enforced on Rent), 16 KiB bump blocks, 1 MiB large/small threshold.
func DefaultPools() *Pools {
	const (
		smallMaxCap  = 64
		largeMaxCap  = 32
		bumpBlockLen = 16 << 10 // 16 KiB
		largeThresh  = 1 << 20  // 1 MiB
		maxLarge     = 25 << 20 // 25 MiB
	)
	return &Pools{
		Small:          NewBlockPool(smallMaxCap),
		Large:          NewBlockPool(largeMaxCap),
		LargeThreshold: largeThresh,
		BumpBlockSize:  bumpBlockLen,
		MaxLargeBlock:  maxLarge,
	}
}
