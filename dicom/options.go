package dicom

import "github.com/codeninja55/dcmflow/internal/arena"

// Config holds the tunable pool-sizing and I/O defaults for a parse.
type Config struct {
	BlockSize           int
	BumpBlockSize       int
	LargeValueThreshold int
	MaxLargeBlockSize   int
	PipeCapacity        int

	customPools bool
}

func defaultConfig() Config {
	return Config{
		BlockSize:           1 << 20,  // 1 MiB source block
		BumpBlockSize:       16 << 10, // 16 KiB bump block
		LargeValueThreshold: 1 << 20,  // 1 MiB small/large split
		MaxLargeBlockSize:   25 << 20, // 25 MiB max large block
		PipeCapacity:        4 << 20,  // 4 MiB backpressure threshold
	}
}

// Option configures a Parse/ParseFile call.
type Option func(*Config)

// WithBlockSize sets the byte-source read block size (default 1 MiB).
func WithBlockSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.BlockSize = n
		}
	}
}

// WithBumpBlockSize sets the short-value bump arena block size (default 16 KiB).
func WithBumpBlockSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.BumpBlockSize = n
			c.customPools = true
		}
	}
}

// WithLargeValueThreshold sets the length at which a long value is rented
// from the large pool instead of the small pool (default 1 MiB).
func WithLargeValueThreshold(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.LargeValueThreshold = n
			c.customPools = true
		}
	}
}

// WithMaxLargeBlockSize sets the advertised ceiling for a single large block
// (default 25 MiB). This is advisory only: ParseValue still rents blocks
// sized exactly to the value, up to MaxArrayLength.
func WithMaxLargeBlockSize(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxLargeBlockSize = n
			c.customPools = true
		}
	}
}

// WithPipeCapacity sets the pipe's backpressure threshold in bytes (default 4 MiB).
func WithPipeCapacity(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.PipeCapacity = n
		}
	}
}

// Byte-block pools are process-scoped by default so concurrent parses share
// one set of free lists. A call that customizes block sizing gets its own
// private pool set instead of sharing the process-wide one, since per-call
// sizing and process-wide sharing can't both hold for the same pool.
var (
	globalPools      = arena.DefaultPools()
	globalTablePools = arena.DefaultTablePools()
)

func (c Config) pools() *arena.Pools {
	if !c.customPools {
		return globalPools
	}
	p := arena.DefaultPools()
	p.LargeThreshold = c.LargeValueThreshold
	p.BumpBlockSize = c.BumpBlockSize
	p.MaxLargeBlock = c.MaxLargeBlockSize
	return p
}

func (c Config) tablePools() *arena.TablePools {
	return globalTablePools
}
