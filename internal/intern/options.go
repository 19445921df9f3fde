package intern

import (
	"math/bits"

	"github.com/rs/zerolog"

	"github.com/dreamware/interntab/internal/hash"
)

// Config holds the construction-time settings of a Table.
// Use DefaultConfig and the With* options rather than filling it by hand.
type Config struct {
	// Logger receives lifecycle and leak diagnostics. Defaults to zerolog.Nop().
	Logger zerolog.Logger

	// Hasher is the opaque seeded hash. Defaults to hash.Murmur3.
	Hasher hash.Func

	// InitialCapacity is the starting bucket count of every shard. It is
	// rounded up to a power of two and never below 8.
	InitialCapacity int

	// Seed is used only when SeedForced is set; otherwise New derives one from
	// the clock.
	Seed       uint32
	SeedForced bool

	// AbortOnLeaks terminates the process after Shutdown reports any leak.
	AbortOnLeaks bool
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the settings New starts from.
func DefaultConfig() Config {
	return Config{
		Logger:          zerolog.Nop(),
		Hasher:          hash.Murmur3,
		InitialCapacity: initialShardCapacity,
	}
}

// WithSeed forces the hash seed, making hashes reproducible across runs.
// Intended for tests and offline tooling.
func WithSeed(seed uint32) Option {
	return func(c *Config) {
		c.Seed = seed
		c.SeedForced = true
	}
}

// WithHasher replaces the hash function. A nil hasher keeps the default.
func WithHasher(fn hash.Func) Option {
	return func(c *Config) {
		if fn != nil {
			c.Hasher = fn
		}
	}
}

// WithInitialCapacity presizes every shard's bucket array.
func WithInitialCapacity(n int) Option {
	return func(c *Config) {
		c.InitialCapacity = n
	}
}

// WithAbortOnLeaks enables strict leak detection at Shutdown.
func WithAbortOnLeaks(abort bool) Option {
	return func(c *Config) {
		c.AbortOnLeaks = abort
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// normalizeCapacity rounds n up to a power of two no smaller than the
// initial shard capacity.
func normalizeCapacity(n int) int {
	if n <= initialShardCapacity {
		return initialShardCapacity
	}
	return 1 << bits.Len(uint(n-1))
}
