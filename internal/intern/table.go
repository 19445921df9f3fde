package intern

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/dreamware/interntab/internal/hash"
)

// View is anything that exposes a contiguous byte range. Handle implements it,
// so re-interning a handle and interning raw content share one code path.
type View interface {
	Bytes() []byte
}

// Table is a sharded, deduplicating, reference-counted intern table.
//
// Content is routed to one of ShardCount shards by the low bits of its seeded
// hash; all find-or-create, growth and removal work for that content happens
// under that shard's mutex. Distinct shards never contend.
//
// A Table must be created with New and must not be copied.
type Table struct {
	shards [ShardCount]shard

	hasher hash.Func
	log    zerolog.Logger
	closed atomic.Bool
	seed   uint32
	abort  bool
}

// New allocates a table with every shard empty at its initial capacity.
// Unless a seed is forced with WithSeed, the seed comes from the clock and
// hashes are only stable for the lifetime of this table.
func New(opts ...Option) *Table {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	seed := cfg.Seed
	if !cfg.SeedForced {
		seed = hash.NewSeed()
	}

	t := &Table{
		hasher: cfg.Hasher,
		log:    cfg.Logger,
		seed:   seed,
		abort:  cfg.AbortOnLeaks,
	}

	capacity := normalizeCapacity(cfg.InitialCapacity)
	for i := range t.shards {
		t.shards[i].init(t, i, capacity)
	}

	t.log.Debug().
		Uint32("seed", seed).
		Bool("seed_forced", cfg.SeedForced).
		Int("shards", ShardCount).
		Int("capacity", capacity).
		Msg("intern table initialized")
	return t
}

// Seed returns the hash seed in use.
func (t *Table) Seed() uint32 { return t.seed }

// HashOf returns the hash Intern would use for b, without interning it.
func (t *Table) HashOf(b []byte) uint32 {
	return t.hasher(b, t.seed)
}

// Intern returns a handle to the table's copy of b, creating it if no live
// entry holds the same content. The caller owns one reference and must Drop it.
func (t *Table) Intern(b []byte) Handle {
	return t.findOrCreate(t.HashOf(b), b)
}

// InternString is Intern for string content.
func (t *Table) InternString(s string) Handle {
	return t.Intern([]byte(s))
}

// InternView interns the bytes exposed by v. Handles of this table are
// re-interned with their stored hash.
func (t *Table) InternView(v View) Handle {
	if h, ok := v.(Handle); ok {
		return t.Reintern(h)
	}
	return t.Intern(v.Bytes())
}

// Reintern returns a new reference to the entry holding h's content. When h
// belongs to this table its stored hash is reused; a handle from another
// table is rehashed with this table's seed.
func (t *Table) Reintern(h Handle) Handle {
	if h.e == nil {
		t.fatal(errZeroHandle("reintern"))
	}
	if h.e.shard.table != t {
		return t.Intern(h.e.data)
	}
	return t.findOrCreate(h.e.hash, h.e.data)
}

// Lookup returns a new reference to the live entry holding b, if any. It
// never creates an entry.
func (t *Table) Lookup(b []byte) (Handle, bool) {
	if t.closed.Load() {
		panic(ErrClosed)
	}
	hash := t.HashOf(b)
	s := &t.shards[shardIndex(hash)]

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buckets == nil {
		panic(ErrClosed)
	}
	e := s.findLocked(bucketIndex(hash, len(s.buckets)), hash, b)
	if e == nil {
		return Handle{}, false
	}
	return Handle{e: e}, true
}

func (t *Table) findOrCreate(hash uint32, b []byte) Handle {
	if t.closed.Load() {
		panic(ErrClosed)
	}
	s := &t.shards[shardIndex(hash)]

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buckets == nil {
		panic(ErrClosed)
	}
	idx := bucketIndex(hash, len(s.buckets))
	if e := s.findLocked(idx, hash, b); e != nil {
		s.hits.Add(1)
		return Handle{e: e}
	}
	s.misses.Add(1)
	return Handle{e: s.insertLocked(idx, hash, b)}
}

// Len returns the number of live entries across all shards.
func (t *Table) Len() int {
	n := 0
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		n += s.count
		s.mu.Unlock()
	}
	return n
}

// fatal reports an invariant violation and panics with err.
func (t *Table) fatal(err error) {
	t.log.Error().Err(err).Msg("intern table invariant violated")
	panic(err)
}
