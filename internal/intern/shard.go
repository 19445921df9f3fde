package intern

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

const (
	// log2ShardCount is the number of low hash bits consumed by shard selection.
	log2ShardCount = 5
	// ShardCount is the fixed number of independently locked shards.
	ShardCount = 1 << log2ShardCount
	// initialShardCapacity is the minimum bucket count of a shard.
	initialShardCapacity = 8
	// loadFactor is the live-entries-per-bucket ratio above which a shard grows.
	loadFactor = 2
)

// shardIndex selects a shard from the low-order hash bits.
func shardIndex(hash uint32) int {
	return int(hash & (ShardCount - 1))
}

// bucketIndex selects a bucket from the hash bits above those used by
// shardIndex. capacity is always a power of two.
func bucketIndex(hash uint32, capacity int) int {
	return int((hash >> log2ShardCount) & uint32(capacity-1))
}

// shard is one independently locked partition of the table.
//
// Entries live in an arena (slots) addressed by stable int32 index; every
// bucket holds the index of its chain head and each entry links to the next
// index. Freed arena slots are recycled through free, but an entry object is
// never reused: a recycled slot always receives a fresh entry.
type shard struct {
	table *Table

	mu      sync.Mutex
	buckets []int32  // chain heads; nil once the table is shut down
	slots   []*entry // arena
	free    []int32  // recyclable arena indices
	count   int      // live entries reachable from buckets

	hits     atomic.Uint64
	misses   atomic.Uint64
	growths  atomic.Uint64
	removals atomic.Uint64

	index int

	_ cpu.CacheLinePad
}

func newBuckets(capacity int) []int32 {
	b := make([]int32, capacity)
	for i := range b {
		b[i] = nilSlot
	}
	return b
}

func (s *shard) init(t *Table, index, capacity int) {
	s.table = t
	s.index = index
	s.buckets = newBuckets(capacity)
}

// findLocked scans bucket idx for a live entry with the given hash and
// content and takes a reference on it. Hash equality alone is not a match.
func (s *shard) findLocked(idx int, hash uint32, b []byte) *entry {
	for i := s.buckets[idx]; i != nilSlot; i = s.slots[i].next {
		e := s.slots[i]
		if e.hash != hash || !bytes.Equal(e.data, b) {
			continue
		}
		if e.tryRef() {
			return e
		}
	}
	return nil
}

// insertLocked creates an entry for b at the head of bucket idx, growing the
// shard when the load factor is exceeded.
func (s *shard) insertLocked(idx int, hash uint32, b []byte) *entry {
	e := newEntry(s, hash, b, s.buckets[idx])
	e.slot = s.allocLocked(e)
	s.buckets[idx] = e.slot
	s.count++

	if s.count > loadFactor*len(s.buckets) {
		s.growLocked()
	}
	return e
}

func (s *shard) allocLocked(e *entry) int32 {
	if n := len(s.free); n > 0 {
		slot := s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[slot] = e
		return slot
	}
	s.slots = append(s.slots, e)
	return int32(len(s.slots) - 1)
}

// growLocked doubles the bucket array and relinks every entry into it.
// Entries keep their arena slot and payload; only chain links change.
func (s *shard) growLocked() {
	capacity := len(s.buckets) * 2
	buckets := newBuckets(capacity)

	for _, head := range s.buckets {
		for i := head; i != nilSlot; {
			e := s.slots[i]
			next := e.next
			idx := bucketIndex(e.hash, capacity)
			e.next = buckets[idx]
			buckets[idx] = i
			i = next
		}
	}

	s.buckets = buckets
	s.growths.Add(1)
	s.table.log.Debug().
		Int("shard", s.index).
		Int("count", s.count).
		Int("capacity", capacity).
		Msg("grew intern shard")
}

// removeLocked unlinks e by identity. Failing to find it means the entry was
// already removed or never belonged here.
func (s *shard) removeLocked(e *entry) error {
	idx := bucketIndex(e.hash, len(s.buckets))
	prev := nilSlot
	for i := s.buckets[idx]; i != nilSlot; i = s.slots[i].next {
		if s.slots[i] != e {
			prev = i
			continue
		}
		if prev == nilSlot {
			s.buckets[idx] = e.next
		} else {
			s.slots[prev].next = e.next
		}
		s.slots[i] = nil
		s.free = append(s.free, i)
		e.next = nilSlot
		s.count--
		return nil
	}
	return fmt.Errorf("%w: entry (hash %#08x, len %d) not found in shard %d bucket %d",
		ErrInvariant, e.hash, len(e.data), s.index, idx)
}

// release drops one reference to e and removes it from the shard when that
// was the last one.
func (s *shard) release(e *entry) {
	n := e.refs.Add(-1)
	if n > 0 {
		return
	}
	if n < 0 {
		s.table.fatal(fmt.Errorf("%w: refcount underflow on entry (hash %#08x) in shard %d",
			ErrInvariant, e.hash, s.index))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Storage of entries leaked past Shutdown is abandoned.
	if s.buckets == nil {
		return
	}
	if err := s.removeLocked(e); err != nil {
		s.table.fatal(err)
	}
	s.removals.Add(1)
}

// leaksLocked walks every bucket chain and returns what is still reachable.
func (s *shard) leaksLocked() []Leak {
	if s.count == 0 {
		return nil
	}
	leaks := make([]Leak, 0, s.count)
	for _, head := range s.buckets {
		for i := head; i != nilSlot; i = s.slots[i].next {
			e := s.slots[i]
			leaks = append(leaks, Leak{
				Shard: s.index,
				Hash:  e.hash,
				Refs:  e.refs.Load(),
				Data:  bytes.Clone(e.data),
			})
		}
	}
	return leaks
}

// closeLocked drops all shard storage.
func (s *shard) closeLocked() {
	s.buckets = nil
	s.slots = nil
	s.free = nil
	s.count = 0
}

func (s *shard) stats() ShardStats {
	s.mu.Lock()
	count, capacity := s.count, len(s.buckets)
	s.mu.Unlock()

	return ShardStats{
		Index:    s.index,
		Count:    count,
		Capacity: capacity,
		Growths:  s.growths.Load(),
		Hits:     s.hits.Load(),
		Misses:   s.misses.Load(),
		Removals: s.removals.Load(),
	}
}
