// Package intern implements a concurrent, deduplicating, reference-counted
// intern table for immutable byte sequences.
//
// # Overview
//
// Many callers repeatedly produce the same short byte strings: protocol header
// names, metadata keys, well-known values. The intern table lets every caller
// share one stored copy of each distinct sequence. A caller presents bytes and
// receives a Handle to the stored copy; storage is reclaimed the moment the
// last Handle to it is dropped. There is no eviction policy and no iteration:
// an entry lives exactly as long as it is referenced.
//
// # Architecture
//
//	┌──────────────────────────────────────────────┐
//	│                   Table                      │
//	│  seed, hasher, 32 shards (cache-line padded) │
//	└──────────────────────────────────────────────┘
//	          │ hash & 31
//	          ▼
//	┌──────────────────────────────────────────────┐
//	│                   shard                      │
//	│  mutex                                       │
//	│  buckets []int32   (chain heads, pow2 >= 8)  │
//	│  slots   []*entry  (arena, stable indices)   │
//	│  free    []int32   (recycled arena slots)    │
//	└──────────────────────────────────────────────┘
//	          │ (hash >> 5) & (capacity-1)
//	          ▼
//	   bucket → entry → entry → nil
//
// Shard selection uses the low five hash bits and bucket selection the bits
// above them, so shard load and bucket load are not correlated for a given
// hash.
//
// # Intern
//
// Intern hashes the input, locks the owning shard and scans one bucket. An
// entry matches when both its stored hash and its content are equal; a match
// takes a reference with an increment-if-nonzero loop and is returned without
// copying. Otherwise a new entry is created with a private copy of the
// content and a count of one. If the shard now holds more than twice as many
// entries as buckets, the bucket array doubles before the lock is released.
//
// # Drop
//
// Drop decrements atomically. The decrement that observes zero relocks the
// shard and unlinks the entry by identity. Not finding it is an invariant
// violation (typically a double drop) and panics with an error wrapping
// ErrInvariant. A concurrent Intern of the same content never resurrects a
// zero-count entry; it creates a fresh one.
//
// # Lifecycle
//
//	t := intern.New(intern.WithSeed(42))
//	h := t.InternString("content-type")
//	defer h.Drop()
//	...
//	report := t.Shutdown() // logs and returns leaked entries
//
// A process-wide instance is also available through ForceSeed, Init, Intern
// and Shutdown for code that expects one shared table.
//
// # Concurrency and Thread Safety
//
//   - Operations on different shards run fully in parallel
//   - Find-or-create, growth and removal within a shard are serialized by its mutex
//   - Handle content is immutable and read without locking
//   - No operation blocks except on its shard mutex
package intern
