// Package hash provides the seeded 32-bit hash functions used to place interned
// byte sequences into shards and buckets.
//
// The intern table treats the hash as opaque: any Func with good avalanche
// behaviour in both its low bits (shard selection) and its higher bits (bucket
// selection) is acceptable. Murmur3 is the default.
package hash

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/twmb/murmur3"
)

// Func hashes b under seed. Implementations must be pure: the same bytes and
// seed always produce the same value, in this process and across restarts.
type Func func(b []byte, seed uint32) uint32

// Murmur3 is the x86 32-bit MurmurHash3 of b, seeded with seed.
func Murmur3(b []byte, seed uint32) uint32 {
	return murmur3.SeedSum32(seed, b)
}

// FNV1a is a seeded FNV-1a: the seed is folded in as four little-endian bytes
// ahead of the content.
func FNV1a(b []byte, seed uint32) uint32 {
	var s [4]byte
	binary.LittleEndian.PutUint32(s[:], seed)

	h := fnv.New32a()
	h.Write(s[:])
	h.Write(b)
	return h.Sum32()
}

// ByName resolves a hasher by its configuration name.
// Recognised names are "murmur3" and "fnv1a" (case-insensitive); the empty
// string selects Murmur3.
func ByName(name string) (Func, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "murmur3":
		return Murmur3, nil
	case "fnv1a", "fnv":
		return FNV1a, nil
	default:
		return nil, fmt.Errorf("unknown hasher %q", name)
	}
}

// now is the clock NewSeed reads.
var now = time.Now

// NewSeed derives a seed from the low 32 bits of the wall clock in
// nanoseconds.
func NewSeed() uint32 {
	return uint32(now().UnixNano())
}
