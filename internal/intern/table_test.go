package intern

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/interntab/internal/hash"
)

// TestNew tests table construction
func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		tbl := New()
		for i := range tbl.shards {
			assert.Equal(t, i, tbl.shards[i].index)
			assert.Equal(t, initialShardCapacity, shardCapacity(tbl, i))
			assert.Equal(t, 0, shardCount(tbl, i))
		}
		assert.Equal(t, 0, tbl.Len())
	})

	t.Run("forced seed is kept", func(t *testing.T) {
		tbl := New(WithSeed(42))
		assert.Equal(t, uint32(42), tbl.Seed())
	})

	t.Run("initial capacity is normalized", func(t *testing.T) {
		tbl := New(WithInitialCapacity(100))
		assert.Equal(t, 128, shardCapacity(tbl, 0))
	})
}

func TestNormalizeCapacity(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{in: -1, want: 8},
		{in: 0, want: 8},
		{in: 8, want: 8},
		{in: 9, want: 16},
		{in: 16, want: 16},
		{in: 1000, want: 1024},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.in), func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeCapacity(tt.in))
		})
	}
}

func TestIndexBitsAreDisjoint(t *testing.T) {
	h := uint32(0b1010_11111)
	assert.Equal(t, 31, shardIndex(h))
	assert.Equal(t, 0b1010, bucketIndex(h, 16))
	assert.Equal(t, 0b010, bucketIndex(h, 8))
}

// TestInternDeduplicates tests that equal content shares one entry
func TestInternDeduplicates(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{name: "empty", content: []byte{}},
		{name: "nil", content: nil},
		{name: "short", content: []byte("abc")},
		{name: "binary", content: []byte{0x00, 0xff, 0x10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := New(WithSeed(1))

			h1 := tbl.Intern(tt.content)
			assert.Equal(t, len(tt.content), h1.Len())
			assert.Equal(t, int32(1), refs(h1))

			h2 := tbl.Intern(append([]byte(nil), tt.content...))
			assert.True(t, h1 == h2, "same content must yield the same entry")
			assert.True(t, h1.Equal(h2))
			assert.Equal(t, int32(2), refs(h1))
			assert.Equal(t, 1, tbl.Len())

			h1.Drop()
			h2.Drop()
			assert.Equal(t, 0, tbl.Len())
		})
	}
}

func TestInternCopiesInput(t *testing.T) {
	tbl := New()
	in := []byte("grpc-timeout")
	h := tbl.Intern(in)
	defer h.Drop()

	in[0] = 'X'
	assert.Equal(t, "grpc-timeout", h.String())
}

func TestInternDistinctContent(t *testing.T) {
	tbl := New()
	a := tbl.InternString("content-type")
	b := tbl.InternString("content-length")
	defer a.Drop()
	defer b.Drop()

	assert.False(t, a == b)
	assert.Equal(t, "content-type", a.String())
	assert.Equal(t, "content-length", b.String())
	assert.Equal(t, 2, tbl.Len())
}

// TestInternHashCollisions forces every key onto the same hash so matching
// has to fall back to content comparison.
func TestInternHashCollisions(t *testing.T) {
	constant := func([]byte, uint32) uint32 { return 7 }
	tbl := New(WithHasher(constant))

	handles := make([]Handle, 0, 50)
	for i := 0; i < 50; i++ {
		handles = append(handles, tbl.InternString(fmt.Sprintf("v%d", i)))
	}
	assert.Equal(t, 50, shardCount(tbl, 7))

	for i, h := range handles {
		again := tbl.InternString(fmt.Sprintf("v%d", i))
		assert.True(t, again == h, "collision chain must still match by content")
		assert.Equal(t, fmt.Sprintf("v%d", i), again.String())
		again.Drop()
	}
	for _, h := range handles {
		h.Drop()
	}
	assert.Equal(t, 0, tbl.Len())
}

// TestReclamation tests that the last drop removes the entry and a later
// intern creates a fresh one
func TestReclamation(t *testing.T) {
	tbl := New(WithSeed(9))

	h1 := tbl.InternString("abc")
	h2 := tbl.InternString("abc")
	idx := shardIndex(h1.Hash())
	require.Equal(t, 1, shardCount(tbl, idx))

	h1.Drop()
	assert.Equal(t, int32(1), refs(h2))
	assert.Equal(t, 1, shardCount(tbl, idx))

	found, ok := tbl.Lookup([]byte("abc"))
	require.True(t, ok, "entry must stay findable while referenced")
	found.Drop()

	h2.Drop()
	assert.Equal(t, 0, shardCount(tbl, idx))
	_, ok = tbl.Lookup([]byte("abc"))
	assert.False(t, ok)

	h3 := tbl.InternString("abc")
	defer h3.Drop()
	assert.Equal(t, 1, shardCount(tbl, idx))
	assert.False(t, h3 == h2, "a fully released entry is never resurrected")
	assert.Equal(t, "abc", h3.String())
}

func TestArenaSlotsAreRecycled(t *testing.T) {
	tbl := New(WithSeed(3))
	keys := keysInShard(t, tbl, 0, 5)

	hs := make([]Handle, 0, 5)
	for _, k := range keys[:4] {
		hs = append(hs, tbl.Intern(k))
	}
	s := &tbl.shards[0]
	require.Len(t, s.slots, 4)

	freed := hs[1].e
	hs[1].Drop()
	assert.Len(t, s.free, 1)
	assert.Nil(t, s.slots[freed.slot])

	hs[1] = tbl.Intern(keys[4])
	assert.Len(t, s.free, 0)
	assert.Len(t, s.slots, 4)
	assert.Equal(t, freed.slot, hs[1].e.slot, "freed slot should be reused")
	assert.False(t, hs[1].e == freed, "reused slot holds a fresh entry")

	for _, h := range hs {
		h.Drop()
	}
	assert.Equal(t, 0, shardCount(tbl, 0))
}

// TestShardGrowth tests bucket array doubling under load
func TestShardGrowth(t *testing.T) {
	t.Run("single shard", func(t *testing.T) {
		tbl := New(WithSeed(5))
		keys := keysInShard(t, tbl, 0, 100)

		handles := make([]Handle, len(keys))
		for i, k := range keys {
			handles[i] = tbl.Intern(k)
		}

		// 100 entries at load factor 2: 8 -> 16 -> 32 -> 64.
		assert.Equal(t, 64, shardCapacity(tbl, 0))
		assert.Equal(t, uint64(3), tbl.shards[0].growths.Load())
		assert.Equal(t, 100, shardCount(tbl, 0))

		for i, k := range keys {
			found, ok := tbl.Lookup(k)
			require.True(t, ok, "key %q lost during growth", k)
			assert.True(t, found == handles[i], "growth must preserve entry identity")
			assert.Equal(t, k, found.Bytes())
			found.Drop()
		}
		for _, h := range handles {
			h.Drop()
		}
		assert.Equal(t, 64, shardCapacity(tbl, 0), "capacity never shrinks")
	})

	t.Run("thousand distinct strings", func(t *testing.T) {
		tbl := New()
		handles := make([]Handle, 1000)
		for i := range handles {
			handles[i] = tbl.InternString(fmt.Sprintf("header-%04d", i))
		}

		stats := tbl.Stats()
		assert.Positive(t, stats.Growths)
		assert.Equal(t, 1000, stats.Live)
		for _, ss := range stats.Shards {
			assert.LessOrEqual(t, ss.Count, loadFactor*ss.Capacity)
		}

		for i := range handles {
			found, ok := tbl.Lookup([]byte(fmt.Sprintf("header-%04d", i)))
			require.True(t, ok)
			assert.True(t, found == handles[i])
			found.Drop()
			handles[i].Drop()
		}
		assert.Equal(t, 0, tbl.Len())
	})
}

func TestHashOfIsDeterministicWithForcedSeed(t *testing.T) {
	a := New(WithSeed(42))
	b := New(WithSeed(42))

	want := hash.Murmur3([]byte("abc"), 42)
	assert.Equal(t, want, a.HashOf([]byte("abc")))
	assert.Equal(t, want, a.HashOf([]byte("abc")))
	assert.Equal(t, want, b.HashOf([]byte("abc")))

	h := a.InternString("abc")
	defer h.Drop()
	assert.Equal(t, want, h.Hash())
}

func TestWithHasher(t *testing.T) {
	tbl := New(WithSeed(11), WithHasher(hash.FNV1a))
	assert.Equal(t, hash.FNV1a([]byte("te"), 11), tbl.HashOf([]byte("te")))

	kept := New(WithHasher(nil))
	assert.NotNil(t, kept.hasher)
}

func TestLookupDoesNotCreate(t *testing.T) {
	tbl := New()
	_, ok := tbl.Lookup([]byte("missing"))
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Len())
}

type rawView []byte

func (r rawView) Bytes() []byte { return r }

func TestInternViewAndReintern(t *testing.T) {
	tbl := New(WithSeed(2))

	h := tbl.InternView(rawView("te"))
	defer h.Drop()

	same := tbl.InternView(h)
	assert.True(t, same == h)
	assert.Equal(t, int32(2), refs(h))
	same.Drop()

	again := tbl.Reintern(h)
	assert.True(t, again == h)
	again.Drop()

	other := New(WithSeed(3))
	moved := other.Reintern(h)
	defer moved.Drop()
	assert.False(t, moved == h)
	assert.Equal(t, other.HashOf([]byte("te")), moved.Hash())
	assert.Equal(t, 1, other.Len())

	err := panicErr(func() { tbl.Reintern(Handle{}) })
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestStats(t *testing.T) {
	tbl := New(WithSeed(8))

	a := tbl.InternString("a")
	b := tbl.InternString("a")
	c := tbl.InternString("b")

	stats := tbl.Stats()
	assert.Len(t, stats.Shards, ShardCount)
	assert.Equal(t, uint32(8), stats.Seed)
	assert.Equal(t, 2, stats.Live)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)

	busiest, ok := stats.Busiest()
	require.True(t, ok)
	assert.GreaterOrEqual(t, busiest.Count, 1)

	a.Drop()
	b.Drop()
	c.Drop()
	assert.Equal(t, uint64(2), tbl.Stats().Removals)

	_, ok = TableStats{}.Busiest()
	assert.False(t, ok)
}

func BenchmarkIntern(b *testing.B) {
	tbl := New()
	keys := make([][]byte, 256)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("x-header-%d", i))
	}
	pinned := make([]Handle, len(keys))
	for i, k := range keys {
		pinned[i] = tbl.Intern(k)
	}
	b.Cleanup(func() {
		for _, h := range pinned {
			h.Drop()
		}
	})

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			tbl.Intern(keys[i%len(keys)]).Drop()
			i++
		}
	})
}
