package intern

import (
	"fmt"
	"testing"
)

// panicErr runs fn and returns the error it panicked with, if any.
func panicErr(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("non-error panic: %v", r)
		}
	}()
	fn()
	return nil
}

// keysInShard returns n distinct keys whose hash maps to shard idx.
func keysInShard(t *testing.T, tbl *Table, idx, n int) [][]byte {
	t.Helper()
	keys := make([][]byte, 0, n)
	for i := 0; len(keys) < n; i++ {
		if i > 1_000_000 {
			t.Fatalf("could not find %d keys for shard %d", n, idx)
		}
		k := []byte(fmt.Sprintf("key-%d", i))
		if shardIndex(tbl.HashOf(k)) == idx {
			keys = append(keys, k)
		}
	}
	return keys
}

func shardCount(tbl *Table, idx int) int {
	s := &tbl.shards[idx]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func shardCapacity(tbl *Table, idx int) int {
	s := &tbl.shards[idx]
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

func refs(h Handle) int32 { return h.e.refs.Load() }
