package intern

import "sync/atomic"

// nilSlot terminates a bucket chain.
const nilSlot int32 = -1

// entry is one interned byte sequence.
//
// data, hash and shard never change after creation and may be read without
// the shard lock by anyone holding a reference. slot and next belong to the
// shard's arena and are only touched under the shard lock. refs is atomic.
type entry struct {
	data  []byte
	shard *shard
	refs  atomic.Int32
	hash  uint32
	slot  int32 // own arena index
	next  int32 // arena index of the next entry in the same bucket
}

func newEntry(s *shard, hash uint32, b []byte, next int32) *entry {
	e := &entry{
		shard: s,
		hash:  hash,
		slot:  nilSlot,
		next:  next,
	}
	if len(b) > 0 {
		e.data = make([]byte, len(b))
		copy(e.data, b)
	}
	e.refs.Store(1)
	return e
}

// tryRef increments refs unless it has already dropped to zero. A zero count
// means the entry is on its way out of the table and must not be resurrected.
func (e *entry) tryRef() bool {
	for {
		n := e.refs.Load()
		if n <= 0 {
			return false
		}
		if e.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}
