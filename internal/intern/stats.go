package intern

import "golang.org/x/exp/slices"

// ShardStats is a point-in-time view of one shard.
type ShardStats struct {
	Index    int    `json:"index"`
	Count    int    `json:"count"`    // live entries
	Capacity int    `json:"capacity"` // bucket array length
	Growths  uint64 `json:"growths"`
	Hits     uint64 `json:"hits"`   // interns that matched a live entry
	Misses   uint64 `json:"misses"` // interns that created an entry
	Removals uint64 `json:"removals"`
}

// TableStats aggregates ShardStats across the table.
type TableStats struct {
	Shards   []ShardStats `json:"shards"`
	Live     int          `json:"live"`
	Growths  uint64       `json:"growths"`
	Hits     uint64       `json:"hits"`
	Misses   uint64       `json:"misses"`
	Removals uint64       `json:"removals"`
	Seed     uint32       `json:"seed"`
}

// Stats snapshots every shard. Shards are locked one at a time, so totals are
// not a single atomic cut across the table.
func (t *Table) Stats() TableStats {
	ts := TableStats{
		Shards: make([]ShardStats, 0, ShardCount),
		Seed:   t.seed,
	}
	for i := range t.shards {
		ss := t.shards[i].stats()
		ts.Shards = append(ts.Shards, ss)
		ts.Live += ss.Count
		ts.Growths += ss.Growths
		ts.Hits += ss.Hits
		ts.Misses += ss.Misses
		ts.Removals += ss.Removals
	}
	return ts
}

// Busiest returns the shard with the most live entries.
func (ts TableStats) Busiest() (ShardStats, bool) {
	if len(ts.Shards) == 0 {
		return ShardStats{}, false
	}
	return slices.MaxFunc(ts.Shards, func(a, b ShardStats) int {
		return a.Count - b.Count
	}), true
}
