package intern

import (
	"bytes"
	"os"

	"golang.org/x/exp/slices"

	"github.com/dreamware/interntab/internal/dump"
)

// exitProcess terminates the process in strict leak mode.
// It is a variable so tests can intercept the exit.
var exitProcess = os.Exit

// Leak describes an entry still reachable when the table was shut down.
type Leak struct {
	Data  []byte // copy of the content
	Shard int
	Hash  uint32
	Refs  int32 // outstanding references at shutdown
}

// LeakReport lists every leaked entry in shard order.
type LeakReport struct {
	Leaks []Leak
}

// Len returns the number of leaked entries.
func (r LeakReport) Len() int { return len(r.Leaks) }

// Contains reports whether content b was among the leaked entries.
func (r LeakReport) Contains(b []byte) bool {
	return slices.ContainsFunc(r.Leaks, func(l Leak) bool {
		return bytes.Equal(l.Data, b)
	})
}

// PerShard counts leaked entries by shard index.
func (r LeakReport) PerShard() map[int]int {
	counts := make(map[int]int)
	for _, l := range r.Leaks {
		counts[l.Shard]++
	}
	return counts
}

// Shutdown releases all shard storage and reports every entry that is still
// referenced. Each leaking shard logs a summary line and one line per leaked
// entry with a hex and ASCII rendering of its content. With AbortOnLeaks set,
// any leak terminates the process after reporting.
//
// Shutdown must be called once, after every holder that intends to intern has
// finished. Later calls return an empty report. Handles leaked past Shutdown
// may still be dropped; their storage is simply abandoned.
func (t *Table) Shutdown() LeakReport {
	if !t.closed.CompareAndSwap(false, true) {
		t.log.Warn().Msg("intern table shut down twice")
		return LeakReport{}
	}

	var report LeakReport
	for i := range t.shards {
		s := &t.shards[i]

		s.mu.Lock()
		leaks := s.leaksLocked()
		s.closeLocked()
		s.mu.Unlock()

		if len(leaks) == 0 {
			continue
		}
		t.log.Warn().
			Int("shard", s.index).
			Int("count", len(leaks)).
			Msgf("WARNING: %d interned strings were leaked", len(leaks))
		for _, l := range leaks {
			t.log.Warn().
				Int("shard", l.Shard).
				Int32("refs", l.Refs).
				Str("hex", dump.HexOnly(l.Data)).
				Str("ascii", dump.ASCIIOnly(l.Data)).
				Msg("LEAKED: " + dump.Format(l.Data, dump.Hex|dump.ASCII))
		}
		report.Leaks = append(report.Leaks, leaks...)
	}

	if report.Len() > 0 && t.abort {
		t.log.Error().Int("leaks", report.Len()).Msg("aborting on leaked intern entries")
		exitProcess(1)
	}
	return report
}
