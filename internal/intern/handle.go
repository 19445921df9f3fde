package intern

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dreamware/interntab/internal/dump"
)

// Handle is a counted reference to an interned entry.
//
// Handles are small values; copying one does not add a reference, use Dup for
// that. Every reference obtained from Intern, Lookup, Reintern or Dup must be
// released exactly once with Drop. Two handles are == exactly when they refer
// to the same entry, which while both are live means byte-equal content.
type Handle struct {
	e *entry
}

func errZeroHandle(op string) error {
	return fmt.Errorf("%w: %s of zero handle", ErrInvariant, op)
}

// fatalZeroHandle reports misuse of a zero handle. A zero handle carries no
// table, so the process-wide zerolog logger receives the report.
func fatalZeroHandle(op string) {
	err := errZeroHandle(op)
	log.Error().Err(err).Msg("intern table invariant violated")
	panic(err)
}

// Valid reports whether h refers to an entry.
func (h Handle) Valid() bool { return h.e != nil }

// Len returns the content length.
func (h Handle) Len() int {
	if h.e == nil {
		return 0
	}
	return len(h.e.data)
}

// Bytes returns the interned content. The slice is shared by every holder
// and must not be modified.
func (h Handle) Bytes() []byte {
	if h.e == nil {
		return nil
	}
	return h.e.data
}

// String returns the content as a string.
func (h Handle) String() string {
	return string(h.Bytes())
}

// Hash returns the hash computed when the entry was created.
func (h Handle) Hash() uint32 {
	if h.e == nil {
		return 0
	}
	return h.e.hash
}

// Equal reports whether h and o refer to the same entry.
func (h Handle) Equal(o Handle) bool { return h.e == o.e }

// Dup takes an additional reference to the same entry.
func (h Handle) Dup() Handle {
	if h.e == nil {
		fatalZeroHandle("dup")
	}
	if !h.e.tryRef() {
		h.e.shard.table.fatal(fmt.Errorf("%w: dup of released entry (hash %#08x)", ErrInvariant, h.e.hash))
	}
	return h
}

// Drop releases the reference. When it was the last one the entry is removed
// from its shard and a later Intern of the same content creates a new entry.
func (h Handle) Drop() {
	if h.e == nil {
		fatalZeroHandle("drop")
	}
	h.e.shard.release(h.e)
}

// Dump renders the content for diagnostics.
func (h Handle) Dump(flags dump.Flags) string {
	return dump.Format(h.Bytes(), flags)
}
