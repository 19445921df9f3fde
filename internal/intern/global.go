package intern

import "sync"

// The process-wide table. Code that owns a subsystem may create its own Table
// with New instead; these helpers exist for call sites that expect a single
// shared instance.
var (
	globalMu   sync.Mutex
	global     *Table
	forcedSeed uint32
	seedForced bool
)

// ForceSeed fixes the seed used by the next Init. It must be called before
// Init to take effect and is intended for deterministic tests only.
func ForceSeed(seed uint32) {
	globalMu.Lock()
	defer globalMu.Unlock()
	forcedSeed = seed
	seedForced = true
}

// Init creates the process-wide table. A seed set with ForceSeed takes
// precedence over any seed option.
func Init(opts ...Option) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		return ErrAlreadyInitialized
	}
	if seedForced {
		opts = append(opts, WithSeed(forcedSeed))
	}
	global = New(opts...)
	return nil
}

// Default returns the process-wide table, or nil before Init.
func Default() *Table {
	globalMu.Lock()
	defer globalMu.Unlock()
	return global
}

// Shutdown shuts down the process-wide table and forgets it, so Init may be
// called again.
func Shutdown() (LeakReport, error) {
	globalMu.Lock()
	t := global
	global = nil
	globalMu.Unlock()

	if t == nil {
		return LeakReport{}, ErrNotInitialized
	}
	return t.Shutdown(), nil
}

func mustDefault() *Table {
	t := Default()
	if t == nil {
		panic(ErrNotInitialized)
	}
	return t
}

// Intern interns b in the process-wide table.
func Intern(b []byte) Handle { return mustDefault().Intern(b) }

// InternString interns s in the process-wide table.
func InternString(s string) Handle { return mustDefault().InternString(s) }

// InternView interns v in the process-wide table.
func InternView(v View) Handle { return mustDefault().InternView(v) }

// HashOf hashes b with the process-wide table's seed.
func HashOf(b []byte) uint32 { return mustDefault().HashOf(b) }
