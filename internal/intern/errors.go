package intern

import "errors"

var (
	// ErrClosed is the panic value for interning into a table after Shutdown.
	ErrClosed = errors.New("intern table is shut down")

	// ErrAlreadyInitialized is returned by Init when the process-wide table exists.
	ErrAlreadyInitialized = errors.New("intern table already initialized")

	// ErrNotInitialized is returned (or panicked) when the process-wide table is
	// used before Init or after Shutdown.
	ErrNotInitialized = errors.New("intern table not initialized")

	// ErrInvariant wraps every internal lifecycle violation: a refcount
	// underflow, a duplicate of a released handle, or an entry missing from its
	// bucket at unlink time. These always indicate a caller bug such as a double
	// drop and are never recovered from inside the package.
	ErrInvariant = errors.New("intern table invariant violated")
)
