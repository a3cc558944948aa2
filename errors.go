package clist

import "github.com/pkg/errors"

// Error kinds shared by all backends. Use errors.Is to classify returned errors.
var (
	// ErrOutOfMemory is returned when a block cannot be allocated and no reserve is available.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrIO is returned for invalid handles and for operations rejected by the file state.
	ErrIO = errors.New("invalid file access")

	// ErrFatal reports a violated internal sizing invariant. It indicates a static configuration bug,
	// must never be retried and should be treated like a failed assertion.
	ErrFatal = errors.New("fatal command list error")
)
