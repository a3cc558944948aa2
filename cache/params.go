//go:build !test

package cache

const (
	// FileSlots is the number of read slots kept by every file backend handle.
	FileSlots = 3

	// FileSlotSize is the size of a file backend read slot. Must be a power of two.
	FileSlotSize = 32 * 1024
)
