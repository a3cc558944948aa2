package cache

import "github.com/outofforest/clist/blocks"

const (
	// NoSlot is the null slot index.
	NoSlot = -1

	// NoOwner marks a slot not holding data of any block.
	NoOwner = blocks.NoIndex

	// MinRawSlots is the minimum number of decompression slots of a memory file.
	MinRawSlots = 8

	// MaxRawSlots is the maximum number of decompression slots of a memory file.
	MaxRawSlots = 64

	// BlocksPerRawSlot is the number of logical blocks served by one decompression slot.
	BlocksPerRawSlot = 32
)

// RawSlots returns the number of decompression slots for a stream of nBlocks blocks.
func RawSlots(nBlocks int) int {
	return min(MaxRawSlots, max(nBlocks/BlocksPerRawSlot, MinRawSlots))
}

type slot struct {
	buf   []byte
	owner blocks.Index

	// prev points toward the most recently used slot, next toward the least recently used one.
	prev int
	next int
}
