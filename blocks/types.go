package blocks

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/outofforest/clist"
)

const (
	// DefaultBlockSize is the size of the data unit used by the memory backend.
	DefaultBlockSize = 16 * 1024 // 16 KiB

	// MinBlockSize is the smallest accepted block size.
	MinBlockSize = 1024

	// MaxBlockSize is the largest accepted block size.
	MaxBlockSize = 16 * 1024 * 1024
)

// Index is the position of a block or slot inside its arena.
type Index int

// NoIndex is the null value of Index.
const NoIndex Index = -1

// RawEnd is the data end marker of a physical block holding raw, uncompressed bytes.
const RawEnd = -1

// ValidateBlockSize verifies that size is a power of two within the accepted range.
func ValidateBlockSize(size int) error {
	if size < MinBlockSize || size > MaxBlockSize {
		return errors.Wrapf(clist.ErrIO, "block size %d outside [%d, %d]", size, MinBlockSize, MaxBlockSize)
	}
	if bits.OnesCount(uint(size)) != 1 {
		return errors.Wrapf(clist.ErrIO, "block size %d is not a power of two", size)
	}
	return nil
}

// Count returns the number of blocks of blockSize needed to hold length bytes.
func Count(length int64, blockSize int) int {
	return int((length + int64(blockSize) - 1) / int64(blockSize))
}
