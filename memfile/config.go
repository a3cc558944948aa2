package memfile

import (
	"log/slog"

	"github.com/pkg/errors"

	"github.com/outofforest/clist"
	"github.com/outofforest/clist/blocks"
	"github.com/outofforest/clist/codec"
)

// Config configures memory files created by the backend.
type Config struct {
	// BlockSize is the size of logical and physical blocks. Must be a power of two.
	BlockSize int

	// CompressionThreshold is the total space of a file after which its blocks are compressed.
	CompressionThreshold int64

	// DisableCompression keeps all the blocks raw regardless of the threshold.
	DisableCompression bool

	// Codec is the name of the codec used to compress blocks.
	Codec string

	// Allocator provides memory for blocks.
	Allocator Allocator

	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.BlockSize == 0 {
		c.BlockSize = blocks.DefaultBlockSize
	}
	if c.CompressionThreshold == 0 {
		c.CompressionThreshold = DefaultCompressionThreshold
	}
	if c.Codec == "" {
		c.Codec = codec.Default
	}
	if c.Allocator == nil {
		c.Allocator = NewHeapAllocator(0)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

func (c Config) validate() error {
	if err := blocks.ValidateBlockSize(c.BlockSize); err != nil {
		return err
	}
	if c.CompressionThreshold < 0 {
		return errors.Wrapf(clist.ErrIO, "negative compression threshold %d", c.CompressionThreshold)
	}
	return nil
}
