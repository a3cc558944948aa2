//go:build test

package memfile

// DefaultCompressionThreshold is the total space of a file after which its blocks are compressed.
// Test builds compress almost immediately so every read goes through the decompression path.
const DefaultCompressionThreshold = 1024
