//go:build !test

package memfile

// DefaultCompressionThreshold is the total space of a file after which its blocks are compressed.
const DefaultCompressionThreshold = 500_000_000
