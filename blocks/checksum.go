package blocks

import (
	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"github.com/outofforest/clist"
)

// Hash is the checksum of raw block content.
type Hash uint64

// Checksum computes checksum of bytes.
func Checksum(b []byte) Hash {
	return Hash(xxhash.Sum64(b))
}

// VerifyChecksum verifies that checksum of provided data matches the expected one.
func VerifyChecksum(index Index, p []byte, expectedChecksum Hash) error {
	checksum := Checksum(p)
	if checksum == expectedChecksum {
		return nil
	}
	return errors.Wrapf(clist.ErrIO, "checksum mismatch for block %d, computed: %016x, expected: %016x",
		index, uint64(checksum), uint64(expectedChecksum))
}
