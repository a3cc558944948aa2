package blocks_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/clist"
	"github.com/outofforest/clist/blocks"
)

func TestValidateBlockSize(t *testing.T) {
	assertT := assert.New(t)

	assertT.NoError(blocks.ValidateBlockSize(blocks.DefaultBlockSize))
	assertT.NoError(blocks.ValidateBlockSize(blocks.MinBlockSize))
	assertT.NoError(blocks.ValidateBlockSize(blocks.MaxBlockSize))

	for _, size := range []int{0, 512, 3000, 16*1024 + 1, 2 * blocks.MaxBlockSize} {
		err := blocks.ValidateBlockSize(size)
		assertT.True(errors.Is(err, clist.ErrIO), "size: %d", size)
	}
}

func TestCount(t *testing.T) {
	assertT := assert.New(t)

	assertT.Equal(0, blocks.Count(0, 1024))
	assertT.Equal(1, blocks.Count(1, 1024))
	assertT.Equal(1, blocks.Count(1024, 1024))
	assertT.Equal(2, blocks.Count(1025, 1024))
}

func TestVerifyChecksum(t *testing.T) {
	requireT := require.New(t)

	data := []byte("band 3: fill rectangle 10 10 200 40")
	sum := blocks.Checksum(data)
	requireT.NoError(blocks.VerifyChecksum(0, data, sum))

	data[0] ^= 0x01
	err := blocks.VerifyChecksum(0, data, sum)
	requireT.Error(err)
	requireT.True(errors.Is(err, clist.ErrIO))
}
