package codec

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const blockSize = 16 * 1024

func compressible() []byte {
	b := bytes.Repeat([]byte("fill_rect 10 20 30 40 color=#ff0000;"), blockSize/36+1)
	return b[:blockSize]
}

func random() []byte {
	b := make([]byte, blockSize)
	rand.New(rand.NewSource(1)).Read(b)
	return b
}

func TestByName(t *testing.T) {
	requireT := require.New(t)

	c, err := ByName("")
	requireT.NoError(err)
	requireT.Equal(Default, c.Name())

	for _, name := range Names() {
		c, err := ByName(name)
		requireT.NoError(err)
		requireT.Equal(name, c.Name())
	}

	_, err = ByName("brotli")
	requireT.Error(err)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"flate", "lz4", "s2", "zstd"}, Names())
}

func TestRoundTrip(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			requireT := require.New(t)

			c, err := ByName(name)
			requireT.NoError(err)
			enc, err := c.NewEncoder()
			requireT.NoError(err)
			defer enc.Close()
			dec, err := c.NewDecoder()
			requireT.NoError(err)
			defer dec.Close()

			src := compressible()
			prefix := []byte{0x01, 0x02}

			// Encoder reuse must not leak state between blocks.
			for range 3 {
				out, err := enc.Encode(append([]byte{}, prefix...), src)
				requireT.NoError(err)
				requireT.Equal(prefix, out[:len(prefix)])
				requireT.Less(len(out)-len(prefix), len(src))

				dst := make([]byte, len(src))
				requireT.NoError(dec.Decode(dst, out[len(prefix):]))
				requireT.Equal(src, dst)
			}
		})
	}
}

func TestRandomData(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			requireT := require.New(t)

			c, err := ByName(name)
			requireT.NoError(err)
			enc, err := c.NewEncoder()
			requireT.NoError(err)
			dec, err := c.NewDecoder()
			requireT.NoError(err)

			src := random()
			out, err := enc.Encode(nil, src)
			if errors.Is(err, ErrIncompressible) {
				requireT.Empty(out)
				return
			}
			requireT.NoError(err)

			dst := make([]byte, len(src))
			requireT.NoError(dec.Decode(dst, out))
			requireT.Equal(src, dst)
		})
	}
}

func TestDecodeWrongSize(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			requireT := require.New(t)

			c, err := ByName(name)
			requireT.NoError(err)
			enc, err := c.NewEncoder()
			requireT.NoError(err)
			dec, err := c.NewDecoder()
			requireT.NoError(err)

			src := compressible()
			out, err := enc.Encode(nil, src)
			requireT.NoError(err)

			requireT.Error(dec.Decode(make([]byte, len(src)/2), out))
			requireT.Error(dec.Decode(make([]byte, len(src)), out[:len(out)/2]))
		})
	}
}
