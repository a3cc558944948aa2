package codec

import (
	"slices"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

type lz4Codec struct{}

func (lz4Codec) Name() string {
	return "lz4"
}

func (lz4Codec) NewEncoder() (Encoder, error) {
	return &lz4Encoder{}, nil
}

func (lz4Codec) NewDecoder() (Decoder, error) {
	return lz4Decoder{}, nil
}

type lz4Encoder struct {
	c lz4.Compressor
}

func (e *lz4Encoder) Encode(dst, src []byte) ([]byte, error) {
	start := len(dst)
	dst = slices.Grow(dst, lz4.CompressBlockBound(len(src)))
	n, err := e.c.CompressBlock(src, dst[start:cap(dst)])
	if err != nil {
		return dst[:start], errors.WithStack(err)
	}
	// Zero means the block does not compress.
	if n == 0 {
		return dst[:start], ErrIncompressible
	}
	return dst[:start+n], nil
}

func (e *lz4Encoder) Close() error {
	return nil
}

type lz4Decoder struct{}

func (lz4Decoder) Decode(dst, src []byte) error {
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return errors.WithStack(err)
	}
	return checkSize("lz4", len(dst), n)
}

func (lz4Decoder) Close() error {
	return nil
}
