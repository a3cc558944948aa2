//go:build cgo

package codec

import (
	"github.com/DataDog/zstd"
	"github.com/pkg/errors"
)

const zstdLevel = 3

type zstdCodec struct{}

func (zstdCodec) Name() string {
	return "zstd"
}

func (zstdCodec) NewEncoder() (Encoder, error) {
	return &zstdEncoder{}, nil
}

func (zstdCodec) NewDecoder() (Decoder, error) {
	return zstdDecoder{}, nil
}

type zstdEncoder struct {
	scratch []byte
}

func (e *zstdEncoder) Encode(dst, src []byte) ([]byte, error) {
	if bound := zstd.CompressBound(len(src)); cap(e.scratch) < bound {
		e.scratch = make([]byte, bound)
	}
	out, err := zstd.CompressLevel(e.scratch[:cap(e.scratch)], src, zstdLevel)
	if err != nil {
		return dst, errors.WithStack(err)
	}
	return append(dst, out...), nil
}

func (e *zstdEncoder) Close() error {
	e.scratch = nil
	return nil
}

type zstdDecoder struct{}

func (zstdDecoder) Decode(dst, src []byte) error {
	n, err := zstd.DecompressInto(dst, src)
	if err != nil {
		return errors.WithStack(err)
	}
	return checkSize("zstd", len(dst), n)
}

func (zstdDecoder) Close() error {
	return nil
}
