//go:build !cgo

package codec

import (
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

const zstdLevel = 3

type zstdCodec struct{}

func (zstdCodec) Name() string {
	return "zstd"
}

func (zstdCodec) NewEncoder() (Encoder, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(zstdLevel)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &zstdEncoder{enc: enc}, nil
}

func (zstdCodec) NewDecoder() (Decoder, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &zstdDecoder{dec: dec}, nil
}

type zstdEncoder struct {
	enc *zstd.Encoder
}

func (e *zstdEncoder) Encode(dst, src []byte) ([]byte, error) {
	return e.enc.EncodeAll(src, dst), nil
}

func (e *zstdEncoder) Close() error {
	return errors.WithStack(e.enc.Close())
}

type zstdDecoder struct {
	dec *zstd.Decoder
}

func (d *zstdDecoder) Decode(dst, src []byte) error {
	result, err := d.dec.DecodeAll(src, dst[:0])
	if err != nil {
		return errors.WithStack(err)
	}
	if err := checkSize("zstd", len(dst), len(result)); err != nil {
		return err
	}
	// DecodeAll reallocates if the frame turns out bigger than the capacity.
	if len(dst) > 0 && &result[0] != &dst[0] {
		copy(dst, result)
	}
	return nil
}

func (d *zstdDecoder) Close() error {
	d.dec.Close()
	return nil
}
