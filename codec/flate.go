package codec

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

type flateCodec struct{}

func (flateCodec) Name() string {
	return "flate"
}

func (flateCodec) NewEncoder() (Encoder, error) {
	e := &flateEncoder{}
	w, err := flate.NewWriter(&e.buf, flate.DefaultCompression)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.w = w
	return e, nil
}

func (flateCodec) NewDecoder() (Decoder, error) {
	d := &flateDecoder{}
	d.r = flate.NewReader(&d.src)
	return d, nil
}

type flateEncoder struct {
	buf bytes.Buffer
	w   *flate.Writer
}

func (e *flateEncoder) Encode(dst, src []byte) ([]byte, error) {
	e.buf.Reset()
	e.w.Reset(&e.buf)
	if _, err := e.w.Write(src); err != nil {
		return dst, errors.WithStack(err)
	}
	if err := e.w.Close(); err != nil {
		return dst, errors.WithStack(err)
	}
	return append(dst, e.buf.Bytes()...), nil
}

func (e *flateEncoder) Close() error {
	return nil
}

type flateDecoder struct {
	src bytes.Reader
	r   io.ReadCloser
}

func (d *flateDecoder) Decode(dst, src []byte) error {
	d.src.Reset(src)
	if err := d.r.(flate.Resetter).Reset(&d.src, nil); err != nil {
		return errors.WithStack(err)
	}
	n, err := io.ReadFull(d.r, dst)
	if err != nil {
		return errors.Wrapf(err, "flate: decoded %d bytes, expected %d", n, len(dst))
	}
	var extra [1]byte
	if n, err := d.r.Read(extra[:]); n != 0 || !errors.Is(err, io.EOF) {
		return errors.Errorf("flate: decoded more than %d bytes", len(dst))
	}
	return nil
}

func (d *flateDecoder) Close() error {
	return errors.WithStack(d.r.Close())
}
