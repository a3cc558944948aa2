package codec

import (
	"github.com/klauspost/compress/s2"
	"github.com/pkg/errors"
)

type s2Codec struct{}

func (s2Codec) Name() string {
	return "s2"
}

func (s2Codec) NewEncoder() (Encoder, error) {
	return &s2Encoder{}, nil
}

func (s2Codec) NewDecoder() (Decoder, error) {
	return s2Decoder{}, nil
}

type s2Encoder struct {
	scratch []byte
}

func (e *s2Encoder) Encode(dst, src []byte) ([]byte, error) {
	bound := s2.MaxEncodedLen(len(src))
	if bound < 0 {
		return dst, errors.Errorf("s2: block of %d bytes is too large", len(src))
	}
	if cap(e.scratch) < bound {
		e.scratch = make([]byte, bound)
	}
	return append(dst, s2.Encode(e.scratch[:bound], src)...), nil
}

func (e *s2Encoder) Close() error {
	e.scratch = nil
	return nil
}

type s2Decoder struct{}

func (s2Decoder) Decode(dst, src []byte) error {
	n, err := s2.DecodedLen(src)
	if err != nil {
		return errors.WithStack(err)
	}
	if err := checkSize("s2", len(dst), n); err != nil {
		return err
	}
	if _, err := s2.Decode(dst, src); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (s2Decoder) Close() error {
	return nil
}
