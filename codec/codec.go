package codec

import (
	"sort"

	"github.com/pkg/errors"
)

// Default is the name of the codec used when none is configured.
const Default = "zstd"

// ErrIncompressible is returned by encoders when the block cannot be made smaller.
var ErrIncompressible = errors.New("block is incompressible")

// Codec creates encoders and decoders of one compression algorithm.
type Codec interface {
	Name() string
	NewEncoder() (Encoder, error)
	NewDecoder() (Decoder, error)
}

// Encoder compresses independent blocks.
type Encoder interface {
	// Encode appends the compressed form of src to dst.
	Encode(dst, src []byte) ([]byte, error)
	Close() error
}

// Decoder decompresses independent blocks.
type Decoder interface {
	// Decode fills dst with the decompressed form of src. The decompressed size must be exactly len(dst).
	Decode(dst, src []byte) error
	Close() error
}

var codecs = map[string]Codec{
	zstdCodec{}.Name():  zstdCodec{},
	lz4Codec{}.Name():   lz4Codec{},
	flateCodec{}.Name(): flateCodec{},
	s2Codec{}.Name():    s2Codec{},
}

// ByName returns the codec registered under the name. Empty name selects the default one.
func ByName(name string) (Codec, error) {
	if name == "" {
		name = Default
	}
	c, exists := codecs[name]
	if !exists {
		return nil, errors.Errorf("unknown codec %q", name)
	}
	return c, nil
}

// Names returns names of all the codecs.
func Names() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func checkSize(name string, expected, actual int) error {
	if expected != actual {
		return errors.Errorf("%s: decoded %d bytes, expected %d", name, actual, expected)
	}
	return nil
}
