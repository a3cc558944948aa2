package synth

import (
	"math/rand"
	"strconv"
)

var ops = []string{"fill_rect", "copy_mono", "copy_color", "tile_rect", "draw_line", "set_color", "begin_image",
	"image_data", "end_image", "set_clip"}

// Generate returns n bytes of a pseudo-random command stream. The same seed always produces the same bytes.
// The stream compresses well, like real band lists do.
func Generate(seed int64, n int) []byte {
	rnd := rand.New(rand.NewSource(seed))
	b := make([]byte, 0, n+64)
	for len(b) < n {
		b = appendRecord(b, rnd)
	}
	return b[:n]
}

func appendRecord(b []byte, rnd *rand.Rand) []byte {
	b = append(b, ops[rnd.Intn(len(ops))]...)
	b = append(b, " band="...)
	b = strconv.AppendInt(b, int64(rnd.Intn(64)), 10)
	b = append(b, " x="...)
	b = strconv.AppendInt(b, int64(rnd.Intn(4096)), 10)
	b = append(b, " y="...)
	b = strconv.AppendInt(b, int64(rnd.Intn(4096)), 10)
	b = append(b, " w="...)
	b = strconv.AppendInt(b, int64(rnd.Intn(512)), 10)
	b = append(b, " h="...)
	b = strconv.AppendInt(b, int64(rnd.Intn(512)), 10)
	b = append(b, " color=#"...)
	b = strconv.AppendUint(b, uint64(rnd.Intn(8))*0x202020, 16)
	return append(b, '\n')
}
