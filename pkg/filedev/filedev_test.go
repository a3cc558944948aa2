package filedev

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newDev(t *testing.T) *FileDev {
	f, err := os.Create(filepath.Join(t.TempDir(), "dev"))
	require.NoError(t, err)
	dev := New(f)
	t.Cleanup(func() {
		_ = dev.Close()
	})
	return dev
}

func TestWriteReadAt(t *testing.T) {
	requireT := require.New(t)

	dev := newDev(t)
	n, err := dev.WriteAt([]byte("abcdef"), 0)
	requireT.NoError(err)
	requireT.Equal(6, n)
	_, err = dev.WriteAt([]byte("XY"), 2)
	requireT.NoError(err)

	buf := make([]byte, 4)
	n, err = dev.ReadAt(buf, 1)
	requireT.NoError(err)
	requireT.Equal(4, n)
	requireT.Equal([]byte("bXYe"), buf)

	size, err := dev.Size()
	requireT.NoError(err)
	requireT.Equal(int64(6), size)
}

func TestReadPastEnd(t *testing.T) {
	requireT := require.New(t)

	dev := newDev(t)
	_, err := dev.WriteAt([]byte("abc"), 0)
	requireT.NoError(err)

	buf := make([]byte, 10)
	n, err := dev.ReadAt(buf, 1)
	requireT.ErrorIs(err, io.EOF)
	requireT.Equal(2, n)
	requireT.Equal([]byte("bc"), buf[:n])
}

func TestTruncate(t *testing.T) {
	requireT := require.New(t)

	dev := newDev(t)
	_, err := dev.WriteAt([]byte("abcdef"), 0)
	requireT.NoError(err)
	requireT.NoError(dev.Truncate(2))
	requireT.NoError(dev.Sync())

	size, err := dev.Size()
	requireT.NoError(err)
	requireT.Equal(int64(2), size)
	requireT.Equal("dev", filepath.Base(dev.Name()))
}
