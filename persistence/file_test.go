package persistence

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/outofforest/clist"
	"github.com/outofforest/clist/pkg/synth"
)

func newBackend(t *testing.T) (*Backend, string) {
	dir := t.TempDir()
	return NewBackend(Config{Dir: dir}), dir
}

func newScratch(t *testing.T, b *Backend) *File {
	f, err := b.OpenFile("", clist.ModeWrite)
	require.NoError(t, err)
	return f
}

func write(t *testing.T, f clist.File, data []byte) {
	n, err := f.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
}

func readAll(t *testing.T, f clist.File) []byte {
	_, err := f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return data
}

func TestRoundTrip(t *testing.T) {
	requireT := require.New(t)

	b, dir := newBackend(t)
	f := newScratch(t, b)
	requireT.Equal(clist.NameMarker, f.Name()[0])
	requireT.Equal(1, b.Files())

	entries, err := os.ReadDir(dir)
	requireT.NoError(err)
	requireT.Len(entries, 1)
	requireT.True(strings.HasPrefix(entries[0].Name(), ScratchPrefix))

	data := synth.Generate(1, 200_000)
	for chunk := range 200 {
		write(t, f, data[chunk*1000:(chunk+1)*1000])
	}
	requireT.Equal(int64(len(data)), f.Tell())
	requireT.Equal(data, readAll(t, f))

	n, err := f.Read(make([]byte, 1))
	requireT.Zero(n)
	requireT.ErrorIs(err, io.EOF)

	requireT.NoError(f.Reserve(1 << 30))
	requireT.NoError(f.Err())

	requireT.NoError(f.Close(true))
	requireT.Zero(b.Files())
	entries, err = os.ReadDir(dir)
	requireT.NoError(err)
	requireT.Empty(entries)
}

func TestSharedHandles(t *testing.T) {
	requireT := require.New(t)

	b, _ := newBackend(t)
	f1 := newScratch(t, b)
	data := synth.Generate(2, 100_000)
	write(t, f1, data)

	f2, err := b.OpenFile(f1.Name(), clist.ModeRead)
	requireT.NoError(err)
	requireT.Equal(f1.Name(), f2.Name())
	requireT.Zero(f2.Tell())

	_, err = f2.Seek(50_000, io.SeekStart)
	requireT.NoError(err)
	buf := make([]byte, 10_000)
	_, err = io.ReadFull(f2, buf)
	requireT.NoError(err)
	requireT.Equal(data[50_000:60_000], buf)
	requireT.Equal(int64(len(data)), f1.Tell())

	requireT.True(errors.Is(f2.Close(true), clist.ErrIO))
	requireT.True(errors.Is(f1.Rewind(true), clist.ErrIO))
	requireT.True(errors.Is(b.Unlink(f1.Name()), clist.ErrIO))

	requireT.NoError(f2.Close(false))
	requireT.True(errors.Is(f2.Close(false), clist.ErrIO))
	_, err = f2.Read(buf)
	requireT.True(errors.Is(err, clist.ErrIO))

	requireT.NoError(f1.Close(true))
	requireT.Zero(b.Files())
}

func TestReaderSeesAppendedData(t *testing.T) {
	requireT := require.New(t)

	b, _ := newBackend(t)
	w := newScratch(t, b)
	data := synth.Generate(3, 100)
	write(t, w, data[:10])

	r, err := b.OpenFile(w.Name(), clist.ModeRead)
	requireT.NoError(err)
	buf := make([]byte, 10)
	_, err = io.ReadFull(r, buf)
	requireT.NoError(err)
	requireT.Equal(data[:10], buf)

	write(t, w, data[10:])
	rest, err := io.ReadAll(r)
	requireT.NoError(err)
	requireT.Equal(data[10:], rest)
}

func TestReaderSeesOverwrittenData(t *testing.T) {
	requireT := require.New(t)

	b, _ := newBackend(t)
	w := newScratch(t, b)
	write(t, w, []byte("AAAAAAAAAA"))

	r, err := b.OpenFile(w.Name(), clist.ModeRead)
	requireT.NoError(err)
	requireT.Equal([]byte("AAAAAAAAAA"), readAll(t, r))

	requireT.NoError(w.Rewind(false))
	write(t, w, []byte("BBBBBBBBBB"))
	requireT.Equal([]byte("BBBBBBBBBB"), readAll(t, r))

	_, err = w.Seek(4, io.SeekStart)
	requireT.NoError(err)
	write(t, w, []byte("CC"))
	requireT.Equal([]byte("BBBBCC"), readAll(t, r))
}

func TestAppendReopen(t *testing.T) {
	requireT := require.New(t)

	b, _ := newBackend(t)
	f := newScratch(t, b)
	write(t, f, []byte("hello world"))
	name := f.Name()
	requireT.NoError(f.Close(false))

	f, err := b.OpenFile(name, clist.ModeAppend)
	requireT.NoError(err)
	requireT.Equal(int64(11), f.Tell())
	write(t, f, []byte("!"))
	requireT.Equal([]byte("hello world!"), readAll(t, f))

	r, err := b.OpenFile(name, clist.ModeRead)
	requireT.NoError(err)
	requireT.Zero(r.Tell())
	requireT.Equal([]byte("hello world!"), readAll(t, r))

	requireT.NoError(r.Close(false))
	requireT.NoError(f.Close(true))
	requireT.Zero(b.Files())
}

func TestWriteTruncates(t *testing.T) {
	requireT := require.New(t)

	b, _ := newBackend(t)
	f := newScratch(t, b)
	write(t, f, []byte("0123456789"))
	requireT.Equal([]byte("0123456789"), readAll(t, f))

	_, err := f.Seek(3, io.SeekStart)
	requireT.NoError(err)
	write(t, f, []byte("ab"))

	pos, err := f.Seek(0, io.SeekEnd)
	requireT.NoError(err)
	requireT.Equal(int64(5), pos)
	requireT.Equal([]byte("012ab"), readAll(t, f))

	_, err = f.Seek(6, io.SeekStart)
	requireT.True(errors.Is(err, clist.ErrIO))
	requireT.Equal(int64(5), f.Tell())
}

func TestRewind(t *testing.T) {
	requireT := require.New(t)

	b, _ := newBackend(t)
	f := newScratch(t, b)
	write(t, f, synth.Generate(4, 5000))

	requireT.NoError(f.Rewind(false))
	requireT.Zero(f.Tell())
	requireT.Len(readAll(t, f), 5000)

	requireT.NoError(f.Rewind(true))
	requireT.Zero(f.Tell())
	requireT.Empty(readAll(t, f))

	data := synth.Generate(5, 100)
	write(t, f, data)
	requireT.Equal(data, readAll(t, f))
}

func TestIdleScratchFile(t *testing.T) {
	requireT := require.New(t)

	b, _ := newBackend(t)
	f := newScratch(t, b)
	data := synth.Generate(6, 3000)
	write(t, f, data)
	name := f.Name()
	requireT.NoError(f.Close(false))
	requireT.Equal(1, b.Files())

	f2, err := b.Open(name, clist.ModeRead)
	requireT.NoError(err)
	requireT.Equal(data, readAll(t, f2))
	requireT.NoError(f2.Close(false))

	requireT.NoError(b.Unlink(name))
	requireT.Zero(b.Files())
	requireT.True(errors.Is(b.Unlink(name), clist.ErrIO))

	_, err = b.Open(name, clist.ModeRead)
	requireT.True(errors.Is(err, clist.ErrIO))
}

func TestInvalidOpen(t *testing.T) {
	requireT := require.New(t)

	b, dir := newBackend(t)

	_, err := b.Open("", clist.ModeRead)
	requireT.True(errors.Is(err, clist.ErrIO))

	_, err = b.Open(clist.EncodeName(99), clist.ModeRead)
	requireT.True(errors.Is(err, clist.ErrIO))

	_, err = b.Open(filepath.Join(dir, "missing"), clist.ModeRead)
	requireT.True(errors.Is(err, clist.ErrIO))

	requireT.True(errors.Is(b.Unlink(filepath.Join(dir, "missing")), clist.ErrIO))
}

func TestPlainPath(t *testing.T) {
	requireT := require.New(t)

	b, dir := newBackend(t)
	path := filepath.Join(dir, "band.list")

	f, err := b.Open(path, clist.ModeWrite)
	requireT.NoError(err)
	requireT.Equal(path, f.Name())
	data := synth.Generate(7, 70_000)
	write(t, f, data[:40_000])
	requireT.NoError(f.Close(false))

	f, err = b.Open(path, clist.ModeAppend)
	requireT.NoError(err)
	requireT.Equal(int64(40_000), f.Tell())
	write(t, f, data[40_000:])
	requireT.NoError(f.Close(false))

	f, err = b.Open(path, clist.ModeRead)
	requireT.NoError(err)
	requireT.Equal(data, readAll(t, f))
	requireT.NoError(f.Close(false))

	requireT.NoError(b.Unlink(path))
	_, err = os.Stat(path)
	requireT.True(os.IsNotExist(err))
}
