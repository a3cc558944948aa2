package persistence

import (
	"io"

	"github.com/pkg/errors"

	"github.com/outofforest/clist"
	"github.com/outofforest/clist/blocks"
	"github.com/outofforest/clist/cache"
)

var _ clist.File = &File{}

// File is a handle of the OS file. Every handle keeps its own position and read cache. Cache of
// the handle is dropped once any handle overwrites bytes of the file.
type File struct {
	backend *Backend
	shared  *sharedFile
	name    string

	pos int64

	// cache holds recently read slots of the file, fill is the number of valid bytes in each of them.
	cache      *cache.LRU
	fill       []int
	cacheEpoch uint64

	err    error
	closed bool
}

func newFile(backend *Backend, sf *sharedFile, name string) *File {
	return &File{
		backend: backend,
		shared:  sf,
		name:    name,
	}
}

// Name returns the name under which the file may be reopened.
func (f *File) Name() string {
	return f.name
}

// Write writes data at the current position. The file ends where the written data end.
func (f *File) Write(p []byte) (int, error) {
	if err := f.check(); err != nil {
		return 0, err
	}

	if f.pos < f.shared.size {
		f.shared.epoch++
	}
	n, err := f.shared.dev.WriteAt(p, f.pos)
	f.pos += int64(n)
	f.shared.size = f.pos
	f.cache = nil
	if err != nil {
		return n, f.fail(err)
	}
	return n, nil
}

// Read reads data from the current position.
func (f *File) Read(p []byte) (int, error) {
	if err := f.check(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if f.pos >= f.shared.size {
		return 0, io.EOF
	}
	if f.cache != nil && f.cacheEpoch != f.shared.epoch {
		f.cache = nil
	}
	if f.cache == nil {
		f.initCache()
	}

	var n int
	for n < len(p) && f.pos < f.shared.size {
		slotPos := f.pos &^ (cache.FileSlotSize - 1)
		data, err := f.slot(slotPos)
		if err != nil {
			return n, f.fail(err)
		}

		offset := int(f.pos - slotPos)
		end := min(len(data), int(f.shared.size-slotPos))
		if offset >= end {
			return n, f.fail(errors.Wrapf(clist.ErrIO, "file ends at %d, expected %d", slotPos+int64(len(data)),
				f.shared.size))
		}
		c := copy(p[n:], data[offset:end])
		n += c
		f.pos += int64(c)
	}
	return n, nil
}

// Seek sets the position.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if err := f.check(); err != nil {
		return f.pos, err
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += f.pos
	case io.SeekEnd:
		offset += f.shared.size
	default:
		return f.pos, errors.Wrapf(clist.ErrIO, "invalid whence %d", whence)
	}

	if offset < 0 || offset > f.shared.size {
		return f.pos, errors.Wrapf(clist.ErrIO, "invalid offset %d, size is %d", offset, f.shared.size)
	}
	f.pos = offset
	return offset, nil
}

// Tell returns the current position.
func (f *File) Tell() int64 {
	return f.pos
}

// Rewind moves to the beginning of the file, truncating it if requested.
func (f *File) Rewind(discard bool) error {
	if err := f.check(); err != nil {
		return err
	}
	if discard {
		if f.shared.handles > 1 {
			return errors.Wrapf(clist.ErrIO, "file has %d handles open", f.shared.handles)
		}
		if err := f.shared.dev.Truncate(0); err != nil {
			return f.fail(err)
		}
		f.shared.size = 0
		f.shared.epoch++
		f.cache = nil
	}
	f.pos = 0
	return nil
}

// Reserve does nothing, files don't run out of memory.
func (f *File) Reserve(bytesLeft int64) error {
	return f.check()
}

// Err returns the error recorded by the last failed operation.
func (f *File) Err() error {
	return f.err
}

// Close closes the handle. The file is deleted if deleteData is true, which is possible only
// if no other handle is open.
func (f *File) Close(deleteData bool) error {
	if f.closed {
		return errors.Wrap(clist.ErrIO, "file is already closed")
	}
	if deleteData && f.shared.handles > 1 {
		return errors.Wrapf(clist.ErrIO, "file has %d handles open", f.shared.handles)
	}
	f.closed = true
	f.cache = nil
	return f.backend.release(f.shared, deleteData)
}

func (f *File) check() error {
	if f.closed {
		return errors.Wrap(clist.ErrIO, "file is closed")
	}
	return nil
}

func (f *File) fail(err error) error {
	if !errors.Is(err, clist.ErrIO) {
		err = errors.Wrap(clist.ErrIO, err.Error())
	}
	f.err = err
	return err
}

func (f *File) initCache() {
	buffers := make([][]byte, 0, cache.FileSlots)
	for range cache.FileSlots {
		buffers = append(buffers, make([]byte, cache.FileSlotSize))
	}
	// Slots exist, so it can't fail.
	f.cache, _ = cache.New(buffers)
	f.fill = make([]int, cache.FileSlots)
	f.cacheEpoch = f.shared.epoch
}

// slot returns content of the file starting at slotPos, loading it if it is not cached
// or the file has grown since.
func (f *File) slot(slotPos int64) ([]byte, error) {
	block := blocks.Index(slotPos / cache.FileSlotSize)
	if s, exists := f.cache.Find(block); exists {
		if slotPos+int64(f.fill[s]) >= min(f.shared.size, slotPos+cache.FileSlotSize) {
			f.cache.Touch(s)
			return f.cache.Buffer(s)[:f.fill[s]], nil
		}
		f.cache.Release(s)
	}

	s, _ := f.cache.Victim()
	buf := f.cache.Buffer(s)
	n, err := f.shared.dev.ReadAt(buf, slotPos)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	f.fill[s] = n
	f.cache.Bind(s, block)
	return buf[:n], nil
}
