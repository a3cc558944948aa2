package filedev

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

var (
	_ io.ReaderAt = &FileDev{}
	_ io.WriterAt = &FileDev{}
)

// FileDev uses file handle as a device accessed by positional io, so many cursors may share it.
type FileDev struct {
	file *os.File
}

// New returns new filedev.
func New(file *os.File) *FileDev {
	return &FileDev{
		file: file,
	}
}

// ReadAt reads data from the offset. Reading past the end returns io.EOF together with the bytes read.
func (fd *FileDev) ReadAt(p []byte, offset int64) (int, error) {
	n, err := fd.file.ReadAt(p, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, errors.WithStack(err)
	}
	return n, err
}

// WriteAt writes data at the offset.
func (fd *FileDev) WriteAt(p []byte, offset int64) (int, error) {
	n, err := fd.file.WriteAt(p, offset)
	if err != nil {
		return n, errors.WithStack(err)
	}
	return n, nil
}

// Truncate changes the size of the file.
func (fd *FileDev) Truncate(size int64) error {
	return errors.WithStack(fd.file.Truncate(size))
}

// Sync syncs data to the file.
func (fd *FileDev) Sync() error {
	if err := fd.file.Sync(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Size returns the byte size of the file.
func (fd *FileDev) Size() (int64, error) {
	info, err := fd.file.Stat()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return info.Size(), nil
}

// Name returns the path of the file.
func (fd *FileDev) Name() string {
	return fd.file.Name()
}

// Close closes the file.
func (fd *FileDev) Close() error {
	return errors.WithStack(fd.file.Close())
}
