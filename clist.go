package clist

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Mode is the access mode a command list file is opened with.
type Mode string

// Supported modes.
const (
	// ModeWrite creates a fresh file for writing and reading.
	ModeWrite Mode = "w+"

	// ModeRead opens an existing file for reading.
	ModeRead Mode = "r"

	// ModeAppend opens an existing file positioned for further writes.
	ModeAppend Mode = "a"
)

// ParseMode converts C-style mode strings ("w+", "rb", "a", ...) to Mode.
func ParseMode(s string) (Mode, error) {
	s = strings.ReplaceAll(s, "b", "")
	switch s {
	case "w", "w+":
		return ModeWrite, nil
	case "r", "r+":
		return ModeRead, nil
	case "a", "a+":
		return ModeAppend, nil
	default:
		return "", errors.Wrapf(ErrIO, "unsupported mode %q", s)
	}
}

// Procs is the set of operations every command list backend provides.
type Procs interface {
	// Open creates a new file when name is empty, or opens the file addressed by name.
	Open(name string, mode Mode) (File, error)

	// Unlink deletes the file addressed by name.
	Unlink(name string) error
}

// File is an open command list file.
type File interface {
	io.Reader
	io.Writer
	io.Seeker

	// Name returns the name under which the file may be reopened.
	Name() string

	// Close closes the file. If deleteData is true the storage is released as well.
	Close(deleteData bool) error

	// Reserve guarantees that the next bytesLeft bytes written cannot fail for lack of memory.
	Reserve(bytesLeft int64) error

	// Err returns the sticky error recorded by the last failed operation.
	Err() error

	// Tell returns the current position.
	Tell() int64

	// Rewind moves to the beginning of the file. If discard is true the content is dropped.
	Rewind(discard bool) error
}
