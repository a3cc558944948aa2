package persistence

import (
	"log/slog"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/outofforest/clist"
	"github.com/outofforest/clist/pkg/filedev"
)

// ScratchPrefix is the name prefix of scratch files.
const ScratchPrefix = "clist_"

var _ clist.Procs = &Backend{}

// Config configures the file backend.
type Config struct {
	// Dir is the directory of scratch files. Empty means the system temporary directory.
	Dir string

	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger
}

// sharedFile is the OS file shared by all the handles opened under its name.
type sharedFile struct {
	id   uint64
	dev  *filedev.FileDev
	path string

	// size is the logical size. Every write truncates it to the end of written data.
	size    int64
	handles int

	// epoch changes whenever bytes already stored in the file are overwritten.
	epoch uint64
}

// Backend keeps command lists in OS files.
type Backend struct {
	dir string
	log *slog.Logger

	mu     sync.Mutex
	nextID uint64
	shared map[uint64]*sharedFile
}

// NewBackend creates file backend.
func NewBackend(cfg Config) *Backend {
	if cfg.Dir == "" {
		cfg.Dir = os.TempDir()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{
		dir:    cfg.Dir,
		log:    cfg.Logger,
		nextID: 1,
		shared: map[uint64]*sharedFile{},
	}
}

// Open opens the file. Empty name creates a scratch file, names produced by File.Name share the open
// scratch file, any other name is a path.
func (b *Backend) Open(name string, mode clist.Mode) (clist.File, error) {
	f, err := b.OpenFile(name, mode)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// OpenFile opens the file.
func (b *Backend) OpenFile(name string, mode clist.Mode) (*File, error) {
	if name == "" {
		if mode == clist.ModeRead {
			return nil, errors.Wrap(clist.ErrIO, "scratch file can't be opened for reading")
		}
		return b.createScratch()
	}

	if id, ok := clist.DecodeName(name); ok {
		b.mu.Lock()
		defer b.mu.Unlock()

		sf, exists := b.shared[id]
		if !exists {
			return nil, errors.Wrapf(clist.ErrIO, "file %d does not exist", id)
		}
		sf.handles++
		f := newFile(b, sf, name)
		if mode == clist.ModeAppend {
			f.pos = sf.size
		}
		return f, nil
	}

	return b.openPath(name, mode)
}

// Unlink deletes the file.
func (b *Backend) Unlink(name string) error {
	id, ok := clist.DecodeName(name)
	if !ok {
		if err := os.Remove(name); err != nil {
			return errors.Wrap(clist.ErrIO, err.Error())
		}
		return nil
	}

	b.mu.Lock()
	sf, exists := b.shared[id]
	b.mu.Unlock()
	if !exists {
		return errors.Wrapf(clist.ErrIO, "file %d does not exist", id)
	}
	if sf.handles > 0 {
		return errors.Wrapf(clist.ErrIO, "file %d has %d handles open", id, sf.handles)
	}
	return b.remove(sf)
}

// Files returns the number of scratch files.
func (b *Backend) Files() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.shared)
}

func (b *Backend) createScratch() (*File, error) {
	osFile, err := os.CreateTemp(b.dir, ScratchPrefix)
	if err != nil {
		return nil, errors.Wrap(clist.ErrIO, err.Error())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	sf := &sharedFile{
		id:      b.nextID,
		dev:     filedev.New(osFile),
		path:    osFile.Name(),
		handles: 1,
	}
	b.nextID++
	b.shared[sf.id] = sf

	b.log.Debug("Scratch file created", "path", sf.path, "id", sf.id)
	return newFile(b, sf, clist.EncodeName(sf.id)), nil
}

func (b *Backend) openPath(path string, mode clist.Mode) (*File, error) {
	var flags int
	switch mode {
	case clist.ModeWrite:
		flags = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	case clist.ModeAppend:
		flags = os.O_RDWR | os.O_CREATE
	default:
		flags = os.O_RDONLY
	}

	osFile, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return nil, errors.Wrap(clist.ErrIO, err.Error())
	}
	sf := &sharedFile{
		dev:     filedev.New(osFile),
		path:    path,
		handles: 1,
	}
	if sf.size, err = sf.dev.Size(); err != nil {
		_ = sf.dev.Close()
		return nil, errors.Wrap(clist.ErrIO, err.Error())
	}

	f := newFile(b, sf, path)
	if mode == clist.ModeAppend {
		f.pos = sf.size
	}
	return f, nil
}

// release is called when a handle of the file is closed.
func (b *Backend) release(sf *sharedFile, deleteData bool) error {
	b.mu.Lock()
	sf.handles--
	scratch := sf.id != 0
	b.mu.Unlock()

	switch {
	case deleteData:
		return b.remove(sf)
	case !scratch && sf.handles == 0:
		return errors.Wrap(sf.dev.Close(), "closing file failed")
	default:
		return nil
	}
}

func (b *Backend) remove(sf *sharedFile) error {
	if sf.id != 0 {
		b.mu.Lock()
		delete(b.shared, sf.id)
		b.mu.Unlock()
	}

	closeErr := sf.dev.Close()
	if err := os.Remove(sf.path); err != nil {
		return errors.Wrap(clist.ErrIO, err.Error())
	}
	if closeErr != nil {
		return errors.Wrap(clist.ErrIO, closeErr.Error())
	}

	b.log.Debug("File removed", "path", sf.path)
	return nil
}
