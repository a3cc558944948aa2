package memfile

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/outofforest/clist"
	"github.com/outofforest/clist/codec"
)

var _ clist.Procs = &Backend{}

// Backend creates memory files and keeps the registry of their names.
type Backend struct {
	cfg   Config
	codec codec.Codec

	mu     sync.Mutex
	nextID uint64
	stores map[uint64]*Store
}

// NewBackend creates memory backend.
func NewBackend(cfg Config) (*Backend, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	c, err := codec.ByName(cfg.Codec)
	if err != nil {
		return nil, errors.Wrap(clist.ErrIO, err.Error())
	}

	return &Backend{
		cfg:    cfg,
		codec:  c,
		nextID: 1,
		stores: map[uint64]*Store{},
	}, nil
}

// Open opens the file.
func (b *Backend) Open(name string, mode clist.Mode) (clist.File, error) {
	s, err := b.OpenStore(name, mode)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// OpenStore opens the file. Name produced by Store.Name opened for reading or appending addresses
// an existing file: the file is reused if it is closed, otherwise a reader is attached to it. Reused file
// opened for appending is positioned at its end. Any other request creates a new empty file.
func (b *Backend) OpenStore(name string, mode clist.Mode) (*Store, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id, ok := clist.DecodeName(name); ok && mode != clist.ModeWrite {
		base, exists := b.stores[id]
		if !exists {
			return nil, errors.Wrapf(clist.ErrIO, "file %d does not exist", id)
		}
		if base.fatal != nil {
			return nil, base.fatal
		}
		if !base.open {
			base.open = true
			base.pos = 0
			if mode == clist.ModeAppend {
				base.pos = base.length
			}
			return base, nil
		}
		return base.clone()
	}

	id := b.nextID
	s := newStore(b, id)
	if err := s.resizeReserve(0); err != nil {
		s.releaseReserve()
		return nil, err
	}
	b.nextID++
	b.stores[id] = s
	return s, nil
}

// Unlink deletes the file.
func (b *Backend) Unlink(name string) error {
	id, ok := clist.DecodeName(name)
	if !ok {
		return errors.Wrapf(clist.ErrIO, "invalid file name %q", name)
	}

	b.mu.Lock()
	s, exists := b.stores[id]
	b.mu.Unlock()
	if !exists {
		return errors.Wrapf(clist.ErrIO, "file %d does not exist", id)
	}
	return b.remove(s)
}

// Files returns the number of registered files.
func (b *Backend) Files() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.stores)
}

func (b *Backend) remove(s *Store) error {
	if err := s.destroy(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.stores, s.id)
	return nil
}
