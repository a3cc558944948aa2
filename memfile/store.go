package memfile

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/outofforest/clist"
	"github.com/outofforest/clist/blocks"
	"github.com/outofforest/clist/cache"
	"github.com/outofforest/clist/codec"
)

var _ clist.File = &Store{}

// logBlock is one block-sized span of the stream.
type logBlock struct {
	phys blocks.Index

	// offset and size locate compressed bytes inside the chain, starting at phys.
	offset int
	size   int

	compressed bool
	stored     bool
	sum        blocks.Hash

	// slot is the raw cache slot holding decompressed copy of the block.
	slot int

	// token accounts the memory of the descriptor.
	token []byte
}

// Store is the memory file. It is either the writable base file or a read-only clone of it sharing
// the physical blocks.
type Store struct {
	backend *Backend
	id      uint64
	cfg     Config
	log     *slog.Logger
	codec   codec.Codec

	st   *storage
	logs []logBlock

	pos    int64
	length int64

	compressing bool
	wPhys       blocks.Index
	enc         codec.Encoder
	dec         codec.Decoder
	scratch     []byte
	carry       []byte

	raw        *cache.LRU
	res        reserve
	totalSpace int64

	err       error
	fatal     error
	lowMemory bool

	base    *Store
	readers []*Store

	open     bool
	released bool

	metrics Metrics
}

func newStore(backend *Backend, id uint64) *Store {
	s := &Store{
		backend: backend,
		id:      id,
		cfg:     backend.cfg,
		log:     backend.cfg.Logger.With("file", id),
		codec:   backend.codec,
		st:      &storage{},
		open:    true,
	}
	s.initEmpty()
	return s
}

// Name returns the name under which the file may be reopened.
func (s *Store) Name() string {
	return clist.EncodeName(s.id)
}

// Write appends data to the file. Writing at position 0 discards the content first.
func (s *Store) Write(p []byte) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if s.base != nil {
		return 0, errors.Wrap(clist.ErrIO, "reader is read-only")
	}
	if len(s.readers) > 0 {
		return 0, errors.Wrapf(clist.ErrIO, "file has %d readers attached", len(s.readers))
	}
	if len(p) == 0 {
		return 0, nil
	}
	if s.pos == 0 && s.length > 0 {
		if err := s.discard(); err != nil {
			return 0, s.fail(err)
		}
	}
	if s.pos != s.length {
		return 0, errors.Wrapf(clist.ErrIO, "write at %d, only appending at %d is possible", s.pos, s.length)
	}

	bs := s.cfg.BlockSize
	var n int
	for n < len(p) {
		used := s.tailUsed()
		if used == bs {
			if err := s.nextBlock(); err != nil {
				s.pos = s.length
				s.metrics.BytesWritten += uint64(n)
				return n, s.fail(err)
			}
			used = 0
		}

		data := s.st.get(s.logs[len(s.logs)-1].phys).data
		c := copy(data[used:], p[n:])
		n += c
		s.length += int64(c)
	}
	s.pos = s.length
	s.metrics.BytesWritten += uint64(n)
	return n, nil
}

// Read reads data from the current position.
func (s *Store) Read(p []byte) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if s.pos >= s.length {
		return 0, io.EOF
	}

	bs := int64(s.cfg.BlockSize)
	var n int
	for n < len(p) && s.pos < s.length {
		i := int(s.pos / bs)
		data, err := s.blockData(i)
		if err != nil {
			s.metrics.BytesRead += uint64(n)
			return n, s.fail(err)
		}

		offset := s.pos % bs
		end := min(bs, s.length-int64(i)*bs)
		c := copy(p[n:], data[offset:end])
		n += c
		s.pos += int64(c)
	}
	s.metrics.BytesRead += uint64(n)
	return n, nil
}

// Seek sets the position.
func (s *Store) Seek(offset int64, whence int) (int64, error) {
	if err := s.check(); err != nil {
		return s.pos, err
	}

	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += s.pos
	case io.SeekEnd:
		offset += s.length
	default:
		return s.pos, errors.Wrapf(clist.ErrIO, "invalid whence %d", whence)
	}

	if offset < 0 || offset > s.length {
		return s.pos, errors.Wrapf(clist.ErrIO, "invalid offset %d, length is %d", offset, s.length)
	}
	s.pos = offset
	return offset, nil
}

// Tell returns the current position.
func (s *Store) Tell() int64 {
	return s.pos
}

// Rewind moves to the beginning of the file, discarding the content if requested.
func (s *Store) Rewind(discard bool) error {
	if err := s.check(); err != nil {
		return err
	}
	if !discard {
		s.pos = 0
		return nil
	}
	if s.base != nil {
		return errors.Wrap(clist.ErrIO, "reader can't discard the file")
	}
	if len(s.readers) > 0 {
		return errors.Wrapf(clist.ErrIO, "file has %d readers attached", len(s.readers))
	}
	if err := s.discard(); err != nil {
		return s.fail(err)
	}
	return nil
}

// Reserve guarantees that next bytesLeft bytes may be written even if the allocator fails.
func (s *Store) Reserve(bytesLeft int64) error {
	if err := s.check(); err != nil {
		return err
	}
	if bytesLeft < 0 {
		return errors.Wrapf(clist.ErrIO, "negative reserve %d", bytesLeft)
	}
	if err := s.resizeReserve(bytesLeft); err != nil {
		s.err = err
		return err
	}
	s.err = nil
	s.lowMemory = false
	return nil
}

// Err returns the error recorded by the last failed operation.
func (s *Store) Err() error {
	if s.fatal != nil {
		return s.fatal
	}
	return s.err
}

// LowMemory reports whether blocks were taken from the reserve since the last Reserve call.
func (s *Store) LowMemory() bool {
	return s.lowMemory
}

// Close closes the file. Base file is deleted if deleteData is true, otherwise it stays available
// for reopening by its name.
func (s *Store) Close(deleteData bool) error {
	if s.released {
		return errors.Wrap(clist.ErrIO, "file is already closed")
	}

	if s.base != nil {
		if deleteData {
			return errors.Wrap(clist.ErrIO, "reader can't delete the file")
		}
		s.base.detach(s)
		s.release()
		return nil
	}

	if deleteData {
		return s.backend.remove(s)
	}
	if !s.open {
		return errors.Wrap(clist.ErrIO, "file is already closed")
	}
	s.open = false
	return nil
}

// Length returns the length of the stream.
func (s *Store) Length() int64 {
	return s.length
}

// Compressed reports whether the file stores its blocks compressed.
func (s *Store) Compressed() bool {
	return s.compressing
}

// LogicalBlocks returns the number of logical blocks.
func (s *Store) LogicalBlocks() int {
	return len(s.logs)
}

// PhysicalBlocks returns the number of physical blocks shared by the file and its readers.
func (s *Store) PhysicalBlocks() int {
	return s.st.live
}

// CacheSlots returns the number of decompression slots.
func (s *Store) CacheSlots() int {
	if s.raw == nil {
		return 0
	}
	return s.raw.Len()
}

// CachedBlocks returns logical blocks held decompressed by the raw cache, from the most to the least
// recently used one.
func (s *Store) CachedBlocks() []blocks.Index {
	if s.raw == nil {
		return nil
	}
	var cached []blocks.Index
	for _, slot := range s.raw.Order() {
		if owner := s.raw.Owner(slot); owner != cache.NoOwner {
			cached = append(cached, owner)
		}
	}
	return cached
}

// TotalSpace returns the amount of memory used by the file, excluding the reserve.
func (s *Store) TotalSpace() int64 {
	return s.totalSpace
}

// Metrics returns counters of the file.
func (s *Store) Metrics() Metrics {
	return s.metrics
}

func (s *Store) check() error {
	if s.fatal != nil {
		return s.fatal
	}
	if !s.open || s.released {
		return errors.Wrap(clist.ErrIO, "file is closed")
	}
	return nil
}

// fail records the error. Fatal errors poison the file.
func (s *Store) fail(err error) error {
	if errors.Is(err, clist.ErrFatal) {
		s.fatal = err
	}
	s.err = err
	return err
}

func (s *Store) tailUsed() int {
	if len(s.logs) == 0 {
		return s.cfg.BlockSize
	}
	return int(s.length - int64(len(s.logs)-1)*int64(s.cfg.BlockSize))
}

func (s *Store) initEmpty() {
	s.logs = nil
	s.pos = 0
	s.length = 0
	s.compressing = false
	s.wPhys = blocks.NoIndex
	s.err = nil
	s.lowMemory = false
}

// discard drops the content and rebuilds the reserve declared before.
func (s *Store) discard() error {
	s.releaseRawCache()
	s.freeMem()
	s.initEmpty()
	return s.fillReserve()
}

// freeMem releases all the blocks of the base file. Freed blocks refill the reserve.
func (s *Store) freeMem() {
	for i := range s.logs {
		s.freeLogical(s.logs[i].token)
	}
	s.logs = nil
	for _, b := range s.st.drain() {
		s.freePhysical(b)
	}
}

// release frees structures private to the reader.
func (s *Store) release() {
	s.releaseRawCache()
	for i := range s.logs {
		s.freeLogical(s.logs[i].token)
	}
	s.logs = nil
	s.releaseReserve()
	s.closeCodecs()
	s.open = false
	s.released = true
}

// destroy frees all the memory of the base file.
func (s *Store) destroy() error {
	if len(s.readers) > 0 {
		return errors.Wrapf(clist.ErrIO, "file has %d readers attached", len(s.readers))
	}
	s.releaseRawCache()
	s.freeMem()
	s.releaseReserve()
	s.closeCodecs()
	s.initEmpty()
	s.open = false
	s.released = true
	return nil
}

func (s *Store) closeCodecs() {
	if s.enc != nil {
		if err := s.enc.Close(); err != nil {
			s.log.Warn("Closing encoder failed", "error", err)
		}
		s.enc = nil
	}
	if s.dec != nil {
		if err := s.dec.Close(); err != nil {
			s.log.Warn("Closing decoder failed", "error", err)
		}
		s.dec = nil
	}
}

// clone creates reader sharing physical blocks of the base file.
func (s *Store) clone() (*Store, error) {
	c := &Store{
		backend:     s.backend,
		id:          s.id,
		cfg:         s.cfg,
		log:         s.log.With("reader", len(s.readers)),
		codec:       s.codec,
		st:          s.st,
		logs:        make([]logBlock, 0, len(s.logs)),
		length:      s.length,
		compressing: s.compressing,
		wPhys:       s.wPhys,
		base:        s,
		open:        true,
	}
	for _, lb := range s.logs {
		token, err := c.allocLogical()
		if err != nil {
			c.release()
			return nil, err
		}
		lb.slot = noSlot
		lb.token = token
		c.logs = append(c.logs, lb)
	}

	s.readers = append(s.readers, c)
	return c, nil
}

func (s *Store) detach(reader *Store) {
	for i, r := range s.readers {
		if r == reader {
			s.readers = append(s.readers[:i], s.readers[i+1:]...)
			return
		}
	}
}
