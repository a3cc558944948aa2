package memfile

import (
	"github.com/pkg/errors"

	"github.com/outofforest/clist"
	"github.com/outofforest/clist/blocks"
	"github.com/outofforest/clist/cache"
)

const noSlot = cache.NoSlot

// blockData returns raw content of the block.
func (s *Store) blockData(i int) ([]byte, error) {
	lb := &s.logs[i]
	if !lb.compressed {
		return s.st.get(lb.phys).data, nil
	}
	return s.materialize(i)
}

// materialize returns the decompressed copy of the block, decompressing it into the least recently used
// slot on miss.
func (s *Store) materialize(i int) ([]byte, error) {
	lb := &s.logs[i]
	if lb.slot != noSlot {
		s.raw.Touch(lb.slot)
		s.metrics.CacheHits++
		return s.raw.Buffer(lb.slot), nil
	}

	if s.raw == nil {
		if err := s.initRawCache(); err != nil {
			return nil, err
		}
	}
	if s.dec == nil {
		dec, err := s.codec.NewDecoder()
		if err != nil {
			return nil, err
		}
		s.dec = dec
	}

	slot, evicted := s.raw.Victim()
	if evicted != cache.NoOwner {
		s.logs[evicted].slot = noSlot
		s.metrics.Evictions++
	}

	buf := s.raw.Buffer(slot)
	src, err := s.compressedBytes(i)
	if err != nil {
		return nil, err
	}
	if lb.stored {
		if len(src) != len(buf) {
			return nil, errors.Wrapf(clist.ErrFatal, "stored block %d has %d bytes", i, len(src))
		}
		copy(buf, src)
	} else if err := s.dec.Decode(buf, src); err != nil {
		return nil, errors.Wrapf(clist.ErrIO, "decompressing block %d: %s", i, err)
	}
	if err := blocks.VerifyChecksum(blocks.Index(i), buf, lb.sum); err != nil {
		return nil, err
	}

	s.raw.Bind(slot, blocks.Index(i))
	lb.slot = slot
	s.metrics.Decompressions++
	return buf, nil
}

// initRawCache allocates decompression slots. The first slot may come from the reserve, the others are
// allocated only while memory is available.
func (s *Store) initRawCache() error {
	n := cache.RawSlots(int(s.length / int64(s.cfg.BlockSize)))
	buffers := make([][]byte, 0, n)

	var first []byte
	if len(s.res.physical) > 0 {
		first = pop(&s.res.physical)
		s.totalSpace += int64(s.cfg.BlockSize)
	} else {
		var err error
		if first, err = s.allocPhysical(); err != nil {
			return err
		}
	}
	buffers = append(buffers, first)

	for len(buffers) < n {
		b, err := s.cfg.Allocator.Alloc(s.cfg.BlockSize)
		if err != nil {
			break
		}
		s.totalSpace += int64(s.cfg.BlockSize)
		buffers = append(buffers, b)
	}

	raw, err := cache.New(buffers)
	if err != nil {
		return err
	}
	s.raw = raw

	// The reserve no longer needs to cover the cache.
	s.setTargets(s.res.declared)

	s.log.Debug("Raw cache allocated", "slots", len(buffers), "wanted", n)
	return nil
}

// releaseRawCache frees decompression slots and detaches blocks from them.
func (s *Store) releaseRawCache() {
	if s.raw == nil {
		return
	}
	for i := range s.logs {
		s.logs[i].slot = noSlot
	}
	buffers := s.raw.Buffers()
	s.raw = nil
	s.setTargets(s.res.declared)
	for _, b := range buffers {
		s.freePhysical(b)
	}
}
