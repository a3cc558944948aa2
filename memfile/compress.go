package memfile

import (
	"github.com/pkg/errors"

	"github.com/outofforest/clist"
	"github.com/outofforest/clist/blocks"
	"github.com/outofforest/clist/codec"
)

// nextBlock appends a new tail block. It is called when bytes arrive for a full tail.
func (s *Store) nextBlock() error {
	if !s.compressing && !s.cfg.DisableCompression && len(s.logs) > 0 &&
		s.totalSpace > s.cfg.CompressionThreshold {
		if err := s.compressAll(); err != nil {
			return err
		}
	}

	token, err := s.allocLogical()
	if err != nil {
		return err
	}

	var phys blocks.Index
	if s.compressing {
		tail := len(s.logs) - 1
		phys = s.logs[tail].phys
		if err := s.compressBlock(tail); err != nil {
			s.freeLogical(token)
			return err
		}
	} else {
		data, err := s.allocPhysical()
		if err != nil {
			s.freeLogical(token)
			return err
		}
		phys = s.st.add(data, blocks.RawEnd)
	}

	s.logs = append(s.logs, logBlock{
		phys:  phys,
		slot:  noSlot,
		token: token,
	})
	return nil
}

// compressAll starts the compressed chain and moves all the blocks except the tail into it.
func (s *Store) compressAll() error {
	if s.enc == nil {
		enc, err := s.codec.NewEncoder()
		if err != nil {
			return err
		}
		s.enc = enc
	}

	head, err := s.allocPhysical()
	if err != nil {
		return err
	}
	s.wPhys = s.st.add(head, 0)
	s.compressing = true
	s.metrics.BulkPasses++

	s.log.Debug("Compressing file", "blocks", len(s.logs)-1, "totalSpace", s.totalSpace,
		"threshold", s.cfg.CompressionThreshold)

	for i := range len(s.logs) - 1 {
		raw := s.logs[i].phys
		if err := s.compressBlock(i); err != nil {
			return err
		}
		s.freePhysical(s.st.remove(raw))
	}
	return nil
}

// compressBlock appends compressed form of the raw block to the chain and repoints the logical block to it.
// The raw physical block is left untouched for the caller to release or reuse.
func (s *Store) compressBlock(i int) error {
	lb := &s.logs[i]
	raw := s.st.get(lb.phys).data
	sum := blocks.Checksum(raw)

	stored := false
	out, err := s.enc.Encode(s.scratch[:0], raw)
	switch {
	case errors.Is(err, codec.ErrIncompressible):
		stored = true
	case err != nil:
		return errors.Wrapf(clist.ErrIO, "compressing block %d: %s", i, err)
	case len(out) >= s.cfg.BlockSize:
		stored = true
	}
	if !stored {
		s.scratch = out[:0]
	} else {
		s.log.Warn("Compression didn't, block stored raw", "block", i, "size", len(out))
		out = raw
	}

	if err := s.appendChunk(i, out, stored, sum); err != nil {
		return err
	}

	s.metrics.BlocksCompressed++
	if stored {
		s.metrics.BlocksStored++
	} else {
		s.metrics.BytesEncoded += uint64(len(raw))
		s.metrics.BytesCompressed += uint64(len(out))
	}
	return nil
}

// appendChunk copies compressed bytes of block i to the end of the chain. The chunk may span the current
// chain block and one overflow block. Nothing is modified if the overflow block can't be allocated.
func (s *Store) appendChunk(i int, chunk []byte, stored bool, sum blocks.Hash) error {
	room := s.cfg.BlockSize - s.st.get(s.wPhys).end
	if len(chunk) > room+s.cfg.BlockSize {
		err := errors.Wrapf(clist.ErrFatal, "compressed block %d needs %d bytes, only %d fit into two blocks",
			i, len(chunk), room+s.cfg.BlockSize)
		s.log.Error("Block does not fit into the chain", "block", i, "size", len(chunk), "room", room)
		return err
	}

	overflow := blocks.NoIndex
	if len(chunk) > room {
		data, err := s.allocPhysical()
		if err != nil {
			return err
		}
		overflow = s.st.add(data, 0)
	}

	startPhys := s.wPhys
	startOffset := s.st.get(s.wPhys).end
	if room == 0 {
		startPhys = overflow
		startOffset = 0
	}

	cur := s.st.get(s.wPhys)
	n := copy(cur.data[cur.end:], chunk)
	cur.end += n
	if overflow != blocks.NoIndex {
		cur.next = overflow
		ov := s.st.get(overflow)
		ov.end = copy(ov.data, chunk[n:])
		s.wPhys = overflow
	}

	lb := &s.logs[i]
	lb.phys = startPhys
	lb.offset = startOffset
	lb.size = len(chunk)
	lb.compressed = true
	lb.stored = stored
	lb.sum = sum
	return nil
}

// compressedBytes returns the chunk of a compressed block. Chunks spanning two chain blocks are carried
// into a contiguous scratch buffer.
func (s *Store) compressedBytes(i int) ([]byte, error) {
	lb := &s.logs[i]
	pb := s.st.get(lb.phys)
	if lb.offset+lb.size <= pb.end {
		return pb.data[lb.offset : lb.offset+lb.size], nil
	}

	if pb.next == blocks.NoIndex || pb.end < lb.offset {
		return nil, errors.Wrapf(clist.ErrFatal, "compressed chain broken at block %d", i)
	}
	first := pb.end - lb.offset
	next := s.st.get(pb.next)
	if lb.size-first > next.end {
		return nil, errors.Wrapf(clist.ErrFatal, "compressed chain broken at block %d", i)
	}

	s.carry = append(s.carry[:0], pb.data[lb.offset:pb.end]...)
	s.carry = append(s.carry, next.data[:lb.size-first]...)
	s.metrics.BoundaryCarries++
	return s.carry, nil
}
