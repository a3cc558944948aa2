package memfile

import (
	"github.com/pkg/errors"

	"github.com/outofforest/clist"
	"github.com/outofforest/clist/blocks"
)

// logBlockFootprint is the accounted size of a logical block descriptor.
const logBlockFootprint = 64

// reserve keeps blocks committed to a declared future write.
type reserve struct {
	logical  [][]byte
	physical [][]byte

	logicalTarget  int
	physicalTarget int

	// declared is the amount of bytes passed to the last successful Reserve call.
	declared int64
}

// setTargets computes pool sizes needed to write bytesLeft bytes without allocating.
func (s *Store) setTargets(bytesLeft int64) {
	logical := blocks.Count(bytesLeft, s.cfg.BlockSize)
	physical := logical
	if bytesLeft > 0 {
		// Compressed form of the last block may spill into an overflow block.
		physical++
	}
	if s.raw == nil {
		// Decompression needs at least one raw buffer.
		physical++
	}
	s.res.logicalTarget = logical
	s.res.physicalTarget = physical
}

// fillReserve shrinks or grows pools to their targets. Growing stops on the first failed allocation.
func (s *Store) fillReserve() error {
	for len(s.res.logical) > s.res.logicalTarget {
		s.cfg.Allocator.Free(pop(&s.res.logical))
	}
	for len(s.res.physical) > s.res.physicalTarget {
		s.cfg.Allocator.Free(pop(&s.res.physical))
	}

	for len(s.res.logical) < s.res.logicalTarget {
		b, err := s.cfg.Allocator.Alloc(logBlockFootprint)
		if err != nil {
			return errors.WithStack(err)
		}
		s.res.logical = append(s.res.logical, b)
	}
	for len(s.res.physical) < s.res.physicalTarget {
		b, err := s.cfg.Allocator.Alloc(s.cfg.BlockSize)
		if err != nil {
			return errors.WithStack(err)
		}
		s.res.physical = append(s.res.physical, b)
	}
	return nil
}

func (s *Store) resizeReserve(bytesLeft int64) error {
	s.setTargets(bytesLeft)
	if err := s.fillReserve(); err != nil {
		return err
	}
	s.res.declared = bytesLeft
	return nil
}

// releaseReserve returns all the pooled blocks to the allocator.
func (s *Store) releaseReserve() {
	s.res.logicalTarget = 0
	s.res.physicalTarget = 0
	s.res.declared = 0
	for _, b := range s.res.logical {
		s.cfg.Allocator.Free(b)
	}
	for _, b := range s.res.physical {
		s.cfg.Allocator.Free(b)
	}
	s.res.logical = nil
	s.res.physical = nil
}

func (s *Store) allocLogical() ([]byte, error) {
	return s.alloc(&s.res.logical, logBlockFootprint, "logical")
}

func (s *Store) allocPhysical() ([]byte, error) {
	return s.alloc(&s.res.physical, s.cfg.BlockSize, "physical")
}

func (s *Store) freeLogical(b []byte) {
	s.free(&s.res.logical, s.res.logicalTarget, b)
}

func (s *Store) freePhysical(b []byte) {
	s.free(&s.res.physical, s.res.physicalTarget, b)
}

// alloc takes memory from the allocator and falls back to the pool. Using the pool is not an error,
// it only marks the file as running low on memory.
func (s *Store) alloc(pool *[][]byte, size int, kind string) ([]byte, error) {
	b, err := s.cfg.Allocator.Alloc(size)
	if err != nil {
		if !errors.Is(err, clist.ErrOutOfMemory) || len(*pool) == 0 {
			return nil, errors.WithStack(err)
		}
		b = pop(pool)
		s.lowMemory = true
		s.metrics.ReserveAllocations++
		s.log.Debug("Block allocated from reserve", "kind", kind, "left", len(*pool))
	}
	s.totalSpace += int64(size)
	return b, nil
}

// free puts the block back to the pool if the pool is below its target.
func (s *Store) free(pool *[][]byte, target int, b []byte) {
	s.totalSpace -= int64(len(b))
	if len(*pool) < target {
		*pool = append(*pool, b)
		return
	}
	s.cfg.Allocator.Free(b)
}

func pop(pool *[][]byte) []byte {
	n := len(*pool) - 1
	b := (*pool)[n]
	(*pool)[n] = nil
	*pool = (*pool)[:n]
	return b
}
