package memfile

import (
	"github.com/outofforest/clist/blocks"
)

// physBlock is a buffer of the physical arena. Raw blocks belong to exactly one logical block,
// compressed blocks form a chain holding compressed bytes of many logical blocks.
type physBlock struct {
	data []byte

	// end is blocks.RawEnd for raw blocks, otherwise the number of valid compressed bytes.
	end int

	// next is the following block of the compressed chain.
	next blocks.Index
}

// storage is the physical block arena shared by the base file and its readers.
type storage struct {
	blocks []physBlock
	free   []blocks.Index
	live   int
}

func (s *storage) add(data []byte, end int) blocks.Index {
	s.live++
	pb := physBlock{
		data: data,
		end:  end,
		next: blocks.NoIndex,
	}
	if n := len(s.free); n > 0 {
		i := s.free[n-1]
		s.free = s.free[:n-1]
		s.blocks[i] = pb
		return i
	}
	s.blocks = append(s.blocks, pb)
	return blocks.Index(len(s.blocks) - 1)
}

func (s *storage) get(i blocks.Index) *physBlock {
	return &s.blocks[i]
}

// remove detaches the block from the arena and returns its buffer.
func (s *storage) remove(i blocks.Index) []byte {
	data := s.blocks[i].data
	s.blocks[i] = physBlock{end: blocks.RawEnd, next: blocks.NoIndex}
	s.free = append(s.free, i)
	s.live--
	return data
}

// drain removes all the blocks and returns their buffers.
func (s *storage) drain() [][]byte {
	buffers := make([][]byte, 0, s.live)
	for _, pb := range s.blocks {
		if pb.data != nil {
			buffers = append(buffers, pb.data)
		}
	}
	s.blocks = s.blocks[:0]
	s.free = s.free[:0]
	s.live = 0
	return buffers
}
