package cache

import (
	"github.com/pkg/errors"

	"github.com/outofforest/clist"
	"github.com/outofforest/clist/blocks"
)

// LRU keeps buffers holding copies of blocks, ordered from the most to the least recently used one.
// Slots are addressed by index, owners are indexes of blocks in the arena of the caller.
// The caller keeps its own forward reference to the slot, LRU keeps the back reference.
type LRU struct {
	slots []slot
	head  int
	tail  int
}

// New creates cache using provided buffers as slots. The first buffer becomes the head.
func New(buffers [][]byte) (*LRU, error) {
	if len(buffers) == 0 {
		return nil, errors.Wrap(clist.ErrOutOfMemory, "cache requires at least one slot")
	}

	c := &LRU{
		slots: make([]slot, len(buffers)),
		head:  0,
		tail:  len(buffers) - 1,
	}
	for i, b := range buffers {
		c.slots[i] = slot{
			buf:   b,
			owner: NoOwner,
			prev:  i - 1,
			next:  i + 1,
		}
	}
	c.slots[c.tail].next = NoSlot
	return c, nil
}

// Len returns the number of slots.
func (c *LRU) Len() int {
	return len(c.slots)
}

// Buffer returns the buffer of the slot.
func (c *LRU) Buffer(s int) []byte {
	return c.slots[s].buf
}

// Owner returns the block currently held by the slot.
func (c *LRU) Owner(s int) blocks.Index {
	return c.slots[s].owner
}

// Find returns the slot holding the block. It scans all slots, so it is meant for small caches
// where the owner keeps no forward reference.
func (c *LRU) Find(owner blocks.Index) (int, bool) {
	for i := range c.slots {
		if c.slots[i].owner == owner {
			return i, true
		}
	}
	return NoSlot, false
}

// Touch marks the slot as the most recently used one. It returns false if the slot was the head already.
func (c *LRU) Touch(s int) bool {
	if s == c.head {
		return false
	}
	c.unlink(s)
	c.pushHead(s)
	return true
}

// Victim returns the least recently used slot, detached from its previous owner.
// The owner is returned so the caller can clear its forward reference. The slot stays at the tail
// until it is bound to a new owner.
func (c *LRU) Victim() (int, blocks.Index) {
	s := c.tail
	owner := c.slots[s].owner
	c.slots[s].owner = NoOwner
	return s, owner
}

// Bind assigns the slot to the owner and marks it as the most recently used one.
func (c *LRU) Bind(s int, owner blocks.Index) {
	c.slots[s].owner = owner
	c.Touch(s)
}

// Release detaches the slot from its owner and moves it to the tail, so it is reused first.
func (c *LRU) Release(s int) {
	c.slots[s].owner = NoOwner
	if s == c.tail {
		return
	}
	c.unlink(s)
	c.pushTail(s)
}

// Order returns slots from the most to the least recently used one.
func (c *LRU) Order() []int {
	order := make([]int, 0, len(c.slots))
	for s := c.head; s != NoSlot; s = c.slots[s].next {
		order = append(order, s)
	}
	return order
}

// Buffers returns buffers of all the slots, so they might be released by the caller.
func (c *LRU) Buffers() [][]byte {
	buffers := make([][]byte, 0, len(c.slots))
	for _, s := range c.slots {
		buffers = append(buffers, s.buf)
	}
	return buffers
}

func (c *LRU) unlink(s int) {
	sl := &c.slots[s]
	if sl.prev != NoSlot {
		c.slots[sl.prev].next = sl.next
	} else {
		c.head = sl.next
	}
	if sl.next != NoSlot {
		c.slots[sl.next].prev = sl.prev
	} else {
		c.tail = sl.prev
	}
	sl.prev = NoSlot
	sl.next = NoSlot
}

func (c *LRU) pushHead(s int) {
	sl := &c.slots[s]
	sl.prev = NoSlot
	sl.next = c.head
	if c.head != NoSlot {
		c.slots[c.head].prev = s
	}
	c.head = s
	if c.tail == NoSlot {
		c.tail = s
	}
}

func (c *LRU) pushTail(s int) {
	sl := &c.slots[s]
	sl.next = NoSlot
	sl.prev = c.tail
	if c.tail != NoSlot {
		c.slots[c.tail].next = s
	}
	c.tail = s
	if c.head == NoSlot {
		c.head = s
	}
}
