// Package stash provides an append-only arena for variable-sized encoded
// OSM items. Items are added as opaque byte payloads and addressed through
// stable opaque handles, so several owners can share one payload without
// copying it.
package stash

import "fmt"

// Handle identifies one item in a Stash. The zero Handle is invalid.
// Handles from different stashes must not be mixed.
type Handle struct {
	index uint32
	gen   uint32
}

// Valid reports whether the handle was ever issued by a Stash.
// It does not check that the item is still stored.
func (h Handle) Valid() bool {
	return h.gen != 0
}

func (h Handle) String() string {
	if !h.Valid() {
		return "stash.Handle(invalid)"
	}
	return fmt.Sprintf("stash.Handle(%d/%d)", h.index, h.gen)
}

type slot struct {
	gen  uint32
	data []byte
}

// Stash is the arena. Slots freed by Remove are reused by later Adds, the
// generation counter in the handle catches use-after-remove.
//
// A Stash is not safe for concurrent use.
type Stash struct {
	slots []slot
	free  []uint32
	bytes int
	count int
}

// New returns an empty stash.
func New() *Stash {
	return &Stash{}
}

// Add copies data into the stash and returns a handle for it.
func (s *Stash) Add(data []byte) Handle {
	item := make([]byte, len(data))
	copy(item, data)

	var idx uint32
	if n := len(s.free); n > 0 {
		idx = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.slots = append(s.slots, slot{})
		idx = uint32(len(s.slots) - 1)
	}

	s.slots[idx].gen++
	s.slots[idx].data = item
	s.bytes += len(item)
	s.count++

	return Handle{index: idx, gen: s.slots[idx].gen}
}

// Get returns the payload stored under h. The returned slice is borrowed:
// it stays valid until Remove(h) and must not be modified.
// Get panics if h does not name a live item.
func (s *Stash) Get(h Handle) []byte {
	return s.slots[s.check(h)].data
}

// Remove frees the item stored under h. Any later use of h panics.
func (s *Stash) Remove(h Handle) {
	idx := s.check(h)
	s.bytes -= len(s.slots[idx].data)
	s.count--
	s.slots[idx].data = nil
	s.slots[idx].gen++
	s.free = append(s.free, idx)
}

// Count returns the number of items currently stored.
func (s *Stash) Count() int {
	return s.count
}

// UsedMemory returns the number of payload bytes currently stored.
func (s *Stash) UsedMemory() int {
	return s.bytes
}

// Clear removes all items and releases the slot table.
func (s *Stash) Clear() {
	s.slots = nil
	s.free = nil
	s.bytes = 0
	s.count = 0
}

func (s *Stash) check(h Handle) uint32 {
	if !h.Valid() || int(h.index) >= len(s.slots) {
		panic(fmt.Sprintf("stash: unknown handle %v", h))
	}
	sl := &s.slots[h.index]
	if sl.gen != h.gen || sl.data == nil {
		panic(fmt.Sprintf("stash: use of removed handle %v", h))
	}
	return h.index
}
