// Package checkpoint implements the light client's fixed-capacity
// checkpoint buffer: a circular array of header hashes with a compressed,
// epoch-aligned anchor index, per spec section 4.1.1.
package checkpoint

import (
	"errors"
	"sort"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
)

// SlotsPerEpoch is Ethereum's slot-to-epoch ratio (32 slots per epoch).
const SlotsPerEpoch = 32

var (
	// ErrOutDated is returned when a checkpoint query is older than the
	// oldest slot the store still retains.
	ErrOutDated = errors.New("checkpoint: query slot older than the oldest retained anchor")

	// ErrNotPresent is returned when a checkpoint query is beyond the
	// store's head (plus margin).
	ErrNotPresent = errors.New("checkpoint: query slot beyond head")
)

// anchor is one entry of the compressed epoch-aligned index: the position
// of a retained header within the circular buffer, and the slot it was
// retained for.
type anchor struct {
	bufIndex int
	slot     uint64
}

// Store is a fixed-capacity circular buffer mapping slot to header hash,
// restricted to epoch-aligned entries plus the head (spec: Checkpoints<N>).
// It owns all of its storage directly — no back-pointers — so overflow
// compaction is a mechanical index decrement (spec section 9's arena
// model for resolving the buffer's self-reference).
type Store struct {
	capacity int
	buf      []codec.Hash32
	filled   int // number of buf slots ever written, capped at capacity
	head     int // next write position in buf

	anchors []anchor // ordered by slot ascending
}

// New creates an empty Store with the given fixed capacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = 1
	}
	return &Store{
		capacity: capacity,
		buf:      make([]codec.Hash32, capacity),
	}
}

// Push records a new (slot, hash) pair. If the buffer is full, the oldest
// entry is evicted and all anchor buffer-indices shift down by one; an
// anchor that falls off the front of the buffer is, per spec, kept at the
// new front with its slot lazily advanced by one epoch rather than deleted
// outright (unless the next anchor already starts there) —
// this keeps OutDated reporting meaningful even after compaction.
func (s *Store) Push(slot uint64, hash codec.Hash32) {
	writeIndex := s.head
	s.buf[writeIndex] = hash
	s.head = (s.head + 1) % s.capacity
	if s.filled < s.capacity {
		s.filled++
	} else {
		s.compact()
	}

	if s.shouldAnchor(slot) {
		s.anchors = append(s.anchors, anchor{bufIndex: writeIndex, slot: slot})
	}
}

// shouldAnchor decides whether slot starts a new retained anchor: either it
// is epoch-aligned and strictly more than one epoch past the last anchor
// (a genuinely new epoch), or there is no anchor yet, or the last anchor
// is not epoch-aligned (a first-seen head).
func (s *Store) shouldAnchor(slot uint64) bool {
	if len(s.anchors) == 0 {
		return true
	}
	last := s.anchors[len(s.anchors)-1]
	aligned := slot%SlotsPerEpoch == 0
	lastAligned := last.slot%SlotsPerEpoch == 0
	if !lastAligned {
		return true
	}
	return aligned && slot > last.slot+SlotsPerEpoch
}

// compact shifts every retained anchor's buffer index down by one to
// reflect the eviction of the oldest buffer slot. An anchor whose buffer
// index would go negative is kept at index 0 with its slot advanced by one
// epoch, or dropped when the next anchor already sits at index 0.
func (s *Store) compact() {
	out := s.anchors[:0]
	for idx, a := range s.anchors {
		a.bufIndex--
		if a.bufIndex < 0 {
			// This anchor's underlying header was just evicted. Per spec,
			// advance its slot by one epoch rather than dropping it, so a
			// later OutDated check still has a lower bound to compare
			// against. It is dropped only when the next anchor already
			// starts at the new front of the buffer.
			if idx+1 < len(s.anchors) && s.anchors[idx+1].bufIndex == 1 {
				continue
			}
			a.bufIndex = 0
			a.slot += SlotsPerEpoch
		}
		out = append(out, a)
	}
	s.anchors = out
}

// Checkpoint resolves a query slot to the closest retained (slot, hash)
// pair at or after it, per spec section 4.1.1: binary search the anchor
// index, then reconstruct an intermediate hash by stepping forward through
// the buffer, or fall through to the next anchor across an empty-epoch
// gap.
func (s *Store) Checkpoint(querySlot uint64) (uint64, codec.Hash32, error) {
	if len(s.anchors) == 0 {
		return 0, codec.Hash32{}, ErrNotPresent
	}
	if querySlot < s.anchors[0].slot {
		return 0, codec.Hash32{}, ErrOutDated
	}

	i := sort.Search(len(s.anchors), func(i int) bool {
		return s.anchors[i].slot > querySlot
	})
	if i == 0 {
		return 0, codec.Hash32{}, ErrOutDated
	}
	lower := s.anchors[i-1]

	if i == len(s.anchors) {
		head := s.headAnchor()
		if head != nil && querySlot <= head.slot {
			return head.slot, s.buf[head.bufIndex], nil
		}
		return 0, codec.Hash32{}, ErrNotPresent
	}

	upper := s.anchors[i]
	if querySlot == lower.slot {
		return lower.slot, s.buf[lower.bufIndex], nil
	}

	// Reconstruct an intermediate epoch-aligned slot between two anchors,
	// unless a gap (a missed epoch boundary) means upper is the nearest
	// available entry.
	steps := (querySlot - lower.slot + SlotsPerEpoch - 1) / SlotsPerEpoch
	reconstructedSlot := lower.slot + steps*SlotsPerEpoch
	reconstructedIndex := (lower.bufIndex + int(steps)) % s.capacity

	if reconstructedSlot <= upper.slot && (upper.slot-lower.slot) == SlotsPerEpoch*uint64(upper.bufIndex-lower.bufIndex) {
		// No gap between consecutive anchors: the buffer really does hold
		// one header per epoch in this range, so index arithmetic is valid.
		if reconstructedSlot == upper.slot {
			return upper.slot, s.buf[upper.bufIndex], nil
		}
		return reconstructedSlot, s.buf[reconstructedIndex], nil
	}

	// A gap exists (an empty epoch boundary): the next anchor is the
	// nearest retained entry at or after querySlot.
	return upper.slot, s.buf[upper.bufIndex], nil
}

func (s *Store) headAnchor() *anchor {
	if len(s.anchors) == 0 {
		return nil
	}
	a := s.anchors[len(s.anchors)-1]
	return &a
}

// OldestSlot returns the slot of the oldest retained anchor, or false if
// the store is empty.
func (s *Store) OldestSlot() (uint64, bool) {
	if len(s.anchors) == 0 {
		return 0, false
	}
	return s.anchors[0].slot, true
}

// HeadSlot returns the slot of the most recently pushed anchor, or false
// if the store is empty.
func (s *Store) HeadSlot() (uint64, bool) {
	a := s.headAnchor()
	if a == nil {
		return 0, false
	}
	return a.slot, true
}
