// Package region keeps the ledger of byte ranges carved out of an arena.
//
// Every range is a Region addressed by a stable ID rather than by address,
// so compaction can move a region's bytes and rewrite its offset without
// invalidating references held by callers. Table keeps regions in offset
// order; FreeIndex answers "which Free region should serve N bytes".
package region

import "fmt"

// Granule is the smallest region size. Every offset and every allocated size
// is a multiple of it, which keeps all regions naturally aligned.
const Granule = 8

// ID identifies a region. IDs increase monotonically and are never reused by
// a Table, so a stale ID can always be told apart from a live one.
type ID uint64

// State is the allocation state of a region.
type State uint8

const (
	// Allocated regions are owned by a caller.
	Allocated State = iota + 1
	// Free regions may be reused or reclaimed by compaction.
	Free
)

func (s State) String() string {
	switch s {
	case Allocated:
		return "allocated"
	case Free:
		return "free"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Region is a tracked byte range. Its fields are only changed by Table.
type Region struct {
	id        ID
	offset    int
	requested int // bytes asked for by the owning allocation
	size      int // bytes reserved (size class)
	state     State
}

// ID returns the region identifier.
func (r *Region) ID() ID { return r.id }

// Offset returns the byte offset of the region within the arena.
func (r *Region) Offset() int { return r.offset }

// End returns the offset one past the last byte of the region.
func (r *Region) End() int { return r.offset + r.size }

// Size returns the reserved (padded) size in bytes.
func (r *Region) Size() int { return r.size }

// Requested returns the size originally requested for the region.
func (r *Region) Requested() int { return r.requested }

// Padding returns the bytes reserved beyond the request. Free regions carry
// no padding.
func (r *Region) Padding() int {
	if r.state != Allocated {
		return 0
	}
	return r.size - r.requested
}

// State returns the allocation state.
func (r *Region) State() State { return r.state }

// IsFree reports whether the region is Free.
func (r *Region) IsFree() bool { return r.state == Free }

func (r *Region) String() string {
	return fmt.Sprintf("region{id=%d [%d,%d) %s}", r.id, r.offset, r.End(), r.state)
}
