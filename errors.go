package arena

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrAllocationFailure is returned by New when the backing buffer cannot
	// be reserved.
	ErrAllocationFailure = errors.New("arena: backing buffer reservation failed")
	// ErrAllocationTooLarge is returned when a request's size class exceeds
	// the arena capacity. No state is changed.
	ErrAllocationTooLarge = errors.New("arena: allocation exceeds capacity")
	// ErrOutOfMemory is returned when no region fits even after compaction.
	ErrOutOfMemory = errors.New("arena: out of memory")
	// ErrInvalidHandle is returned for handles that are stale, already freed,
	// or unknown to the allocator.
	ErrInvalidHandle = errors.New("arena: invalid handle")
	// ErrBounds is returned for out-of-range element indexes and views.
	ErrBounds = errors.New("arena: index out of bounds")
	// ErrInvalidCount is returned when an element count is not positive.
	ErrInvalidCount = errors.New("arena: element count must be positive")
	// ErrInvalidCapacity is returned by New for capacities outside (0, MaxCapacity].
	ErrInvalidCapacity = errors.New("arena: invalid capacity")
	// ErrClosed is returned when the allocator is used after Release.
	ErrClosed = errors.New("arena: use after Release")
)

// BoundsError describes an out-of-range access on a Handle. It matches
// ErrBounds with errors.Is.
type BoundsError struct {
	Op    string // "index" or "subview"
	Index int
	Len   int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("arena: %s %d out of bounds for length %d", e.Op, e.Index, e.Len)
}

// Is reports whether target is ErrBounds.
func (e *BoundsError) Is(target error) bool {
	return target == ErrBounds
}
