package arena

import (
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"
)

// Allocate reserves count zeroed elements of type T and returns a handle to
// them. The reserved size is count*sizeof(T) rounded up to its size class.
//
// T must not contain Go pointers: the garbage collector does not scan arena
// memory.
func Allocate[T any, N constraints.Integer](a *Allocator, count N) (Handle[T], error) {
	return allocate[T](a, count, true)
}

// AllocateUninitialized is like Allocate but leaves the memory as it was.
// A reused region still holds the bytes of its previous owner.
func AllocateUninitialized[T any, N constraints.Integer](a *Allocator, count N) (Handle[T], error) {
	return allocate[T](a, count, false)
}

func allocate[T any, N constraints.Integer](a *Allocator, count N, zero bool) (Handle[T], error) {
	if count <= 0 {
		return Handle[T]{}, errors.Wrapf(ErrInvalidCount, "count %d", count)
	}
	n := uint64(count)
	stride := uint64(unsafe.Sizeof(*new(T)))
	if n > math.MaxInt || (stride != 0 && n > math.MaxUint64/stride) {
		return Handle[T]{}, errors.Wrapf(ErrAllocationTooLarge, "%d elements of %d bytes", n, stride)
	}

	r, err := a.allocate(n*stride, zero)
	if err != nil {
		return Handle[T]{}, err
	}
	return Handle[T]{
		owner: a,
		id:    r.ID(),
		epoch: a.epoch,
		count: int(n),
	}, nil
}

// Reallocate moves h's elements into a new region of newCount elements and
// frees the old region. min(h.Len(), newCount) elements are copied; any extra
// elements are zeroed. h may be a sub-view; its whole region is freed. If the
// new region cannot be allocated h is left untouched and still valid.
func Reallocate[T any, N constraints.Integer](a *Allocator, h Handle[T], newCount N) (Handle[T], error) {
	if _, err := a.lookup(h.regionRef()); err != nil {
		return Handle[T]{}, err
	}
	nh, err := AllocateUninitialized[T](a, newCount)
	if err != nil {
		return Handle[T]{}, err
	}

	// Resolve after allocating: the allocation may have compacted the arena.
	src, err := h.Resolve()
	if err != nil {
		return Handle[T]{}, err
	}
	dst, err := nh.Resolve()
	if err != nil {
		return Handle[T]{}, err
	}
	copied := copy(dst, src)
	clear(dst[copied:])

	if err := a.Free(h); err != nil {
		return Handle[T]{}, err
	}
	return nh, nil
}
