package arena

import (
	"unsafe"

	"github.com/pavanmanishd/compactarena/internal/region"
)

// Handle is a bounds-checked view of count elements of type T inside an
// arena region. It stores no address: every access looks the region up
// again, so a handle survives Defragment. Reset, Free and Release invalidate
// it. The zero Handle is invalid.
type Handle[T any] struct {
	owner *Allocator
	id    region.ID
	epoch uint64
	start int // first element of the view within the region
	count int
}

func (h Handle[T]) regionRef() ref {
	return ref{owner: h.owner, id: h.id, epoch: h.epoch}
}

func stride[T any]() int {
	return int(unsafe.Sizeof(*new(T)))
}

// Len returns the number of elements in the view.
func (h Handle[T]) Len() int {
	return h.count
}

// ByteSize returns the number of bytes covered by the view.
func (h Handle[T]) ByteSize() int {
	return h.count * stride[T]()
}

// Valid reports whether the handle still refers to a live region.
func (h Handle[T]) Valid() bool {
	if h.owner == nil {
		return false
	}
	_, err := h.owner.lookup(h.regionRef())
	return err == nil
}

// Pointer resolves the address of the first element. The address is only
// good until the next Allocate, Defragment, Free, Reset or Release.
func (h Handle[T]) Pointer() (unsafe.Pointer, error) {
	r, err := h.owner.lookup(h.regionRef())
	if err != nil {
		return nil, err
	}
	off := r.Offset() + h.start*stride[T]()
	return unsafe.Pointer(&h.owner.buf[off]), nil
}

// Resolve returns the view as a slice aliasing arena memory. The slice is
// only good until the next Allocate, Defragment, Free, Reset or Release.
func (h Handle[T]) Resolve() ([]T, error) {
	p, err := h.Pointer()
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(p), h.count), nil
}

// Index returns a pointer to element i.
func (h Handle[T]) Index(i int) (*T, error) {
	if i < 0 || i >= h.count {
		return nil, &BoundsError{Op: "index", Index: i, Len: h.count}
	}
	p, err := h.Pointer()
	if err != nil {
		return nil, err
	}
	return (*T)(unsafe.Add(p, i*stride[T]())), nil
}

// Get returns a copy of element i.
func (h Handle[T]) Get(i int) (T, error) {
	p, err := h.Index(i)
	if err != nil {
		var zero T
		return zero, err
	}
	return *p, nil
}

// Set stores v at element i.
func (h Handle[T]) Set(i int, v T) error {
	p, err := h.Index(i)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// SubView returns a handle over the same region starting offset elements
// further in. offset must be below Len().
func (h Handle[T]) SubView(offset int) (Handle[T], error) {
	if offset < 0 || offset >= h.count {
		return Handle[T]{}, &BoundsError{Op: "subview", Index: offset, Len: h.count}
	}
	v := h
	v.start += offset
	v.count -= offset
	return v, nil
}
