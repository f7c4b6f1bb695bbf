package mmap

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrClosed is returned when a closed mapping is used.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for non-positive reservation sizes.
	ErrInvalidSize = errors.New("mmap: invalid size")
)

// Kind identifies where a Mapping's bytes live.
type Kind int

const (
	// KindAnon is an anonymous operating system mapping.
	KindAnon Kind = iota
	// KindHeap is a Go heap slice.
	KindHeap
)

func (k Kind) String() string {
	switch k {
	case KindAnon:
		return "anon"
	case KindHeap:
		return "heap"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Mapping owns a fixed-size byte buffer and releases it exactly once.
type Mapping struct {
	data   []byte
	size   int
	kind   Kind
	closed bool
	// unmap is the platform-specific release function; nil for heap buffers.
	unmap func([]byte) error
}

// MapAnon reserves size bytes of zeroed, writable, anonymous memory.
func MapAnon(size int) (*Mapping, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	data, unmap, err := osMapAnon(size)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap: map %d anonymous bytes", size)
	}
	return &Mapping{data: data, size: size, kind: KindAnon, unmap: unmap}, nil
}

// Heap reserves size bytes on the Go heap.
func Heap(size int) (m *Mapping, err error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	defer func() {
		// make panics rather than failing when the length is out of range.
		if r := recover(); r != nil {
			m, err = nil, errors.Newf("mmap: reserve %d heap bytes: %v", size, r)
		}
	}()
	return &Mapping{data: make([]byte, size), size: size, kind: KindHeap}, nil
}

// Bytes returns the underlying buffer, or nil once the mapping is closed.
func (m *Mapping) Bytes() []byte {
	if m.closed {
		return nil
	}
	return m.data
}

// Size returns the size of the mapping in bytes.
func (m *Mapping) Size() int {
	return m.size
}

// Kind reports the backing kind.
func (m *Mapping) Kind() Kind {
	return m.kind
}

// Discard tells the operating system the contents are no longer needed.
// The buffer stays mapped; its bytes become unspecified.
func (m *Mapping) Discard() error {
	if m.closed {
		return ErrClosed
	}
	if m.kind != KindAnon {
		return nil
	}
	return osDiscard(m.data)
}

// Close releases the buffer. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	data := m.data
	m.data = nil
	if m.unmap != nil && data != nil {
		return m.unmap(data)
	}
	return nil
}
