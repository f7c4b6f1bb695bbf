// Package arena implements a fixed-capacity, compacting arena allocator for Go.
//
// # Overview
//
// An Allocator reserves one buffer up front and carves typed regions out of
// it. Unlike a bump allocator, regions can be freed individually, reused, and
// compacted, so long-running workloads with mixed lifetimes do not need a
// fresh arena per batch:
//
//   - Fixed memory budgets with no per-request trips to the Go allocator
//   - Off-heap storage for large numeric buffers (mmap backing)
//   - Batch lifetimes with O(1) Reset, plus individual Free when needed
//
// # Basic Usage
//
//	a, err := arena.New(64 << 10) // 64 KiB
//	if err != nil {
//		return err
//	}
//	defer a.Release()
//
//	h, err := arena.Allocate[int32](a, 10) // 40 bytes, size class 64
//	if err != nil {
//		return err
//	}
//	_ = h.Set(0, 42)
//	v, _ := h.Get(0)
//
//	_ = a.Free(h)
//	_ = a.Reset() // invalidates every handle at once
//
// # Handles
//
// Allocate returns a Handle[T], not a pointer. A handle names its region by a
// stable ID and resolves the address on every access, so Defragment can move
// the bytes without leaving handles dangling. Slices returned by Resolve and
// pointers returned by Index or Pointer are only good until the next call that
// can move or release memory (Allocate, Defragment, Free, Reset, Release).
//
// Handles are checked on every use: indexes outside the view fail with
// ErrBounds, and handles that were freed, belong to an earlier epoch (before
// a Reset) or to another allocator fail with ErrInvalidHandle.
//
// # Size Classes
//
// Every request is rounded up to the next power of two, with a floor of
// MinSizeClass bytes. The floor keeps every region offset 8-byte aligned,
// which is the natural alignment of every Go scalar type. The difference
// between the request and its size class is reported as padding.
//
// # Reuse and Compaction
//
// Freed regions are reused first-fit by ascending offset (BestFit is
// available through WithFitPolicy). Larger free regions are split. When a
// request fits in the free byte count but not in any single free run, the
// allocator compacts once: live regions slide towards offset zero and all
// free space becomes one region at the end of the buffer. Defragment runs the
// same pass on demand.
//
// # Thread Safety
//
// An Allocator is single-owner and not safe for concurrent use. Callers that
// share one must serialize access themselves.
//
// # Important Notes
//
//   - Element types must not contain Go pointers; arena memory is not scanned
//     by the garbage collector
//   - Allocate zeroes memory, AllocateUninitialized does not
//   - Release unmaps the buffer; all handles fail afterwards
//
// # Metrics and Monitoring
//
//	m := a.Metrics()
//	fmt.Printf("Utilization: %.2f%%\n", m.Utilization*100)
//	fmt.Printf("Fragmentation: %.2f%%\n", m.Fragmentation*100)
//	fmt.Println(m) // human-readable summary
package arena
