package arena

import (
	"context"
	"log/slog"
	"unsafe"

	"github.com/cockroachdb/errors"

	"github.com/pavanmanishd/compactarena/internal/mmap"
	"github.com/pavanmanishd/compactarena/internal/region"
)

// Allocator owns one fixed-capacity buffer and the ledger of regions carved
// from it. Not goroutine-safe: callers must serialize access.
type Allocator struct {
	mapping  *mmap.Mapping
	buf      []byte // nil after Release
	capacity int

	table *region.Table
	free  *region.FreeIndex

	available int // bytes not held by Allocated regions
	padding   int // size-class padding across Allocated regions
	epoch     uint64

	backing        Backing
	policy         FitPolicy
	discardOnReset bool
	logger         *slog.Logger

	counters counters
}

type counters struct {
	allocations      uint64
	frees            uint64
	defragmentations uint64
	resets           uint64
}

// New reserves capacity bytes and returns an empty Allocator.
func New(capacity int, opts ...Option) (*Allocator, error) {
	if capacity <= 0 || uint64(capacity) > MaxCapacity {
		return nil, errors.Wrapf(ErrInvalidCapacity, "capacity %d", capacity)
	}

	a := &Allocator{
		capacity:  capacity,
		available: capacity,
		epoch:     1,
		backing:   BackingMmap,
		policy:    FirstFit,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}

	var (
		m   *mmap.Mapping
		err error
	)
	switch a.backing {
	case BackingMmap:
		m, err = mmap.MapAnon(capacity)
	case BackingHeap:
		m, err = mmap.Heap(capacity)
	default:
		err = errors.Newf("unknown backing %v", a.backing)
	}
	if err != nil {
		return nil, errors.WithSecondaryError(
			errors.Wrapf(ErrAllocationFailure, "reserve %d bytes: %v", capacity, err), err)
	}

	a.mapping = m
	a.buf = m.Bytes()
	a.table = region.NewTable()
	a.free = region.NewFreeIndex(a.table)

	a.logger.Debug("arena created",
		"capacity", capacity,
		"backing", a.backing.String(),
		"policy", a.policy.String(),
	)
	return a, nil
}

// allocate reserves the size class of requested bytes and commits it to the
// counters. On error no state has changed, except that a compaction pass may
// have moved live regions.
func (a *Allocator) allocate(requested uint64, zero bool) (*region.Region, error) {
	if requested > uint64(a.capacity) {
		return nil, errors.Wrapf(ErrAllocationTooLarge, "%d bytes with capacity %d", requested, a.capacity)
	}
	size := sizeClass(requested)
	if size > uint64(a.capacity) {
		return nil, errors.Wrapf(ErrAllocationTooLarge, "%d bytes (size class %d) with capacity %d", requested, size, a.capacity)
	}
	if a.buf == nil {
		return nil, ErrClosed
	}

	need, req := int(size), int(requested)
	r, err := a.fit(need, req)
	if err != nil {
		return nil, err
	}
	if r == nil && need <= a.available {
		// Enough bytes are free but scattered: compact once and retry.
		a.defragment()
		if r, err = a.fit(need, req); err != nil {
			return nil, err
		}
	}
	if r == nil {
		a.logger.Warn("arena out of memory",
			"requested", req,
			"size_class", need,
			"available", a.available,
		)
		return nil, errors.Wrapf(ErrOutOfMemory, "%d bytes (size class %d) with %d available", req, need, a.available)
	}

	a.available -= need
	a.padding += need - req
	a.counters.allocations++
	if zero {
		clear(a.buf[r.Offset():r.End()])
	}

	if a.logger.Enabled(context.Background(), slog.LevelDebug) {
		a.logger.Debug("allocate",
			"region", uint64(r.ID()),
			"offset", r.Offset(),
			"requested", req,
			"size_class", need,
			"available", a.available,
		)
	}
	return r, nil
}

// fit finds room for need bytes: a reused Free region when one fits,
// otherwise the untouched tail. It returns nil when neither fits.
func (a *Allocator) fit(need, requested int) (*region.Region, error) {
	if f, ok := a.free.Find(need, a.policy); ok {
		a.free.Remove(f)
		used, leftover, err := a.table.SplitIfLarger(f.ID(), need, requested)
		if err != nil {
			return nil, err
		}
		if leftover != nil {
			a.free.Add(leftover)
		}
		return used, nil
	}

	tail := a.table.Tail()
	if need > a.capacity-tail {
		return nil, nil
	}
	id, err := a.table.InsertAllocated(tail, requested, need)
	if err != nil {
		return nil, err
	}
	r, _ := a.table.Lookup(id)
	return r, nil
}

// ref identifies a region as seen by one handle.
type ref struct {
	owner *Allocator
	id    region.ID
	epoch uint64
}

// Releasable is implemented by every Handle instantiation and lets Free
// accept handles of any element type.
type Releasable interface {
	regionRef() ref
}

// lookup resolves a handle reference to its live Allocated region.
func (a *Allocator) lookup(h ref) (*region.Region, error) {
	if h.owner == nil {
		return nil, errors.Wrap(ErrInvalidHandle, "zero handle")
	}
	if h.owner != a {
		return nil, errors.Wrap(ErrInvalidHandle, "handle belongs to another allocator")
	}
	if a.buf == nil {
		return nil, ErrClosed
	}
	if h.epoch != a.epoch {
		return nil, errors.Wrapf(ErrInvalidHandle, "handle from epoch %d, current epoch %d", h.epoch, a.epoch)
	}
	r, ok := a.table.Lookup(h.id)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidHandle, "region %d no longer exists", h.id)
	}
	if r.IsFree() {
		return nil, errors.Wrapf(ErrInvalidHandle, "region %d already freed", h.id)
	}
	return r, nil
}

// Free returns a handle's region to the arena. Freeing a stale, foreign or
// already-freed handle fails with ErrInvalidHandle. Every handle sharing the
// region, including sub-views, becomes invalid.
func (a *Allocator) Free(h Releasable) error {
	r, err := a.lookup(h.regionRef())
	if err != nil {
		return err
	}
	padding := r.Padding()
	if _, err := a.table.MarkFree(r.ID()); err != nil {
		return errors.WithSecondaryError(errors.Wrapf(ErrInvalidHandle, "free region %d", r.ID()), err)
	}
	a.available += r.Size()
	a.padding -= padding
	a.free.Add(r)
	a.trimTail()
	a.counters.frees++

	if a.logger.Enabled(context.Background(), slog.LevelDebug) {
		a.logger.Debug("free",
			"region", uint64(r.ID()),
			"offset", r.Offset(),
			"size_class", r.Size(),
			"available", a.available,
		)
	}
	return nil
}

// trimTail folds trailing Free regions back into the untouched tail.
func (a *Allocator) trimTail() {
	for {
		last, ok := a.table.Last()
		if !ok || !last.IsFree() {
			return
		}
		a.free.Remove(last)
		if err := a.table.Remove(last.ID()); err != nil {
			panic(err)
		}
	}
}

// Defragment slides every live region towards offset zero so that all free
// space forms a single region at the end of the arena. Live handles stay
// valid; addresses obtained from them before the call must be re-resolved.
func (a *Allocator) Defragment() error {
	if a.buf == nil {
		return ErrClosed
	}
	a.defragment()
	return nil
}

// defragment panics if the region ledger is found inconsistent; that is
// engine corruption, not a usage error.
func (a *Allocator) defragment() {
	res, err := a.table.Compact(a.capacity, func(dst, src, n int) {
		copy(a.buf[dst:dst+n], a.buf[src:src+n])
	})
	if err == nil {
		err = a.table.Validate(a.capacity)
	}
	if err != nil {
		panic(errors.Wrap(err, "arena: defragment"))
	}
	a.free.Rebuild()

	padding, live := 0, 0
	for r := range a.table.Regions() {
		if !r.IsFree() {
			live += r.Size()
			padding += r.Padding()
		}
	}
	if live+a.available != a.capacity {
		panic(errors.AssertionFailedf("arena: defragment: live %d + available %d != capacity %d",
			live, a.available, a.capacity))
	}
	a.padding = padding
	a.counters.defragmentations++

	a.logger.Info("defragment",
		"moved_regions", res.MovedRegions,
		"moved_bytes", res.MovedBytes,
		"reclaimed_regions", res.Reclaimed,
		"free_start", res.FreeStart,
		"available", a.available,
	)
}

// Reset discards every region and invalidates every handle issued so far.
// The buffer itself is kept for reuse.
func (a *Allocator) Reset() error {
	if a.buf == nil {
		return ErrClosed
	}
	a.table.Clear()
	a.free.Clear()
	a.available = a.capacity
	a.padding = 0
	a.epoch++
	a.counters.resets++

	if a.discardOnReset {
		if err := a.mapping.Discard(); err != nil {
			a.logger.Warn("discard arena pages", "error", err)
		}
	}
	a.logger.Debug("reset", "epoch", a.epoch)
	return nil
}

// Release frees the backing buffer and makes the allocator unusable. It is
// safe to call more than once.
func (a *Allocator) Release() error {
	if a.buf == nil {
		return nil
	}
	a.buf = nil
	a.table.Clear()
	a.free.Clear()
	a.available = 0
	a.padding = 0
	a.epoch++

	a.logger.Debug("release", "capacity", a.capacity)
	if err := a.mapping.Close(); err != nil {
		return errors.Wrap(err, "arena: release")
	}
	return nil
}

// Base returns the buffer's start address and capacity for diagnostics.
// The address must not be retained across any mutating call. Base returns
// (0, 0) after Release.
func (a *Allocator) Base() (uintptr, int) {
	if a.buf == nil {
		return 0, 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(a.buf))), a.capacity
}

// Epoch returns the current generation. Reset advances it.
func (a *Allocator) Epoch() uint64 {
	return a.epoch
}

// Validate checks the region ledger, the free index and the byte counters
// against each other. Any failure other than ErrClosed is an assertion
// failure.
func (a *Allocator) Validate() error {
	if a.buf == nil {
		return ErrClosed
	}
	if err := a.table.Validate(a.capacity); err != nil {
		return err
	}
	if err := a.free.Validate(); err != nil {
		return err
	}
	live, padding := 0, 0
	for r := range a.table.Regions() {
		if !r.IsFree() {
			live += r.Size()
			padding += r.Padding()
		}
	}
	if live+a.available != a.capacity {
		return errors.AssertionFailedf("arena: live %d + available %d != capacity %d", live, a.available, a.capacity)
	}
	if padding != a.padding {
		return errors.AssertionFailedf("arena: padding counter %d, regions hold %d", a.padding, padding)
	}
	return nil
}
