package arena

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Capacity returns the size of the backing buffer in bytes.
func (a *Allocator) Capacity() int {
	return a.capacity
}

// Available returns the number of bytes not held by live allocations,
// counting both Free regions and the untouched tail.
func (a *Allocator) Available() int {
	return a.available
}

// SizeInUse returns the number of bytes held by live allocations, including
// size-class padding.
func (a *Allocator) SizeInUse() int {
	if a.buf == nil {
		return 0
	}
	return a.capacity - a.available
}

// Padding returns the bytes lost to size-class rounding across live
// allocations.
func (a *Allocator) Padding() int {
	return a.padding
}

// NumRegions returns the number of tracked regions, Allocated and Free.
func (a *Allocator) NumRegions() int {
	if a.table == nil {
		return 0
	}
	return a.table.Len()
}

// Utilization returns the ratio of bytes in use to capacity (0.0 to 1.0).
func (a *Allocator) Utilization() float64 {
	if a.buf == nil || a.capacity == 0 {
		return 0
	}
	return float64(a.SizeInUse()) / float64(a.capacity)
}

// Metrics returns a snapshot of allocator statistics.
func (a *Allocator) Metrics() Metrics {
	m := Metrics{
		Capacity:         a.capacity,
		Available:        a.available,
		SizeInUse:        a.SizeInUse(),
		Padding:          a.padding,
		Epoch:            a.epoch,
		Backing:          a.backing,
		Policy:           a.policy,
		Allocations:      a.counters.allocations,
		Frees:            a.counters.frees,
		Defragmentations: a.counters.defragmentations,
		Resets:           a.counters.resets,
		Utilization:      a.Utilization(),
	}
	if a.buf == nil {
		return m
	}

	for r := range a.table.Regions() {
		m.Regions++
		if r.IsFree() {
			m.FreeRegions++
		} else {
			m.LiveRegions++
		}
	}
	m.Tail = a.table.Tail()
	m.LargestFree = max(a.free.Largest(), a.capacity-m.Tail)
	if m.Available > 0 {
		m.Fragmentation = 1 - float64(m.LargestFree)/float64(m.Available)
	}
	return m
}

// Metrics contains statistical information about an allocator.
type Metrics struct {
	Capacity    int // Size of the backing buffer
	Available   int // Bytes not held by live allocations
	SizeInUse   int // Bytes held by live allocations, padding included
	Padding     int // Size-class padding inside live allocations
	Regions     int // Tracked regions
	LiveRegions int // Allocated regions
	FreeRegions int // Free regions awaiting reuse or compaction
	LargestFree int // Largest contiguous free run, tail included
	Tail        int // End of the last tracked region; bytes past it are untouched

	Epoch   uint64
	Backing Backing
	Policy  FitPolicy

	Allocations      uint64 // Successful allocations since New
	Frees            uint64 // Successful frees since New
	Defragmentations uint64 // Compaction passes, explicit and automatic
	Resets           uint64

	Utilization   float64 // SizeInUse / Capacity (0.0-1.0)
	Fragmentation float64 // 1 - LargestFree/Available; 0 when nothing is free
}

func (m Metrics) String() string {
	return fmt.Sprintf(
		"Arena{capacity: %s, in use: %s, padding: %s, regions: %d live/%d free, largest free: %s, fragmentation: %.1f%%, epoch: %d}",
		humanize.IBytes(uint64(m.Capacity)),
		humanize.IBytes(uint64(m.SizeInUse)),
		humanize.IBytes(uint64(m.Padding)),
		m.LiveRegions,
		m.FreeRegions,
		humanize.IBytes(uint64(m.LargestFree)),
		m.Fragmentation*100,
		m.Epoch,
	)
}
