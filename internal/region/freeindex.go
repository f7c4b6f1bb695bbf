package region

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cockroachdb/errors"
)

// FitPolicy selects which Free region serves a request.
type FitPolicy int

const (
	// FirstFit picks the lowest-offset Free region that is large enough.
	FirstFit FitPolicy = iota
	// BestFit picks the smallest Free region that is large enough, breaking
	// ties by lowest offset.
	BestFit
)

func (p FitPolicy) String() string {
	switch p {
	case FirstFit:
		return "first-fit"
	case BestFit:
		return "best-fit"
	default:
		return fmt.Sprintf("FitPolicy(%d)", int(p))
	}
}

// FreeIndex tracks the start offsets of Free regions in a table. Offsets are
// stored in granule units so the bitmap iterates them in ascending order.
type FreeIndex struct {
	table *Table
	set   *roaring.Bitmap
}

// NewFreeIndex returns an empty index over t.
func NewFreeIndex(t *Table) *FreeIndex {
	return &FreeIndex{table: t, set: roaring.New()}
}

func key(offset int) uint32 {
	return uint32(offset / Granule)
}

// Add indexes a Free region.
func (x *FreeIndex) Add(r *Region) {
	x.set.Add(key(r.offset))
}

// Remove drops a region from the index.
func (x *FreeIndex) Remove(r *Region) {
	x.set.Remove(key(r.offset))
}

// Len returns the number of indexed regions.
func (x *FreeIndex) Len() int {
	return int(x.set.GetCardinality())
}

// Clear empties the index.
func (x *FreeIndex) Clear() {
	x.set.Clear()
}

// Rebuild re-indexes every Free region of the table.
func (x *FreeIndex) Rebuild() {
	x.set.Clear()
	for r := range x.table.Regions() {
		if r.state == Free {
			x.Add(r)
		}
	}
}

// Find returns a Free region of at least needed bytes chosen by policy.
func (x *FreeIndex) Find(needed int, policy FitPolicy) (*Region, bool) {
	var best *Region
	it := x.set.Iterator()
	for it.HasNext() {
		r, ok := x.table.At(int(it.Next()) * Granule)
		if !ok || r.state != Free || r.size < needed {
			continue
		}
		if policy == FirstFit {
			return r, true
		}
		if best == nil || r.size < best.size {
			best = r
			if r.size == needed {
				break
			}
		}
	}
	return best, best != nil
}

// Largest returns the size of the largest indexed Free region.
func (x *FreeIndex) Largest() int {
	largest := 0
	it := x.set.Iterator()
	for it.HasNext() {
		if r, ok := x.table.At(int(it.Next()) * Granule); ok && r.size > largest {
			largest = r.size
		}
	}
	return largest
}

// Validate checks that the index holds exactly the table's Free regions.
func (x *FreeIndex) Validate() error {
	free := 0
	for r := range x.table.Regions() {
		if r.state != Free {
			continue
		}
		free++
		if !x.set.Contains(key(r.offset)) {
			return errors.AssertionFailedf("region: free %v not indexed", r)
		}
	}
	if n := x.Len(); n != free {
		return errors.AssertionFailedf("region: index holds %d offsets for %d free regions", n, free)
	}
	return nil
}
