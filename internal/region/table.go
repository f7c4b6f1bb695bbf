package region

import (
	"cmp"
	"iter"
	"slices"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnknownRegion is returned for IDs the table does not hold.
	ErrUnknownRegion = errors.New("region: unknown region")
	// ErrAlreadyFree is returned when freeing a region that is already Free.
	ErrAlreadyFree = errors.New("region: region already free")
	// ErrNotFree is returned when reusing a region that is not Free.
	ErrNotFree = errors.New("region: region not free")
)

// Table is the ordered ledger of regions. It is not safe for concurrent use.
type Table struct {
	regions []*Region // sorted by offset
	byID    map[ID]*Region
	lastID  ID
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{byID: make(map[ID]*Region)}
}

// Len returns the number of regions, Allocated and Free.
func (t *Table) Len() int {
	return len(t.regions)
}

// Tail returns the first offset not covered by any region.
func (t *Table) Tail() int {
	if len(t.regions) == 0 {
		return 0
	}
	return t.regions[len(t.regions)-1].End()
}

// Last returns the highest-offset region.
func (t *Table) Last() (*Region, bool) {
	if len(t.regions) == 0 {
		return nil, false
	}
	return t.regions[len(t.regions)-1], true
}

func (t *Table) nextID() ID {
	t.lastID++
	return t.lastID
}

// InsertAllocated appends an Allocated region at offset, which must not be
// below the current tail.
func (t *Table) InsertAllocated(offset, requested, size int) (ID, error) {
	if offset < t.Tail() {
		return 0, errors.AssertionFailedf("region: insert at %d below tail %d", offset, t.Tail())
	}
	if size <= 0 || requested > size {
		return 0, errors.AssertionFailedf("region: insert with requested=%d size=%d", requested, size)
	}
	r := &Region{
		id:        t.nextID(),
		offset:    offset,
		requested: requested,
		size:      size,
		state:     Allocated,
	}
	t.regions = append(t.regions, r)
	t.byID[r.id] = r
	return r.id, nil
}

// Lookup returns the region with the given ID.
func (t *Table) Lookup(id ID) (*Region, bool) {
	r, ok := t.byID[id]
	return r, ok
}

// At returns the region starting exactly at offset.
func (t *Table) At(offset int) (*Region, bool) {
	i, found := t.search(offset)
	if !found {
		return nil, false
	}
	return t.regions[i], true
}

func (t *Table) search(offset int) (int, bool) {
	return slices.BinarySearchFunc(t.regions, offset, func(r *Region, off int) int {
		return cmp.Compare(r.offset, off)
	})
}

// MarkFree flips an Allocated region to Free in place. The entry stays in the
// table so compaction can later absorb it.
func (t *Table) MarkFree(id ID) (*Region, error) {
	r, ok := t.byID[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownRegion, "region %d", id)
	}
	if r.state == Free {
		return nil, errors.Wrapf(ErrAlreadyFree, "region %d", id)
	}
	r.state = Free
	return r, nil
}

// SplitIfLarger turns the Free region id into an Allocated region of exactly
// needed bytes. A larger region is split: the low part is allocated and the
// remainder becomes a new Free region directly after it. The allocated part
// is given a fresh ID so references to the freed allocation stay stale.
// leftover is nil for exact fits.
func (t *Table) SplitIfLarger(id ID, needed, requested int) (used, leftover *Region, err error) {
	r, ok := t.byID[id]
	if !ok {
		return nil, nil, errors.Wrapf(ErrUnknownRegion, "region %d", id)
	}
	if r.state != Free {
		return nil, nil, errors.Wrapf(ErrNotFree, "region %d", id)
	}
	if needed <= 0 || needed > r.size || requested > needed {
		return nil, nil, errors.AssertionFailedf("region: split %v for needed=%d requested=%d", r, needed, requested)
	}

	if needed < r.size {
		i, found := t.search(r.offset)
		if !found {
			return nil, nil, errors.AssertionFailedf("region: %v missing from offset order", r)
		}
		leftover = &Region{
			id:     t.nextID(),
			offset: r.offset + needed,
			size:   r.size - needed,
			state:  Free,
		}
		t.regions = slices.Insert(t.regions, i+1, leftover)
		t.byID[leftover.id] = leftover
	}

	delete(t.byID, r.id)
	r.id = t.nextID()
	r.size = needed
	r.requested = requested
	r.state = Allocated
	t.byID[r.id] = r
	return r, leftover, nil
}

// Remove drops a region from the table.
func (t *Table) Remove(id ID) error {
	r, ok := t.byID[id]
	if !ok {
		return errors.Wrapf(ErrUnknownRegion, "region %d", id)
	}
	i, found := t.search(r.offset)
	if !found || t.regions[i] != r {
		return errors.AssertionFailedf("region: %v missing from offset order", r)
	}
	t.regions = slices.Delete(t.regions, i, i+1)
	delete(t.byID, id)
	return nil
}

// Regions yields every region in ascending offset order. The table must not
// be modified during iteration.
func (t *Table) Regions() iter.Seq[*Region] {
	return func(yield func(*Region) bool) {
		for _, r := range t.regions {
			if !yield(r) {
				return
			}
		}
	}
}

// Clear drops every region. IDs keep increasing across Clear.
func (t *Table) Clear() {
	clear(t.regions)
	t.regions = t.regions[:0]
	clear(t.byID)
}

// CompactResult describes one compaction pass.
type CompactResult struct {
	MovedRegions int // Allocated regions whose offset changed
	MovedBytes   int // bytes handed to move
	Reclaimed    int // Free entries absorbed
	FreeStart    int // start of the trailing Free region; capacity if none
}

// Compact slides every Allocated region down to close the gaps left by Free
// regions, keeping IDs and relative order. move(dst, src, n) must copy n
// bytes from src to dst and tolerate overlap. Free entries are dropped and a
// single Free region covering [cursor, capacity) is appended.
func (t *Table) Compact(capacity int, move func(dst, src, n int)) (CompactResult, error) {
	var res CompactResult
	cursor := 0
	live := t.regions[:0]
	for _, r := range t.regions {
		if r.state == Free {
			delete(t.byID, r.id)
			res.Reclaimed++
			continue
		}
		if r.offset < cursor {
			return res, errors.AssertionFailedf("region: %v overlaps cursor %d", r, cursor)
		}
		if r.offset > cursor {
			move(cursor, r.offset, r.size)
			res.MovedRegions++
			res.MovedBytes += r.size
			r.offset = cursor
		}
		cursor += r.size
		live = append(live, r)
	}
	clear(t.regions[len(live):])
	t.regions = live

	if cursor > capacity {
		return res, errors.AssertionFailedf("region: live regions end at %d beyond capacity %d", cursor, capacity)
	}
	res.FreeStart = cursor
	if cursor < capacity {
		f := &Region{id: t.nextID(), offset: cursor, size: capacity - cursor, state: Free}
		t.regions = append(t.regions, f)
		t.byID[f.id] = f
	}
	return res, nil
}

// Validate checks the table invariants against the arena capacity. Regions
// must tile [0, Tail()) in offset order without gaps or overlap, stay inside
// capacity and be indexed by ID. Violations are assertion failures.
func (t *Table) Validate(capacity int) error {
	if len(t.byID) != len(t.regions) {
		return errors.AssertionFailedf("region: %d ids for %d regions", len(t.byID), len(t.regions))
	}
	prevEnd := 0
	for i, r := range t.regions {
		if r.size <= 0 {
			return errors.AssertionFailedf("region: %v at position %d has no size", r, i)
		}
		if r.offset != prevEnd {
			return errors.AssertionFailedf("region: %v at position %d does not start at previous end %d", r, i, prevEnd)
		}
		if r.offset%Granule != 0 {
			return errors.AssertionFailedf("region: %v is not %d-byte aligned", r, Granule)
		}
		if r.state == Allocated && (r.requested > r.size || r.size%Granule != 0) {
			return errors.AssertionFailedf("region: %v has requested=%d", r, r.requested)
		}
		if got := t.byID[r.id]; got != r {
			return errors.AssertionFailedf("region: %v not indexed by id", r)
		}
		prevEnd = r.End()
	}
	if prevEnd > capacity {
		return errors.AssertionFailedf("region: tail %d beyond capacity %d", prevEnd, capacity)
	}
	return nil
}
