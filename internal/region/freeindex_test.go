package region

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freeAt builds a table from sizes and frees the listed positions, indexing
// them as it goes.
func freeAt(t *testing.T, sizes []int, free ...int) (*Table, *FreeIndex, []ID) {
	t.Helper()
	tbl := NewTable()
	idx := NewFreeIndex(tbl)
	ids := make([]ID, len(sizes))
	for i, s := range sizes {
		ids[i] = mustInsert(t, tbl, s, s)
	}
	for _, i := range free {
		r, err := tbl.MarkFree(ids[i])
		require.NoError(t, err)
		idx.Add(r)
	}
	return tbl, idx, ids
}

func TestFreeIndex_FirstFit(t *testing.T) {
	_, idx, _ := freeAt(t, []int{64, 32, 128, 32, 64}, 0, 2, 4)

	tests := []struct {
		name   string
		needed int
		offset int
		found  bool
	}{
		{"smallest request takes lowest offset", 8, 0, true},
		{"exact size at lowest offset", 64, 0, true},
		{"skips too-small regions", 128, 96, true},
		{"nothing large enough", 256, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := idx.Find(tt.needed, FirstFit)
			require.Equal(t, tt.found, ok)
			if ok {
				assert.Equal(t, tt.offset, r.Offset())
			}
		})
	}
}

func TestFreeIndex_BestFit(t *testing.T) {
	_, idx, _ := freeAt(t, []int{128, 32, 64, 32, 64}, 0, 2, 4)

	r, ok := idx.Find(64, BestFit)
	require.True(t, ok)
	assert.Equal(t, 160, r.Offset(), "smallest fit, lowest offset on ties")

	r, ok = idx.Find(65, BestFit)
	require.True(t, ok)
	assert.Equal(t, 0, r.Offset())

	r, ok = idx.Find(8, FirstFit)
	require.True(t, ok)
	assert.Equal(t, 0, r.Offset())
}

func TestFreeIndex_RemoveAndLen(t *testing.T) {
	tbl, idx, ids := freeAt(t, []int{64, 64, 64}, 0, 2)
	assert.Equal(t, 2, idx.Len())
	assert.Equal(t, 64, idx.Largest())
	require.NoError(t, idx.Validate())

	r, _ := tbl.Lookup(ids[0])
	idx.Remove(r)
	assert.Equal(t, 1, idx.Len())

	got, ok := idx.Find(64, FirstFit)
	require.True(t, ok)
	assert.Equal(t, 128, got.Offset())

	err := idx.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsAssertionFailure(err))

	idx.Clear()
	assert.Equal(t, 0, idx.Len())
	_, ok = idx.Find(8, FirstFit)
	assert.False(t, ok)
}

func TestFreeIndex_Rebuild(t *testing.T) {
	tbl, idx, _ := freeAt(t, []int{64, 64, 64, 64}, 1)

	_, err := tbl.Compact(512, func(int, int, int) {})
	require.NoError(t, err)
	require.Error(t, idx.Validate(), "stale until rebuilt")

	idx.Rebuild()
	require.NoError(t, idx.Validate())
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 512-192, idx.Largest())

	r, ok := idx.Find(256, FirstFit)
	require.True(t, ok)
	assert.Equal(t, 192, r.Offset())
}

func TestFitPolicyString(t *testing.T) {
	assert.Equal(t, "first-fit", FirstFit.String())
	assert.Equal(t, "best-fit", BestFit.String())
	assert.Equal(t, "FitPolicy(5)", FitPolicy(5).String())
}
