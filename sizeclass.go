package arena

import "github.com/pavanmanishd/compactarena/internal/region"

const (
	// MinSizeClass is the smallest number of bytes reserved for any request.
	// It keeps every region offset a multiple of the widest natural alignment.
	MinSizeClass = region.Granule

	// MaxCapacity is the largest supported arena capacity (32 GiB).
	MaxCapacity = region.Granule << 32
)

// RoundUpPow2 returns the smallest power of two >= n, and 1 for n <= 1.
// Values above 1<<63 have no 64-bit power of two and wrap to 0.
func RoundUpPow2(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// Padding returns the bytes RoundUpPow2 adds on top of n.
func Padding(n uint64) uint64 {
	return RoundUpPow2(n) - n
}

// sizeClass is the number of bytes reserved for a request of n bytes.
func sizeClass(n uint64) uint64 {
	return max(RoundUpPow2(n), MinSizeClass)
}
