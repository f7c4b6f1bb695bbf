package arena

import (
	"fmt"
	"log/slog"

	"github.com/pavanmanishd/compactarena/internal/region"
)

// Backing selects where the arena buffer is reserved.
type Backing int

const (
	// BackingMmap reserves an anonymous operating system mapping outside the
	// Go heap. This is the default.
	BackingMmap Backing = iota
	// BackingHeap reserves an ordinary Go byte slice.
	BackingHeap
)

func (b Backing) String() string {
	switch b {
	case BackingMmap:
		return "mmap"
	case BackingHeap:
		return "heap"
	default:
		return fmt.Sprintf("Backing(%d)", int(b))
	}
}

// FitPolicy selects which Free region serves an allocation.
type FitPolicy = region.FitPolicy

const (
	// FirstFit reuses the lowest-offset Free region that is large enough.
	FirstFit = region.FirstFit
	// BestFit reuses the smallest Free region that is large enough.
	BestFit = region.BestFit
)

// Option configures an Allocator.
type Option func(*Allocator)

// WithLogger sets the structured logger. Allocation and free events are
// logged at debug level, compaction at info level.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithBacking selects the backing buffer kind.
func WithBacking(b Backing) Option {
	return func(a *Allocator) {
		a.backing = b
	}
}

// WithFitPolicy selects the free-region reuse policy. The default is FirstFit.
func WithFitPolicy(p FitPolicy) Option {
	return func(a *Allocator) {
		a.policy = p
	}
}

// WithDiscardOnReset makes Reset hand the buffer's physical pages back to the
// operating system. Only mmap backings are affected.
func WithDiscardOnReset(enabled bool) Option {
	return func(a *Allocator) {
		a.discardOnReset = enabled
	}
}
