// Package mmap reserves the single fixed-size buffer that backs an arena.
//
// Two kinds of backing are provided. MapAnon asks the operating system for an
// anonymous read/write mapping, which keeps the arena off the Go heap and out
// of the garbage collector's view. Heap wraps an ordinary Go byte slice, which
// is useful on platforms without mmap and in tests.
//
// A Mapping is owned by exactly one arena and is not safe for concurrent use.
package mmap
