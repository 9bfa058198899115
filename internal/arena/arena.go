// Package arena provides a bump allocator for per-file analysis data.
//
// An Arena carves allocations sequentially from a slab and releases them all
// at once via Reset, which retains the slab's capacity. One arena is owned by
// exactly one worker and hosts exactly one file's semantic model at a time;
// nothing allocated from an arena may outlive the Reset that follows the
// file it was allocated for.
package arena

import "unsafe"

// DefaultCapacity is the initial slab size. Sized so that typical source
// files never trigger slab growth.
const DefaultCapacity = 1 << 20 // 1MB

// Arena is a bump/region allocator. Not safe for concurrent use.
type Arena struct {
	slab []byte
	off  int

	// retired holds exhausted slabs. Allocations carved from them stay
	// valid until Reset; the slabs themselves are dropped at Reset, keeping
	// only the current (largest) slab.
	retired [][]byte
}

// New returns an Arena with an initial slab of the given capacity.
// A capacity of 0 uses DefaultCapacity.
func New(capacity int) *Arena {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Arena{slab: make([]byte, capacity)}
}

// Alloc returns a zeroed n-byte region aligned to align. The region is valid
// until the next Reset.
func (a *Arena) Alloc(n, align int) []byte {
	if n == 0 {
		return nil
	}
	off := a.off
	if r := off % align; r != 0 {
		off += align - r
	}
	if off+n > len(a.slab) {
		a.grow(n)
		off = 0
	}
	buf := a.slab[off : off+n : off+n]
	a.off = off + n
	clear(buf)
	return buf
}

// grow retires the current slab and installs a new one at least large enough
// for n, doubling so that repeated growth converges quickly.
func (a *Arena) grow(n int) {
	size := len(a.slab) * 2
	if size < n {
		size = n
	}
	a.retired = append(a.retired, a.slab)
	a.slab = make([]byte, size)
	a.off = 0
}

// Reset releases every allocation in bulk. The current slab is kept at full
// capacity; retired slabs are dropped. Previously returned regions must not
// be used after Reset.
func (a *Arena) Reset() {
	a.off = 0
	a.retired = nil
}

// InUse reports the bytes currently allocated from the live slab.
func (a *Arena) InUse() int { return a.off }

// Cap reports the capacity of the live slab.
func (a *Arena) Cap() int { return len(a.slab) }

// Slice carves a []T of length n from the arena.
//
// T must not contain pointers: the arena's memory is an untyped byte slab,
// so the garbage collector will not trace pointer fields stored in it.
func Slice[T any](a *Arena, n int) []T {
	if n == 0 {
		return nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	align := int(unsafe.Alignof(zero))
	buf := a.Alloc(n*size, align)
	return unsafe.Slice((*T)(unsafe.Pointer(&buf[0])), n)
}
