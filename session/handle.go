// Package session implements the per-peer state machine: the asset-binding
// table, the request-id table, handshake, bind/read/ping handling, and
// timeout-driven rebind (spec.md §3, §4.3, §4.4).
package session

import "github.com/bithorde/bithorded/internal/debug"

// HandleAllocator is a dense monotonic small-integer allocator with a
// free-list, used for both asset handles and RPC request ids (§4.3).
// It is not safe for concurrent use; callers serialize access by holding
// the owning Session's mutex.
type HandleAllocator struct {
	base uint32
	next uint32
	free []uint32

	// outstanding backs the no-double-allocate assertion below; it is
	// only populated under the debug build tag.
	outstanding map[uint32]bool
}

// NewHandleAllocator returns an allocator whose first Allocate() call
// yields base.
func NewHandleAllocator(base uint32) *HandleAllocator {
	a := &HandleAllocator{base: base, next: base}
	if debug.ON() {
		a.outstanding = make(map[uint32]bool)
	}
	return a
}

// Allocate returns the smallest free integer >= base. No value is
// returned twice without an intervening Free (§4.3 invariant).
func (a *HandleAllocator) Allocate() uint32 {
	var v uint32
	if n := len(a.free); n > 0 {
		lo := 0
		for i := 1; i < n; i++ {
			if a.free[i] < a.free[lo] {
				lo = i
			}
		}
		v = a.free[lo]
		a.free[lo] = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		v = a.next
		a.next++
	}
	if debug.ON() {
		debug.Assertf(!a.outstanding[v], "handle allocator: %d double-allocated", v)
		a.outstanding[v] = true
	}
	return v
}

// Free returns v to the free list so a future Allocate may reuse it.
func (a *HandleAllocator) Free(v uint32) {
	if debug.ON() {
		debug.Assertf(a.outstanding[v], "handle allocator: freeing %d, not currently allocated", v)
		delete(a.outstanding, v)
	}
	a.free = append(a.free, v)
}

// Reset returns every allocated handle to the free state, as happens on
// reconnect (§4.3, §7).
func (a *HandleAllocator) Reset() {
	a.next = a.base
	a.free = a.free[:0]
	if debug.ON() {
		a.outstanding = make(map[uint32]bool)
	}
}
