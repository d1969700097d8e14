package cache

import cmerrors "cachemgr/pkg/errors"

// handle addresses a slot in the arena. The index and the recency list link
// entries by handle so both always see the same slot for a key.
type handle int32

const nilHandle handle = -1

// entry is one cached mapping plus its intrusive links.
type entry struct {
	key   string
	value string

	// recency list links, head is MRU
	prev handle
	next handle

	// next entry in the same hash bucket
	hnext handle

	live bool
}

// arena owns every entry of a cache. Released slots go on a free list and
// are handed out again by later allocations.
type arena struct {
	slots []entry
	free  []handle
	limit int

	live   int
	allocs uint64
	frees  uint64
}

func newArena(limit int) *arena {
	return &arena{
		slots: make([]entry, 0, min(limit, 1024)),
		limit: limit,
	}
}

// alloc returns a fresh live entry holding key and value. It fails without
// touching any state once limit slots are live.
func (a *arena) alloc(key, value string) (handle, error) {
	if a.live >= a.limit {
		return nilHandle, cmerrors.ErrAllocationFailure
	}

	var h handle
	if n := len(a.free); n > 0 {
		h = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, entry{})
		h = handle(len(a.slots) - 1)
	}

	a.slots[h] = entry{
		key:   key,
		value: value,
		prev:  nilHandle,
		next:  nilHandle,
		hnext: nilHandle,
		live:  true,
	}
	a.live++
	a.allocs++
	return h, nil
}

// release returns the slot to the free list. The entry must already be
// unlinked from both the index and the recency list.
func (a *arena) release(h handle) {
	e := &a.slots[h]
	if !e.live {
		panic("cache: release of a free arena slot")
	}
	*e = entry{prev: nilHandle, next: nilHandle, hnext: nilHandle}
	a.free = append(a.free, h)
	a.live--
	a.frees++
}

func (a *arena) at(h handle) *entry {
	return &a.slots[h]
}

// reset drops all storage. Every live slot must have been released first.
func (a *arena) reset() {
	a.slots = nil
	a.free = nil
}
