package cache

import (
	"fmt"

	"github.com/twmb/murmur3"

	cmerrors "cachemgr/pkg/errors"
)

// HashFunc maps a key to a 32-bit hash. It must be deterministic.
type HashFunc func(key string) uint32

const (
	HashNameMurmur3 = "murmur3"
	HashNameDJB2    = "djb2"
)

// Murmur3 is the default key hash.
func Murmur3(key string) uint32 {
	return murmur3.Sum32([]byte(key))
}

// DJB2 is the 33-multiplier rolling hash seeded with 5381.
func DJB2(key string) uint32 {
	var h uint32 = 5381
	for i := 0; i < len(key); i++ {
		h = h*33 + uint32(key[i])
	}
	return h
}

// HashByName resolves a configured hash name. The empty name selects Murmur3.
func HashByName(name string) (HashFunc, error) {
	switch name {
	case "", HashNameMurmur3:
		return Murmur3, nil
	case HashNameDJB2:
		return DJB2, nil
	default:
		return nil, fmt.Errorf("%w: unknown hash %q", cmerrors.ErrInvalidArgument, name)
	}
}

// hashIndex is a fixed-size chained hash table over arena handles.
type hashIndex struct {
	buckets []handle
	hash    HashFunc
	arena   *arena
}

func newHashIndex(n int, hash HashFunc, a *arena) *hashIndex {
	buckets := make([]handle, n)
	for i := range buckets {
		buckets[i] = nilHandle
	}
	return &hashIndex{buckets: buckets, hash: hash, arena: a}
}

func (ix *hashIndex) bucket(key string) int {
	return int(ix.hash(key) % uint32(len(ix.buckets)))
}

// lookup returns the handle whose key equals key, or nilHandle.
func (ix *hashIndex) lookup(key string) handle {
	for h := ix.buckets[ix.bucket(key)]; h != nilHandle; {
		e := ix.arena.at(h)
		if e.key == key {
			return h
		}
		h = e.hnext
	}
	return nilHandle
}

// insert pushes h onto the head of its bucket chain. The key must not
// already be present.
func (ix *hashIndex) insert(h handle) {
	e := ix.arena.at(h)
	b := ix.bucket(e.key)
	e.hnext = ix.buckets[b]
	ix.buckets[b] = h
}

// remove unlinks h from its chain and reports whether it was found.
func (ix *hashIndex) remove(h handle) bool {
	e := ix.arena.at(h)
	b := ix.bucket(e.key)

	prev := nilHandle
	for cur := ix.buckets[b]; cur != nilHandle; cur = ix.arena.at(cur).hnext {
		if cur != h {
			prev = cur
			continue
		}
		if prev == nilHandle {
			ix.buckets[b] = e.hnext
		} else {
			ix.arena.at(prev).hnext = e.hnext
		}
		e.hnext = nilHandle
		return true
	}
	return false
}

// each calls fn for every indexed handle, bucket by bucket. fn may release
// the entry it is given.
func (ix *hashIndex) each(fn func(bucket int, h handle)) {
	for b, h := range ix.buckets {
		for h != nilHandle {
			next := ix.arena.at(h).hnext
			fn(b, h)
			h = next
		}
	}
}
