package cache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constHash forces every key into the same chain
func constHash(string) uint32 { return 7 }

func allocAll(t *testing.T, a *arena, keys ...string) []handle {
	t.Helper()
	hs := make([]handle, 0, len(keys))
	for _, k := range keys {
		h, err := a.alloc(k, "v-"+k)
		require.NoError(t, err)
		hs = append(hs, h)
	}
	return hs
}

func TestHashIndex_LookupInsertRemove(t *testing.T) {
	hashes := map[string]HashFunc{
		"murmur3":   Murmur3,
		"djb2":      DJB2,
		"collision": constHash,
	}

	for name, hash := range hashes {
		t.Run(name, func(t *testing.T) {
			a := newArena(16)
			ix := newHashIndex(5, hash, a)

			keys := []string{"alpha", "beta", "gamma", "delta"}
			hs := allocAll(t, a, keys...)
			for _, h := range hs {
				assert.Equal(t, nilHandle, ix.lookup(a.at(h).key))
				ix.insert(h)
			}
			for i, k := range keys {
				assert.Equal(t, hs[i], ix.lookup(k))
			}
			assert.Equal(t, nilHandle, ix.lookup("epsilon"))

			// remove from the middle of whatever chain beta ended up in
			assert.True(t, ix.remove(hs[1]))
			assert.Equal(t, nilHandle, ix.lookup("beta"))
			assert.False(t, ix.remove(hs[1]))
			for _, i := range []int{0, 2, 3} {
				assert.Equal(t, hs[i], ix.lookup(keys[i]))
			}
		})
	}
}

func TestHashIndex_ChainOrder(t *testing.T) {
	a := newArena(8)
	ix := newHashIndex(3, constHash, a)
	hs := allocAll(t, a, "a", "b", "c")
	for _, h := range hs {
		ix.insert(h)
	}

	var seen []string
	ix.each(func(b int, h handle) {
		assert.Equal(t, ix.bucket("a"), b)
		seen = append(seen, a.at(h).key)
	})
	// insert pushes onto the chain head
	assert.Equal(t, []string{"c", "b", "a"}, seen)

	// chain head and tail removal
	assert.True(t, ix.remove(hs[2]))
	assert.True(t, ix.remove(hs[0]))
	assert.Equal(t, hs[1], ix.lookup("b"))
	assert.Equal(t, nilHandle, a.at(hs[1]).hnext)
}

func TestHashIndex_EachAllowsRelease(t *testing.T) {
	a := newArena(32)
	ix := newHashIndex(4, Murmur3, a)
	for i := 0; i < 20; i++ {
		h, err := a.alloc(fmt.Sprintf("k%d", i), "v")
		require.NoError(t, err)
		ix.insert(h)
	}

	count := 0
	ix.each(func(_ int, h handle) {
		a.release(h)
		count++
	})
	assert.Equal(t, 20, count)
	assert.Equal(t, 0, a.live)
}

func TestArena_AllocLimitAndDoubleRelease(t *testing.T) {
	a := newArena(2)
	hs := allocAll(t, a, "a", "b")

	_, err := a.alloc("c", "v")
	assert.Error(t, err)
	assert.Equal(t, 2, a.live)

	a.release(hs[0])
	assert.Panics(t, func() { a.release(hs[0]) })

	h, err := a.alloc("c", "v")
	require.NoError(t, err)
	assert.Equal(t, hs[0], h, "freed slot is reused")
	assert.Equal(t, "c", a.at(h).key)
}
