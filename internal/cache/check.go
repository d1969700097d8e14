package cache

import (
	"fmt"

	cmerrors "cachemgr/pkg/errors"
)

// Check walks the whole structure under the read lock and reports the first
// inconsistency between the index, the recency list and the size counter.
func (c *Cache) Check() error {
	if c == nil {
		return cmerrors.ErrInvalidArgument
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.destroyed {
		return cmerrors.ErrDestroyed
	}
	return c.checkLocked()
}

func (c *Cache) checkLocked() error {
	if c.size > c.capacity {
		return inconsistent("size %d exceeds capacity %d", c.size, c.capacity)
	}
	if c.arena.live != c.size {
		return inconsistent("arena holds %d live entries, size is %d", c.arena.live, c.size)
	}

	inList := make(map[handle]struct{}, c.size)
	prev := nilHandle
	for h := c.order.head; h != nilHandle; h = c.arena.at(h).next {
		e := c.arena.at(h)
		if !e.live {
			return inconsistent("list references free slot %d", h)
		}
		if e.prev != prev {
			return inconsistent("entry %q has prev %d, want %d", e.key, e.prev, prev)
		}
		if _, dup := inList[h]; dup {
			return inconsistent("list cycles at entry %q", e.key)
		}
		inList[h] = struct{}{}
		if got := c.index.lookup(e.key); got != h {
			return inconsistent("list entry %q resolves to %d in the index, want %d", e.key, got, h)
		}
		prev = h
	}
	if prev != c.order.tail {
		return inconsistent("list tail is %d, walk ended at %d", c.order.tail, prev)
	}
	if len(inList) != c.size || c.order.len != c.size {
		return inconsistent("list length %d (tracked %d), size is %d", len(inList), c.order.len, c.size)
	}

	indexed := 0
	var err error
	c.index.each(func(b int, h handle) {
		if err != nil {
			return
		}
		e := c.arena.at(h)
		switch {
		case !e.live:
			err = inconsistent("bucket %d references free slot %d", b, h)
		case c.index.bucket(e.key) != b:
			err = inconsistent("entry %q chained in bucket %d, hashes to %d", e.key, b, c.index.bucket(e.key))
		default:
			if _, ok := inList[h]; !ok {
				err = inconsistent("indexed entry %q missing from the list", e.key)
			}
		}
		indexed++
	})
	if err != nil {
		return err
	}
	if indexed != c.size {
		return inconsistent("index holds %d entries, size is %d", indexed, c.size)
	}
	return nil
}

func inconsistent(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{cmerrors.ErrInconsistent}, args...)...)
}
