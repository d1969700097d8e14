package cache

import (
	"sync/atomic"
	"time"
)

// Statistics counts cache operations. Counters are atomic so misses can be
// recorded while only the read lock is held.
type Statistics struct {
	hits      atomic.Int64
	misses    atomic.Int64
	inserts   atomic.Int64
	updates   atomic.Int64
	deletes   atomic.Int64
	evictions atomic.Int64
	size      atomic.Int64
	maxSize   atomic.Int64

	startTime time.Time
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{startTime: time.Now()}
}

func (s *Statistics) Hit()      { s.hits.Add(1) }
func (s *Statistics) Miss()     { s.misses.Add(1) }
func (s *Statistics) Insert()   { s.inserts.Add(1) }
func (s *Statistics) Update()   { s.updates.Add(1) }
func (s *Statistics) Delete()   { s.deletes.Add(1) }
func (s *Statistics) Eviction() { s.evictions.Add(1) }

// UpdateSize records the current entry count and tracks the high-water mark.
func (s *Statistics) UpdateSize(size int64) {
	s.size.Store(size)
	for {
		peak := s.maxSize.Load()
		if size <= peak || s.maxSize.CompareAndSwap(peak, size) {
			return
		}
	}
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Hits      int64         `json:"hits"`
	Misses    int64         `json:"misses"`
	Inserts   int64         `json:"inserts"`
	Updates   int64         `json:"updates"`
	Deletes   int64         `json:"deletes"`
	Evictions int64         `json:"evictions"`
	Size      int64         `json:"size"`
	MaxSize   int64         `json:"max_size"`
	HitRatio  float64       `json:"hit_ratio"`
	Uptime    time.Duration `json:"uptime_ns"`
}

// Snapshot returns the current counter values.
func (s *Statistics) Snapshot() Snapshot {
	snap := Snapshot{
		Hits:      s.hits.Load(),
		Misses:    s.misses.Load(),
		Inserts:   s.inserts.Load(),
		Updates:   s.updates.Load(),
		Deletes:   s.deletes.Load(),
		Evictions: s.evictions.Load(),
		Size:      s.size.Load(),
		MaxSize:   s.maxSize.Load(),
		Uptime:    time.Since(s.startTime),
	}
	if total := snap.Hits + snap.Misses; total > 0 {
		snap.HitRatio = float64(snap.Hits) / float64(total)
	}
	return snap
}
