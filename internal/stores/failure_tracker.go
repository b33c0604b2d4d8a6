package stores

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/MrEthical07/goThrottle/internal/keys"
)

const defaultShardCount = 32

var (
	// ErrTrackerUnavailable indicates the tracker refused a new key because
	// its capacity is exhausted.
	ErrTrackerUnavailable = errors.New("failure tracker unavailable")
)

// TrackerConfig tunes the failure tracker.
type TrackerConfig struct {
	Shards  int // rounded up to a power of two; 0 = default
	MaxKeys int // 0 = unbounded
}

type trackerShard struct {
	mu      sync.RWMutex
	entries map[keys.Key]int64
}

// FailureTracker stores the most recent failure timestamp per key.
type FailureTracker struct {
	shards  []trackerShard
	mask    uint64
	maxKeys int64
	count   atomic.Int64

	// sweepHook runs between the snapshot and delete phases of a shard sweep.
	sweepHook func(shard int)
}

// NewFailureTracker creates an empty tracker.
func NewFailureTracker(cfg TrackerConfig) *FailureTracker {
	n := nextPowerOfTwo(cfg.Shards)
	t := &FailureTracker{
		shards: make([]trackerShard, n),
		mask:   uint64(n - 1),
	}
	if cfg.MaxKeys > 0 {
		t.maxKeys = int64(cfg.MaxKeys)
	}
	for i := range t.shards {
		t.shards[i].entries = make(map[keys.Key]int64)
	}
	return t
}

// LastFailure returns the most recent failure recorded for key.
func (t *FailureTracker) LastFailure(key keys.Key) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	s := t.shardFor(key)

	s.mu.RLock()
	ms, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// RecordFailure stores now as the last failure of key. A timestamp older
// than the stored one leaves the entry unchanged.
func (t *FailureTracker) RecordFailure(key keys.Key, now time.Time) error {
	if t == nil {
		return ErrTrackerUnavailable
	}
	ms := now.UnixMilli()
	s := t.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.entries[key]; ok {
		if ms > current {
			s.entries[key] = ms
		}
		return nil
	}

	if !t.reserve() {
		return ErrTrackerUnavailable
	}
	s.entries[key] = ms
	return nil
}

// EvictOlderThan removes every entry whose timestamp is strictly before
// cutoff and returns the number of removed entries.
func (t *FailureTracker) EvictOlderThan(cutoff time.Time) int {
	if t == nil {
		return 0
	}
	cutoffMs := cutoff.UnixMilli()
	removed := 0

	for i := range t.shards {
		s := &t.shards[i]

		s.mu.RLock()
		var candidates []keys.Key
		for k, ms := range s.entries {
			if ms < cutoffMs {
				candidates = append(candidates, k)
			}
		}
		s.mu.RUnlock()

		if len(candidates) == 0 {
			continue
		}
		if t.sweepHook != nil {
			t.sweepHook(i)
		}

		s.mu.Lock()
		for _, k := range candidates {
			// A failure recorded after the snapshot keeps the entry alive.
			if ms, ok := s.entries[k]; ok && ms < cutoffMs {
				delete(s.entries, k)
				t.count.Add(-1)
				removed++
			}
		}
		s.mu.Unlock()
	}

	return removed
}

// KeyCount returns the number of tracked keys.
func (t *FailureTracker) KeyCount() int {
	if t == nil {
		return 0
	}
	return int(t.count.Load())
}

// Keys returns a point-in-time listing of tracked keys, shard by shard.
func (t *FailureTracker) Keys() []keys.Key {
	if t == nil {
		return nil
	}
	out := make([]keys.Key, 0, t.KeyCount())
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.RLock()
		for k := range s.entries {
			out = append(out, k)
		}
		s.mu.RUnlock()
	}
	return out
}

// Capacity returns the configured key limit, 0 when unbounded.
func (t *FailureTracker) Capacity() int {
	if t == nil {
		return 0
	}
	return int(t.maxKeys)
}

func (t *FailureTracker) reserve() bool {
	for {
		c := t.count.Load()
		if t.maxKeys > 0 && c >= t.maxKeys {
			return false
		}
		if t.count.CompareAndSwap(c, c+1) {
			return true
		}
	}
}

func (t *FailureTracker) shardFor(key keys.Key) *trackerShard {
	var d xxhash.Digest
	d.Reset()
	_, _ = d.Write([]byte{byte(key.Kind)})
	_, _ = d.WriteString(key.Address)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(key.Username)
	return &t.shards[d.Sum64()&t.mask]
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return defaultShardCount
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
