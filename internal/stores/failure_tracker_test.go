package stores

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goThrottle/internal/keys"
)

var trackerEpoch = time.UnixMilli(1_700_000_000_000)

func TestFailureTrackerRecordAndLookup(t *testing.T) {
	tr := NewFailureTracker(TrackerConfig{})
	k := keys.ByAddress("1.2.3.4")

	if _, ok := tr.LastFailure(k); ok {
		t.Fatal("expected no entry before first failure")
	}

	if err := tr.RecordFailure(k, trackerEpoch); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	got, ok := tr.LastFailure(k)
	if !ok || !got.Equal(trackerEpoch) {
		t.Fatalf("expected %v, got %v (ok=%v)", trackerEpoch, got, ok)
	}

	later := trackerEpoch.Add(3 * time.Second)
	if err := tr.RecordFailure(k, later); err != nil {
		t.Fatalf("record failure: %v", err)
	}
	if got, _ := tr.LastFailure(k); !got.Equal(later) {
		t.Fatalf("expected overwrite to %v, got %v", later, got)
	}
	if tr.KeyCount() != 1 {
		t.Fatalf("expected 1 key, got %d", tr.KeyCount())
	}
}

func TestFailureTrackerTimestampNeverDecreases(t *testing.T) {
	tr := NewFailureTracker(TrackerConfig{})
	k := keys.ByAddressAndUsername("1.2.3.4", "alice")

	_ = tr.RecordFailure(k, trackerEpoch.Add(10*time.Second))
	_ = tr.RecordFailure(k, trackerEpoch)

	got, _ := tr.LastFailure(k)
	if !got.Equal(trackerEpoch.Add(10 * time.Second)) {
		t.Fatalf("stored timestamp moved backwards to %v", got)
	}
}

func TestFailureTrackerKindsAreSeparate(t *testing.T) {
	tr := NewFailureTracker(TrackerConfig{})

	_ = tr.RecordFailure(keys.ByAddressAndUsername("1.2.3.4", "alice"), trackerEpoch)

	if _, ok := tr.LastFailure(keys.ByAddressAndUsername("1.2.3.4", "bob")); ok {
		t.Fatal("bob must not share alice's entry")
	}
	if _, ok := tr.LastFailure(keys.ByAddress("1.2.3.4")); ok {
		t.Fatal("address key must not share address+username entry")
	}
}

func TestFailureTrackerEvictionLaw(t *testing.T) {
	tr := NewFailureTracker(TrackerConfig{Shards: 4})
	cutoff := trackerEpoch.Add(30 * time.Second)

	offsets := []time.Duration{
		0,
		10 * time.Second,
		30*time.Second - time.Millisecond,
		30 * time.Second,
		30*time.Second + time.Millisecond,
		90 * time.Second,
	}
	for i, off := range offsets {
		k := keys.ByAddress(fmt.Sprintf("10.0.0.%d", i))
		if err := tr.RecordFailure(k, trackerEpoch.Add(off)); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}

	removed := tr.EvictOlderThan(cutoff)
	if removed != 3 {
		t.Fatalf("expected 3 evictions, got %d", removed)
	}

	for i, off := range offsets {
		k := keys.ByAddress(fmt.Sprintf("10.0.0.%d", i))
		_, ok := tr.LastFailure(k)
		wantPresent := !trackerEpoch.Add(off).Before(cutoff)
		if ok != wantPresent {
			t.Fatalf("offset %v: present=%v, want %v", off, ok, wantPresent)
		}
	}
	if tr.KeyCount() != 3 {
		t.Fatalf("expected 3 keys after sweep, got %d", tr.KeyCount())
	}
}

func TestFailureTrackerEvictOnEmptyTracker(t *testing.T) {
	tr := NewFailureTracker(TrackerConfig{})
	if n := tr.EvictOlderThan(trackerEpoch); n != 0 {
		t.Fatalf("expected no evictions, got %d", n)
	}
}

func TestFailureTrackerSweepKeepsFreshWrite(t *testing.T) {
	tr := NewFailureTracker(TrackerConfig{Shards: 1})
	k := keys.ByAddress("1.2.3.4")
	cutoff := trackerEpoch.Add(time.Minute)

	_ = tr.RecordFailure(k, trackerEpoch)

	fresh := cutoff.Add(time.Second)
	tr.sweepHook = func(int) {
		if err := tr.RecordFailure(k, fresh); err != nil {
			t.Errorf("record failure during sweep: %v", err)
		}
	}

	if n := tr.EvictOlderThan(cutoff); n != 0 {
		t.Fatalf("expected fresh entry to survive, got %d evictions", n)
	}
	got, ok := tr.LastFailure(k)
	if !ok || !got.Equal(fresh) {
		t.Fatalf("expected fresh failure %v to be kept, got %v (ok=%v)", fresh, got, ok)
	}
}

func TestFailureTrackerCapacity(t *testing.T) {
	tr := NewFailureTracker(TrackerConfig{MaxKeys: 2})
	a := keys.ByAddress("10.0.0.1")
	b := keys.ByAddress("10.0.0.2")
	c := keys.ByAddress("10.0.0.3")

	if err := tr.RecordFailure(a, trackerEpoch); err != nil {
		t.Fatalf("record a: %v", err)
	}
	if err := tr.RecordFailure(b, trackerEpoch.Add(time.Minute)); err != nil {
		t.Fatalf("record b: %v", err)
	}
	if err := tr.RecordFailure(c, trackerEpoch); !errors.Is(err, ErrTrackerUnavailable) {
		t.Fatalf("expected ErrTrackerUnavailable, got %v", err)
	}
	if err := tr.RecordFailure(a, trackerEpoch.Add(time.Second)); err != nil {
		t.Fatalf("existing key must still update at capacity: %v", err)
	}

	tr.EvictOlderThan(trackerEpoch.Add(30 * time.Second))
	if err := tr.RecordFailure(c, trackerEpoch); err != nil {
		t.Fatalf("expected room after eviction, got %v", err)
	}
	if tr.Capacity() != 2 {
		t.Fatalf("expected capacity 2, got %d", tr.Capacity())
	}
}

func TestFailureTrackerConcurrentRecording(t *testing.T) {
	tr := NewFailureTracker(TrackerConfig{})

	const (
		workers    = 50
		perWorker  = 200
		uniqueKeys = 100
	)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				k := keys.ByAddress(fmt.Sprintf("10.0.%d.%d", (w*perWorker+i)%uniqueKeys, 1))
				ts := trackerEpoch.Add(time.Duration(i) * time.Millisecond)
				if err := tr.RecordFailure(k, ts); err != nil {
					t.Errorf("record failure: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if tr.KeyCount() != uniqueKeys {
		t.Fatalf("expected %d keys, got %d", uniqueKeys, tr.KeyCount())
	}
	if len(tr.Keys()) != uniqueKeys {
		t.Fatalf("expected %d listed keys, got %d", uniqueKeys, len(tr.Keys()))
	}
}

func TestFailureTrackerConcurrentSweepAndRecord(t *testing.T) {
	tr := NewFailureTracker(TrackerConfig{Shards: 8})
	stop := make(chan struct{})

	var sweeper sync.WaitGroup
	sweeper.Add(1)
	go func() {
		defer sweeper.Done()
		for {
			select {
			case <-stop:
				return
			default:
				tr.EvictOlderThan(trackerEpoch.Add(time.Second))
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := keys.ByAddress(fmt.Sprintf("172.16.%d.%d", w, i%10))
				_ = tr.RecordFailure(k, trackerEpoch.Add(time.Minute))
			}
		}(w)
	}
	wg.Wait()
	close(stop)
	sweeper.Wait()

	if tr.KeyCount() != 80 {
		t.Fatalf("fresh entries must survive concurrent sweeps, got %d keys", tr.KeyCount())
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := map[int]int{0: defaultShardCount, -3: defaultShardCount, 1: 1, 3: 4, 16: 16, 17: 32}
	for in, want := range tests {
		if got := nextPowerOfTwo(in); got != want {
			t.Fatalf("nextPowerOfTwo(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestNilFailureTracker(t *testing.T) {
	var tr *FailureTracker
	if _, ok := tr.LastFailure(keys.ByAddress("x")); ok {
		t.Fatal("nil tracker must report no entry")
	}
	if err := tr.RecordFailure(keys.ByAddress("x"), trackerEpoch); !errors.Is(err, ErrTrackerUnavailable) {
		t.Fatalf("expected ErrTrackerUnavailable, got %v", err)
	}
	if tr.EvictOlderThan(trackerEpoch) != 0 || tr.KeyCount() != 0 || tr.Keys() != nil {
		t.Fatal("nil tracker must be inert")
	}
}
