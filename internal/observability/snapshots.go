package observability

import (
	"sync"
	"time"
)

// Snapshot captures the timing of one completed GraphQL request for periodic
// aggregation.
type Snapshot struct {
	Operation  string
	Duration   time.Duration
	FieldCount int
	At         time.Time
}

// Aggregate summarizes the snapshots currently retained in a ring.
type Aggregate struct {
	Count       int
	MaxDuration time.Duration
	AvgDuration time.Duration
}

// SnapshotRing retains the most recent request snapshots in a fixed-capacity
// ring, evicting the oldest entry when full. It is owned by whoever
// constructs it and injected where needed; safe for concurrent use.
type SnapshotRing struct {
	mu    sync.Mutex
	buf   []Snapshot
	next  int
	count int
}

// NewSnapshotRing builds a ring holding up to capacity snapshots. Capacity
// must be positive.
func NewSnapshotRing(capacity int) *SnapshotRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &SnapshotRing{buf: make([]Snapshot, capacity)}
}

// Record adds a snapshot, dropping the oldest one if the ring is full.
func (r *SnapshotRing) Record(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = s
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
}

// Len reports how many snapshots are currently retained.
func (r *SnapshotRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Snapshots returns the retained snapshots, oldest first.
func (r *SnapshotRing) Snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, 0, r.count)
	start := r.next - r.count
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

// Summarize computes aggregate timing over the retained snapshots.
func (r *SnapshotRing) Summarize() Aggregate {
	snaps := r.Snapshots()
	agg := Aggregate{Count: len(snaps)}
	if len(snaps) == 0 {
		return agg
	}
	var total time.Duration
	for _, s := range snaps {
		total += s.Duration
		if s.Duration > agg.MaxDuration {
			agg.MaxDuration = s.Duration
		}
	}
	agg.AvgDuration = total / time.Duration(len(snaps))
	return agg
}
