package observability

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRingDropsOldest(t *testing.T) {
	ring := NewSnapshotRing(3)
	for i := 0; i < 5; i++ {
		ring.Record(Snapshot{Operation: fmt.Sprintf("op-%d", i)})
	}

	require.Equal(t, 3, ring.Len())
	snaps := ring.Snapshots()
	require.Len(t, snaps, 3)
	assert.Equal(t, "op-2", snaps[0].Operation)
	assert.Equal(t, "op-4", snaps[2].Operation)
}

func TestSnapshotRingPartialFill(t *testing.T) {
	ring := NewSnapshotRing(10)
	ring.Record(Snapshot{Operation: "only"})

	snaps := ring.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, "only", snaps[0].Operation)
}

func TestSnapshotRingSummarize(t *testing.T) {
	ring := NewSnapshotRing(4)
	assert.Equal(t, Aggregate{}, ring.Summarize())

	ring.Record(Snapshot{Duration: 10 * time.Millisecond})
	ring.Record(Snapshot{Duration: 30 * time.Millisecond})

	agg := ring.Summarize()
	assert.Equal(t, 2, agg.Count)
	assert.Equal(t, 30*time.Millisecond, agg.MaxDuration)
	assert.Equal(t, 20*time.Millisecond, agg.AvgDuration)
}

func TestSnapshotRingConcurrentRecords(t *testing.T) {
	ring := NewSnapshotRing(16)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ring.Record(Snapshot{Duration: time.Millisecond})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 16, ring.Len())
}
