package contextengine

import (
	"testing"
	"time"
)

func TestHistoryCapacityAndOrder(t *testing.T) {
	h := NewHistory(12)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 13; i++ {
		h.Append(Snapshot{Timestamp: base.Add(time.Duration(i) * 5 * time.Minute)})
	}

	if h.Len() != 12 {
		t.Fatalf("expected 12 entries after 13 inserts, got %d", h.Len())
	}

	snaps := h.Snapshots()
	if len(snaps) != 12 {
		t.Fatalf("expected 12 snapshots, got %d", len(snaps))
	}
	// Oldest entry (i=0) must have been evicted.
	if !snaps[0].Timestamp.Equal(base.Add(5 * time.Minute)) {
		t.Fatalf("expected oldest entry to be the second insert, got %v", snaps[0].Timestamp)
	}
	for i := 1; i < len(snaps); i++ {
		if !snaps[i].Timestamp.After(snaps[i-1].Timestamp) {
			t.Fatalf("snapshots out of order at %d", i)
		}
	}

	latest, ok := h.Latest()
	if !ok || !latest.Timestamp.Equal(base.Add(12 * 5 * time.Minute)) {
		t.Fatalf("unexpected latest entry: %v", latest.Timestamp)
	}
}

func TestHistoryEmpty(t *testing.T) {
	h := NewHistory(12)
	if h.Len() != 0 {
		t.Fatalf("expected empty history, got %d", h.Len())
	}
	if _, ok := h.Latest(); ok {
		t.Fatal("expected no latest entry for empty history")
	}
}
