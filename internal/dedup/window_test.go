package dedup

import (
	"fmt"
	"testing"
)

func TestWindowRecordAndSeen(t *testing.T) {
	w := NewWindow(8)

	if w.Seen("fp1") {
		t.Fatalf("empty window should not contain fp1")
	}
	w.Record("fp1")
	w.Record("fp1") // repeated record must not grow the window
	if !w.Seen("fp1") {
		t.Fatalf("fp1 should be present after Record")
	}
	if w.Len() != 1 {
		t.Fatalf("Len = %d, want 1", w.Len())
	}
}

func TestWindowEvictsOldestQuarter(t *testing.T) {
	w := NewWindow(8)
	for i := 0; i < 8; i++ {
		w.Record(fmt.Sprintf("fp%d", i))
	}

	// The ninth record exceeds capacity and evicts the oldest quarter (2).
	w.Record("fp8")

	if w.Seen("fp0") || w.Seen("fp1") {
		t.Fatalf("oldest entries should have been evicted")
	}
	if !w.Seen("fp2") || !w.Seen("fp8") {
		t.Fatalf("newer entries must survive eviction")
	}
	if w.Len() != 7 {
		t.Fatalf("Len = %d, want 7", w.Len())
	}
}

func TestWindowTinyCapacityStillBounded(t *testing.T) {
	w := NewWindow(2)
	for i := 0; i < 100; i++ {
		w.Record(fmt.Sprintf("fp%d", i))
	}
	if w.Len() > 2 {
		t.Fatalf("window exceeded capacity: %d", w.Len())
	}
}
