package heap

import (
	"testing"

	"github.com/lakesis-vm/lakesis/word"
)

// TestManager_GCSurvival mirrors spec.md §8's concrete scenario:
// allocate 10 objects of 24 bytes, keep the 1st, 5th, and 10th alive
// via roots, force a collection, and check the survivors still read
// back their original bytes with an exact free tail.
func TestManager_GCSurvival(t *testing.T) {
	m := NewManager(24*10, 24*10, nil)

	ids := make([]uint64, 10)
	for i := range ids {
		id, err := m.Allocate(24, nil)
		if err != nil {
			t.Fatalf("unexpected error allocating object %d: %v", i, err)
		}
		ids[i] = id
		if err := m.WriteWord(id, 0, word.Of(uint64(i)*100)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	kept := []uint64{ids[0], ids[4], ids[9]}

	if err := m.Collect(kept); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := m.FreeTail(); got != m.Capacity()-72 {
		t.Fatalf("expected free tail %d, got %d", m.Capacity()-72, got)
	}

	for _, keptIdx := range []int{0, 4, 9} {
		got, err := m.ReadWord(ids[keptIdx], 0)
		if err != nil {
			t.Fatalf("unexpected error reading kept object %d: %v", keptIdx, err)
		}
		if got.Value != uint64(keptIdx)*100 {
			t.Logf("expected %d, got %d", uint64(keptIdx)*100, got.Value)
			t.Fail()
		}
	}

	for _, droppedIdx := range []int{1, 2, 3, 5, 6, 7, 8} {
		if _, _, err := m.Resolve(ids[droppedIdx]); err == nil {
			t.Fatalf("expected object %d to have been swept", droppedIdx)
		}
	}
}

func TestManager_CollectSurvivesReferenceChains(t *testing.T) {
	m := NewManager(256, 256, nil)

	child, err := m.Allocate(8, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parent, err := m.Allocate(8, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	orphan, err := m.Allocate(8, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.WriteWord(parent, 0, word.Ref(child)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := m.Collect([]uint64{parent}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := m.Resolve(child); err != nil {
		t.Fatal("expected child reachable through parent to survive")
	}
	if _, _, err := m.Resolve(orphan); err == nil {
		t.Fatal("expected the unreferenced object to be swept")
	}
}

func TestManager_CollectWarnsOnDanglingReference(t *testing.T) {
	m := NewManager(256, 256, nil)

	if err := m.Collect([]uint64{9999}); err != nil {
		t.Fatalf("dangling root should be a warning, not an error, got %v", err)
	}
}
