package cursor

import "testing"

func TestSeedOnlyWhenAbsent(t *testing.T) {
	s := NewStore()

	if !s.Seed("alpha", 102) {
		t.Fatalf("first Seed should succeed")
	}
	if s.Seed("alpha", 50) {
		t.Fatalf("second Seed must be a no-op")
	}
	if seq, ok := s.Get("alpha"); !ok || seq != 102 {
		t.Fatalf("Get = %d,%v; want 102,true", seq, ok)
	}
}

func TestAdvanceIsMonotonic(t *testing.T) {
	s := NewStore()
	s.Seed("alpha", 100)

	if !s.Advance("alpha", 103) {
		t.Fatalf("Advance to a higher value should succeed")
	}
	if s.Advance("alpha", 103) {
		t.Fatalf("Advance to the same value must be a no-op")
	}
	if s.Advance("alpha", 99) {
		t.Fatalf("Advance backwards must be a no-op")
	}
	if seq, _ := s.Get("alpha"); seq != 103 {
		t.Fatalf("cursor = %d, want 103", seq)
	}
}

func TestAdvanceOnUnseededSource(t *testing.T) {
	s := NewStore()
	if !s.Advance("beta", 7) {
		t.Fatalf("Advance on an absent cursor should set it")
	}
	if seq, ok := s.Get("beta"); !ok || seq != 7 {
		t.Fatalf("Get = %d,%v; want 7,true", seq, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, want 1", s.Len())
	}
}
