package utils

import "testing"

func TestSeenSet(t *testing.T) {
	s := NewSeenSet(map[string]struct{}{"4-1111111": {}})

	if !s.Contains("4-1111111") {
		t.Error("preloaded identifier missing")
	}
	if s.Contains("4-2222222") {
		t.Error("unexpected identifier present")
	}

	if !s.Add("4-2222222") {
		t.Error("Add of new identifier returned false")
	}
	if s.Add("4-2222222") {
		t.Error("Add of known identifier returned true")
	}

	if s.Size() != 2 {
		t.Errorf("Size = %d; want 2", s.Size())
	}
}

func TestSeenSetCopiesInitialMap(t *testing.T) {
	initial := map[string]struct{}{"4-1111111": {}}
	s := NewSeenSet(initial)

	delete(initial, "4-1111111")
	if !s.Contains("4-1111111") {
		t.Error("SeenSet must not alias the caller's map")
	}
}
