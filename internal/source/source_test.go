package source

import "testing"

func TestTryConsumeNoChange(t *testing.T) {
	s := New()
	var dest []byte
	var w, h int
	if res := s.TryConsume(&dest, &w, &h); res != NoChange {
		t.Fatalf("got %v, want NoChange", res)
	}
}

func TestTryConsumeCaptured(t *testing.T) {
	s := New()
	s.Publish([]byte{0xFF, 0xD8, 0xFF, 0xD9}, 2, 1)

	var dest []byte
	var w, h int
	if res := s.TryConsume(&dest, &w, &h); res != Captured {
		t.Fatalf("got %v, want Captured", res)
	}
	if w != 2 || h != 1 || len(dest) != 4 {
		t.Fatalf("unexpected result: dest=%x w=%d h=%d", dest, w, h)
	}

	// updated was cleared: a second consume without a new publish is a no-op.
	if res := s.TryConsume(&dest, &w, &h); res != NoChange {
		t.Fatalf("second consume got %v, want NoChange", res)
	}
}

func TestTryConsumeOffline(t *testing.T) {
	s := New()
	s.Publish([]byte{1, 2, 3}, 1, 1)
	s.PublishOffline()

	var dest []byte
	var w, h int
	if res := s.TryConsume(&dest, &w, &h); res != Offline {
		t.Fatalf("got %v, want Offline", res)
	}
}

func TestDestCapacityNeverShrinks(t *testing.T) {
	s := New()
	s.Publish(make([]byte, 4096), 64, 64)

	var dest []byte
	var w, h int
	s.TryConsume(&dest, &w, &h)
	bigCap := cap(dest)

	s.Publish([]byte{1, 2, 3}, 1, 1)
	s.TryConsume(&dest, &w, &h)
	if cap(dest) < bigCap {
		t.Fatalf("capacity shrank from %d to %d", bigCap, cap(dest))
	}
	if len(dest) != 3 {
		t.Fatalf("len(dest) = %d, want 3", len(dest))
	}
}
