package frame

import (
	"bytes"
	"testing"
)

func TestNewIsBlankAndOffline(t *testing.T) {
	f := New()
	if f.Online() {
		t.Fatal("new frame must start offline")
	}
	if !bytes.Equal(f.data, Blank) {
		t.Fatal("new frame must start with the embedded blank JPEG")
	}
	if f.Width() != BlankWidth || f.Height() != BlankHeight {
		t.Fatalf("new frame dims = %dx%d, want %dx%d", f.Width(), f.Height(), BlankWidth, BlankHeight)
	}
}

func TestCopyFromSetsOnline(t *testing.T) {
	f := New()
	payload := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	f.CopyFrom(payload, 2, 1, true)
	if !f.Online() {
		t.Fatal("CopyFrom with online=true must mark frame online")
	}
	if !bytes.Equal(f.data, payload) {
		t.Fatalf("frame bytes = %x, want %x", f.data, payload)
	}
	if f.Width() != 2 || f.Height() != 1 {
		t.Fatalf("dims = %dx%d, want 2x1", f.Width(), f.Height())
	}
}

func TestSetBlankIdempotent(t *testing.T) {
	f := New()
	payload := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	f.CopyFrom(payload, 2, 1, true)

	f.SetBlank()
	first := append([]byte(nil), f.data...)
	firstCap := f.Cap()

	f.SetBlank()
	if !bytes.Equal(f.data, first) {
		t.Fatal("second SetBlank must leave frame bytewise unchanged")
	}
	if f.Cap() != firstCap {
		t.Fatal("second SetBlank must not reallocate")
	}
	if f.Online() {
		t.Fatal("frame must be offline after SetBlank")
	}
}

func TestCapacityNeverShrinks(t *testing.T) {
	f := New()
	big := make([]byte, 4096)
	f.CopyFrom(big, 64, 64, true)
	bigCap := f.Cap()

	small := []byte{1, 2, 3}
	f.CopyFrom(small, 1, 1, true)
	if f.Cap() < bigCap {
		t.Fatalf("capacity shrank from %d to %d", bigCap, f.Cap())
	}
	if f.Size() != len(small) {
		t.Fatalf("size = %d, want %d", f.Size(), len(small))
	}

	f.SetBlank()
	if f.Cap() < bigCap {
		t.Fatalf("capacity shrank on SetBlank from %d to %d", bigCap, f.Cap())
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	f := New()
	payload := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	f.CopyFrom(payload, 2, 1, true)

	snap := f.Snapshot()
	f.CopyFrom([]byte{0x00}, 1, 1, true)

	if !bytes.Equal(snap.Data, payload) {
		t.Fatal("snapshot must not observe later mutation of the frame")
	}
	if snap.Width != 2 || snap.Height != 1 || !snap.Online {
		t.Fatalf("unexpected snapshot metadata: %+v", snap)
	}
}
