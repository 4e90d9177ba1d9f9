package demo

import (
	"context"
	"testing"
	"time"

	"github.com/warpcomdev/ustreamerd/internal/source"
)

func TestRunPublishesUntilCancelled(t *testing.T) {
	src := source.New()
	p := NewBlank(src, 100)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	var dest []byte
	var w, h int
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if src.TryConsume(&dest, &w, &h) == source.Captured {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(dest) == 0 {
		t.Fatal("producer never published a frame")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after cancel")
	}

	deadline = time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if src.TryConsume(&dest, &w, &h) == source.Offline {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("producer never published offline after cancel")
}
