package feeds

import (
	"context"
	"testing"
	"time"
)

func TestHostThrottle(t *testing.T) {
	h := newHostThrottle(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for range 3 {
		if err := h.wait(ctx, "a.example"); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("three requests to one host took %v, want >= 100ms", elapsed)
	}

	start = time.Now()
	if err := h.wait(ctx, "b.example"); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 40*time.Millisecond {
		t.Errorf("first request to a new host waited %v", elapsed)
	}
}

func TestHostThrottle_Canceled(t *testing.T) {
	h := newHostThrottle(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	if err := h.wait(ctx, "a.example"); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	cancel()
	if err := h.wait(ctx, "a.example"); err == nil {
		t.Error("expected context error")
	}
}
