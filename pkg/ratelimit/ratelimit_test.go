package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestPacer_NoBlockWhenZeroMax(t *testing.T) {
	p := NewPacer(0, 0)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Errorf("pacer with zero max should not block")
	}
}

func TestPacer_FirstWaitImmediate(t *testing.T) {
	p := NewPacer(time.Second, 2*time.Second)

	start := time.Now()
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Errorf("first wait should not block")
	}
}

func TestPacer_SpacesSuccessiveCalls(t *testing.T) {
	p := NewPacer(50*time.Millisecond, 100*time.Millisecond)
	ctx := context.Background()

	_ = p.Wait(ctx)
	start := time.Now()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := time.Since(start)
	// allow slack for scheduling
	if d < 40*time.Millisecond || d > 250*time.Millisecond {
		t.Errorf("expected wait between 50ms and 100ms, took %v", d)
	}
}

func TestPacer_DoneRestartsDelay(t *testing.T) {
	p := NewPacer(50*time.Millisecond, 50*time.Millisecond)
	ctx := context.Background()

	_ = p.Wait(ctx)
	// an operation slower than the delay
	time.Sleep(80 * time.Millisecond)
	p.Done()

	start := time.Now()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d := time.Since(start); d < 40*time.Millisecond {
		t.Errorf("expected a full delay after Done, waited %v", d)
	}
}

func TestPacer_DelayWithinBounds(t *testing.T) {
	p := NewPacer(500*time.Millisecond, 1500*time.Millisecond)
	for i := 0; i < 100; i++ {
		d := p.Delay()
		if d < 500*time.Millisecond || d > 1500*time.Millisecond {
			t.Fatalf("delay %v out of bounds", d)
		}
	}

	p.rnd = func() float64 { return 0.5 }
	if d := p.Delay(); d != time.Second {
		t.Errorf("expected midpoint delay, got %v", d)
	}
}

func TestPacer_ContextCancellation(t *testing.T) {
	p := NewPacer(time.Second, time.Second)
	_ = p.Wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Wait(ctx); err == nil {
		t.Fatalf("expected context canceled error")
	}
}

func TestPacer_Reset(t *testing.T) {
	p := NewPacer(time.Second, time.Second)
	_ = p.Wait(context.Background())
	p.Reset()

	start := time.Now()
	_ = p.Wait(context.Background())
	if time.Since(start) > 10*time.Millisecond {
		t.Errorf("wait after reset should not block")
	}
}
