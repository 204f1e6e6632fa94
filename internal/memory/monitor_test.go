package memory

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestMonitor(t *testing.T, heap *uint64) *Monitor {
	t.Helper()
	m := NewMonitor(Config{
		LimitBytes:        1000,
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     time.Hour,
	})
	m.readHeap = func() uint64 { return *heap }
	t.Cleanup(m.Stop)
	return m
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.HighWaterMark >= cfg.CriticalWaterMark {
		t.Errorf("High-water mark %v must be below critical %v", cfg.HighWaterMark, cfg.CriticalWaterMark)
	}
	if cfg.CheckInterval <= 0 {
		t.Error("Expected positive check interval")
	}
}

func TestMonitorPauseAndResume(t *testing.T) {
	heap := uint64(500)
	m := newTestMonitor(t, &heap)

	m.check()
	if m.Paused() {
		t.Fatal("Should not pause at 50%")
	}
	if m.Usage() != 0.5 {
		t.Errorf("Expected usage 0.5, got %v", m.Usage())
	}

	heap = 900
	m.check()
	if !m.Paused() {
		t.Fatal("Expected pause at 90%")
	}

	// Between the marks the state is sticky
	heap = 800
	m.check()
	if !m.Paused() {
		t.Fatal("Expected to stay paused at 80%")
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- m.Wait(context.Background()) }()

	select {
	case err := <-waitErr:
		t.Fatalf("Wait returned early: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	heap = 600
	m.check()
	if m.Paused() {
		t.Fatal("Expected resume at 60%")
	}

	select {
	case err := <-waitErr:
		if err != nil {
			t.Errorf("Expected nil from Wait, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after resume")
	}
}

func TestMonitorWaitHonorsContext(t *testing.T) {
	heap := uint64(950)
	m := newTestMonitor(t, &heap)
	m.check()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if err := m.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestMonitorStopReleasesWaiters(t *testing.T) {
	heap := uint64(950)
	m := newTestMonitor(t, &heap)
	m.check()

	done := make(chan error, 1)
	go func() { done <- m.Wait(context.Background()) }()

	m.Stop()
	m.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected nil after Stop, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not return after Stop")
	}
}

func TestMonitorWithoutLimit(t *testing.T) {
	stubLimit(t, 1<<62+1)

	m := NewMonitor(DefaultConfig())
	defer m.Stop()

	if m.Enabled() {
		t.Fatal("Expected monitor without limit to be disabled")
	}
	m.Start()
	m.check()
	if m.Paused() || m.Usage() != 0 {
		t.Error("Disabled monitor must never pause")
	}
	if err := m.Wait(context.Background()); err != nil {
		t.Errorf("Wait should not block, got %v", err)
	}
}
