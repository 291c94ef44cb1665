package refresher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingTarget struct {
	calls atomic.Int32
	err   error
}

func (c *countingTarget) Refresh(ctx context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestDisabledRefresherReturnsImmediately(t *testing.T) {
	r := NewRefresher(RefresherConfig{Target: &countingTarget{}})
	if r.Enabled() {
		t.Fatal("zero interval should disable refreshing")
	}
	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
}

func TestRefresherTicks(t *testing.T) {
	target := &countingTarget{err: errors.New("backend down")}
	r := NewRefresher(RefresherConfig{Target: target, Interval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for target.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if target.calls.Load() < 2 {
		t.Fatalf("expected at least two refreshes, got %d", target.calls.Load())
	}
	s := r.Status()
	if s.Running || s.LastError != "backend down" || s.Runs < 2 {
		t.Errorf("unexpected status %+v", s)
	}
}
