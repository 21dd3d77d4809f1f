package debounce

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitSingle(t *testing.T) {
	d := New(20 * time.Millisecond)

	start := time.Now()
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Wait() returned after %v, want at least the delay", elapsed)
	}
}

func TestBurstFetchesOnce(t *testing.T) {
	d := New(100 * time.Millisecond)

	var fetches atomic.Int32
	var fetched atomic.Value
	search := func(term string) error {
		if err := d.Wait(context.Background()); err != nil {
			return err
		}
		fetches.Add(1)
		fetched.Store(term)
		return nil
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = search("al")
	}()

	time.Sleep(30 * time.Millisecond)
	errs[1] = search("alice")
	wg.Wait()

	if !errors.Is(errs[0], ErrSuperseded) {
		t.Errorf("first search error = %v, want ErrSuperseded", errs[0])
	}
	if errs[1] != nil {
		t.Errorf("second search error = %v", errs[1])
	}
	if n := fetches.Load(); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}
	if got := fetched.Load(); got != "alice" {
		t.Errorf("fetched %v, want alice", got)
	}
}

func TestQuietInputsBothProceed(t *testing.T) {
	d := New(10 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := d.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() #%d error = %v", i, err)
		}
	}
}

func TestWaitContextCancelled(t *testing.T) {
	d := New(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want context.Canceled", err)
	}
}

func TestCancel(t *testing.T) {
	d := New(time.Second)

	done := make(chan error, 1)
	go func() { done <- d.Wait(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	d.Cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("Wait() error = %v, want ErrSuperseded", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Wait() not released by Cancel")
	}
}

func TestDefaultDelay(t *testing.T) {
	if got := New(0).Delay(); got != 300*time.Millisecond {
		t.Errorf("Delay() = %v, want 300ms", got)
	}
}
