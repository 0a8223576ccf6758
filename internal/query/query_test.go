package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestGetServesCacheUntilStale(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	client := NewClient(WithClock(clock.Now))

	var calls int32
	q := New(client, "settings", 5*time.Minute, func(context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		value, err := q.Get(ctx)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if value != 1 {
			t.Fatalf("expected cached value 1, got %d", value)
		}
	}

	clock.Advance(5 * time.Minute)
	value, err := q.Get(ctx)
	if err != nil {
		t.Fatalf("get after stale: %v", err)
	}
	if value != 2 {
		t.Fatalf("expected refetched value 2, got %d", value)
	}
}

func TestInvalidateForcesRefetchAndAnnouncesTopic(t *testing.T) {
	client := NewClient()
	var calls int32
	q := New(client, "tasks", time.Hour, func(context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	})

	ctx := context.Background()
	if _, err := q.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	client.Invalidate("tasks")

	select {
	case topic := <-client.Changes():
		if topic != "tasks" {
			t.Fatalf("expected tasks topic, got %s", topic)
		}
	default:
		t.Fatal("expected an invalidation announcement")
	}

	value, err := q.Get(ctx)
	if err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if value != 2 {
		t.Fatalf("expected refetch after invalidation, got %d", value)
	}

	// Peek keeps the last value even when stale.
	client.Invalidate("tasks")
	if peeked, ok := q.Peek(); !ok || peeked != 2 {
		t.Fatalf("expected peek to return 2, got %d (%v)", peeked, ok)
	}
}

func TestFetchErrorKeepsPreviousValue(t *testing.T) {
	client := NewClient()
	fail := false
	q := New(client, "streak", time.Hour, func(context.Context) (string, error) {
		if fail {
			return "", errors.New("offline")
		}
		return "ok", nil
	})

	ctx := context.Background()
	if _, err := q.Get(ctx); err != nil {
		t.Fatalf("get: %v", err)
	}
	fail = true
	if _, err := q.Refetch(ctx); err == nil {
		t.Fatal("expected refetch error")
	}
	if value, ok := q.Peek(); !ok || value != "ok" {
		t.Fatalf("expected previous value to survive, got %q", value)
	}
}

func TestConcurrentGetsShareOneFetch(t *testing.T) {
	client := NewClient()
	release := make(chan struct{})
	var calls int32
	q := New(client, "feed", time.Minute, func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 7, nil
	})

	var wg sync.WaitGroup
	started := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			if _, err := q.Get(context.Background()); err != nil {
				t.Errorf("get: %v", err)
			}
		}()
	}
	for i := 0; i < 4; i++ {
		<-started
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one shared fetch, got %d", got)
	}
}

func TestInvalidateDiscardsInFlightFetch(t *testing.T) {
	client := NewClient()
	var server int32
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	var calls int32
	q := New(client, "tasks", time.Hour, func(context.Context) (int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			value := int(atomic.LoadInt32(&server))
			entered <- struct{}{}
			<-release
			return value, nil
		}
		return int(atomic.LoadInt32(&server)), nil
	})

	done := make(chan int)
	go func() {
		value, err := q.Get(context.Background())
		if err != nil {
			t.Errorf("first get: %v", err)
		}
		done <- value
	}()
	<-entered

	atomic.StoreInt32(&server, 1)
	client.Invalidate("tasks")

	value, err := q.Get(context.Background())
	if err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if value != 1 {
		t.Fatalf("expected the post-invalidation value 1, got %d", value)
	}

	close(release)
	if old := <-done; old != 0 {
		t.Fatalf("expected the earlier fetch to return 0, got %d", old)
	}
	cached, err := q.Get(context.Background())
	if err != nil {
		t.Fatalf("cached get: %v", err)
	}
	if cached != 1 {
		t.Fatalf("expected the earlier fetch not to overwrite the cache, got %d", cached)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected two fetches, got %d", got)
	}
}

func TestSetWinsOverInFlightFetch(t *testing.T) {
	client := NewClient()
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	q := New(client, "settings", time.Hour, func(context.Context) (string, error) {
		entered <- struct{}{}
		<-release
		return "before", nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := q.Refetch(context.Background()); err != nil {
			t.Errorf("refetch: %v", err)
		}
	}()
	<-entered
	q.Set("after")
	close(release)
	<-done

	if value, ok := q.Peek(); !ok || value != "after" {
		t.Fatalf("expected the mutation result to stay cached, got %q", value)
	}
}
