// Package query caches remote reads with a stale time and lets callers
// invalidate them by topic. Invalidation is announced on a channel so an
// event loop can refetch what it displays.
package query

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Topic names a group of cached reads.
type Topic string

// Fetcher loads a fresh value from the remote service.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Query is a single cached read. Concurrent Gets of a stale value share one
// fetch.
type Query[T any] struct {
	topic     Topic
	fetch     Fetcher[T]
	staleTime time.Duration
	now       func() time.Time

	mu        sync.RWMutex
	value     T
	fetchedAt time.Time
	valid     bool
	// gen advances on every invalidation and Set. A fetch only stores its
	// result if gen has not moved since it began.
	gen uint64

	group singleflight.Group
}

// New registers a query under topic on the client.
func New[T any](client *Client, topic Topic, staleTime time.Duration, fetch Fetcher[T]) *Query[T] {
	q := &Query[T]{
		topic:     topic,
		fetch:     fetch,
		staleTime: staleTime,
		now:       client.now,
	}
	client.register(topic, q)
	return q
}

func (q *Query[T]) Topic() Topic {
	return q.topic
}

// Get returns the cached value while it is fresh and fetches otherwise.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	if value, ok := q.fresh(); ok {
		return value, nil
	}
	return q.Refetch(ctx)
}

// Refetch ignores the cache and loads a new value. Callers arriving after
// an invalidation never join a fetch that began before it.
func (q *Query[T]) Refetch(ctx context.Context) (T, error) {
	gen := q.generation()
	key := string(q.topic) + "#" + strconv.FormatUint(gen, 10)
	result, err, _ := q.group.Do(key, func() (interface{}, error) {
		value, err := q.fetch(ctx)
		if err != nil {
			return value, err
		}
		q.commit(gen, value)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

// Peek returns the last value regardless of staleness.
func (q *Query[T]) Peek() (T, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.value, !q.fetchedAt.IsZero()
}

// Set stores value as fresh, e.g. from a mutation response. Fetches still
// in flight will not overwrite it.
func (q *Query[T]) Set(value T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.gen++
	q.store(value)
}

func (q *Query[T]) commit(gen uint64, value T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.gen != gen {
		return
	}
	q.store(value)
}

func (q *Query[T]) store(value T) {
	q.value = value
	q.fetchedAt = q.now()
	q.valid = true
}

func (q *Query[T]) generation() uint64 {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.gen
}

func (q *Query[T]) fresh() (T, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.valid {
		var zero T
		return zero, false
	}
	if q.staleTime > 0 && q.now().Sub(q.fetchedAt) >= q.staleTime {
		var zero T
		return zero, false
	}
	return q.value, true
}

func (q *Query[T]) invalidate() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.gen++
	q.valid = false
}

type invalidator interface {
	invalidate()
}

// Client owns a set of queries and broadcasts invalidations.
type Client struct {
	now func() time.Time

	mu      sync.Mutex
	queries map[Topic][]invalidator
	changes chan Topic
}

// Option configures a Client.
type Option func(*Client)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		now:     time.Now,
		queries: make(map[Topic][]invalidator),
		changes: make(chan Topic, 32),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) register(topic Topic, q invalidator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries[topic] = append(c.queries[topic], q)
}

// Invalidate marks every query of the topics stale and announces each
// topic on Changes. Announcements are dropped when nobody is listening and
// the buffer is full; the queries are stale either way.
func (c *Client) Invalidate(topics ...Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, topic := range topics {
		for _, q := range c.queries[topic] {
			q.invalidate()
		}
		select {
		case c.changes <- topic:
		default:
		}
	}
}

// Changes delivers invalidated topics.
func (c *Client) Changes() <-chan Topic {
	return c.changes
}
