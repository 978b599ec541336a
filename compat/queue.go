package compat

import (
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Queue is the bounded queue service primitive: Submit hands an item to
// the consumer callback (asynchronously under Threaded, inline under
// SingleThreaded); Join blocks until every submitted item has been
// delivered.
type Queue interface {
	Submit(item any) error
	Join()
	Close()
}

// NewQueue returns the Queue variant appropriate for the configured
// environment: an ants.PoolWithFunc-backed queue under Threaded, a queue
// that runs the consumer inline on the submitting goroutine under
// SingleThreaded (capacity is not used there).
func NewQueue(capacity int, consume func(item any)) (Queue, error) {
	if currentEnvironment == SingleThreaded {
		return newSingleGoroutineQueue(capacity, consume), nil
	}
	return newAntsQueue(capacity, consume)
}

// antsQueue is the native-thread implementation: a bounded worker pool
// where every submitted item runs consume on whichever goroutine the pool
// schedules it to.
type antsQueue struct {
	pool *ants.PoolWithFunc
	wg   sync.WaitGroup
}

func newAntsQueue(capacity int, consume func(item any)) (*antsQueue, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("compat: queue capacity must be > 0")
	}
	q := &antsQueue{}
	pool, err := ants.NewPoolWithFunc(capacity, func(item any) {
		defer q.wg.Done()
		consume(item)
	})
	if err != nil {
		return nil, fmt.Errorf("compat: build ants pool: %w", err)
	}
	q.pool = pool
	return q, nil
}

func (q *antsQueue) Submit(item any) error {
	q.wg.Add(1)
	if err := q.pool.Invoke(item); err != nil {
		q.wg.Done()
		return err
	}
	return nil
}

func (q *antsQueue) Join()  { q.wg.Wait() }
func (q *antsQueue) Close() { q.pool.Release() }

// singleGoroutineQueue runs the consumer inline, on the caller's
// goroutine, for environments with no scheduler to hand work off to.
type singleGoroutineQueue struct {
	consume func(item any)
}

func newSingleGoroutineQueue(_ int, consume func(item any)) *singleGoroutineQueue {
	return &singleGoroutineQueue{consume: consume}
}

func (q *singleGoroutineQueue) Submit(item any) error {
	q.consume(item)
	return nil
}

func (q *singleGoroutineQueue) Join()  {}
func (q *singleGoroutineQueue) Close() {}
