package output

import (
	"fmt"
	"sync"

	"github.com/schmidtdse/joshsim/compat"
	"github.com/schmidtdse/joshsim/log"
	"github.com/schmidtdse/joshsim/stepper"
)

// writeTask is the recycled unit of work handed to the queue: one row
// destined for one inner exporter. Pooling these avoids a heap allocation
// per export call on the hot path.
type writeTask struct {
	row   stepper.ExportRow
	inner stepper.Exporter
}

func (t *writeTask) reset() {
	t.row = stepper.ExportRow{}
	t.inner = nil
}

var writeTaskPool = sync.Pool{New: func() any { return new(writeTask) }}

// AsyncExporter fronts an inner stepper.Exporter with the §4.10
// compatibility-layer queue service, so the stepper's export call never
// blocks on slow I/O (a minio upload, a remote file system) longer than it
// takes to hand the row to the queue. Whether that queue is an
// ants.PoolWithFunc of worker goroutines or an inline single-goroutine
// fallback is compat.Configure's decision, not this package's.
type AsyncExporter struct {
	inner stepper.Exporter
	queue compat.Queue

	mu       sync.Mutex
	errOnce  sync.Once
	firstErr error
}

// NewAsyncExporter wraps inner with a compat.Queue of the given capacity.
func NewAsyncExporter(inner stepper.Exporter, capacity int) (*AsyncExporter, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("output: async exporter queue capacity must be > 0")
	}
	a := &AsyncExporter{inner: inner}
	queue, err := compat.NewQueue(capacity, func(item any) {
		task, ok := item.(*writeTask)
		if !ok {
			panic("output: async exporter queue item type error")
		}
		defer func() {
			task.reset()
			writeTaskPool.Put(task)
		}()
		if err := task.inner.Export(task.row); err != nil {
			a.errOnce.Do(func() {
				a.mu.Lock()
				a.firstErr = err
				a.mu.Unlock()
			})
			log.Default.Errorf("output: async export failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("output: build export queue: %w", err)
	}
	a.queue = queue
	return a, nil
}

// Export enqueues row for asynchronous writing and returns immediately
// (or the first error observed from a prior async write, so failures
// still surface to the stepper's RunReplicate without adding per-row
// latency).
func (a *AsyncExporter) Export(row stepper.ExportRow) error {
	a.mu.Lock()
	err := a.firstErr
	a.mu.Unlock()
	if err != nil {
		return err
	}

	task := writeTaskPool.Get().(*writeTask)
	task.row = row
	task.inner = a.inner
	if err := a.queue.Submit(task); err != nil {
		task.reset()
		writeTaskPool.Put(task)
		return fmt.Errorf("output: submit async export: %w", err)
	}
	return nil
}

// Close waits for every in-flight write to finish, releases the queue, and
// closes the inner exporter.
func (a *AsyncExporter) Close() error {
	a.queue.Join()
	a.queue.Close()

	a.mu.Lock()
	firstErr := a.firstErr
	a.mu.Unlock()

	if closer, ok := a.inner.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
