package generations

import (
	"context"
	"sync"
	"time"

	"github.com/Egham-7/sitegen-mock/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const recordTimeout = 5 * time.Second

// Recorder persists generation records
type Recorder interface {
	RecordGeneration(ctx context.Context, params models.RecordGenerationParams) (*models.GenerationRecord, error)
}

// Worker records finished sessions off the request path
type Worker struct {
	recorder Recorder
	tasks    chan RecordTask
	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopped  bool
	stopOnce sync.Once
}

// RecordTask represents a generation recording task
type RecordTask struct {
	Params    models.RecordGenerationParams
	RequestID string
}

// NewWorker creates a recording worker with the specified pool size
func NewWorker(recorder Recorder, poolSize, bufferSize int) *Worker {
	poolSize = max(poolSize, 1)
	bufferSize = max(bufferSize, 0)

	w := &Worker{
		recorder: recorder,
		tasks:    make(chan RecordTask, bufferSize),
	}

	for range poolSize {
		w.wg.Add(1)
		go w.run()
	}

	return w
}

// Submit queues a record. It never blocks: when the buffer is full the record is dropped.
func (w *Worker) Submit(params models.RecordGenerationParams, requestID string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		fiberlog.Warnf("[%s] Worker stopped, cannot submit generation record", requestID)
		return false
	}

	select {
	case w.tasks <- RecordTask{Params: params, RequestID: requestID}:
		return true
	default:
		fiberlog.Warnf("[%s] Generation record buffer full, dropping record", requestID)
		return false
	}
}

// run processes tasks until the queue is closed and drained
func (w *Worker) run() {
	defer w.wg.Done()

	for task := range w.tasks {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if _, err := w.recorder.RecordGeneration(ctx, task.Params); err != nil {
			fiberlog.Errorf("[%s] Failed to record generation: %v", task.RequestID, err)
		}
		cancel()
	}
}

// Stop refuses new tasks, drains the queue and waits for the pool
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		close(w.tasks)
		w.mu.Unlock()
		w.wg.Wait()
	})
}
