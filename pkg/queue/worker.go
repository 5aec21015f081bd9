package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var tasksProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "wiki_tasks_processed_total",
		Help: "Total number of queued tasks processed",
	},
	[]string{"action", "result"},
)

// Handler processes one task
type Handler func(ctx context.Context, task *Task) error

// Worker dispatches dequeued tasks to registered handlers
type Worker struct {
	queue       Queue
	workers     int
	pollTimeout time.Duration
	logger      zerolog.Logger

	mu       sync.RWMutex
	handlers map[string]Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorker creates a worker pool of n goroutines
func NewWorker(q Queue, n int, pollTimeout time.Duration, logger zerolog.Logger) *Worker {
	if n <= 0 {
		n = 1
	}
	if pollTimeout <= 0 {
		pollTimeout = time.Second
	}
	return &Worker{
		queue:       q,
		workers:     n,
		pollTimeout: pollTimeout,
		logger:      logger.With().Str("component", "queue-worker").Logger(),
		handlers:    make(map[string]Handler),
	}
}

// Register binds a handler to an action name
func (w *Worker) Register(action string, h Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[action] = h
}

// Start launches the pool; it returns immediately
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}
	w.logger.Info().Int("workers", w.workers).Msg("task worker started")
}

// Stop cancels the pool and waits for in-flight tasks
func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info().Msg("task worker stopped")
}

func (w *Worker) loop(ctx context.Context, id int) {
	defer w.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		task, err := w.queue.Dequeue(ctx, w.pollTimeout)
		if err != nil {
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				return
			}
			w.logger.Error().Err(err).Int("worker", id).Msg("dequeue failed")
			// back off before polling a failing transport again
			select {
			case <-time.After(w.pollTimeout):
			case <-ctx.Done():
				return
			}
			continue
		}
		if task == nil {
			continue
		}
		w.Process(ctx, task)
	}
}

// Process runs the handler of one task; failures are logged and counted
func (w *Worker) Process(ctx context.Context, task *Task) {
	w.mu.RLock()
	h, ok := w.handlers[task.Action]
	w.mu.RUnlock()

	log := w.logger.With().Str("task_id", task.ID).Str("action", task.Action).Logger()
	if !ok {
		tasksProcessed.WithLabelValues(task.Action, "unhandled").Inc()
		log.Warn().Msg("no handler registered for action")
		return
	}

	if err := safeRun(ctx, h, task); err != nil {
		tasksProcessed.WithLabelValues(task.Action, "error").Inc()
		log.Error().Err(err).Msg("task failed")
		return
	}
	tasksProcessed.WithLabelValues(task.Action, "ok").Inc()
	log.Debug().Msg("task done")
}

func safeRun(ctx context.Context, h Handler, task *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, task)
}
