// Package queue is the fire-and-forget task queue behind reindex and
// edit-notification side effects. Delivery is at-least-once.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrClosed the queue no longer accepts or yields tasks
var ErrClosed = errors.New("queue closed")

// ErrFull the in-memory buffer has no room; the task was dropped
var ErrFull = errors.New("queue full")

// Task one queued action
type Task struct {
	ID       string                 `json:"id"`
	Action   string                 `json:"action"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
	Enqueued time.Time              `json:"enqueued"`
}

// Queue task transport
type Queue interface {
	Enqueue(ctx context.Context, action string, payload map[string]interface{}) error
	// Dequeue waits up to timeout; it returns nil, nil when nothing arrived
	Dequeue(ctx context.Context, timeout time.Duration) (*Task, error)
	Close() error
}

func newTask(action string, payload map[string]interface{}) *Task {
	return &Task{
		ID:       uuid.NewString(),
		Action:   action,
		Payload:  payload,
		Enqueued: time.Now().UTC(),
	}
}

// RedisQueue redis list queue: LPUSH to enqueue, BRPOP to dequeue
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue creates a queue on the list at key
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

// Enqueue pushes a task
func (q *RedisQueue) Enqueue(ctx context.Context, action string, payload map[string]interface{}) error {
	data, err := encodeTask(newTask(action, payload))
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", action, err)
	}
	return nil
}

// Dequeue pops the oldest task
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	res, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("dequeue: %w", err)
	}
	// BRPOP returns [key, value]
	if len(res) != 2 {
		return nil, fmt.Errorf("dequeue: unexpected reply length %d", len(res))
	}
	return decodeTask([]byte(res[1]))
}

// Len number of waiting tasks
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// Close the redis client is owned by the caller
func (q *RedisQueue) Close() error { return nil }

func encodeTask(t *Task) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode task %s: %w", t.Action, err)
	}
	return data, nil
}

func decodeTask(data []byte) (*Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode task: %w", err)
	}
	if t.Action == "" {
		return nil, fmt.Errorf("decode task: missing action")
	}
	return &t, nil
}

// MemoryQueue in-process queue used when redis is not configured
type MemoryQueue struct {
	tasks  chan *Task
	closed chan struct{}
}

// NewMemoryQueue creates a queue holding up to size tasks
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	return &MemoryQueue{
		tasks:  make(chan *Task, size),
		closed: make(chan struct{}),
	}
}

// Enqueue never blocks: a full buffer drops the task with ErrFull
func (q *MemoryQueue) Enqueue(ctx context.Context, action string, payload map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-q.closed:
		return ErrClosed
	default:
	}
	select {
	case q.tasks <- newTask(action, payload):
		return nil
	default:
		return ErrFull
	}
}

// Dequeue waits for a task
func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Task, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case t := <-q.tasks:
		return t, nil
	case <-q.closed:
		return nil, ErrClosed
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Len number of waiting tasks
func (q *MemoryQueue) Len() int { return len(q.tasks) }

// Close stops the queue; waiting tasks are dropped
func (q *MemoryQueue) Close() error {
	select {
	case <-q.closed:
	default:
		close(q.closed)
	}
	return nil
}
