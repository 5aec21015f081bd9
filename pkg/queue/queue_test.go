package queue

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_FIFO(t *testing.T) {
	q := NewMemoryQueue(4)
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, "wiki.reindex", map[string]interface{}{"id": 1}))
	require.NoError(t, q.Enqueue(ctx, "wiki.notify_edit", nil))
	assert.Equal(t, 2, q.Len())

	first, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "wiki.reindex", first.Action)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 1, first.Payload["id"])

	second, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "wiki.notify_edit", second.Action)
}

func TestMemoryQueue_TimeoutAndClose(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx := context.Background()

	task, err := q.Dequeue(ctx, 10*time.Millisecond)
	assert.NoError(t, err)
	assert.Nil(t, task)

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	assert.ErrorIs(t, q.Enqueue(ctx, "x", nil), ErrClosed)
	_, err = q.Dequeue(ctx, time.Second)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryQueue_FullBufferDoesNotBlock(t *testing.T) {
	q := NewMemoryQueue(1)
	require.NoError(t, q.Enqueue(context.Background(), "fill", nil))

	start := time.Now()
	assert.ErrorIs(t, q.Enqueue(context.Background(), "overflow", nil), ErrFull)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 1, q.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.Enqueue(ctx, "cancelled", nil), context.Canceled)
}

func TestTaskCodec(t *testing.T) {
	data, err := encodeTask(newTask("wiki.reindex", map[string]interface{}{"id": float64(9)}))
	require.NoError(t, err)

	task, err := decodeTask(data)
	require.NoError(t, err)
	assert.Equal(t, "wiki.reindex", task.Action)
	assert.Equal(t, float64(9), task.Payload["id"])

	_, err = decodeTask([]byte(`{"id":"x"}`))
	assert.Error(t, err)
	_, err = decodeTask([]byte(`not json`))
	assert.Error(t, err)
}

func TestRedisQueue_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	q := NewRedisQueue(client, "test:tasks")

	err := q.Enqueue(context.Background(), "wiki.reindex", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue wiki.reindex")
}

func TestWorker_DispatchesToHandlers(t *testing.T) {
	q := NewMemoryQueue(8)
	w := NewWorker(q, 2, 10*time.Millisecond, zerolog.Nop())

	var mu sync.Mutex
	seen := map[string]int{}
	done := make(chan struct{}, 3)
	w.Register("wiki.reindex", func(_ context.Context, task *Task) error {
		mu.Lock()
		seen[task.Action]++
		mu.Unlock()
		done <- struct{}{}
		return nil
	})
	w.Register("wiki.notify_edit", func(_ context.Context, task *Task) error {
		mu.Lock()
		seen[task.Action]++
		mu.Unlock()
		done <- struct{}{}
		return errors.New("mail down")
	})

	w.Start(context.Background())
	defer w.Stop()

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, "wiki.reindex", nil))
	require.NoError(t, q.Enqueue(ctx, "wiki.reindex", nil))
	require.NoError(t, q.Enqueue(ctx, "wiki.notify_edit", nil))

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for tasks")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, seen["wiki.reindex"])
	assert.Equal(t, 1, seen["wiki.notify_edit"])
}

func TestWorker_ProcessRecoversAndLogs(t *testing.T) {
	var buf bytes.Buffer
	w := NewWorker(NewMemoryQueue(1), 1, time.Millisecond, zerolog.New(&buf))
	w.Register("boom", func(context.Context, *Task) error { panic("bad handler") })

	w.Process(context.Background(), newTask("boom", nil))
	w.Process(context.Background(), newTask("unknown", nil))

	assert.Contains(t, buf.String(), "panic: bad handler")
	assert.Contains(t, buf.String(), "no handler registered")
}

func TestWorker_StopsOnClosedQueue(t *testing.T) {
	q := NewMemoryQueue(1)
	w := NewWorker(q, 1, time.Second, zerolog.Nop())
	w.Start(context.Background())

	require.NoError(t, q.Close())

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
