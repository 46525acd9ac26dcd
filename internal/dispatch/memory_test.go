package dispatch

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	fired []Task
	ch    chan Task
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Task, 16)}
}

func (r *recorder) handle(_ context.Context, task Task) {
	r.mu.Lock()
	r.fired = append(r.fired, task)
	r.mu.Unlock()
	r.ch <- task
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func TestMemoryDispatcherFires(t *testing.T) {
	rec := newRecorder()
	d := NewMemoryDispatcher(rec.handle, zerolog.New(io.Discard))
	defer d.Close()

	task := Task{ID: "t1", EventID: 7, Kind: KindReminder, LeadMinutes: 60, FireAt: time.Now().Add(10 * time.Millisecond)}
	require.NoError(t, d.Schedule(context.Background(), task))

	select {
	case fired := <-rec.ch:
		assert.Equal(t, task.ID, fired.ID)
		assert.Equal(t, KindReminder, fired.Kind)
	case <-time.After(time.Second):
		t.Fatal("task did not fire")
	}
	assert.Equal(t, 0, d.PendingForEvent(7))
}

func TestMemoryDispatcherCancelEvent(t *testing.T) {
	rec := newRecorder()
	d := NewMemoryDispatcher(rec.handle, zerolog.New(io.Discard))
	defer d.Close()

	ctx := context.Background()
	require.NoError(t, d.Schedule(ctx, Task{ID: "a", EventID: 1, Kind: KindReminder, FireAt: time.Now().Add(time.Hour)}))
	require.NoError(t, d.Schedule(ctx, Task{ID: "b", EventID: 1, Kind: KindSummary, FireAt: time.Now().Add(time.Hour)}))
	require.NoError(t, d.Schedule(ctx, Task{ID: "c", EventID: 2, Kind: KindSummary, FireAt: time.Now().Add(time.Hour)}))

	assert.Equal(t, 2, d.PendingForEvent(1))

	require.NoError(t, d.CancelEvent(ctx, 1))
	assert.Equal(t, 0, d.PendingForEvent(1))
	assert.Equal(t, 1, d.PendingForEvent(2), "other events untouched")
	assert.Equal(t, 0, rec.count())
}

func TestMemoryDispatcherPastDueFiresImmediately(t *testing.T) {
	rec := newRecorder()
	d := NewMemoryDispatcher(rec.handle, zerolog.New(io.Discard))
	defer d.Close()

	task := Task{ID: "late", EventID: 3, Kind: KindSummary, FireAt: time.Now().Add(-time.Minute)}
	require.NoError(t, d.Schedule(context.Background(), task))

	select {
	case <-rec.ch:
	case <-time.After(time.Second):
		t.Fatal("past-due task did not fire")
	}
}
