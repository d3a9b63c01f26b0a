package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/internal/infrastructure/kv"
	"github.com/fastygo/tasktracker/usecase/task"
	"github.com/fastygo/tasktracker/usecase/tracker"
)

type health bool

func (h health) IsOnline() bool { return bool(h) }

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func TestDueWatcher_FollowsTracker(t *testing.T) {
	c := &clock{now: time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC)}
	tr, err := tracker.New(kv.NewMemory(), nil, task.WithClock(c.Now), task.WithLocation(time.UTC))
	require.NoError(t, err)

	w, err := NewDueWatcher(tr, health(true), nil, WatcherConfig{Spec: "@midnight", Location: time.UTC})
	require.NoError(t, err)

	_, ok := w.Current()
	assert.False(t, ok)

	created, err := tr.AddNewTask("Buy milk", 1, c.now.Add(2*time.Hour), "", false)
	require.NoError(t, err)
	next, ok := w.Current()
	require.True(t, ok)
	assert.Equal(t, created.ID, next.ID)

	// The task is now in the past; only a refresh notices.
	c.now = c.now.Add(3 * time.Hour)
	_, ok = w.Current()
	assert.True(t, ok)
	w.Tick()
	_, ok = w.Current()
	assert.False(t, ok)
}

type countingSource struct {
	fn    tracker.NextDueFunc
	calls int
}

func (s *countingSource) OnNextDue(fn tracker.NextDueFunc) { s.fn = fn }
func (s *countingSource) RefreshNextDue() {
	s.calls++
	s.fn(domain.Task{ID: "task-0"}, true)
}

func TestDueWatcher_SkipsWhileOffline(t *testing.T) {
	src := &countingSource{}
	w, err := NewDueWatcher(src, health(false), nil, WatcherConfig{})
	require.NoError(t, err)

	w.Tick()
	assert.Equal(t, 0, src.calls)
	_, ok := w.Current()
	assert.False(t, ok)
}

func TestDueWatcher_StartStop(t *testing.T) {
	src := &countingSource{}
	w, err := NewDueWatcher(src, nil, nil, WatcherConfig{Spec: "@every 1h"})
	require.NoError(t, err)

	w.Start()
	assert.Equal(t, 1, src.calls)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	w.Stop(ctx)
}

func TestDueWatcher_RejectsBadSpec(t *testing.T) {
	_, err := NewDueWatcher(&countingSource{}, nil, nil, WatcherConfig{Spec: "every now and then"})
	assert.Error(t, err)
}
