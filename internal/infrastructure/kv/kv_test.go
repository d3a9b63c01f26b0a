package kv

import (
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("task-0", `{"id":"task-0"}`))
	require.NoError(t, s.Set("task-1", `{"id":"task-1"}`))
	require.NoError(t, s.Set("proj-Home", `{"name":"Home"}`))
	require.NoError(t, s.Set("currentId", "2"))
	require.NoError(t, s.Set("currentId", "3"))

	v, ok, err := s.Get("currentId")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	keys, err := KeysWithPrefix(s, "task-")
	require.NoError(t, err)
	assert.Equal(t, []string{"task-0", "task-1"}, keys)

	require.NoError(t, s.Remove("task-0"))
	require.NoError(t, s.Remove("task-0"))
	all, err := s.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"task-1", "proj-Home", "currentId"}, all)

	require.NoError(t, RemovePrefix(s, "proj-"))
	all, _ = s.Keys()
	assert.ElementsMatch(t, []string{"task-1", "currentId"}, all)

	assert.NoError(t, s.Ping())
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	exerciseStore(t, m)

	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Set("a", "b"), ErrClosed)
	assert.ErrorIs(t, m.Ping(), ErrClosed)
}

func TestBolt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tracker.db")
	b, err := OpenBolt(path, "")
	require.NoError(t, err)
	exerciseStore(t, b)

	size, err := b.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)
	require.NoError(t, b.Close())

	reopened, err := OpenBolt(path, "")
	require.NoError(t, err)
	defer reopened.Close()
	v, ok, err := reopened.Get("task-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"task-1"}`, v)
}

func TestBolt_SeparateBuckets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")
	a, err := OpenBolt(path, "a")
	require.NoError(t, err)
	require.NoError(t, a.Set("k", "from a"))
	require.NoError(t, a.Close())

	b, err := OpenBolt(path, "b")
	require.NoError(t, err)
	defer b.Close()
	_, ok, err := b.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

type flaky struct {
	*Memory
	failures atomic.Int32
	calls    atomic.Int32
}

func (f *flaky) Set(key, value string) error {
	f.calls.Add(1)
	if f.failures.Load() > 0 {
		f.failures.Add(-1)
		return errors.New("connection reset")
	}
	return f.Memory.Set(key, value)
}

func TestResilient_RetriesTransientFailures(t *testing.T) {
	inner := &flaky{Memory: NewMemory()}
	inner.failures.Store(2)
	r := NewResilient(inner, ResilienceConfig{Attempts: 3, Backoff: time.Millisecond}, nil)

	require.NoError(t, r.Set("k", "v"))
	assert.Equal(t, int32(3), inner.calls.Load())

	v, ok, err := r.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestResilient_OpensBreakerAfterRepeatedFailures(t *testing.T) {
	inner := &flaky{Memory: NewMemory()}
	inner.failures.Store(1000)
	r := NewResilient(inner, ResilienceConfig{
		Attempts:         1,
		Backoff:          time.Millisecond,
		BreakerTimeout:   time.Minute,
		FailureThreshold: 2,
	}, nil)

	assert.Error(t, r.Set("k", "v"))
	assert.Error(t, r.Set("k", "v"))
	assert.Equal(t, gobreaker.StateOpen, r.State())

	err := r.Set("k", "v")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), inner.calls.Load())
}

func TestResilient_KeysPassThrough(t *testing.T) {
	r := NewResilient(NewMemory(), ResilienceConfig{}, nil)
	exerciseStore(t, r)
}
