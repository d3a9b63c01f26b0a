package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closer struct{ closed *[]string }

func (c closer) Close() error {
	*c.closed = append(*c.closed, "closer")
	return nil
}

func TestManager_RunsHooksInReverseOnce(t *testing.T) {
	m := New(time.Second, nil)
	var order []string
	m.Register("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	m.RegisterCloser("store", closer{closed: &order})
	m.Register("broken", func(context.Context) error {
		order = append(order, "broken")
		return errors.New("boom")
	})

	err := m.Shutdown(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"broken", "closer", "first"}, order)

	again := m.Shutdown(context.Background())
	assert.Equal(t, err, again)
	assert.Len(t, order, 3)
}

func TestManager_StopsAtDeadline(t *testing.T) {
	m := New(20*time.Millisecond, nil)
	ran := false
	m.Register("late", func(context.Context) error {
		ran = true
		return nil
	})
	m.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	err := m.Shutdown(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ran)
}
