package task

import (
	"strconv"
	"strings"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/internal/infrastructure/kv"
)

// CounterKey holds the next task sequence number.
const CounterKey = "currentId"

// Allocator hands out monotonically increasing task ids backed by a persisted counter.
type Allocator struct {
	store   kv.Store
	counter int
}

// NewAllocator loads the counter. A missing or non-numeric value starts at 0.
func NewAllocator(store kv.Store) (*Allocator, error) {
	a := &Allocator{store: store}
	raw, ok, err := store.Get(CounterKey)
	if err != nil {
		return nil, domain.StorageError("load id counter", err)
	}
	if ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n >= 0 {
			a.counter = n
		}
	}
	return a, nil
}

// Next returns the next id. The counter only advances once the new value is persisted.
func (a *Allocator) Next() (string, error) {
	id := domain.TaskID(a.counter)
	if err := a.store.Set(CounterKey, strconv.Itoa(a.counter+1)); err != nil {
		return "", domain.StorageError("persist id counter", err)
	}
	a.counter++
	return id, nil
}

// Current reports the sequence number the next call to Next will use.
func (a *Allocator) Current() int {
	return a.counter
}

// EnsureAbove raises the counter past seq so an existing id is never handed out again.
func (a *Allocator) EnsureAbove(seq int) error {
	if seq < a.counter {
		return nil
	}
	if err := a.store.Set(CounterKey, strconv.Itoa(seq+1)); err != nil {
		return domain.StorageError("persist id counter", err)
	}
	a.counter = seq + 1
	return nil
}

// Reset removes the persisted counter and starts again from 0.
func (a *Allocator) Reset() error {
	if err := a.store.Remove(CounterKey); err != nil {
		return domain.StorageError("remove id counter", err)
	}
	a.counter = 0
	return nil
}
