// Package testutil provides shared helpers for store tests.
package testutil

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/fastygo/tasktracker/internal/infrastructure/kv"
)

// ErrInjected is returned by FlakyStore when a configured fault fires.
var ErrInjected = errors.New("injected storage failure")

// FlakyStore wraps a kv.Store and fails writes on demand.
type FlakyStore struct {
	kv.Store

	mu sync.Mutex
	// failSetPrefix makes Set fail for keys with this prefix; "" disables.
	failSetPrefix string
	failSetAll    bool
	failRemove    bool
	// failRemovePrefix makes Remove fail for keys with this prefix; "" disables.
	failRemovePrefix string
	failAfter        int
	writes           int
}

func NewFlakyStore(inner kv.Store) *FlakyStore {
	if inner == nil {
		inner = kv.NewMemory()
	}
	return &FlakyStore{Store: inner, failAfter: -1}
}

// FailSetsWithPrefix makes every Set on a key starting with prefix fail.
func (f *FlakyStore) FailSetsWithPrefix(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSetPrefix = prefix
}

// FailAllWrites makes every Set and Remove fail.
func (f *FlakyStore) FailAllWrites() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSetAll = true
	f.failRemove = true
}

// FailRemoves makes every Remove fail.
func (f *FlakyStore) FailRemoves() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRemove = true
}

// FailRemovesWithPrefix makes every Remove on a key starting with prefix fail.
func (f *FlakyStore) FailRemovesWithPrefix(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRemovePrefix = prefix
}

// FailWritesAfter lets n more writes succeed and fails the rest.
func (f *FlakyStore) FailWritesAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAfter = n
	f.writes = 0
}

// Heal clears every configured fault.
func (f *FlakyStore) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSetPrefix = ""
	f.failSetAll = false
	f.failRemove = false
	f.failRemovePrefix = ""
	f.failAfter = -1
}

func (f *FlakyStore) Set(key, value string) error {
	if f.shouldFail(func() bool {
		return f.failSetAll || (f.failSetPrefix != "" && strings.HasPrefix(key, f.failSetPrefix))
	}) {
		return ErrInjected
	}
	return f.Store.Set(key, value)
}

func (f *FlakyStore) Remove(key string) error {
	if f.shouldFail(func() bool {
		return f.failRemove || (f.failRemovePrefix != "" && strings.HasPrefix(key, f.failRemovePrefix))
	}) {
		return ErrInjected
	}
	return f.Store.Remove(key)
}

func (f *FlakyStore) shouldFail(configured func() bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if configured() {
		return true
	}
	if f.failAfter < 0 {
		return false
	}
	f.writes++
	return f.writes > f.failAfter
}

// Snapshot copies every key/value pair currently stored.
func Snapshot(s kv.Store) map[string]string {
	keys, err := s.Keys()
	if err != nil {
		return nil
	}
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok, err := s.Get(k); err == nil && ok {
			out[k] = v
		}
	}
	return out
}

// FixedClock returns a clock function pinned to t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
