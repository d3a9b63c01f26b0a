// Package kv is the persistence boundary for the tracker: a flat string
// key/value store with enumeration. Drivers hold no business logic.
package kv

import (
	"errors"
	"sort"
	"strings"
)

// ErrClosed is returned by drivers used after Close.
var ErrClosed = errors.New("kv: store is closed")

// Store is a synchronous, durable key/value store.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(key string) error
	// Keys enumerates every key currently stored.
	Keys() ([]string, error)
	Ping() error
	Close() error
}

// KeysWithPrefix returns the sorted subset of keys in s that start with prefix.
func KeysWithPrefix(s Store, prefix string) ([]string, error) {
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}
	out := keys[:0]
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// RemovePrefix deletes every key starting with prefix.
func RemovePrefix(s Store, prefix string) error {
	keys, err := KeysWithPrefix(s, prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.Remove(k); err != nil {
			return err
		}
	}
	return nil
}
