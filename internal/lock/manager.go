/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package redlock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Release frees every lock taken by one Acquire call. It is safe to call more than once.
type Release func()

// Manager hands out exclusive locks over a set of keys. Keys are always taken in
// ascending order so that two callers locking overlapping sets cannot deadlock.
type Manager interface {
	Acquire(ctx context.Context, keys ...string) (Release, error)
}

// SortKeys returns the distinct keys in ascending order.
func SortKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func onceRelease(fn func()) Release {
	var once sync.Once
	return func() { once.Do(fn) }
}

// waitError converts a timed-out wait into ErrLockTimeout unless the caller's own
// context was cancelled.
func waitError(parent context.Context, key string) error {
	if err := parent.Err(); err != nil {
		return err
	}
	return fmt.Errorf("%w: key %s", ErrLockTimeout, key)
}

type slot struct {
	ch   chan struct{}
	refs int
}

// LocalManager keeps one mutex per key inside the process. Entries are dropped
// once no caller holds or waits on them.
type LocalManager struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

func NewLocalManager(wait time.Duration) *LocalManager {
	return &LocalManager{slots: make(map[string]*slot), wait: wait}
}

func (m *LocalManager) ref(key string) *slot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		m.slots[key] = s
	}
	s.refs++
	return s
}

func (m *LocalManager) unref(key string, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(m.slots, key)
	}
}

func (m *LocalManager) Acquire(ctx context.Context, keys ...string) (Release, error) {
	keys = SortKeys(keys)
	waitCtx, cancel := context.WithTimeout(ctx, m.wait)
	defer cancel()

	held := make([]*slot, 0, len(keys))
	releaseHeld := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i].ch
			m.unref(keys[i], held[i])
		}
	}

	for _, key := range keys {
		s := m.ref(key)
		select {
		case s.ch <- struct{}{}:
			held = append(held, s)
		case <-waitCtx.Done():
			m.unref(key, s)
			releaseHeld()
			return nil, waitError(ctx, key)
		}
	}
	return onceRelease(releaseHeld), nil
}

// Held reports how many keys currently have a holder or waiter. Used by tests.
func (m *LocalManager) Held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

// RedisManager takes one Redis lock per key so that several ledger processes
// sharing a datastore serialize on the same accounts.
type RedisManager struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisManager(client redis.UniversalClient, prefix string, ttl, wait time.Duration) *RedisManager {
	return &RedisManager{client: client, prefix: prefix, ttl: ttl, wait: wait}
}

func (m *RedisManager) Acquire(ctx context.Context, keys ...string) (Release, error) {
	keys = SortKeys(keys)
	deadline := time.Now().Add(m.wait)
	holder := uuid.NewString()

	held := make([]*Locker, 0, len(keys))
	releaseHeld := func() {
		// unlock even when the request context has already been cancelled
		unlockCtx := context.WithoutCancel(ctx)
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Unlock(unlockCtx); err != nil {
				logrus.WithField("key", held[i].Key()).Warn("lock release failed: ", err)
			}
		}
	}

	for _, key := range keys {
		locker := NewLocker(m.client, m.prefix+key, holder)
		remaining := time.Until(deadline)
		if remaining <= 0 {
			releaseHeld()
			return nil, waitError(ctx, key)
		}
		if err := locker.WaitLock(ctx, m.ttl, remaining); err != nil {
			releaseHeld()
			if errors.Is(err, ErrLockTimeout) {
				return nil, waitError(ctx, key)
			}
			return nil, err
		}
		held = append(held, locker)
	}
	return onceRelease(releaseHeld), nil
}
