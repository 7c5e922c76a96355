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
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortKeys([]string{"c", "a", "b", "a"}))
	assert.Empty(t, SortKeys(nil))
}

func TestLocalManager_MutualExclusion(t *testing.T) {
	m := NewLocalManager(5 * time.Second)

	var inside int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(context.Background(), "acc_1")
			if !assert.NoError(t, err) {
				return
			}
			defer release()
			assert.Equal(t, int32(1), atomic.AddInt32(&inside, 1))
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, m.Held())
}

func TestLocalManager_OppositeOrderDoesNotDeadlock(t *testing.T) {
	m := NewLocalManager(5 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			release, err := m.Acquire(context.Background(), "acc_a", "acc_b")
			if assert.NoError(t, err) {
				release()
			}
		}()
		go func() {
			defer wg.Done()
			release, err := m.Acquire(context.Background(), "acc_b", "acc_a")
			if assert.NoError(t, err) {
				release()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, m.Held())
}

func TestLocalManager_Timeout(t *testing.T) {
	m := NewLocalManager(50 * time.Millisecond)

	release, err := m.Acquire(context.Background(), "acc_1")
	require.NoError(t, err)

	_, err = m.Acquire(context.Background(), "acc_0", "acc_1")
	assert.ErrorIs(t, err, ErrLockTimeout)

	// acc_0 must have been given back after the failed attempt
	again, err := m.Acquire(context.Background(), "acc_0")
	require.NoError(t, err)
	again()

	release()
	release()
	assert.Equal(t, 0, m.Held())
}

func TestLocalManager_Cancelled(t *testing.T) {
	m := NewLocalManager(time.Second)
	release, err := m.Acquire(context.Background(), "acc_1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Acquire(ctx, "acc_1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRedisManager(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	m := NewRedisManager(client, "zenvest:lock:", time.Minute, 100*time.Millisecond)

	release, err := m.Acquire(context.Background(), "acc_b", "acc_a")
	require.NoError(t, err)
	assert.True(t, mr.Exists("zenvest:lock:acc_a"))
	assert.True(t, mr.Exists("zenvest:lock:acc_b"))

	_, err = m.Acquire(context.Background(), "acc_c", "acc_b")
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.False(t, mr.Exists("zenvest:lock:acc_c"))

	release()
	assert.False(t, mr.Exists("zenvest:lock:acc_a"))
	assert.False(t, mr.Exists("zenvest:lock:acc_b"))

	again, err := m.Acquire(context.Background(), "acc_b")
	require.NoError(t, err)
	again()
}
