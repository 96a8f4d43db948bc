package cache

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerialisesKey(t *testing.T) {
	locker := NewLocalLocker()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "student:1")
			if !assert.NoError(t, err) {
				return
			}
			defer release()

			mu.Lock()
			holders++
			if holders > maxSeen {
				maxSeen = holders
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Empty(t, locker.locks)
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	locker := NewLocalLocker()

	releaseA, err := locker.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer releaseA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	releaseB, err := locker.Acquire(ctx, "b")
	require.NoError(t, err)
	releaseB()
}

func TestLocalLockerHonoursContext(t *testing.T) {
	locker := NewLocalLocker()

	release, err := locker.Acquire(context.Background(), "a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// double release is harmless
	release()
	release()

	release, err = locker.Acquire(context.Background(), "a")
	require.NoError(t, err)
	release()
	assert.Empty(t, locker.locks)
}

func TestRedisLocker(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	rc, err := NewRedisCache(url)
	require.NoError(t, err)
	defer rc.Close()

	key := "test:lock:" + uuid.NewString()
	locker := NewRedisLocker(rc, 5*time.Second, 100*time.Millisecond)

	release, err := locker.Acquire(context.Background(), key)
	require.NoError(t, err)

	_, err = locker.Acquire(context.Background(), key)
	assert.ErrorIs(t, err, ErrLockTimeout)

	release()

	_, err = rc.Get(context.Background(), key)
	assert.ErrorIs(t, err, ErrNotFound)

	release, err = locker.Acquire(context.Background(), key)
	require.NoError(t, err)
	release()
}
