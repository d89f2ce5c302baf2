package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectionCacheTouchAndGet(t *testing.T) {
	c := NewDetectionCache()
	now := time.Now()

	c.Touch(24, now)
	c.Touch(24, now.Add(time.Second))

	s, ok := c.Get(24)
	require.True(t, ok)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, now.Add(time.Second), s.LastSeen)

	_, ok = c.Get(7)
	assert.False(t, ok)
}

func TestDetectionCacheActivePrunesExpired(t *testing.T) {
	c := NewDetectionCache()
	now := time.Now()

	c.Touch(3, now.Add(-3*time.Minute))
	c.Touch(24, now.Add(-time.Second))
	c.Touch(7, now)

	active := c.Active(now, 2*time.Minute)
	assert.Equal(t, []int{7, 24}, active)

	// The expired entry is gone for good.
	_, ok := c.Get(3)
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestDetectionCacheReset(t *testing.T) {
	c := NewDetectionCache()
	c.Touch(1, time.Now())
	c.Reset()
	assert.Equal(t, 0, c.Len())
}

func TestDetectionCacheConcurrentTouch(t *testing.T) {
	c := NewDetectionCache()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Touch(24, now)
			}
		}()
	}
	wg.Wait()

	s, ok := c.Get(24)
	require.True(t, ok)
	assert.Equal(t, 800, s.Count)
}

func TestSafeCounter(t *testing.T) {
	var c SafeCounter
	c.Inc()
	c.Inc()
	assert.Equal(t, 2, c.Value())
	c.Set(40)
	assert.Equal(t, 40, c.Value())
}
