package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushAndLen(t *testing.T) {
	q := New[int]()
	assert.True(t, q.Empty())

	q.Push(1, 2, 3)
	assert.Equal(t, 3, q.Len())
	assert.False(t, q.Empty())
}

func TestDrainUpTo(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3, 4, 5)

	first := q.DrainUpTo(2)
	assert.Equal(t, []int{1, 2}, first)
	assert.Equal(t, 3, q.Len())

	rest := q.DrainUpTo(10)
	assert.Equal(t, []int{3, 4, 5}, rest)
	assert.True(t, q.Empty())

	assert.Nil(t, q.DrainUpTo(1))
	assert.Nil(t, q.DrainUpTo(0))
}

func TestConcurrentPushDrain(t *testing.T) {
	q := New[int]()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				q.Push(j)
			}
		}()
	}
	wg.Wait()

	total := 0
	for !q.Empty() {
		total += len(q.DrainUpTo(100))
	}
	require.Equal(t, 1000, total)
}
