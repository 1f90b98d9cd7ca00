package roomchat

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopRunsTurnsInOrder(t *testing.T) {
	l := newLoop(8)
	defer l.shutdown()

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.True(t, l.post(func() { got = append(got, i) }))
	}
	require.NoError(t, l.call(func() {}))

	require.Len(t, got, 100)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestLoopSerializesConcurrentPosters(t *testing.T) {
	l := newLoop(8)
	defer l.shutdown()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.call(func() { counter++ })
			}
		}()
	}
	wg.Wait()

	var final int
	require.NoError(t, l.call(func() { final = counter }))
	assert.Equal(t, 1000, final)
}

func TestLoopAfterShutdown(t *testing.T) {
	l := newLoop(1)
	l.shutdown()
	l.shutdown()

	assert.False(t, l.post(func() {}))
	assert.ErrorIs(t, l.call(func() {}), ErrClosed)
}
