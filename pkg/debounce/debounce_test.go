package debounce_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/mindvault/pkg/debounce"
)

func TestDebouncer(t *testing.T) {
	t.Run("Burst collapses into the last call", func(t *testing.T) {
		d := debounce.New(30 * time.Millisecond)
		var calls atomic.Int32
		var last atomic.Int32
		for i := 1; i <= 5; i++ {
			d.Trigger(func() {
				calls.Add(1)
				last.Store(int32(i))
			})
		}

		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
		time.Sleep(60 * time.Millisecond)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, int32(5), last.Load())
		assert.False(t, d.Pending())
	})

	t.Run("Flush runs immediately and only once", func(t *testing.T) {
		d := debounce.New(time.Hour)
		var calls atomic.Int32
		d.Trigger(func() { calls.Add(1) })
		require.True(t, d.Pending())

		assert.True(t, d.Flush())
		assert.False(t, d.Flush())
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("Stop drops pending work", func(t *testing.T) {
		d := debounce.New(10 * time.Millisecond)
		var calls atomic.Int32
		d.Trigger(func() { calls.Add(1) })
		assert.True(t, d.StopAndWait(time.Second))
		d.Trigger(func() { calls.Add(1) })

		time.Sleep(40 * time.Millisecond)
		assert.Zero(t, calls.Load())
	})
}

func TestGroup(t *testing.T) {
	g := debounce.NewGroup(20 * time.Millisecond)
	var a, b atomic.Int32
	for range 3 {
		g.Trigger("a", func() { a.Add(1) })
		g.Trigger("b", func() { b.Add(1) })
	}

	require.Eventually(t, func() bool { return a.Load() == 1 && b.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.True(t, g.StopAndWait(time.Second))
}
