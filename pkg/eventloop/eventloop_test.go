package eventloop_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/eventloop"
)

func TestLoop_Post(t *testing.T) {
	t.Run("runs callbacks in order", func(t *testing.T) {
		l := eventloop.New()
		defer l.Close()

		var got []int
		for i := range 5 {
			require.True(t, l.Post(func() { got = append(got, i) }))
		}
		require.NoError(t, l.Sync(func() {}))

		assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
	})

	t.Run("serializes posts from many goroutines", func(t *testing.T) {
		l := eventloop.New()
		defer l.Close()

		counter := 0
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for range 20 {
					l.Post(func() { counter++ })
				}
			}()
		}
		wg.Wait()
		require.NoError(t, l.Sync(func() {}))

		assert.Equal(t, 1000, counter)
	})

	t.Run("post after close is rejected", func(t *testing.T) {
		l := eventloop.New()
		require.NoError(t, l.Close())

		assert.False(t, l.Post(func() {}))
		assert.ErrorIs(t, l.Sync(func() {}), eventloop.ErrLoopClosed)
	})

	t.Run("close drains queued callbacks", func(t *testing.T) {
		l := eventloop.New()
		var ran atomic.Int32
		for range 10 {
			l.Post(func() { ran.Add(1) })
		}
		require.NoError(t, l.Close())
		assert.Equal(t, int32(10), ran.Load())
	})

	t.Run("recovers panicking callbacks", func(t *testing.T) {
		l := eventloop.New()
		defer l.Close()

		l.Post(func() { panic("boom") })
		ran := false
		require.NoError(t, l.Sync(func() { ran = true }))
		assert.True(t, ran)
	})

	t.Run("double close is safe", func(t *testing.T) {
		l := eventloop.New()
		require.NoError(t, l.Close())
		require.NoError(t, l.Close())
	})
}

func TestLoop_AfterFunc(t *testing.T) {
	t.Run("fires on the loop", func(t *testing.T) {
		l := eventloop.New()
		defer l.Close()

		fired := make(chan struct{})
		l.AfterFunc(5*time.Millisecond, func() { close(fired) })

		select {
		case <-fired:
		case <-time.After(time.Second):
			t.Fatal("timer did not fire")
		}
	})

	t.Run("stop prevents firing", func(t *testing.T) {
		l := eventloop.New()
		defer l.Close()

		var fired atomic.Bool
		timer := l.AfterFunc(20*time.Millisecond, func() { fired.Store(true) })
		assert.True(t, timer.Stop())
		assert.False(t, timer.Stop())

		time.Sleep(50 * time.Millisecond)
		require.NoError(t, l.Sync(func() {}))
		assert.False(t, fired.Load())
	})
}

func TestManual(t *testing.T) {
	t.Run("post runs only on flush", func(t *testing.T) {
		m := eventloop.NewManual()
		ran := false
		m.Post(func() { ran = true })

		assert.False(t, ran)
		assert.Equal(t, 1, m.Pending())
		m.Flush()
		assert.True(t, ran)
		assert.Equal(t, 0, m.Pending())
	})

	t.Run("flush runs work scheduled by callbacks", func(t *testing.T) {
		m := eventloop.NewManual()
		var got []string
		m.Post(func() {
			got = append(got, "a")
			m.Post(func() { got = append(got, "b") })
			m.AfterFunc(0, func() { got = append(got, "c") })
		})
		m.Flush()
		assert.Equal(t, []string{"a", "b", "c"}, got)
	})

	t.Run("advance fires timers in deadline order", func(t *testing.T) {
		m := eventloop.NewManual()
		start := m.Now()
		var got []time.Duration
		record := func() { got = append(got, m.Now().Sub(start)) }

		m.AfterFunc(30*time.Millisecond, record)
		m.AfterFunc(10*time.Millisecond, record)
		m.AfterFunc(20*time.Millisecond, record)

		m.Advance(25 * time.Millisecond)
		assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, got)
		assert.Equal(t, 25*time.Millisecond, m.Now().Sub(start))

		m.Advance(5 * time.Millisecond)
		assert.Len(t, got, 3)
	})

	t.Run("timers scheduled during advance fire within the window", func(t *testing.T) {
		m := eventloop.NewManual()
		fired := 0
		m.AfterFunc(5*time.Millisecond, func() {
			m.AfterFunc(5*time.Millisecond, func() { fired++ })
		})
		m.Advance(10 * time.Millisecond)
		assert.Equal(t, 1, fired)
	})

	t.Run("stop cancels a pending timer", func(t *testing.T) {
		m := eventloop.NewManual()
		fired := false
		timer := m.AfterFunc(10*time.Millisecond, func() { fired = true })

		assert.True(t, timer.Stop())
		m.Advance(time.Second)
		assert.False(t, fired)
		assert.False(t, timer.Stop())
	})

	t.Run("stop after firing reports false", func(t *testing.T) {
		m := eventloop.NewManual()
		timer := m.AfterFunc(time.Millisecond, func() {})
		m.Advance(time.Millisecond)
		assert.False(t, timer.Stop())
	})

	t.Run("close rejects posts", func(t *testing.T) {
		m := eventloop.NewManual()
		require.NoError(t, m.Close())
		assert.False(t, m.Post(func() {}))
	})
}
