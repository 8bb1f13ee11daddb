package turn_test

import (
	"context"
	"sync"
	"testing"

	"drivethru/internal/turn"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	t.Run("should serialize turns for the same session", func(t *testing.T) {
		r := turn.NewRegistry()
		var active, maxActive int
		var mu sync.Mutex
		var wg sync.WaitGroup

		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				release := r.Acquire("session-1")
				defer release()

				mu.Lock()
				active++
				if active > maxActive {
					maxActive = active
				}
				mu.Unlock()

				mu.Lock()
				active--
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, maxActive)
	})

	t.Run("should cancel only the synthesis context on barge-in", func(t *testing.T) {
		r := turn.NewRegistry()
		release := r.Acquire("session-1")
		defer release()

		synthCtx, done := r.BeginSynthesis(context.Background(), "session-1")
		defer done()

		require.True(t, r.BargeIn("session-1"))

		select {
		case <-synthCtx.Done():
		default:
			t.Fatal("synthesis context was not cancelled")
		}
	})

	t.Run("should report nothing to cancel outside synthesis", func(t *testing.T) {
		r := turn.NewRegistry()

		assert.False(t, r.BargeIn("session-1"))

		_, done := r.BeginSynthesis(context.Background(), "session-1")
		done()
		assert.False(t, r.BargeIn("session-1"))
	})

	t.Run("should forget released sessions", func(t *testing.T) {
		r := turn.NewRegistry()
		release := r.Acquire("session-1")
		release()

		r.Forget("session-1")

		assert.False(t, r.BargeIn("session-1"))
	})
}
