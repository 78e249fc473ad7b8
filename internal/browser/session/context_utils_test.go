// internal/browser/session/context_utils_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type ctxKey string

const tabKey ctxKey = "tab"

func TestCombineContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("carries tab values", func(t *testing.T) {
		tab := context.WithValue(context.Background(), tabKey, "target-1")

		combined, cancel := CombineContext(tab, context.Background())
		defer cancel()

		assert.Equal(t, "target-1", combined.Value(tabKey))
		assert.NoError(t, combined.Err())
	})

	t.Run("ends with the tab", func(t *testing.T) {
		tab, closeTab := context.WithCancel(context.Background())
		combined, cancel := CombineContext(tab, context.Background())
		defer cancel()

		closeTab()

		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})

	t.Run("ends with the operation deadline", func(t *testing.T) {
		tab, closeTab := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeTab()
		op, cancelOp := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancelOp()

		combined, cancel := CombineContext(tab, op)
		defer cancel()

		select {
		case <-combined.Done():
		case <-time.After(time.Second):
			t.Fatal("combined context outlived the operation deadline")
		}
		assert.ErrorIs(t, op.Err(), context.DeadlineExceeded)
		assert.ErrorIs(t, combined.Err(), context.Canceled)
	})

	t.Run("tab deadline is inherited", func(t *testing.T) {
		deadline := time.Now().Add(time.Minute)
		tab, closeTab := context.WithDeadline(context.Background(), deadline)
		defer closeTab()

		combined, cancel := CombineContext(tab, context.Background())
		defer cancel()

		got, ok := combined.Deadline()
		require.True(t, ok)
		assert.True(t, got.Equal(deadline))
	})

	t.Run("explicit cancel releases the operation", func(t *testing.T) {
		op, cancelOp := context.WithCancel(context.Background())
		defer cancelOp()

		combined, cancel := CombineContext(context.Background(), op)
		cancel()

		assert.ErrorIs(t, combined.Err(), context.Canceled)
		assert.NoError(t, op.Err(), "canceling the combined context leaves the operation alone")
	})
}

func TestDetach(t *testing.T) {
	parent, cancel := context.WithTimeout(context.WithValue(context.Background(), tabKey, "target-1"), time.Millisecond)
	defer cancel()
	<-parent.Done()

	detached := Detach(parent)

	assert.Equal(t, "target-1", detached.Value(tabKey))
	assert.NoError(t, detached.Err())
	assert.Nil(t, detached.Done())
	_, ok := detached.Deadline()
	assert.False(t, ok)

	derived, cancelDerived := context.WithTimeout(detached, 20*time.Millisecond)
	defer cancelDerived()
	<-derived.Done()
	assert.ErrorIs(t, derived.Err(), context.DeadlineExceeded, "derived contexts keep their own deadline")
}
