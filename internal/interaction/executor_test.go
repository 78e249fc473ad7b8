// internal/interaction/executor_test.go
package interaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/browser/driver/drivertest"
)

var (
	buttonLoc = driver.CSS("a.see-all")
	selectLoc = driver.ID("filter-by-location")
)

func intercepted() error { return driver.NewError(driver.KindIntercepted, "click", nil) }
func stale() error       { return driver.NewError(driver.KindStaleReference, "select", nil) }

func TestExecutorClick(t *testing.T) {
	ctx := context.Background()

	t.Run("clicks a ready element after scrolling it into view", func(t *testing.T) {
		tk, f, _ := newTestToolkit()
		btn := &drivertest.Node{ID: "btn"}
		f.Page().Set(buttonLoc, btn)

		require.NoError(t, tk.Executor.Click(ctx, buttonLoc))

		assert.Equal(t, 1, btn.Clicks)
		require.NotEmpty(t, f.Scripts)
		assert.Contains(t, f.Scripts[0], "scrollIntoView")
	})

	t.Run("interception is retried once after the guard runs again", func(t *testing.T) {
		tk, f, _ := newTestToolkit()
		btn := &drivertest.Node{ID: "btn", ClickErrs: []error{intercepted()}}
		f.Page().Set(buttonLoc, btn)

		require.NoError(t, tk.Executor.Click(ctx, buttonLoc))

		assert.Equal(t, 2, btn.Clicks)
		assert.Equal(t, 2, f.Page().Calls(bannerLoc), "guard runs before the action and before the retry")
	})

	t.Run("a second interception propagates", func(t *testing.T) {
		tk, f, _ := newTestToolkit()
		btn := &drivertest.Node{ID: "btn", ClickErrs: []error{intercepted(), intercepted(), nil}}
		f.Page().Set(buttonLoc, btn)

		err := tk.Executor.Click(ctx, buttonLoc)

		require.Error(t, err)
		assert.Equal(t, driver.KindIntercepted, driver.KindOf(err))
		assert.Equal(t, 2, btn.Clicks, "exactly one retry")
	})

	t.Run("stale click is not retried", func(t *testing.T) {
		tk, f, _ := newTestToolkit()
		btn := &drivertest.Node{ID: "btn", ClickErrs: []error{stale()}}
		f.Page().Set(buttonLoc, btn)

		err := tk.Executor.Click(ctx, buttonLoc)

		assert.ErrorIs(t, err, driver.ErrStale)
		assert.Equal(t, 1, btn.Clicks)
	})

	t.Run("readiness timeout propagates without acting", func(t *testing.T) {
		tk, f, clock := newTestToolkit()
		btn := &drivertest.Node{ID: "btn", Hidden: true}
		f.Page().Set(buttonLoc, btn)

		err := tk.Executor.Click(ctx, buttonLoc)

		require.Error(t, err)
		assert.Equal(t, driver.KindTimeoutExceeded, driver.KindOf(err))
		assert.Zero(t, btn.Clicks)
		assert.Equal(t, tk.Timeouts.Default, clock.Total())
	})

	t.Run("an overlay covering the page is dismissed first", func(t *testing.T) {
		tk, f, _ := newTestToolkit()
		banner, _ := installBanner(f)
		btn := &drivertest.Node{ID: "btn"}
		f.Page().Set(buttonLoc, btn)

		require.NoError(t, tk.Executor.Click(ctx, buttonLoc))

		assert.True(t, banner.Hidden)
		assert.Equal(t, []string{"accept", "btn"}, f.Clicked)
	})
}

func TestExecutorClickElement(t *testing.T) {
	ctx := context.Background()

	t.Run("held element is clicked", func(t *testing.T) {
		tk, _, _ := newTestToolkit()
		card := &drivertest.Node{ID: "card"}

		require.NoError(t, tk.Executor.ClickElement(ctx, card))
		assert.Equal(t, 1, card.Clicks)
	})

	t.Run("stale handle fails without waiting out the timeout", func(t *testing.T) {
		tk, _, clock := newTestToolkit()
		card := &drivertest.Node{ID: "card", Stale: true}

		err := tk.Executor.ClickElement(ctx, card)

		assert.ErrorIs(t, err, driver.ErrStale)
		assert.Empty(t, clock.Sleeps)
	})
}

func TestExecutorSelect(t *testing.T) {
	ctx := context.Background()
	options := []drivertest.Option{{Text: "All"}, {Text: "Istanbul, Turkiye"}}

	t.Run("selects by visible text", func(t *testing.T) {
		tk, f, _ := newTestToolkit()
		sel := &drivertest.Node{ID: "location", Options: options}
		f.Page().Set(selectLoc, sel)

		require.NoError(t, tk.Executor.Select(ctx, selectLoc, "Istanbul, Turkiye"))
		assert.Equal(t, 1, sel.Selected)
	})

	t.Run("stale select is retried once", func(t *testing.T) {
		tk, f, _ := newTestToolkit()
		sel := &drivertest.Node{ID: "location", Options: options, SelectErrs: []error{stale()}}
		f.Page().Set(selectLoc, sel)

		require.NoError(t, tk.Executor.Select(ctx, selectLoc, "Istanbul, Turkiye"))
		assert.Equal(t, 1, sel.Selected)
		assert.Equal(t, 2, f.Page().Calls(bannerLoc))
	})

	t.Run("missing option is not retried", func(t *testing.T) {
		tk, f, _ := newTestToolkit()
		sel := &drivertest.Node{ID: "location", Options: options}
		f.Page().Set(selectLoc, sel)

		err := tk.Executor.Select(ctx, selectLoc, "Ankara, Turkiye")

		assert.ErrorIs(t, err, driver.ErrNotFound)
		assert.Equal(t, 1, f.Page().Calls(bannerLoc))
	})
}

func TestNewExecutorPanicsWithoutDriver(t *testing.T) {
	assert.Panics(t, func() { NewExecutor(nil, nil, &Guard{}, DefaultTimeouts(), nil) })
}
