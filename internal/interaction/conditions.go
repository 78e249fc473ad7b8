// internal/interaction/conditions.go
package interaction

import (
	"context"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
)

// first returns the first element matching loc, or nil.
func first(ctx context.Context, d driver.Driver, loc driver.Locator) (driver.Element, error) {
	els, err := d.FindElements(ctx, loc)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

// ElementVisible holds once the first match of loc is displayed.
func ElementVisible(d driver.Driver, loc driver.Locator) Condition {
	return func(ctx context.Context) (bool, error) {
		el, err := first(ctx, d, loc)
		if err != nil || el == nil {
			return false, err
		}
		return HandleVisible(d, el)(ctx)
	}
}

// ElementClickable holds once the first match of loc is displayed and enabled.
func ElementClickable(d driver.Driver, loc driver.Locator) Condition {
	return func(ctx context.Context) (bool, error) {
		el, err := first(ctx, d, loc)
		if err != nil || el == nil {
			return false, err
		}
		return HandleClickable(d, el)(ctx)
	}
}

// ElementAbsentOrHidden holds when nothing matches loc, the first match is not
// displayed, or it went stale while being checked.
func ElementAbsentOrHidden(d driver.Driver, loc driver.Locator) Condition {
	return func(ctx context.Context) (bool, error) {
		el, err := first(ctx, d, loc)
		if err != nil {
			return false, err
		}
		if el == nil {
			return true, nil
		}
		visible, err := d.IsVisible(ctx, el)
		if driver.IsKind(err, driver.KindStaleReference, driver.KindNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return !visible, nil
	}
}

// HandleVisible holds once el is displayed.
func HandleVisible(d driver.Driver, el driver.Element) Condition {
	return func(ctx context.Context) (bool, error) {
		return d.IsVisible(ctx, el)
	}
}

// HandleClickable holds once el is displayed and enabled.
func HandleClickable(d driver.Driver, el driver.Element) Condition {
	return func(ctx context.Context) (bool, error) {
		visible, err := d.IsVisible(ctx, el)
		if err != nil || !visible {
			return false, err
		}
		return d.IsEnabled(ctx, el)
	}
}

// CountAtLeast holds once loc matches n or more elements.
func CountAtLeast(d driver.Driver, loc driver.Locator, n int) Condition {
	return func(ctx context.Context) (bool, error) {
		els, err := d.FindElements(ctx, loc)
		if err != nil {
			return false, err
		}
		return len(els) >= n, nil
	}
}

const readyStateScript = `document.readyState`

// DocumentReady holds once document.readyState reports "complete".
func DocumentReady(d driver.Driver) Condition {
	return func(ctx context.Context) (bool, error) {
		var state string
		if err := d.ExecuteScript(ctx, readyStateScript, &state); err != nil {
			return false, err
		}
		return state == "complete", nil
	}
}

// NewContextOpened holds once a browsing context absent from before exists.
// When opened is non-nil it receives the first new handle in sorted order.
func NewContextOpened(d driver.Driver, before driver.HandleSet, opened *string) Condition {
	return func(ctx context.Context) (bool, error) {
		now, err := d.WindowHandles(ctx)
		if err != nil {
			return false, err
		}
		added := now.Diff(before)
		if len(added) == 0 {
			return false, nil
		}
		if opened != nil {
			*opened = added[0]
		}
		return true, nil
	}
}
