// internal/interaction/executor.go
package interaction

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/observability"
)

const scrollIntoViewScript = `function() { this.scrollIntoView({block: 'center', inline: 'nearest'}); }`

// Executor performs clicks and selections that survive transient overlays.
// Each action runs the overlay guard, waits for readiness, scrolls the target
// into view and acts. An action defeated by an overlay is retried exactly once
// after the guard has run again.
type Executor struct {
	driver   driver.Driver
	poller   *Poller
	guard    *Guard
	timeouts Timeouts
	logger   *zap.Logger
}

// NewExecutor builds an executor. It panics on a nil driver or guard.
func NewExecutor(d driver.Driver, poller *Poller, guard *Guard, timeouts Timeouts, logger *zap.Logger) *Executor {
	if d == nil {
		panic("interaction: NewExecutor requires a non-nil driver")
	}
	if guard == nil {
		panic("interaction: NewExecutor requires a non-nil guard")
	}
	if logger == nil {
		logger = observability.GetLogger()
	}
	if poller == nil {
		poller = NewPoller(WithLogger(logger))
	}
	return &Executor{
		driver:   d,
		poller:   poller,
		guard:    guard,
		timeouts: timeouts.Normalize(),
		logger:   logger.Named("executor"),
	}
}

// Click clicks the first element matching loc once it is clickable.
func (e *Executor) Click(ctx context.Context, loc driver.Locator) error {
	return e.guarded(ctx, "click", loc.String(), []driver.ErrorKind{driver.KindIntercepted}, func() error {
		el, err := e.ready(ctx, loc, ElementClickable(e.driver, loc))
		if err != nil {
			return err
		}
		e.scrollIntoView(ctx, el)
		return e.driver.Click(ctx, el)
	})
}

// ClickElement clicks an element the caller already holds.
func (e *Executor) ClickElement(ctx context.Context, el driver.Element) error {
	return e.guarded(ctx, "click", el.Handle(), []driver.ErrorKind{driver.KindIntercepted}, func() error {
		// A held handle that went stale never recovers, so nothing is ignored.
		cfg := e.timeouts.Poll(e.timeouts.Default)
		cfg.Ignored = []driver.ErrorKind{}
		if res := e.poller.Await(ctx, HandleClickable(e.driver, el), cfg); !res.OK {
			return fmt.Errorf("waiting for element %s to be clickable: %w", el.Handle(), res.Err)
		}
		e.scrollIntoView(ctx, el)
		return e.driver.Click(ctx, el)
	})
}

// Select chooses the option with the given visible text in the first <select>
// matching loc. The element is looked up again on retry because a re-rendered
// list invalidates the previous handle.
func (e *Executor) Select(ctx context.Context, loc driver.Locator, visibleText string) error {
	retryOn := []driver.ErrorKind{driver.KindIntercepted, driver.KindStaleReference}
	return e.guarded(ctx, "select", loc.String(), retryOn, func() error {
		el, err := e.ready(ctx, loc, ElementVisible(e.driver, loc))
		if err != nil {
			return err
		}
		e.scrollIntoView(ctx, el)
		return e.driver.SelectByVisibleText(ctx, el, visibleText)
	})
}

func (e *Executor) guarded(ctx context.Context, op, target string, retryOn []driver.ErrorKind, attempt func() error) error {
	e.guard.DismissTransientOverlays(ctx)
	err := attempt()
	if err == nil || !driver.IsKind(err, retryOn...) || ctx.Err() != nil {
		return err
	}

	e.logger.Warn("Action was blocked; dismissing overlays and retrying once.",
		zap.String("op", op), zap.String("target", target), zap.Error(err))
	e.guard.DismissTransientOverlays(ctx)
	return attempt()
}

// ready waits for cond and returns the first element matching loc.
func (e *Executor) ready(ctx context.Context, loc driver.Locator, cond Condition) (driver.Element, error) {
	cfg := e.timeouts.Poll(e.timeouts.Default)
	if res := e.poller.Await(ctx, cond, cfg); !res.OK {
		return nil, fmt.Errorf("waiting for %s: %w", loc, res.Err)
	}
	el, err := first(ctx, e.driver, loc)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, driver.NewError(driver.KindNotFound, "locate", nil).WithLocator(loc)
	}
	return el, nil
}

func (e *Executor) scrollIntoView(ctx context.Context, el driver.Element) {
	if err := e.driver.ExecuteScript(ctx, scrollIntoViewScript, nil, el); err != nil {
		e.logger.Debug("Scroll into view failed; acting anyway.", zap.String("element", el.Handle()), zap.Error(err))
	}
}
