// internal/interaction/overlay.go
package interaction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/observability"
)

// Overlay describes a transient element that can cover the page, such as a
// cookie banner or a marketing pop-up. An unset Dismiss means the container
// itself is clicked to close it.
type Overlay struct {
	Name      string
	Container driver.Locator
	Dismiss   driver.Locator
	Timeout   time.Duration
}

const (
	OverlayCookieBanner   = "cookie_banner"
	OverlayMarketingPopup = "marketing_popup"
)

// DefaultOverlays returns the overlays known to appear on the careers site.
func DefaultOverlays(t Timeouts) []Overlay {
	t = t.Normalize()
	popup := driver.XPath("//*[starts-with(@id,'close-button-')]")
	return []Overlay{
		{
			Name:      OverlayCookieBanner,
			Container: driver.CSS("#wt-cli-cookie-banner"),
			Dismiss:   driver.CSS("#wt-cli-accept-all-btn"),
			Timeout:   t.CookieGuard,
		},
		{
			Name:      OverlayMarketingPopup,
			Container: popup,
			Timeout:   t.PopupGuard,
		},
	}
}

// Guard dismisses overlays before interactions. It never fails: every
// problem is logged and swallowed.
type Guard struct {
	driver   driver.Driver
	poller   *Poller
	interval time.Duration
	overlays []Overlay
	logger   *zap.Logger
}

// NewGuard builds a guard over the given overlays. Overlays without a
// container are dropped with a warning.
func NewGuard(d driver.Driver, poller *Poller, interval time.Duration, logger *zap.Logger, overlays ...Overlay) *Guard {
	if d == nil {
		panic("interaction: NewGuard requires a non-nil driver")
	}
	if logger == nil {
		logger = observability.GetLogger()
	}
	if poller == nil {
		poller = NewPoller(WithLogger(logger))
	}
	logger = logger.Named("overlay_guard")

	kept := make([]Overlay, 0, len(overlays))
	for _, o := range overlays {
		if o.Container.IsZero() {
			logger.Warn("Ignoring overlay without a container locator.", zap.String("overlay", o.Name))
			continue
		}
		if o.Dismiss.IsZero() {
			o.Dismiss = o.Container
		}
		kept = append(kept, o)
	}
	return &Guard{
		driver:   d,
		poller:   poller,
		interval: interval,
		overlays: kept,
		logger:   logger,
	}
}

// DismissTransientOverlays handles each configured overlay independently. It
// is a no-op when none of them is on screen.
func (g *Guard) DismissTransientOverlays(ctx context.Context) {
	for _, o := range g.overlays {
		if ctx.Err() != nil {
			return
		}
		g.run(ctx, o)
	}
}

func (g *Guard) run(ctx context.Context, o Overlay) {
	dismissed, err := g.dismiss(ctx, o)
	if err != nil {
		g.logger.Warn("Could not dismiss overlay; continuing.", zap.String("overlay", o.Name), zap.Error(err))
		return
	}
	if dismissed {
		g.logger.Info("Dismissed overlay.", zap.String("overlay", o.Name))
	}
}

func (g *Guard) dismiss(ctx context.Context, o Overlay) (bool, error) {
	containers, err := g.driver.FindElements(ctx, o.Container)
	if err != nil {
		return false, fmt.Errorf("locating container %s: %w", o.Container, err)
	}
	if len(containers) == 0 {
		return false, nil
	}
	visible, err := g.driver.IsVisible(ctx, containers[0])
	if err != nil || !visible {
		// Gone or hidden between lookup and check; nothing to do.
		return false, nil
	}

	cfg := PollConfig{Timeout: o.Timeout, Interval: g.interval}
	if res := g.poller.Await(ctx, ElementClickable(g.driver, o.Dismiss), cfg); !res.OK {
		return false, fmt.Errorf("waiting for dismiss control %s: %w", o.Dismiss, res.Err)
	}
	btn, err := first(ctx, g.driver, o.Dismiss)
	if err != nil {
		return false, err
	}
	if btn == nil {
		return false, driver.NewError(driver.KindNotFound, "dismiss", nil).WithLocator(o.Dismiss)
	}
	if err := g.driver.Click(ctx, btn); err != nil {
		return false, fmt.Errorf("clicking dismiss control: %w", err)
	}
	if res := g.poller.Await(ctx, ElementAbsentOrHidden(g.driver, o.Container), cfg); !res.OK {
		return false, fmt.Errorf("waiting for %s to close: %w", o.Container, res.Err)
	}
	return true, nil
}
