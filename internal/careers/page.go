// internal/careers/page.go
package careers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/interaction"
)

// page holds what every page object shares.
type page struct {
	tk     *interaction.Toolkit
	logger *zap.Logger
}

func newPage(tk *interaction.Toolkit, name string) page {
	if tk == nil {
		panic("careers: page objects require a toolkit")
	}
	return page{tk: tk, logger: tk.Logger.Named(name)}
}

// open navigates and waits for the document to finish loading.
func (p page) open(ctx context.Context, url string) error {
	p.logger.Info("Navigate.", zap.String("url", url))
	if err := p.tk.Driver.Navigate(ctx, url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return p.waitReady(ctx)
}

func (p page) waitReady(ctx context.Context) error {
	p.logger.Debug("Waiting for document.readyState=complete.")
	res := p.tk.Await(ctx, interaction.DocumentReady(p.tk.Driver), p.tk.Timeouts.DocumentReady)
	if err := res.AsError(); err != nil {
		return fmt.Errorf("waiting for document ready: %w", err)
	}
	return nil
}

// urlContains reports whether the current URL contains fragment, logging a
// warning on mismatch.
func (p page) urlContains(ctx context.Context, check, fragment string) bool {
	url, err := p.tk.Driver.CurrentURL(ctx)
	ok := err == nil && strings.Contains(url, fragment)
	if !ok {
		p.logger.Warn("Page check failed.", zap.String("check", check), zap.String("current_url", url), zap.Error(err))
	}
	return ok
}

// first returns the first element matching loc, or nil.
func (p page) first(ctx context.Context, loc driver.Locator) driver.Element {
	els, err := p.tk.Driver.FindElements(ctx, loc)
	if err != nil || len(els) == 0 {
		return nil
	}
	return els[0]
}

func (p page) visible(ctx context.Context, el driver.Element) bool {
	ok, err := p.tk.Driver.IsVisible(ctx, el)
	return err == nil && ok
}

func (p page) enabled(ctx context.Context, el driver.Element) bool {
	ok, err := p.tk.Driver.IsEnabled(ctx, el)
	return err == nil && ok
}

func (p page) attribute(ctx context.Context, el driver.Element, name string) string {
	v, _, err := p.tk.Driver.Attribute(ctx, el, name)
	if err != nil {
		return ""
	}
	return v
}

// waitVisible polls for loc to be visible within timeout.
func (p page) waitVisible(ctx context.Context, loc driver.Locator, timeout time.Duration) bool {
	return p.tk.Await(ctx, interaction.ElementVisible(p.tk.Driver, loc), timeout).OK
}

// waitClickable polls for loc to be visible and enabled within timeout.
func (p page) waitClickable(ctx context.Context, loc driver.Locator, timeout time.Duration) bool {
	return p.tk.Await(ctx, interaction.ElementClickable(p.tk.Driver, loc), timeout).OK
}

// text waits for loc to be visible, then returns its trimmed text.
func (p page) text(ctx context.Context, loc driver.Locator) (string, error) {
	res := p.tk.Await(ctx, interaction.ElementVisible(p.tk.Driver, loc), p.tk.Timeouts.TextRead)
	if err := res.AsError(); err != nil {
		return "", fmt.Errorf("waiting for %s: %w", loc, err)
	}
	el := p.first(ctx, loc)
	if el == nil {
		return "", driver.NewError(driver.KindNotFound, "text", nil).WithLocator(loc)
	}
	text, err := p.tk.Driver.Text(ctx, el)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", loc, err)
	}
	return strings.TrimSpace(text), nil
}
