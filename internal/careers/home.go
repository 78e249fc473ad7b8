// internal/careers/home.go
package careers

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/interaction"
)

// Landing page locators.
var (
	HomeNavbar     = driver.ID("navigation")
	HomeLogo       = driver.CSS("#navigation .header-logo a")
	HomeNavbarDemo = driver.XPath("//header[@id='navigation']//a[contains(normalize-space(.),'Get a demo')]")
	HomeEmailInput = driver.ID("email")
	HomeHeroDemo   = driver.CSS("section.homepage-hero form .redirect-button")
)

const homeClickWithin = 10 * time.Second

// HomePage checks the landing page's navigation and hero form.
type HomePage struct {
	page
	url    string
	domain string
}

// NewHomePage returns the page object for the landing page at rawURL. Logo
// links are expected to point at rawURL's domain.
func NewHomePage(tk *interaction.Toolkit, rawURL string) *HomePage {
	return &HomePage{page: newPage(tk, "home_page"), url: rawURL, domain: siteDomain(rawURL)}
}

// siteDomain returns the host of rawURL without a leading "www.".
func siteDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// Open loads the page and clears any overlay covering it.
func (h *HomePage) Open(ctx context.Context) error {
	if err := h.open(ctx, h.url); err != nil {
		return err
	}
	h.tk.Guard.DismissTransientOverlays(ctx)
	return nil
}

// WaitForMainElements waits for the navbar, the email input and the navbar
// demo link to render.
func (h *HomePage) WaitForMainElements(ctx context.Context) error {
	h.logger.Info("Waiting for homepage elements to load.")
	if !h.waitVisible(ctx, HomeNavbar, h.tk.Timeouts.Default) {
		return fmt.Errorf("navbar %s did not become visible", HomeNavbar)
	}
	if !h.waitVisible(ctx, HomeEmailInput, h.tk.Timeouts.Default) {
		return fmt.Errorf("email input %s did not become visible", HomeEmailInput)
	}
	if !h.waitClickable(ctx, HomeNavbarDemo, h.tk.Timeouts.Default) {
		return fmt.Errorf("navbar demo link %s did not become clickable", HomeNavbarDemo)
	}
	h.logger.Info("Homepage main elements loaded.")
	return nil
}

// NavbarVisible reports whether the navigation bar is displayed.
func (h *HomePage) NavbarVisible(ctx context.Context) bool {
	el := h.first(ctx, HomeNavbar)
	visible := el != nil && h.visible(ctx, el)
	h.report("navbar_visible", visible, HomeNavbar, zap.Bool("exists", el != nil))
	return visible
}

// LogoValid reports whether the logo link is displayed and points at the site.
func (h *HomePage) LogoValid(ctx context.Context) bool {
	el := h.first(ctx, HomeLogo)
	var visible, hrefOK bool
	var href string
	if el != nil {
		visible = h.visible(ctx, el)
		href = h.attribute(ctx, el, "href")
		hrefOK = strings.Contains(href, h.domain)
	}
	ok := visible && hrefOK
	h.report("logo_valid", ok, HomeLogo,
		zap.Bool("exists", el != nil), zap.Bool("visible", visible), zap.String("href", href), zap.String("domain", h.domain))
	return ok
}

// NavbarDemoClickable reports whether the navbar "Get a demo" link becomes
// clickable.
func (h *HomePage) NavbarDemoClickable(ctx context.Context) bool {
	return h.clickable(ctx, "navbar_demo_clickable", HomeNavbarDemo)
}

// EmailInputUsable reports whether the hero email input is visible and enabled.
func (h *HomePage) EmailInputUsable(ctx context.Context) bool {
	el := h.first(ctx, HomeEmailInput)
	var visible, enabled bool
	if el != nil {
		visible = h.visible(ctx, el)
		enabled = h.enabled(ctx, el)
	}
	ok := visible && enabled
	h.report("email_input_usable", ok, HomeEmailInput,
		zap.Bool("exists", el != nil), zap.Bool("visible", visible), zap.Bool("enabled", enabled))
	return ok
}

// HeroDemoClickable reports whether the hero form's "Get a demo" button
// becomes clickable.
func (h *HomePage) HeroDemoClickable(ctx context.Context) bool {
	return h.clickable(ctx, "hero_demo_clickable", HomeHeroDemo)
}

func (h *HomePage) clickable(ctx context.Context, check string, loc driver.Locator) bool {
	exists := h.first(ctx, loc) != nil
	ok := exists && h.waitClickable(ctx, loc, homeClickWithin)
	h.report(check, ok, loc, zap.Bool("exists", exists))
	return ok
}

func (h *HomePage) report(check string, ok bool, loc driver.Locator, fields ...zap.Field) {
	fields = append(fields, zap.String("check", check), zap.Stringer("locator", loc))
	if ok {
		h.logger.Info("Home page check passed.", fields...)
		return
	}
	h.logger.Error("Home page check failed.", fields...)
}
