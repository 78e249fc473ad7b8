// internal/careers/careers_qa.go
package careers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/interaction"
)

// SeeAllQAJobs is the "See all QA jobs" button.
var SeeAllQAJobs = driver.CSS("a.btn.btn-outline-secondary.rounded")

const (
	careersQAPath      = "/careers/quality-assurance/"
	qaDepartmentFilter = "department=qualityassurance"
)

// CareersQAPage is the Quality Assurance team page with its "See all QA
// jobs" link.
type CareersQAPage struct {
	page
	url string
}

// NewCareersQAPage returns the page object for the team page at url.
func NewCareersQAPage(tk *interaction.Toolkit, url string) *CareersQAPage {
	return &CareersQAPage{page: newPage(tk, "careers_qa_page"), url: url}
}

// Open loads the page.
func (c *CareersQAPage) Open(ctx context.Context) error {
	return c.open(ctx, c.url)
}

// IsAt reports whether the browser shows the team page.
func (c *CareersQAPage) IsAt(ctx context.Context) bool {
	return c.urlContains(ctx, "careers_qa_is_at", careersQAPath)
}

// SeeAllJobsVisible reports whether the "See all QA jobs" link becomes visible.
func (c *CareersQAPage) SeeAllJobsVisible(ctx context.Context) bool {
	if !c.waitVisible(ctx, SeeAllQAJobs, c.tk.Timeouts.TextRead) {
		c.logger.Warn("See all QA jobs link not visible in time.", zap.Stringer("locator", SeeAllQAJobs))
		return false
	}
	return true
}

// SeeAllJobsHrefValid reports whether the link carries the QA department filter.
func (c *CareersQAPage) SeeAllJobsHrefValid(ctx context.Context) bool {
	href := c.seeAllHref(ctx)
	ok := strings.Contains(href, qaDepartmentFilter)
	if !ok {
		c.logger.Warn("See all QA jobs href lacks the department filter.",
			zap.String("href", href), zap.Stringer("locator", SeeAllQAJobs))
	}
	return ok
}

// OpenAllJobs clicks through to the open positions list. If the resulting
// URL lost the department filter, the link's href is loaded directly.
func (c *CareersQAPage) OpenAllJobs(ctx context.Context) (*JobsPage, error) {
	expected := c.seeAllHref(ctx)

	if err := c.tk.Executor.Click(ctx, SeeAllQAJobs); err != nil {
		return nil, fmt.Errorf("clicking see all QA jobs: %w", err)
	}
	if err := c.waitReady(ctx); err != nil {
		return nil, err
	}

	if expected != "" {
		url, err := c.tk.Driver.CurrentURL(ctx)
		if err != nil || !strings.Contains(url, qaDepartmentFilter) {
			c.logger.Info("Re-navigating with the link's href to apply the department filter.",
				zap.String("href", expected), zap.String("current_url", url))
			if err := c.open(ctx, expected); err != nil {
				return nil, err
			}
		}
	}
	return NewJobsPage(c.tk), nil
}

// seeAllHref prefers a link that already carries the department filter and
// falls back to the first link's href. It returns "" when there is no link.
func (c *CareersQAPage) seeAllHref(ctx context.Context) string {
	links, err := c.tk.Driver.FindElements(ctx, SeeAllQAJobs)
	if err != nil || len(links) == 0 {
		return ""
	}
	for _, l := range links {
		if href := c.attribute(ctx, l, "href"); strings.Contains(href, qaDepartmentFilter) {
			return href
		}
	}
	return c.attribute(ctx, links[0], "href")
}
