// internal/careers/lever.go
package careers

import (
	"context"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/interaction"
)

// Lever posting locators.
var (
	LeverTitle      = driver.CSS(".posting-headline h2")
	LeverLocation   = driver.CSS(".posting-categories .location")
	LeverDepartment = driver.CSS(".posting-categories .department")
)

const leverHost = "jobs.lever.co"

// LeverPage is a job posting hosted on Lever, opened from a card.
type LeverPage struct {
	page
}

// NewLeverPage returns the page object for the active browsing context.
func NewLeverPage(tk *interaction.Toolkit) *LeverPage {
	return &LeverPage{page: newPage(tk, "lever_page")}
}

// IsAt reports whether the active context shows a Lever posting.
func (l *LeverPage) IsAt(ctx context.Context) bool {
	return l.urlContains(ctx, "lever_is_at", leverHost)
}

// Title returns the posting headline.
func (l *LeverPage) Title(ctx context.Context) (string, error) { return l.text(ctx, LeverTitle) }

// Department returns the posting's department category.
func (l *LeverPage) Department(ctx context.Context) (string, error) {
	return l.text(ctx, LeverDepartment)
}

// Location returns the posting's location category.
func (l *LeverPage) Location(ctx context.Context) (string, error) { return l.text(ctx, LeverLocation) }
