// internal/careers/jobs.go
package careers

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/interaction"
)

// Open positions locators.
var (
	JobsLocationSelect   = driver.ID("filter-by-location")
	JobsDepartmentSelect = driver.ID("filter-by-department")
	JobsList             = driver.ID("jobs-list")
)

const openPositionsPath = "/careers/open-positions/"

// JobsPage is the filterable open positions list.
type JobsPage struct {
	page
	cards CardSpec
}

// NewJobsPage returns the page object for the open positions list.
func NewJobsPage(tk *interaction.Toolkit) *JobsPage {
	return &JobsPage{page: newPage(tk, "jobs_page"), cards: OpenPositionsCards()}
}

// Cards returns the card layout the page reads.
func (j *JobsPage) Cards() CardSpec { return j.cards }

// IsAt reports whether the browser shows the open positions list.
func (j *JobsPage) IsAt(ctx context.Context) bool {
	return j.urlContains(ctx, "jobs_is_at", openPositionsPath)
}

// WaitForCardsLoaded reports whether some card rendered its text in time.
func (j *JobsPage) WaitForCardsLoaded(ctx context.Context) bool {
	return j.tk.Stabilizer.WaitForPopulated(ctx, j.cards.List(), j.tk.Timeouts.CardsLoaded)
}

// DepartmentIsQA reports whether the department filter was preselected as
// Quality Assurance, judged by the selected option's text or class.
func (j *JobsPage) DepartmentIsQA(ctx context.Context) bool {
	url, _ := j.tk.Driver.CurrentURL(ctx)
	j.logger.Info("Checking the preselected department.", zap.String("url", url))

	if !j.waitVisible(ctx, JobsDepartmentSelect, j.tk.Timeouts.Default) {
		j.logger.Warn("Department filter not visible.", zap.Stringer("locator", JobsDepartmentSelect))
		return false
	}

	cond := func(ctx context.Context) (bool, error) {
		text, class := j.selectedDepartment(ctx)
		return isQADepartment(text, class), nil
	}
	ok := j.tk.Await(ctx, cond, j.tk.Timeouts.Default).OK

	text, class := j.selectedDepartment(ctx)
	var value string
	if el := j.first(ctx, JobsDepartmentSelect); el != nil {
		value = j.attribute(ctx, el, "value")
	}
	j.logger.Info("Department filter state.",
		zap.String("selected_text", NormalizeWhitespace(text)),
		zap.String("selected_class", NormalizeWhitespace(class)),
		zap.String("value", NormalizeWhitespace(value)),
		zap.Bool("quality_assurance", ok))
	return ok
}

func isQADepartment(text, class string) bool {
	return strings.Contains(fold(text), "quality assurance") || strings.Contains(fold(class), "qualityassurance")
}

// selectedDepartment reads the selected option; failures read as "".
func (j *JobsPage) selectedDepartment(ctx context.Context) (text, class string) {
	el := j.first(ctx, JobsDepartmentSelect)
	if el == nil {
		return "", ""
	}
	text, class, err := j.tk.Driver.SelectedOption(ctx, el)
	if err != nil {
		return "", ""
	}
	return text, class
}

// SelectLocation applies the location filter and waits for the list to
// re-render: first for its text to change, then a settle pause, then for a
// populated card. populated reports whether that last wait succeeded; an
// unchanged list text is tolerated.
func (j *JobsPage) SelectLocation(ctx context.Context, location string) (populated bool, err error) {
	st := j.tk.Stabilizer
	before := st.Snapshot(ctx, JobsList)

	if err := j.tk.Executor.Select(ctx, JobsLocationSelect, location); err != nil {
		return false, fmt.Errorf("selecting location %q: %w", location, err)
	}
	j.logger.Info("Location filter applied.", zap.String("location", location))

	st.WaitForContentChange(ctx, JobsList, before, j.tk.Timeouts.ContentChange)
	if err := st.Settle(ctx, j.tk.Timeouts.Settle); err != nil {
		return false, fmt.Errorf("settling after location filter: %w", err)
	}
	return st.WaitForPopulated(ctx, j.cards.List(), j.tk.Timeouts.Populated), nil
}

// ListVisible reports whether the jobs list container becomes visible.
func (j *JobsPage) ListVisible(ctx context.Context) bool {
	if !j.waitVisible(ctx, JobsList, j.tk.Timeouts.TextRead) {
		j.logger.Warn("Jobs list not visible.", zap.Stringer("locator", JobsList))
		return false
	}
	return true
}

// HasCards reports whether at least one card is present.
func (j *JobsPage) HasCards(ctx context.Context) bool {
	d := j.tk.Driver
	if res := j.tk.Await(ctx, interaction.CountAtLeast(d, j.cards.Cards, 1), j.tk.Timeouts.Populated); !res.OK {
		j.logger.Debug("Waiting for job cards did not succeed.", zap.Error(res.Err))
	}
	cards, err := d.FindElements(ctx, j.cards.Cards)
	if err != nil || len(cards) == 0 {
		j.logger.Warn("No job cards found.", zap.Int("count", len(cards)), zap.Stringer("locator", j.cards.Cards), zap.Error(err))
		return false
	}
	return true
}

// CollectMatching waits for the cards, then extracts those accepted by pred.
func (j *JobsPage) CollectMatching(ctx context.Context, pred Predicate) []Candidate {
	j.WaitForCardsLoaded(ctx)
	return ExtractMatchingCandidates(ctx, j.tk.Driver, j.cards, pred)
}

// Selector returns an orchestrator over the page's cards.
func (j *JobsPage) Selector(opts ...OrchestratorOption) *Orchestrator {
	return NewOrchestrator(j.tk, j.cards, opts...)
}
