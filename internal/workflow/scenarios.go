// File: internal/workflow/scenarios.go
package workflow

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/careers"
	"github.com/xkilldash9x/jobprobe/internal/interaction"
	"github.com/xkilldash9x/jobprobe/internal/reporting"
)

const leverHost = "jobs.lever.co"

// Home checks the landing page's navigation and demo entry points.
func (r *Runner) Home(ctx context.Context) *reporting.ScenarioReport {
	start := r.now()
	s := r.newSteps(string(ScenarioHome))
	home := careers.NewHomePage(r.tk, r.settings.HomeURL)

	s.check("home page opens", func() error { return home.Open(ctx) })
	s.check("main elements load", func() error { return home.WaitForMainElements(ctx) })
	s.check("navbar visible", func() error {
		return expect(home.NavbarVisible(ctx), "navigation bar is not visible")
	})
	s.check("logo links to site", func() error {
		return expect(home.LogoValid(ctx), "logo is missing or does not link to %s", r.settings.HomeURL)
	})
	s.check("navbar demo clickable", func() error {
		return expect(home.NavbarDemoClickable(ctx), `navigation "Get a demo" is not clickable`)
	})
	s.check("email input usable", func() error {
		return expect(home.EmailInputUsable(ctx), "email input is not visible and enabled")
	})
	s.check("hero demo clickable", func() error {
		return expect(home.HeroDemoClickable(ctx), `hero "Get a demo" is not clickable`)
	})
	return s.done(start)
}

// Careers walks from the QA team page to one matching role posting, opened in
// a new browsing context, and verifies the posting.
func (r *Runner) Careers(ctx context.Context) *reporting.ScenarioReport {
	start := r.now()
	s := r.newSteps(string(ScenarioCareers))
	qa := careers.NewCareersQAPage(r.tk, r.settings.CareersQAURL)

	s.check("careers QA page opens", func() error { return qa.Open(ctx) })
	s.check("on careers QA page", func() error {
		return expect(qa.IsAt(ctx), "current URL is not the quality assurance team page")
	})
	s.check("see all QA jobs visible", func() error {
		return expect(qa.SeeAllJobsVisible(ctx), `"See all QA jobs" is not visible`)
	})
	s.check("see all QA jobs filters department", func() error {
		return expect(qa.SeeAllJobsHrefValid(ctx), `"See all QA jobs" does not link to the QA department filter`)
	})

	var jobs *careers.JobsPage
	s.check("open positions open", func() error {
		var err error
		jobs, err = qa.OpenAllJobs(ctx)
		return err
	})
	s.check("on open positions page", func() error {
		return expect(jobs.IsAt(ctx), "current URL is not the open positions list")
	})
	s.check("job cards load", func() error {
		return expect(jobs.WaitForCardsLoaded(ctx), "no job card rendered within %s", r.tk.Timeouts.CardsLoaded)
	})
	s.check("department preselected as QA", func() error {
		return expect(jobs.DepartmentIsQA(ctx), "department filter is not Quality Assurance")
	})
	var populated bool
	s.check("location filter applied", func() error {
		var err error
		populated, err = jobs.SelectLocation(ctx, r.settings.LocationFilter)
		return err
	})
	s.check("job cards load after filtering", func() error {
		return expect(populated, "no job card rendered within %s of filtering by %q",
			r.tk.Timeouts.Populated, r.settings.LocationFilter)
	})
	s.check("jobs list visible", func() error {
		return expect(jobs.ListVisible(ctx), "jobs list is not visible")
	})
	s.check("jobs listed", func() error {
		return expect(jobs.HasCards(ctx), "no job cards after filtering by %q", r.settings.LocationFilter)
	})

	var found []careers.Candidate
	s.check("matching candidates found", func() error {
		found = jobs.CollectMatching(ctx, careers.MatchesQAIstanbul)
		return expect(len(found) > 0, "no Quality Assurance role in Istanbul, Turkey is listed")
	})

	var selected careers.Candidate
	var opened string
	s.check("candidate opened", func() error {
		var err error
		selected, opened, err = r.selectCandidate(ctx, jobs, found, s.report)
		return err
	})
	s.check("role links to lever", func() error {
		return expect(strings.Contains(selected.ActionReference, leverHost),
			"selected role links to %q, not %s", selected.ActionReference, leverHost)
	})
	s.check("switched to role page", func() error { return r.switchTo(ctx, opened) })

	r.checkPosting(ctx, s, selected)
	return s.done(start)
}

// selectCandidate runs the orchestrator and returns the chosen candidate with
// the browsing context its click opened.
func (r *Runner) selectCandidate(ctx context.Context, jobs *careers.JobsPage, found []careers.Candidate, sr *reporting.ScenarioReport) (careers.Candidate, string, error) {
	var handle string
	opts := []careers.OrchestratorOption{
		careers.WithObserver(func(a careers.Attempt) {
			sr.Attempts = append(sr.Attempts, reporting.RecordAttempt(a))
			if a.Outcome == careers.AttemptOpened {
				handle = a.Handle
			}
		}),
	}
	if r.settings.Seed != 0 {
		opts = append(opts, careers.WithRand(rand.New(rand.NewPCG(r.settings.Seed, r.settings.Seed))))
	}

	before, err := r.tk.Driver.WindowHandles(ctx)
	if err != nil {
		return careers.Candidate{}, "", err
	}
	selected, ok := jobs.Selector(opts...).SelectWithFallback(ctx, found)
	if !ok {
		return careers.Candidate{}, "", errors.New("no candidate opened a new browsing context")
	}
	sr.Selected = &selected

	if handle == "" {
		// The observer saw no handle; fall back to diffing the context sets.
		after, err := r.tk.Driver.WindowHandles(ctx)
		if err != nil {
			return selected, "", err
		}
		added := after.Diff(before)
		if len(added) == 0 {
			return selected, "", errors.New("no new browsing context found after selection")
		}
		handle = added[0]
	}
	r.logger.Info("Candidate selected.", zap.Object("candidate", selected), zap.String("handle", handle))
	return selected, handle, nil
}

// switchTo activates handle and waits for its document.
func (r *Runner) switchTo(ctx context.Context, handle string) error {
	if err := r.tk.Driver.SwitchToWindow(ctx, handle); err != nil {
		return err
	}
	return r.tk.Await(ctx, interaction.DocumentReady(r.tk.Driver), r.tk.Timeouts.DocumentReady).AsError()
}

// checkPosting verifies the opened role page against the selected card.
func (r *Runner) checkPosting(ctx context.Context, s *steps, selected careers.Candidate) {
	lever := careers.NewLeverPage(r.tk)

	s.check("on role page", func() error {
		return expect(lever.IsAt(ctx), "role page is not hosted on %s", leverHost)
	})
	s.check("role title matches", func() error {
		title, err := lever.Title(ctx)
		if err != nil {
			return err
		}
		return expect(containsFold(title, selected.Title), "role title %q does not contain %q", title, selected.Title)
	})
	s.check("role department is QA", func() error {
		dept, err := lever.Department(ctx)
		if err != nil {
			return err
		}
		return expect(containsFold(dept, "quality assurance"), "role department %q is not Quality Assurance", dept)
	})
	s.check("role location is Istanbul, Turkey", func() error {
		loc, err := lever.Location(ctx)
		if err != nil {
			return err
		}
		ok := containsFold(loc, "istanbul") && (containsFold(loc, "turkey") || containsFold(loc, "turkiye"))
		return expect(ok, "role location %q is not Istanbul, Turkey", loc)
	})
}

func containsFold(s, sub string) bool {
	return strings.Contains(
		strings.ToLower(careers.NormalizeWhitespace(s)),
		strings.ToLower(careers.NormalizeWhitespace(sub)))
}
