// File: internal/workflow/runner_test.go
package workflow_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/browser/driver/drivertest"
	"github.com/xkilldash9x/jobprobe/internal/careers"
	"github.com/xkilldash9x/jobprobe/internal/careers/careerstest"
	"github.com/xkilldash9x/jobprobe/internal/config"
	"github.com/xkilldash9x/jobprobe/internal/interaction"
	"github.com/xkilldash9x/jobprobe/internal/reporting"
	"github.com/xkilldash9x/jobprobe/internal/workflow"
)

func settings() workflow.Settings {
	return workflow.Settings{
		HomeURL:        careerstest.HomeURL,
		CareersQAURL:   careerstest.CareersQAURL,
		LocationFilter: careerstest.Location,
		Seed:           3,
	}
}

// setup installs site on a fake driver and returns a runner over it.
func setup(t *testing.T, site *careerstest.Site) (*workflow.Runner, *drivertest.Fake, *drivertest.Clock) {
	t.Helper()
	f := drivertest.New()
	site.Install(f)
	clock := drivertest.NewClock()
	tk := interaction.NewToolkit(f, interaction.DefaultTimeouts(), zap.NewNop(),
		interaction.WithPollerOptions(interaction.WithClock(clock)))
	r, err := workflow.New(tk, settings(), zap.NewNop())
	require.NoError(t, err)
	return r, f, clock
}

func interceptedErr() error { return driver.NewError(driver.KindIntercepted, "click", nil) }

func checkNames(s *reporting.ScenarioReport) []string {
	names := make([]string, 0, len(s.Checks))
	for _, c := range s.Checks {
		names = append(names, c.Name)
	}
	return names
}

func lastCheck(s *reporting.ScenarioReport) reporting.Check {
	return s.Checks[len(s.Checks)-1]
}

func TestParseScenario(t *testing.T) {
	tests := []struct {
		in      string
		want    []workflow.Scenario
		wantErr bool
	}{
		{"home", []workflow.Scenario{workflow.ScenarioHome}, false},
		{" Careers ", []workflow.Scenario{workflow.ScenarioCareers}, false},
		{"all", []workflow.Scenario{workflow.ScenarioHome, workflow.ScenarioCareers}, false},
		{"", []workflow.Scenario{workflow.ScenarioHome, workflow.ScenarioCareers}, false},
		{"checkout", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := workflow.ParseScenario(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	_, err := workflow.New(nil, settings(), zap.NewNop())
	assert.Error(t, err)

	tk := interaction.NewToolkit(drivertest.New(), interaction.DefaultTimeouts(), zap.NewNop())
	_, err = workflow.New(tk, settings(), nil)
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.ProbeCfg.Seed = 9
	cfg.ProbeCfg.Timeouts.Settle = 0
	cfg.ProbeCfg.Timeouts.NewContext = 7 * time.Second

	s := workflow.SettingsFromConfig(cfg.Probe())
	assert.Equal(t, uint64(9), s.Seed)
	assert.Equal(t, "Istanbul, Turkiye", s.LocationFilter)

	to := workflow.TimeoutsFromConfig(cfg.Probe().Timeouts)
	assert.Equal(t, 7*time.Second, to.NewContext)
	assert.Equal(t, interaction.DefaultTimeouts().Settle, to.Settle, "zero keeps the default")
	assert.Equal(t, 25*time.Second, to.CardsLoaded)
}

func TestRunAll(t *testing.T) {
	site := careerstest.NewSite()
	r, f, _ := setup(t, site)

	report := r.Run(context.Background(), workflow.ScenarioHome, workflow.ScenarioCareers)

	require.Len(t, report.Scenarios, 2)
	for _, s := range report.Scenarios {
		for _, c := range s.Checks {
			assert.True(t, c.Passed, "%s: %s: %s", s.Name, c.Name, c.Message)
		}
	}
	assert.True(t, report.Passed)
	assert.Zero(t, report.Failures())

	home := report.Scenarios[0]
	assert.Len(t, home.Checks, 7)

	cs := report.Scenarios[1]
	assert.Contains(t, checkNames(cs), "role location is Istanbul, Turkey")
	require.NotNil(t, cs.Selected)
	assert.Equal(t, "https://jobs.lever.co/insiderone/qa-2", cs.Selected.ActionReference)

	require.NotEmpty(t, cs.Attempts)
	assert.LessOrEqual(t, len(cs.Attempts), 2)
	final := cs.Attempts[len(cs.Attempts)-1]
	assert.Equal(t, careers.AttemptOpened, final.Outcome)
	assert.Equal(t, "role-1", final.Handle)

	assert.Equal(t, []string{"role-1"}, f.Switches, "exactly one context switch")
	assert.Equal(t, "role-1", f.CurrentHandle())
}

func TestCareersFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing opens", func(t *testing.T) {
		site := careerstest.NewSite()
		for i := range site.Jobs {
			site.Jobs[i].Posting = nil
		}
		r, f, clock := setup(t, site)

		cs := r.Careers(ctx)

		assert.False(t, cs.Passed)
		last := lastCheck(cs)
		assert.Equal(t, "candidate opened", last.Name)
		assert.Equal(t, "no candidate opened a new browsing context", last.Message)
		assert.Nil(t, cs.Selected)
		require.Len(t, cs.Attempts, 2)
		for _, a := range cs.Attempts {
			assert.Equal(t, careers.AttemptNoNewContext, a.Outcome)
		}
		assert.Empty(t, f.Switches)
		assert.GreaterOrEqual(t, clock.Total(), 2*interaction.DefaultTimeouts().NewContext)
	})

	t.Run("department not preselected stops the scenario", func(t *testing.T) {
		site := careerstest.NewSite()
		site.DepartmentPreselected = false
		r, _, _ := setup(t, site)

		cs := r.Careers(ctx)

		assert.Equal(t, "department preselected as QA", lastCheck(cs).Name)
		assert.False(t, lastCheck(cs).Passed)
		assert.NotContains(t, checkNames(cs), "location filter applied")
		assert.Empty(t, cs.Attempts)
	})

	t.Run("cards stay blank after filtering", func(t *testing.T) {
		site := careerstest.NewSite()
		site.BlankAfterFilter = true
		r, _, _ := setup(t, site)

		cs := r.Careers(ctx)

		last := lastCheck(cs)
		assert.Equal(t, "job cards load after filtering", last.Name)
		assert.False(t, last.Passed)
		assert.Contains(t, last.Message, `"Istanbul, Turkiye"`)
		assert.NotContains(t, checkNames(cs), "matching candidates found")
		assert.Empty(t, cs.Attempts)
	})

	t.Run("no matching role", func(t *testing.T) {
		site := careerstest.NewSite()
		site.Jobs = site.Jobs[2:]
		r, _, _ := setup(t, site)

		cs := r.Careers(ctx)

		assert.Equal(t, "matching candidates found", lastCheck(cs).Name)
		assert.False(t, cs.Passed)
	})

	t.Run("posting in the wrong city", func(t *testing.T) {
		site := careerstest.NewSite()
		site.Jobs[1].Posting.Location = "Remote"
		r, f, _ := setup(t, site)

		cs := r.Careers(ctx)

		last := lastCheck(cs)
		assert.Equal(t, "role location is Istanbul, Turkey", last.Name)
		assert.False(t, last.Passed)
		assert.Contains(t, last.Message, `"Remote"`)
		assert.Len(t, f.Switches, 1)
	})

	t.Run("intercepted click falls back", func(t *testing.T) {
		site := careerstest.NewSite()
		site.Jobs[0].Posting = &careerstest.Posting{
			Title: "Quality Assurance Engineer", Department: "Quality Assurance", Location: "Istanbul, Turkey",
		}
		site.Jobs[0].ClickErrs = []error{interceptedErr(), interceptedErr()}
		r, f, _ := setup(t, site)

		cs := r.Careers(ctx)

		assert.True(t, cs.Passed, "%+v", cs.Checks)
		require.NotNil(t, cs.Selected)
		assert.Equal(t, "https://jobs.lever.co/insiderone/qa-2", cs.Selected.ActionReference)
		assert.Equal(t, []string{"role-1"}, f.Switches)
	})
}

func TestHomeFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("logo points elsewhere", func(t *testing.T) {
		site := careerstest.NewSite()
		site.LogoHref = "https://other.example/"
		r, _, _ := setup(t, site)

		hs := r.Home(ctx)

		assert.False(t, hs.Passed)
		assert.Equal(t, "logo links to site", lastCheck(hs).Name)
		assert.Equal(t, []string{"home page opens", "main elements load", "navbar visible", "logo links to site"}, checkNames(hs))
	})

	t.Run("page never renders", func(t *testing.T) {
		site := careerstest.NewSite()
		site.HomeURL = "https://insiderone.com/en/"
		r, _, clock := setup(t, site)

		hs := r.Home(ctx)

		assert.Equal(t, "main elements load", lastCheck(hs).Name)
		assert.Contains(t, lastCheck(hs).Message, "navbar")
		assert.Equal(t, interaction.DefaultTimeouts().Default, clock.Total())
	})
}

func TestRunCancelled(t *testing.T) {
	r, f, _ := setup(t, careerstest.NewSite())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := r.Run(ctx, workflow.ScenarioHome)

	assert.False(t, report.Passed)
	require.Len(t, report.Scenarios, 1)
	assert.Equal(t, "context canceled", report.Scenarios[0].Checks[0].Message)
	assert.Empty(t, f.Navigations)
}
