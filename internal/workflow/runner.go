// File: internal/workflow/runner.go
// Description: Drives the careers-site scenarios over an interaction toolkit
// and turns page predicates into report checks.

package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/config"
	"github.com/xkilldash9x/jobprobe/internal/interaction"
	"github.com/xkilldash9x/jobprobe/internal/reporting"
)

// Scenario names a runnable flow.
type Scenario string

const (
	ScenarioHome    Scenario = "home"
	ScenarioCareers Scenario = "careers"
	ScenarioAll     Scenario = "all"
)

// ParseScenario expands a scenario name into the flows to run, in order.
func ParseScenario(name string) ([]Scenario, error) {
	switch Scenario(strings.ToLower(strings.TrimSpace(name))) {
	case ScenarioHome:
		return []Scenario{ScenarioHome}, nil
	case ScenarioCareers:
		return []Scenario{ScenarioCareers}, nil
	case ScenarioAll, "":
		return []Scenario{ScenarioHome, ScenarioCareers}, nil
	default:
		return nil, fmt.Errorf("unknown scenario %q (want home, careers or all)", name)
	}
}

// Settings are the site targets of a run.
type Settings struct {
	HomeURL        string
	CareersQAURL   string
	LocationFilter string
	// Seed fixes the candidate order; 0 means random.
	Seed uint64
}

// SettingsFromConfig copies the probe targets out of the configuration.
func SettingsFromConfig(p config.ProbeConfig) Settings {
	return Settings{
		HomeURL:        p.HomeURL,
		CareersQAURL:   p.CareersQAURL,
		LocationFilter: p.LocationFilter,
		Seed:           p.Seed,
	}
}

// TimeoutsFromConfig maps configured timeouts onto the interaction layer.
// Zero values keep their defaults.
func TimeoutsFromConfig(t config.TimeoutsConfig) interaction.Timeouts {
	return interaction.Timeouts{
		Default:       t.Default,
		Interval:      t.Interval,
		CookieGuard:   t.CookieGuard,
		PopupGuard:    t.PopupGuard,
		NewContext:    t.NewContext,
		DocumentReady: t.DocumentReady,
		ContentChange: t.ContentChange,
		Settle:        t.Settle,
		Populated:     t.Populated,
		CardsLoaded:   t.CardsLoaded,
		TextRead:      t.TextRead,
	}.Normalize()
}

// Runner executes scenarios against one browser session. It is not safe for
// concurrent use.
type Runner struct {
	tk       *interaction.Toolkit
	settings Settings
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a runner. The toolkit and logger are required.
func New(tk *interaction.Toolkit, settings Settings, logger *zap.Logger) (*Runner, error) {
	if tk == nil || logger == nil {
		return nil, fmt.Errorf("cannot initialize workflow runner with nil dependencies")
	}
	return &Runner{
		tk:       tk,
		settings: settings,
		logger:   logger.Named("workflow"),
		now:      time.Now,
	}, nil
}

// Run executes the scenarios in order and returns the report. A scenario's
// failure does not prevent the next one from running; cancellation of ctx
// stops the run between scenarios.
func (r *Runner) Run(ctx context.Context, scenarios ...Scenario) *reporting.Report {
	start := r.now()
	report := reporting.NewReport(start)
	r.logger.Info("Run starting.", zap.String("run_id", report.RunID), zap.Any("scenarios", scenarios))

	for _, sc := range scenarios {
		if ctx.Err() != nil {
			r.logger.Warn("Run cancelled.", zap.Error(ctx.Err()))
			cancelled := reporting.NewScenario(string(sc))
			cancelled.Record(reporting.Check{Name: "scenario started", Message: ctx.Err().Error()})
			report.Add(cancelled)
			continue
		}
		switch sc {
		case ScenarioHome:
			report.Add(r.Home(ctx))
		case ScenarioCareers:
			report.Add(r.Careers(ctx))
		default:
			unknown := reporting.NewScenario(string(sc))
			unknown.Record(reporting.Check{Name: "scenario known", Message: "no such scenario"})
			report.Add(unknown)
		}
	}

	report.Duration = r.now().Sub(start)
	r.logger.Info("Run finished.",
		zap.String("run_id", report.RunID),
		zap.Bool("passed", report.Passed),
		zap.Int("failed_checks", report.Failures()),
		zap.Duration("duration", report.Duration))
	return report
}

// steps records checks for one scenario and skips everything after the first
// failure.
type steps struct {
	report *reporting.ScenarioReport
	logger *zap.Logger
	now    func() time.Time
	failed bool
}

func (r *Runner) newSteps(name string) *steps {
	return &steps{
		report: reporting.NewScenario(name),
		logger: r.logger.With(zap.String("scenario", name)),
		now:    r.now,
	}
}

func (s *steps) check(name string, fn func() error) bool {
	if s.failed {
		return false
	}
	start := s.now()
	err := fn()
	c := reporting.Check{Name: name, Passed: err == nil, Duration: s.now().Sub(start)}
	if err != nil {
		c.Message = err.Error()
		s.failed = true
		s.logger.Error("Check failed.", zap.String("check", name), zap.Error(err))
	} else {
		s.logger.Info("Check passed.", zap.String("check", name), zap.Duration("took", c.Duration))
	}
	s.report.Record(c)
	return err == nil
}

// expect turns a predicate into a check error.
func expect(ok bool, format string, args ...any) error {
	if ok {
		return nil
	}
	return fmt.Errorf(format, args...)
}

func (s *steps) done(start time.Time) *reporting.ScenarioReport {
	s.report.Duration = s.now().Sub(start)
	return s.report
}
