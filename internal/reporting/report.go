// internal/reporting/report.go
package reporting

import (
	"time"

	"github.com/google/uuid"

	"github.com/xkilldash9x/jobprobe/internal/careers"
)

// Report is the outcome of one jobprobe run.
type Report struct {
	RunID     string            `json:"run_id"`
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration_ns"`
	Passed    bool              `json:"passed"`
	Scenarios []*ScenarioReport `json:"scenarios"`
}

// NewReport starts a report with a fresh run ID.
func NewReport(startedAt time.Time) *Report {
	return &Report{RunID: uuid.NewString(), StartedAt: startedAt, Passed: true}
}

// Add appends a scenario and folds its verdict into the run's.
func (r *Report) Add(s *ScenarioReport) {
	r.Scenarios = append(r.Scenarios, s)
	r.Passed = r.Passed && s.Passed
}

// Failures counts failed checks across all scenarios.
func (r *Report) Failures() int {
	n := 0
	for _, s := range r.Scenarios {
		for _, c := range s.Checks {
			if !c.Passed {
				n++
			}
		}
	}
	return n
}

// ScenarioReport holds the checks of one scenario in execution order.
type ScenarioReport struct {
	Name     string             `json:"name"`
	Passed   bool               `json:"passed"`
	Checks   []Check            `json:"checks"`
	Selected *careers.Candidate `json:"selected,omitempty"`
	Attempts []AttemptRecord    `json:"attempts,omitempty"`
	Duration time.Duration      `json:"duration_ns"`
}

// NewScenario returns a passing scenario with no checks yet.
func NewScenario(name string) *ScenarioReport {
	return &ScenarioReport{Name: name, Passed: true}
}

// Record appends a check result.
func (s *ScenarioReport) Record(c Check) {
	s.Checks = append(s.Checks, c)
	s.Passed = s.Passed && c.Passed
}

// Check is a single named assertion.
type Check struct {
	Name     string        `json:"name"`
	Passed   bool          `json:"passed"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// AttemptRecord is the serializable form of careers.Attempt.
type AttemptRecord struct {
	Title           string                 `json:"title"`
	ActionReference string                 `json:"action_reference"`
	Outcome         careers.AttemptOutcome `json:"outcome"`
	Handle          string                 `json:"handle,omitempty"`
	Error           string                 `json:"error,omitempty"`
}

// RecordAttempt converts a selection attempt for the report.
func RecordAttempt(a careers.Attempt) AttemptRecord {
	rec := AttemptRecord{
		Title:           a.Candidate.Title,
		ActionReference: a.Candidate.ActionReference,
		Outcome:         a.Outcome,
		Handle:          a.Handle,
	}
	if a.Err != nil {
		rec.Error = a.Err.Error()
	}
	return rec
}
