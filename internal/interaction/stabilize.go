// internal/interaction/stabilize.go
package interaction

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/observability"
)

// ListSpec describes an asynchronously rendered list. Field locators are
// relative to a row.
type ListSpec struct {
	Rows   driver.Locator
	Fields []driver.Locator
}

// Stabilizer decides when a re-rendered list is ready to be read. It reports
// outcomes as booleans; errors never escape.
type Stabilizer struct {
	driver   driver.Driver
	poller   *Poller
	interval time.Duration
	logger   *zap.Logger
}

// NewStabilizer builds a stabilizer. It panics on a nil driver.
func NewStabilizer(d driver.Driver, poller *Poller, interval time.Duration, logger *zap.Logger) *Stabilizer {
	if d == nil {
		panic("interaction: NewStabilizer requires a non-nil driver")
	}
	if logger == nil {
		logger = observability.GetLogger()
	}
	if poller == nil {
		poller = NewPoller(WithLogger(logger))
	}
	return &Stabilizer{driver: d, poller: poller, interval: interval, logger: logger.Named("stabilizer")}
}

// WaitForPopulated reports whether, within timeout, some row has every field
// non-blank. Rendering lists often show rows before their text arrives.
func (s *Stabilizer) WaitForPopulated(ctx context.Context, spec ListSpec, timeout time.Duration) bool {
	cond := func(ctx context.Context) (bool, error) {
		rows, err := s.driver.FindElements(ctx, spec.Rows)
		if err != nil {
			return false, err
		}
		for _, row := range rows {
			if s.rowPopulated(ctx, row, spec.Fields) {
				return true, nil
			}
		}
		return false, nil
	}

	res := s.poller.Await(ctx, cond, PollConfig{Timeout: timeout, Interval: s.interval})
	if !res.OK {
		s.logger.Warn("List did not populate.",
			zap.Stringer("rows", spec.Rows),
			zap.Stringer("outcome", res.Outcome),
			zap.Int("attempts", res.Attempts),
			zap.Error(res.Err))
		return false
	}
	s.logger.Debug("List populated.", zap.Stringer("rows", spec.Rows), zap.Duration("elapsed", res.Elapsed))
	return true
}

// rowPopulated treats any read failure as a blank field.
func (s *Stabilizer) rowPopulated(ctx context.Context, row driver.Element, fields []driver.Locator) bool {
	for _, f := range fields {
		els, err := s.driver.FindWithin(ctx, row, f)
		if err != nil || len(els) == 0 {
			return false
		}
		text, err := s.driver.Text(ctx, els[0])
		if err != nil || normalize(text) == "" {
			return false
		}
	}
	return true
}

// WaitForContentChange reports whether the normalized text of container
// differs from before within timeout. An unchanged container is not an error:
// the filter may legitimately produce the same list.
func (s *Stabilizer) WaitForContentChange(ctx context.Context, container driver.Locator, before string, timeout time.Duration) bool {
	before = normalize(before)
	cond := func(ctx context.Context) (bool, error) {
		return s.Snapshot(ctx, container) != before, nil
	}
	res := s.poller.Await(ctx, cond, PollConfig{Timeout: timeout, Interval: s.interval})
	if !res.OK {
		s.logger.Info("Container content did not change.", zap.Stringer("container", container), zap.Stringer("outcome", res.Outcome))
		return false
	}
	return true
}

// Snapshot returns the normalized text of the first element matching
// container, or "" if it cannot be read.
func (s *Stabilizer) Snapshot(ctx context.Context, container driver.Locator) string {
	el, err := first(ctx, s.driver, container)
	if err != nil || el == nil {
		return ""
	}
	text, err := s.driver.Text(ctx, el)
	if err != nil {
		return ""
	}
	return normalize(text)
}

// Settle pauses for d on the poller's clock. It returns early only when ctx
// ends.
func (s *Stabilizer) Settle(ctx context.Context, d time.Duration) error {
	never := func(context.Context) (bool, error) { return false, nil }
	res := s.poller.Await(ctx, never, PollConfig{Timeout: d, Interval: s.interval})
	if res.Outcome == TimedOut {
		return nil
	}
	return res.Err
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
