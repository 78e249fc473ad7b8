// internal/interaction/poller.go
package interaction

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/observability"
)

const (
	DefaultInterval = 200 * time.Millisecond
	DefaultTimeout  = 10 * time.Second
)

// DefaultIgnored lists the error kinds a condition may report while the page
// is still rendering.
var DefaultIgnored = []driver.ErrorKind{driver.KindNotFound, driver.KindStaleReference}

// PollConfig bounds a single wait.
type PollConfig struct {
	Timeout  time.Duration
	Interval time.Duration
	// Ignored kinds mean "not yet". A nil slice selects DefaultIgnored; an
	// empty non-nil slice ignores nothing.
	Ignored []driver.ErrorKind
}

// Poll returns a config with the given timeout and the default interval.
func Poll(timeout time.Duration) PollConfig {
	return PollConfig{Timeout: timeout, Interval: DefaultInterval}
}

// Normalize fills in defaults and clamps the interval to the timeout.
func (c PollConfig) Normalize() PollConfig {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Interval > c.Timeout {
		c.Interval = c.Timeout
	}
	if c.Ignored == nil {
		c.Ignored = DefaultIgnored
	}
	return c
}

// Outcome is the terminal state of a wait.
type Outcome int

const (
	Satisfied Outcome = iota
	TimedOut
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Satisfied:
		return "satisfied"
	case TimedOut:
		return "timed_out"
	default:
		return "failed"
	}
}

// Result reports how a wait ended.
type Result struct {
	OK       bool
	Outcome  Outcome
	Err      error
	Attempts int
	Elapsed  time.Duration
}

// AsError returns nil for a satisfied wait and the failure otherwise.
func (r Result) AsError() error {
	if r.OK {
		return nil
	}
	return r.Err
}

// Condition is evaluated repeatedly until it reports true. It must only
// observe the page.
type Condition func(ctx context.Context) (bool, error)

// Clock abstracts time so waits can be tested without sleeping.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Poller evaluates conditions on a fixed cadence.
type Poller struct {
	clock  Clock
	logger *zap.Logger
}

// PollerOption customizes a Poller.
type PollerOption func(*Poller)

// WithClock replaces the wall clock.
func WithClock(c Clock) PollerOption {
	return func(p *Poller) { p.clock = c }
}

// WithLogger sets the logger used for wait diagnostics.
func WithLogger(l *zap.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// NewPoller returns a poller backed by the wall clock unless overridden.
func NewPoller(opts ...PollerOption) *Poller {
	p := &Poller{clock: realClock{}}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger != nil {
		p.logger = p.logger.Named("poller")
	}
	return p
}

// log resolves the global logger lazily so the package default poller picks
// up the configuration applied after init.
func (p *Poller) log() *zap.Logger {
	if p.logger != nil {
		return p.logger
	}
	return observability.GetLogger().Named("poller")
}

// Await evaluates cond immediately and then once per interval until it holds,
// fails with a non-ignored error, or the timeout elapses. The final sleep is
// clamped to the time remaining so the wait never overshoots the timeout by
// more than one evaluation.
func (p *Poller) Await(ctx context.Context, cond Condition, cfg PollConfig) Result {
	cfg = cfg.Normalize()
	start := p.clock.Now()
	var res Result
	var lastErr error

	for {
		if err := ctx.Err(); err != nil {
			return p.finish(res, start, Failed, err)
		}
		res.Attempts++
		ok, err := cond(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return p.finish(res, start, Failed, ctx.Err())
		case err != nil && !driver.IsKind(err, cfg.Ignored...):
			return p.finish(res, start, Failed, err)
		case err != nil:
			lastErr = err
		case ok:
			res.OK = true
			return p.finish(res, start, Satisfied, nil)
		}

		elapsed := p.clock.Now().Sub(start)
		if elapsed >= cfg.Timeout {
			cause := fmt.Errorf("condition not met within %v after %d attempts", cfg.Timeout, res.Attempts)
			if lastErr != nil {
				cause = fmt.Errorf("%v (last error: %v)", cause, lastErr)
			}
			p.log().Debug("Wait timed out.", zap.Duration("timeout", cfg.Timeout), zap.Int("attempts", res.Attempts), zap.NamedError("last_error", lastErr))
			return p.finish(res, start, TimedOut, driver.NewError(driver.KindTimeoutExceeded, "await", cause))
		}

		wait := cfg.Interval
		if remaining := cfg.Timeout - elapsed; remaining < wait {
			wait = remaining
		}
		if err := p.clock.Sleep(ctx, wait); err != nil {
			return p.finish(res, start, Failed, err)
		}
	}
}

func (p *Poller) finish(res Result, start time.Time, outcome Outcome, err error) Result {
	res.Outcome = outcome
	res.Err = err
	res.Elapsed = p.clock.Now().Sub(start)
	return res
}

var defaultPoller = NewPoller()

// Await runs cond on the package default poller.
func Await(ctx context.Context, cond Condition, cfg PollConfig) Result {
	return defaultPoller.Await(ctx, cond, cfg)
}
