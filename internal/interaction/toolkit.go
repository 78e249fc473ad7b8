// internal/interaction/toolkit.go
package interaction

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/observability"
)

// Toolkit wires the interaction components around one driver so page code
// receives them as a unit.
type Toolkit struct {
	Driver     driver.Driver
	Poller     *Poller
	Guard      *Guard
	Executor   *Executor
	Stabilizer *Stabilizer
	Timeouts   Timeouts
	Logger     *zap.Logger
}

// ToolkitOption customizes NewToolkit.
type ToolkitOption func(*toolkitOptions)

type toolkitOptions struct {
	pollerOpts []PollerOption
	overlays   []Overlay
	custom     bool
}

// WithPollerOptions forwards options to the shared poller.
func WithPollerOptions(opts ...PollerOption) ToolkitOption {
	return func(o *toolkitOptions) { o.pollerOpts = append(o.pollerOpts, opts...) }
}

// WithOverlays replaces the default overlay set. Passing none disables the
// guard.
func WithOverlays(overlays ...Overlay) ToolkitOption {
	return func(o *toolkitOptions) {
		o.overlays = overlays
		o.custom = true
	}
}

// NewToolkit builds the full interaction stack for d.
func NewToolkit(d driver.Driver, timeouts Timeouts, logger *zap.Logger, opts ...ToolkitOption) *Toolkit {
	if logger == nil {
		logger = observability.GetLogger()
	}
	timeouts = timeouts.Normalize()

	var o toolkitOptions
	for _, opt := range opts {
		opt(&o)
	}
	if !o.custom {
		o.overlays = DefaultOverlays(timeouts)
	}

	poller := NewPoller(append([]PollerOption{WithLogger(logger)}, o.pollerOpts...)...)
	guard := NewGuard(d, poller, timeouts.Interval, logger, o.overlays...)
	return &Toolkit{
		Driver:     d,
		Poller:     poller,
		Guard:      guard,
		Executor:   NewExecutor(d, poller, guard, timeouts, logger),
		Stabilizer: NewStabilizer(d, poller, timeouts.Interval, logger),
		Timeouts:   timeouts,
		Logger:     logger,
	}
}

// Await polls cond with the toolkit's interval.
func (t *Toolkit) Await(ctx context.Context, cond Condition, timeout time.Duration) Result {
	return t.Poller.Await(ctx, cond, t.Timeouts.Poll(timeout))
}
