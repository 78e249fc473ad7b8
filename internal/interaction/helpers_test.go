// internal/interaction/helpers_test.go
package interaction

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver/drivertest"
)

func newFakeClock() *drivertest.Clock { return drivertest.NewClock() }

// newTestToolkit returns a toolkit over a fresh fake driver whose waits run on
// a fake clock.
func newTestToolkit(opts ...ToolkitOption) (*Toolkit, *drivertest.Fake, *drivertest.Clock) {
	f := drivertest.New()
	clock := newFakeClock()
	opts = append([]ToolkitOption{WithPollerOptions(WithClock(clock))}, opts...)
	return NewToolkit(f, DefaultTimeouts(), zap.NewNop(), opts...), f, clock
}
