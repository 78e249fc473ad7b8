// internal/browser/driver/drivertest/clock.go
package drivertest

import (
	"context"
	"time"
)

// Clock advances only when slept on, so waits complete instantly and their
// timing is exact. It satisfies interaction.Clock.
type Clock struct {
	now    time.Time
	Sleeps []time.Duration
	// OnSleep runs after every sleep with the time slept, letting tests
	// change the page while a wait is in progress.
	OnSleep func(d time.Duration)
}

// NewClock returns a clock fixed at a known instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *Clock) Now() time.Time { return c.now }

func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Sleeps = append(c.Sleeps, d)
	c.now = c.now.Add(d)
	if c.OnSleep != nil {
		c.OnSleep(d)
	}
	return nil
}

// Total is the sum of all sleeps.
func (c *Clock) Total() time.Duration {
	var sum time.Duration
	for _, d := range c.Sleeps {
		sum += d
	}
	return sum
}
