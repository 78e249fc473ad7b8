// internal/interaction/timeouts.go
package interaction

import "time"

// Timeouts collects the wait bounds used by a run. Zero fields fall back to
// DefaultTimeouts.
type Timeouts struct {
	Default       time.Duration
	Interval      time.Duration
	CookieGuard   time.Duration
	PopupGuard    time.Duration
	NewContext    time.Duration
	DocumentReady time.Duration
	ContentChange time.Duration
	Settle        time.Duration
	Populated     time.Duration
	CardsLoaded   time.Duration
	TextRead      time.Duration
}

// DefaultTimeouts mirrors the bounds the careers flow was tuned against.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Default:       DefaultTimeout,
		Interval:      DefaultInterval,
		CookieGuard:   3 * time.Second,
		PopupGuard:    2 * time.Second,
		NewContext:    5 * time.Second,
		DocumentReady: 20 * time.Second,
		ContentChange: 4 * time.Second,
		Settle:        4 * time.Second,
		Populated:     20 * time.Second,
		CardsLoaded:   25 * time.Second,
		TextRead:      15 * time.Second,
	}
}

// Normalize replaces non-positive fields with their defaults.
func (t Timeouts) Normalize() Timeouts {
	def := DefaultTimeouts()
	fill := func(v *time.Duration, d time.Duration) {
		if *v <= 0 {
			*v = d
		}
	}
	fill(&t.Default, def.Default)
	fill(&t.Interval, def.Interval)
	fill(&t.CookieGuard, def.CookieGuard)
	fill(&t.PopupGuard, def.PopupGuard)
	fill(&t.NewContext, def.NewContext)
	fill(&t.DocumentReady, def.DocumentReady)
	fill(&t.ContentChange, def.ContentChange)
	fill(&t.Settle, def.Settle)
	fill(&t.Populated, def.Populated)
	fill(&t.CardsLoaded, def.CardsLoaded)
	fill(&t.TextRead, def.TextRead)
	return t
}

// Poll builds a PollConfig with the run's interval and the default ignore set.
func (t Timeouts) Poll(timeout time.Duration) PollConfig {
	return PollConfig{Timeout: timeout, Interval: t.Interval}
}
