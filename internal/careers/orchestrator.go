// internal/careers/orchestrator.go
package careers

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/interaction"
)

// AttemptOutcome classifies one pass of the selection loop.
type AttemptOutcome int

const (
	// AttemptOpened means the click opened a new browsing context.
	AttemptOpened AttemptOutcome = iota
	// AttemptCardMissing means no card with the candidate's href was found,
	// or the candidate carries no href to look for.
	AttemptCardMissing
	// AttemptClickFailed covers interception and any other click error.
	AttemptClickFailed
	// AttemptNoNewContext means the click succeeded but nothing opened in time.
	AttemptNoNewContext
)

func (o AttemptOutcome) String() string {
	switch o {
	case AttemptOpened:
		return "opened"
	case AttemptCardMissing:
		return "card_missing"
	case AttemptClickFailed:
		return "click_failed"
	case AttemptNoNewContext:
		return "no_new_context"
	default:
		return fmt.Sprintf("AttemptOutcome(%d)", int(o))
	}
}

// MarshalText renders the outcome by name in reports.
func (o AttemptOutcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Attempt records one candidate tried by SelectWithFallback.
type Attempt struct {
	Candidate Candidate      `json:"candidate"`
	Outcome   AttemptOutcome `json:"outcome"`
	// Handle is the new browsing context when Outcome is AttemptOpened.
	Handle string `json:"handle,omitempty"`
	Err    error  `json:"-"`
}

// Shuffle returns a shuffled copy of src. src is never modified. A nil rng
// uses the process-wide source.
func Shuffle(src []Candidate, rng *rand.Rand) []Candidate {
	out := make([]Candidate, len(src))
	copy(out, src)
	swap := func(i, j int) { out[i], out[j] = out[j], out[i] }
	if rng == nil {
		rand.Shuffle(len(out), swap)
	} else {
		rng.Shuffle(len(out), swap)
	}
	return out
}

// Orchestrator opens one candidate's role page in a new browsing context,
// falling back through the remaining candidates in random order.
type Orchestrator struct {
	tk       *interaction.Toolkit
	spec     CardSpec
	rng      *rand.Rand
	observer func(Attempt)
	logger   *zap.Logger
}

// OrchestratorOption customizes NewOrchestrator.
type OrchestratorOption func(*Orchestrator)

// WithRand fixes the shuffle source.
func WithRand(rng *rand.Rand) OrchestratorOption {
	return func(o *Orchestrator) { o.rng = rng }
}

// WithObserver registers a hook called after every attempt.
func WithObserver(fn func(Attempt)) OrchestratorOption {
	return func(o *Orchestrator) { o.observer = fn }
}

// NewOrchestrator builds an orchestrator over the toolkit's driver.
func NewOrchestrator(tk *interaction.Toolkit, spec CardSpec, opts ...OrchestratorOption) *Orchestrator {
	if tk == nil {
		panic("careers: NewOrchestrator requires a toolkit")
	}
	o := &Orchestrator{tk: tk, spec: spec, logger: tk.Logger.Named("selector")}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SelectWithFallback tries candidates in random order until one opens a new
// browsing context, and returns it. Each candidate is tried once; there is no
// outer retry. It returns false when every candidate failed or ctx ended.
// The active browsing context is never switched.
func (o *Orchestrator) SelectWithFallback(ctx context.Context, candidates []Candidate) (Candidate, bool) {
	order := Shuffle(candidates, o.rng)
	o.tk.Stabilizer.WaitForPopulated(ctx, o.spec.List(), o.tk.Timeouts.CardsLoaded)

	for i, c := range order {
		if ctx.Err() != nil {
			break
		}
		a := o.try(ctx, c)
		if o.observer != nil {
			o.observer(a)
		}
		if a.Outcome == AttemptOpened {
			o.logger.Info("Candidate opened a new browsing context.",
				zap.Object("candidate", c), zap.String("handle", a.Handle), zap.Int("attempt", i+1))
			return c, true
		}
		o.logger.Warn("Candidate skipped.",
			zap.Object("candidate", c),
			zap.Stringer("outcome", a.Outcome),
			zap.Int("attempt", i+1),
			zap.Error(a.Err))
	}

	o.logger.Error("No candidate opened a new browsing context.", zap.Int("candidates", len(candidates)))
	return Candidate{}, false
}

func (o *Orchestrator) try(ctx context.Context, c Candidate) Attempt {
	a := Attempt{Candidate: c}
	d := o.tk.Driver

	if c.ActionReference == "" {
		a.Outcome, a.Err = AttemptCardMissing, errors.New("candidate has no action reference")
		return a
	}
	link, err := o.locate(ctx, c)
	if err != nil || link == nil {
		a.Outcome, a.Err = AttemptCardMissing, err
		return a
	}

	before, err := d.WindowHandles(ctx)
	if err != nil {
		a.Outcome, a.Err = AttemptClickFailed, fmt.Errorf("snapshotting window handles: %w", err)
		return a
	}

	if err := o.tk.Executor.ClickElement(ctx, link); err != nil {
		a.Outcome, a.Err = AttemptClickFailed, err
		return a
	}

	res := o.tk.Await(ctx, interaction.NewContextOpened(d, before, &a.Handle), o.tk.Timeouts.NewContext)
	if !res.OK {
		a.Outcome, a.Err = AttemptNoNewContext, res.Err
		return a
	}
	a.Outcome = AttemptOpened
	return a
}

// locate re-reads the cards and returns the action link of the card whose
// normalized href equals the candidate's reference.
func (o *Orchestrator) locate(ctx context.Context, c Candidate) (driver.Element, error) {
	d := o.tk.Driver
	cards, err := d.FindElements(ctx, o.spec.Cards)
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	for _, card := range cards {
		link := firstIn(ctx, d, card, o.spec.Action)
		if link == nil {
			continue
		}
		href, ok, err := d.Attribute(ctx, link, "href")
		if err != nil || !ok {
			continue
		}
		if NormalizeWhitespace(href) == c.ActionReference {
			return link, nil
		}
	}
	return nil, nil
}
