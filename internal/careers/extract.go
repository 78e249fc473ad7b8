// internal/careers/extract.go
package careers

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
	"github.com/xkilldash9x/jobprobe/internal/interaction"
	"github.com/xkilldash9x/jobprobe/internal/observability"
)

// CardSpec locates job cards and, relative to a card, their fields.
type CardSpec struct {
	Cards      driver.Locator
	Title      driver.Locator
	Department driver.Locator
	Location   driver.Locator
	Action     driver.Locator
}

// OpenPositionsCards describes the cards of the open positions list.
func OpenPositionsCards() CardSpec {
	return CardSpec{
		Cards:      driver.CSS("#jobs-list .position-list-item"),
		Title:      driver.CSS("p.position-title"),
		Department: driver.CSS("span.position-department"),
		Location:   driver.CSS("div.position-location"),
		Action:     driver.CSS("a.btn.btn-navy"),
	}
}

// List returns the stabilization spec for the cards: a card counts as
// rendered once its title, department and location have text.
func (s CardSpec) List() interaction.ListSpec {
	return interaction.ListSpec{
		Rows:   s.Cards,
		Fields: []driver.Locator{s.Title, s.Department, s.Location},
	}
}

// ExtractMatchingCandidates reads every card currently in the DOM and returns
// those accepted by pred, in document order. Unreadable fields read as "".
// A failure to list the cards yields an empty set.
func ExtractMatchingCandidates(ctx context.Context, d driver.Driver, spec CardSpec, pred Predicate) []Candidate {
	logger := observability.GetLogger().Named("extract")

	cards, err := d.FindElements(ctx, spec.Cards)
	if err != nil {
		logger.Warn("Could not list job cards.", zap.Stringer("locator", spec.Cards), zap.Error(err))
		return nil
	}
	logger.Info("Reading job cards.", zap.Int("count", len(cards)))

	var out []Candidate
	for i, card := range cards {
		c := readCard(ctx, d, spec, card, i)
		logger.Info("Job card.", zap.Object("card", c))

		m := pred(c)
		if !m.OK() {
			logger.Info("Skipping job card.",
				zap.Int("index", i),
				zap.Bool("matched_title", m.Title),
				zap.Bool("matched_department", m.Department),
				zap.Bool("matched_location", m.Location))
			continue
		}
		out = append(out, c)
	}
	logger.Info("Matching job cards collected.", zap.Int("matched", len(out)), zap.Int("total", len(cards)))
	return out
}

func readCard(ctx context.Context, d driver.Driver, spec CardSpec, card driver.Element, index int) Candidate {
	return Candidate{
		Title:           textIn(ctx, d, card, spec.Title),
		Department:      textIn(ctx, d, card, spec.Department),
		Location:        textIn(ctx, d, card, spec.Location),
		ActionReference: attributeIn(ctx, d, card, spec.Action, "href"),
		SourceIndex:     index,
	}
}

func firstIn(ctx context.Context, d driver.Driver, parent driver.Element, loc driver.Locator) driver.Element {
	els, err := d.FindWithin(ctx, parent, loc)
	if err != nil || len(els) == 0 {
		return nil
	}
	return els[0]
}

func textIn(ctx context.Context, d driver.Driver, parent driver.Element, loc driver.Locator) string {
	el := firstIn(ctx, d, parent, loc)
	if el == nil {
		return ""
	}
	text, err := d.Text(ctx, el)
	if err != nil {
		return ""
	}
	return NormalizeWhitespace(text)
}

func attributeIn(ctx context.Context, d driver.Driver, parent driver.Element, loc driver.Locator, name string) string {
	el := firstIn(ctx, d, parent, loc)
	if el == nil {
		return ""
	}
	v, ok, err := d.Attribute(ctx, el, name)
	if err != nil || !ok {
		return ""
	}
	return NormalizeWhitespace(v)
}
