// internal/careers/helpers_test.go
package careers

import (
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver/drivertest"
	"github.com/xkilldash9x/jobprobe/internal/interaction"
)

func newTestToolkit() (*interaction.Toolkit, *drivertest.Fake, *drivertest.Clock) {
	f := drivertest.New()
	clock := drivertest.NewClock()
	tk := interaction.NewToolkit(f, interaction.DefaultTimeouts(), zap.NewNop(),
		interaction.WithPollerOptions(interaction.WithClock(clock)))
	return tk, f, clock
}

// card builds a job card with the open positions layout.
func card(id, title, dept, loc, href string) *drivertest.Node {
	spec := OpenPositionsCards()
	link := &drivertest.Node{ID: id + "-link", Attrs: map[string]string{"href": href}}
	return (&drivertest.Node{ID: id}).
		Add(spec.Title, &drivertest.Node{ID: id + "-title", Text: title}).
		Add(spec.Department, &drivertest.Node{ID: id + "-dept", Text: dept}).
		Add(spec.Location, &drivertest.Node{ID: id + "-loc", Text: loc}).
		Add(spec.Action, link)
}

func linkOf(n *drivertest.Node) *drivertest.Node {
	return n.Children[OpenPositionsCards().Action][0]
}

// opensTab makes clicking link open a new browsing context at url.
func opensTab(link *drivertest.Node, handle, url string) {
	link.OnClick = func(f *drivertest.Fake) { f.OpenWindow(handle, url) }
}
