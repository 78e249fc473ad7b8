// internal/browser/snapshot/snapshot.go
// Package snapshot implements driver.Driver over a saved HTML document. It
// has no layout engine or script runtime: visibility is derived from markup,
// clicks are rejected, and selections rewrite the parsed tree. It lets
// extraction run offline against pages captured from a live session.
package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
)

// Handle is the single browsing context a snapshot exposes.
const Handle = "snapshot"

// Driver serves one parsed document.
type Driver struct {
	doc  *goquery.Document
	base *url.URL
	ids  map[*html.Node]int
}

var _ driver.Driver = (*Driver)(nil)

// Load parses r. baseURL resolves relative links and is reported as the
// current URL; it may be empty.
func Load(r io.Reader, baseURL string) (*Driver, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML snapshot: %w", err)
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &Driver{
		doc:  goquery.NewDocumentFromNode(root),
		base: base,
		ids:  make(map[*html.Node]int),
	}, nil
}

// LoadFile reads and parses the file at path.
func LoadFile(path, baseURL string) (*Driver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	return Load(bytes.NewReader(data), baseURL)
}

type element struct {
	node *html.Node
	id   int
}

func (e *element) Handle() string { return fmt.Sprintf("%s/%d", Handle, e.id) }

func (d *Driver) wrap(nodes []*html.Node) []driver.Element {
	out := make([]driver.Element, 0, len(nodes))
	for _, n := range nodes {
		id, ok := d.ids[n]
		if !ok {
			id = len(d.ids) + 1
			d.ids[n] = id
		}
		out = append(out, &element{node: n, id: id})
	}
	return out
}

func (d *Driver) node(op string, el driver.Element) (*html.Node, error) {
	e, ok := el.(*element)
	if !ok || e == nil || e.node == nil {
		return nil, driver.Errorf(driver.KindUnexpected, op, "element %T does not belong to a snapshot", el)
	}
	return e.node, nil
}

func cssFor(loc driver.Locator) string {
	if loc.Kind == driver.KindID {
		return fmt.Sprintf("[id=%q]", loc.Value)
	}
	return loc.Value
}

func (d *Driver) query(op string, scope *html.Node, loc driver.Locator) ([]driver.Element, error) {
	switch loc.Kind {
	case driver.KindCSS, driver.KindID:
		sel := d.doc.Selection
		if scope != nil {
			sel = d.doc.FindNodes(scope)
		}
		return d.wrap(sel.Find(cssFor(loc)).Nodes), nil
	case driver.KindXPath:
		if scope == nil {
			scope = d.doc.Nodes[0]
		}
		nodes, err := htmlquery.QueryAll(scope, loc.Value)
		if err != nil {
			return nil, driver.NewError(driver.KindUnexpected, op, err).WithLocator(loc)
		}
		return d.wrap(nodes), nil
	default:
		return nil, driver.Errorf(driver.KindUnexpected, op, "unsupported locator kind %q", loc.Kind).WithLocator(loc)
	}
}

// Navigate accepts only the snapshot's own URL.
func (d *Driver) Navigate(ctx context.Context, target string) error {
	if target == d.base.String() {
		return nil
	}
	return driver.Errorf(driver.KindUnexpected, "navigate", "snapshot of %s cannot navigate to %s", d.base, target)
}

func (d *Driver) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.query("find", nil, loc)
}

func (d *Driver) FindWithin(ctx context.Context, parent driver.Element, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := d.node("find_within", parent)
	if err != nil {
		return nil, err
	}
	return d.query("find_within", n, loc)
}

// Attribute resolves href and src against the base URL, as a browser's
// element properties would.
func (d *Driver) Attribute(ctx context.Context, el driver.Element, name string) (string, bool, error) {
	n, err := d.node("attribute", el)
	if err != nil {
		return "", false, err
	}
	v, ok := attr(n, name)
	if !ok {
		return "", false, nil
	}
	if name == "href" || name == "src" {
		if ref, err := url.Parse(strings.TrimSpace(v)); err == nil {
			v = d.base.ResolveReference(ref).String()
		}
	}
	return v, true, nil
}

// Text returns the rendered text of visible nodes; hidden elements read as "".
func (d *Driver) Text(ctx context.Context, el driver.Element) (string, error) {
	n, err := d.node("text", el)
	if err != nil {
		return "", err
	}
	if !visible(n) {
		return "", nil
	}
	var b strings.Builder
	collectText(&b, n)
	return strings.TrimSpace(b.String()), nil
}

func (d *Driver) IsVisible(ctx context.Context, el driver.Element) (bool, error) {
	n, err := d.node("is_visible", el)
	if err != nil {
		return false, err
	}
	return visible(n), nil
}

func (d *Driver) IsEnabled(ctx context.Context, el driver.Element) (bool, error) {
	n, err := d.node("is_enabled", el)
	if err != nil {
		return false, err
	}
	_, disabled := attr(n, "disabled")
	return !disabled, nil
}

func (d *Driver) Click(ctx context.Context, el driver.Element) error {
	if _, err := d.node("click", el); err != nil {
		return err
	}
	return driver.Errorf(driver.KindUnexpected, "click", "snapshot documents cannot be clicked")
}

// SelectByVisibleText marks the matching option selected in the tree.
func (d *Driver) SelectByVisibleText(ctx context.Context, el driver.Element, text string) error {
	n, err := d.node("select", el)
	if err != nil {
		return err
	}
	if n.DataAtom != atom.Select {
		return driver.Errorf(driver.KindUnexpected, "select", "element <%s> is not a select", n.Data)
	}
	options := htmlquery.Find(n, ".//option")
	var match *html.Node
	for _, opt := range options {
		if normalize(htmlquery.InnerText(opt)) == text {
			match = opt
			break
		}
	}
	if match == nil {
		return driver.Errorf(driver.KindNotFound, "select", "no option with visible text %q", text)
	}
	for _, opt := range options {
		removeAttr(opt, "selected")
	}
	match.Attr = append(match.Attr, html.Attribute{Key: "selected", Val: "selected"})
	return nil
}

// SelectedOption follows browser rules: the last option marked selected, or
// the first option when none is.
func (d *Driver) SelectedOption(ctx context.Context, el driver.Element) (string, string, error) {
	n, err := d.node("selected_option", el)
	if err != nil {
		return "", "", err
	}
	options := htmlquery.Find(n, ".//option")
	if len(options) == 0 {
		return "", "", driver.NewError(driver.KindNotFound, "selected_option", nil)
	}
	chosen := options[0]
	for _, opt := range options {
		if _, ok := attr(opt, "selected"); ok {
			chosen = opt
		}
	}
	class, _ := attr(chosen, "class")
	return strings.TrimSpace(htmlquery.InnerText(chosen)), class, nil
}

// ExecuteScript only answers readiness probes; a static document is always
// complete.
func (d *Driver) ExecuteScript(ctx context.Context, script string, res any, args ...driver.Element) error {
	if len(args) == 0 && strings.TrimSpace(script) == "document.readyState" {
		if s, ok := res.(*string); ok {
			*s = "complete"
			return nil
		}
	}
	return driver.Errorf(driver.KindUnexpected, "execute_script", "snapshot documents do not run scripts")
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) { return d.base.String(), nil }

func (d *Driver) Title(ctx context.Context) (string, error) {
	if t := htmlquery.FindOne(d.doc.Nodes[0], "//title"); t != nil {
		return strings.TrimSpace(htmlquery.InnerText(t)), nil
	}
	return "", nil
}

func (d *Driver) WindowHandles(ctx context.Context) (driver.HandleSet, error) {
	return driver.NewHandleSet(Handle), nil
}

func (d *Driver) CurrentHandle() string { return Handle }

func (d *Driver) SwitchToWindow(ctx context.Context, handle string) error {
	if handle != Handle {
		return driver.Errorf(driver.KindNotFound, "switch_to_window", "no window %q", handle)
	}
	return nil
}
