// internal/browser/driver/drivertest/fake.go
// Package drivertest provides an in-memory driver.Driver whose pages, nodes
// and failures are programmed by tests.
package drivertest

import (
	"context"
	"fmt"
	"strings"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
)

// Option is one entry of a fake <select>.
type Option struct {
	Text  string
	Class string
}

// Node is a programmable element.
type Node struct {
	ID       string
	Attrs    map[string]string
	Text     string
	Hidden   bool
	Disabled bool
	// Stale makes every operation on the node fail with KindStaleReference.
	Stale bool

	Children map[driver.Locator][]*Node

	Options  []Option
	Selected int

	// ClickErrs and SelectErrs are consumed one per call before the action
	// is applied; a nil entry lets that call succeed.
	ClickErrs  []error
	SelectErrs []error

	OnClick  func(f *Fake)
	OnSelect func(f *Fake, text string)

	Clicks int
}

// Handle implements driver.Element.
func (n *Node) Handle() string { return n.ID }

// Add registers children of n under loc and returns n for chaining.
func (n *Node) Add(loc driver.Locator, children ...*Node) *Node {
	if n.Children == nil {
		n.Children = make(map[driver.Locator][]*Node)
	}
	n.Children[loc] = append(n.Children[loc], children...)
	return n
}

// FinderFunc computes the result of a lookup. call counts from 1.
type FinderFunc func(call int) ([]*Node, error)

type entry struct {
	nodes []*Node
	fn    FinderFunc
}

// Page is the document shown in one browsing context.
type Page struct {
	URL        string
	Title      string
	ReadyState string

	elements map[driver.Locator]*entry
	calls    map[driver.Locator]int
}

// Set replaces the nodes returned for loc.
func (p *Page) Set(loc driver.Locator, nodes ...*Node) *Page {
	p.elements[loc] = &entry{nodes: nodes}
	return p
}

// SetFunc makes lookups of loc dynamic.
func (p *Page) SetFunc(loc driver.Locator, fn FinderFunc) *Page {
	p.elements[loc] = &entry{fn: fn}
	return p
}

// Remove drops every node registered under loc.
func (p *Page) Remove(loc driver.Locator) {
	delete(p.elements, loc)
}

// Calls reports how many lookups of loc were served, registered or not.
func (p *Page) Calls(loc driver.Locator) int { return p.calls[loc] }

func (p *Page) find(loc driver.Locator) ([]*Node, error) {
	p.calls[loc]++
	e, ok := p.elements[loc]
	if !ok {
		return nil, nil
	}
	if e.fn != nil {
		return e.fn(p.calls[loc])
	}
	return e.nodes, nil
}

func newPage(url string) *Page {
	return &Page{
		URL:        url,
		ReadyState: "complete",
		elements:   make(map[driver.Locator]*entry),
		calls:      make(map[driver.Locator]int),
	}
}

// Fake is a single-actor in-memory driver.
type Fake struct {
	pages   map[string]*Page
	order   []string
	current string

	// OnNavigate lets tests populate the page after a navigation.
	OnNavigate func(f *Fake, p *Page, url string)
	// ScriptFunc overrides ExecuteScript. The default answers readyState
	// probes from the current page and ignores everything else.
	ScriptFunc func(script string, res any, args ...driver.Element) error

	Navigations []string
	Scripts     []string
	Clicked     []string
	Switches    []string
}

var _ driver.Driver = (*Fake)(nil)

// MainHandle is the handle of the context the fake starts in.
const MainHandle = "main"

// New returns a fake with one empty page.
func New() *Fake {
	f := &Fake{pages: make(map[string]*Page)}
	f.pages[MainHandle] = newPage("about:blank")
	f.order = []string{MainHandle}
	f.current = MainHandle
	return f
}

// Page returns the page of the active context.
func (f *Fake) Page() *Page { return f.pages[f.current] }

// PageOf returns the page of the given handle, or nil.
func (f *Fake) PageOf(handle string) *Page { return f.pages[handle] }

// OpenWindow adds a browsing context without activating it.
func (f *Fake) OpenWindow(handle, url string) *Page {
	p := newPage(url)
	f.pages[handle] = p
	f.order = append(f.order, handle)
	return p
}

func (f *Fake) node(op string, el driver.Element) (*Node, error) {
	n, ok := el.(*Node)
	if !ok || n == nil {
		return nil, driver.Errorf(driver.KindUnexpected, op, "foreign element %T", el)
	}
	if n.Stale {
		return nil, driver.NewError(driver.KindStaleReference, op, nil)
	}
	return n, nil
}

func asElements(nodes []*Node) []driver.Element {
	out := make([]driver.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	return out
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.Navigations = append(f.Navigations, url)
	p := f.Page()
	p.URL = url
	p.elements = make(map[driver.Locator]*entry)
	if f.OnNavigate != nil {
		f.OnNavigate(f, p, url)
	}
	return nil
}

func (f *Fake) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nodes, err := f.Page().find(loc)
	if err != nil {
		return nil, err
	}
	return asElements(nodes), nil
}

func (f *Fake) FindWithin(ctx context.Context, parent driver.Element, loc driver.Locator) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n, err := f.node("find_within", parent)
	if err != nil {
		return nil, err
	}
	return asElements(n.Children[loc]), nil
}

func (f *Fake) Attribute(ctx context.Context, el driver.Element, name string) (string, bool, error) {
	n, err := f.node("attribute", el)
	if err != nil {
		return "", false, err
	}
	v, ok := n.Attrs[name]
	return v, ok, nil
}

func (f *Fake) Text(ctx context.Context, el driver.Element) (string, error) {
	n, err := f.node("text", el)
	if err != nil {
		return "", err
	}
	if n.Hidden {
		return "", nil
	}
	return n.Text, nil
}

func (f *Fake) IsVisible(ctx context.Context, el driver.Element) (bool, error) {
	n, err := f.node("is_visible", el)
	if err != nil {
		return false, err
	}
	return !n.Hidden, nil
}

func (f *Fake) IsEnabled(ctx context.Context, el driver.Element) (bool, error) {
	n, err := f.node("is_enabled", el)
	if err != nil {
		return false, err
	}
	return !n.Disabled, nil
}

func (f *Fake) Click(ctx context.Context, el driver.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := f.node("click", el)
	if err != nil {
		return err
	}
	n.Clicks++
	if len(n.ClickErrs) > 0 {
		next := n.ClickErrs[0]
		n.ClickErrs = n.ClickErrs[1:]
		if next != nil {
			return next
		}
	}
	if n.Hidden {
		return driver.NewError(driver.KindNotVisible, "click", nil)
	}
	f.Clicked = append(f.Clicked, n.ID)
	if n.OnClick != nil {
		n.OnClick(f)
	}
	return nil
}

func (f *Fake) SelectByVisibleText(ctx context.Context, el driver.Element, text string) error {
	n, err := f.node("select", el)
	if err != nil {
		return err
	}
	if len(n.SelectErrs) > 0 {
		next := n.SelectErrs[0]
		n.SelectErrs = n.SelectErrs[1:]
		if next != nil {
			return next
		}
	}
	for i, opt := range n.Options {
		if strings.TrimSpace(opt.Text) == text {
			n.Selected = i
			if n.OnSelect != nil {
				n.OnSelect(f, text)
			}
			return nil
		}
	}
	return driver.Errorf(driver.KindNotFound, "select", "no option with text %q", text)
}

func (f *Fake) SelectedOption(ctx context.Context, el driver.Element) (string, string, error) {
	n, err := f.node("selected_option", el)
	if err != nil {
		return "", "", err
	}
	if n.Selected < 0 || n.Selected >= len(n.Options) {
		return "", "", driver.NewError(driver.KindNotFound, "selected_option", nil)
	}
	opt := n.Options[n.Selected]
	return opt.Text, opt.Class, nil
}

func (f *Fake) ExecuteScript(ctx context.Context, script string, res any, args ...driver.Element) error {
	f.Scripts = append(f.Scripts, script)
	for _, a := range args {
		if _, err := f.node("execute_script", a); err != nil {
			return err
		}
	}
	if f.ScriptFunc != nil {
		return f.ScriptFunc(script, res, args...)
	}
	if strings.Contains(script, "readyState") {
		if s, ok := res.(*string); ok {
			*s = f.Page().ReadyState
		}
	}
	return nil
}

func (f *Fake) CurrentURL(ctx context.Context) (string, error) { return f.Page().URL, nil }

func (f *Fake) Title(ctx context.Context) (string, error) { return f.Page().Title, nil }

func (f *Fake) WindowHandles(ctx context.Context) (driver.HandleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return driver.NewHandleSet(f.order...), nil
}

func (f *Fake) CurrentHandle() string { return f.current }

func (f *Fake) SwitchToWindow(ctx context.Context, handle string) error {
	if _, ok := f.pages[handle]; !ok {
		return driver.NewError(driver.KindNotFound, "switch_to_window", fmt.Errorf("no window %q", handle))
	}
	f.Switches = append(f.Switches, handle)
	f.current = handle
	return nil
}
