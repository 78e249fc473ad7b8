// internal/browser/session/session.go
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
)

// Options configures how the browser is obtained.
type Options struct {
	Headless          bool
	RemoteURL         string
	Args              []string
	WindowWidth       int
	WindowHeight      int
	NavigationTimeout time.Duration
}

type tab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Session drives a Chromium instance over CDP and implements driver.Driver.
// Commands are issued against the active tab; SwitchToWindow changes it.
type Session struct {
	id     string
	logger *zap.Logger
	opts   Options

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu      sync.Mutex
	tabs    map[string]tab
	current string

	closeOnce sync.Once
}

var _ driver.Driver = (*Session)(nil)

// New launches (or attaches to) a browser and opens the first tab.
func New(ctx context.Context, opts Options, logger *zap.Logger) (*Session, error) {
	id := uuid.New().String()
	log := logger.Named("session").With(zap.String("session_id", id))

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		log.Info("Attaching to remote browser.", zap.String("url", opts.RemoteURL))
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(Detach(ctx), opts.RemoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(Detach(ctx), execOptions(opts)...)
	}

	sugar := log.Sugar()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Errorf),
	)

	// The first Run starts the browser and attaches to its initial tab.
	if err := attach(ctx, browserCtx, browserCancel); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	c := chromedp.FromContext(browserCtx)
	if c == nil || c.Target == nil {
		browserCancel()
		allocCancel()
		return nil, errors.New("browser started without an attached target")
	}
	handle := string(c.Target.TargetID)

	s := &Session{
		id:            id,
		logger:        log,
		opts:          opts,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		tabs:          map[string]tab{handle: {ctx: browserCtx, cancel: browserCancel}},
		current:       handle,
	}
	log.Info("Browser session started.", zap.String("tab", handle), zap.Bool("headless", opts.Headless))
	return s, nil
}

// attach runs the first, empty action on tabCtx. chromedp binds the browser
// process (or remote connection) and the tab's message loop to the context of
// that Run, so it must be tabCtx itself. ctx only bounds how long startup may
// take: if it ends first, the tab is canceled.
func attach(ctx, tabCtx context.Context, cancel context.CancelFunc) error {
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(tabCtx)
	if !stop() && err == nil {
		err = ctx.Err()
	}
	return err
}

// execOptions builds the allocator flags from configuration.
func execOptions(opts Options) []chromedp.ExecAllocatorOption {
	out := []chromedp.ExecAllocatorOption{
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-popup-blocking", true),
	}
	if opts.Headless {
		out = append(out, chromedp.Headless)
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		out = append(out, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	for _, arg := range opts.Args {
		key, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if found {
			out = append(out, chromedp.Flag(key, value))
		} else {
			out = append(out, chromedp.Flag(key, true))
		}
	}
	return out
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Close shuts down every tab and the browser. It is safe to call repeatedly.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.logger.Info("Closing browser session.")
		root := s.handleOf(s.browserCtx)
		s.mu.Lock()
		for h, t := range s.tabs {
			if h != root {
				t.cancel()
			}
		}
		s.tabs = nil
		s.mu.Unlock()

		done := make(chan error, 1)
		go func() { done <- chromedp.Cancel(s.browserCtx) }()
		select {
		case err = <-done:
			if errors.Is(err, context.Canceled) {
				err = nil
			}
		case <-time.After(10 * time.Second):
			s.logger.Warn("Browser shutdown timed out; forcing.")
		}
		s.browserCancel()
		s.allocCancel()
	})
	return err
}

func (s *Session) handleOf(ctx context.Context) string {
	if c := chromedp.FromContext(ctx); c != nil && c.Target != nil {
		return string(c.Target.TargetID)
	}
	return ""
}

func (s *Session) tabCtx() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tabs[s.current]; ok {
		return t.ctx
	}
	return s.browserCtx
}

// run executes actions on the active tab bounded by ctx.
func (s *Session) run(ctx context.Context, op string, actions ...chromedp.Action) error {
	runCtx, cancel := CombineContext(s.tabCtx(), ctx)
	defer cancel()
	return classify(ctx, op, chromedp.Run(runCtx, actions...))
}

// classify maps CDP failures onto driver error kinds.
func classify(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	var de *driver.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return driver.NewError(driver.KindTimeoutExceeded, op, err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s canceled: %w", op, ctx.Err())
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "Could not find node"),
		strings.Contains(msg, "No node with given id"),
		strings.Contains(msg, "Node is detached"),
		strings.Contains(msg, "Node with given id does not belong to the document"),
		strings.Contains(msg, "Cannot find context with specified id"),
		strings.Contains(msg, "Execution context was destroyed"):
		return driver.NewError(driver.KindStaleReference, op, err)
	case strings.Contains(msg, "No target with given id"):
		return driver.NewError(driver.KindNotFound, op, err)
	}
	return driver.NewError(driver.KindUnexpected, op, err)
}

// element is a node resolved in a specific tab.
type element struct {
	node *cdp.Node
	tab  string
}

func (e *element) Handle() string {
	return fmt.Sprintf("%s/%d", e.tab, e.node.BackendNodeID)
}

func (s *Session) asElement(op string, el driver.Element) (*element, error) {
	e, ok := el.(*element)
	if !ok || e == nil || e.node == nil {
		return nil, driver.Errorf(driver.KindUnexpected, op, "element %T does not belong to a chromedp session", el)
	}
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if e.tab != current {
		return nil, driver.Errorf(driver.KindStaleReference, op, "element belongs to tab %s, active tab is %s", e.tab, current)
	}
	return e, nil
}

func queryOptions(loc driver.Locator) (string, []chromedp.QueryOption, error) {
	switch loc.Kind {
	case driver.KindCSS:
		return loc.Value, []chromedp.QueryOption{chromedp.ByQueryAll}, nil
	case driver.KindID:
		return fmt.Sprintf("[id=%q]", loc.Value), []chromedp.QueryOption{chromedp.ByQueryAll}, nil
	case driver.KindXPath:
		return loc.Value, []chromedp.QueryOption{chromedp.BySearch}, nil
	default:
		return "", nil, fmt.Errorf("unsupported locator kind %q", loc.Kind)
	}
}

func (s *Session) wrap(nodes []*cdp.Node) []driver.Element {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	out := make([]driver.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{node: n, tab: current})
	}
	return out
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	timeout := s.opts.NavigationTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("Navigating.", zap.String("url", url))
	if err := s.run(navCtx, "navigate", chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (s *Session) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	sel, opts, err := queryOptions(loc)
	if err != nil {
		return nil, driver.NewError(driver.KindUnexpected, "find", err).WithLocator(loc)
	}
	var nodes []*cdp.Node
	opts = append(opts, chromedp.AtLeast(0))
	if err := s.run(ctx, "find", chromedp.Nodes(sel, &nodes, opts...)); err != nil {
		return nil, annotate(err, loc)
	}
	return s.wrap(nodes), nil
}

func (s *Session) FindWithin(ctx context.Context, parent driver.Element, loc driver.Locator) ([]driver.Element, error) {
	p, err := s.asElement("find_within", parent)
	if err != nil {
		return nil, err
	}
	if loc.Kind == driver.KindXPath {
		return nil, driver.Errorf(driver.KindUnexpected, "find_within", "xpath lookups inside an element are not supported").WithLocator(loc)
	}
	sel, opts, err := queryOptions(loc)
	if err != nil {
		return nil, driver.NewError(driver.KindUnexpected, "find_within", err).WithLocator(loc)
	}
	var nodes []*cdp.Node
	opts = append(opts, chromedp.AtLeast(0), chromedp.FromNode(p.node))
	if err := s.run(ctx, "find_within", chromedp.Nodes(sel, &nodes, opts...)); err != nil {
		return nil, annotate(err, loc)
	}
	return s.wrap(nodes), nil
}

func annotate(err error, loc driver.Locator) error {
	var de *driver.Error
	if errors.As(err, &de) && de.Locator == "" {
		de.WithLocator(loc)
	}
	return err
}

// envelope wraps what every element function returns, so a node that left
// the document is reported as stale rather than as a bogus value.
type envelope[T any] struct {
	Stale bool `json:"stale"`
	Value T    `json:"value"`
}

func callOn[T any](s *Session, ctx context.Context, op string, el driver.Element, fn string, args ...any) (T, error) {
	var zero T
	e, err := s.asElement(op, el)
	if err != nil {
		return zero, err
	}
	var res envelope[T]
	if err := s.run(ctx, op, callFunctionOn(e, fn, &res, args...)); err != nil {
		return zero, err
	}
	if res.Stale {
		return zero, driver.Errorf(driver.KindStaleReference, op, "node %s is detached from the document", e.Handle())
	}
	return res.Value, nil
}

// callFunctionOn resolves the element to a remote object, calls fn with this
// bound to it and releases the object afterwards.
func callFunctionOn(e *element, fn string, res any, args ...any) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithBackendNodeID(e.node.BackendNodeID).Do(ctx)
		if err != nil {
			return err
		}
		defer func() {
			_ = runtime.ReleaseObject(obj.ObjectID).Do(ctx)
		}()
		return chromedp.CallFunctionOn(fn, res, func(p *runtime.CallFunctionOnParams) *runtime.CallFunctionOnParams {
			return p.WithObjectID(obj.ObjectID)
		}, args...).Do(ctx)
	})
}

const (
	attributeFn = `function(name) {
		if (!this.isConnected) return {stale: true};
		const prop = this[name];
		if (typeof prop === 'string') return {value: prop};
		return {value: this.getAttribute(name)};
	}`
	textFn = `function() {
		if (!this.isConnected) return {stale: true};
		if (this.getClientRects().length === 0) return {value: ''};
		return {value: this.innerText || ''};
	}`
	visibleFn = `function() {
		if (!this.isConnected) return {stale: true};
		const style = window.getComputedStyle(this);
		const rect = this.getBoundingClientRect();
		return {value: style.display !== 'none' && style.visibility !== 'hidden' &&
			parseFloat(style.opacity || '1') > 0 && rect.width > 0 && rect.height > 0};
	}`
	enabledFn = `function() {
		if (!this.isConnected) return {stale: true};
		return {value: !this.disabled};
	}`
	hitTestFn = `function() {
		if (!this.isConnected) return {stale: true};
		const r = this.getBoundingClientRect();
		const x = r.left + r.width / 2, y = r.top + r.height / 2;
		const hit = document.elementFromPoint(x, y);
		const covered = !!hit && hit !== this && !this.contains(hit);
		let by = '';
		if (covered) by = hit.id ? '#' + hit.id : hit.tagName.toLowerCase();
		return {value: {x: x, y: y, covered: covered, by: by}};
	}`
	selectFn = `function(text) {
		if (!this.isConnected) return {stale: true};
		const norm = s => (s || '').replace(/\s+/g, ' ').trim();
		for (const o of this.options) {
			if (norm(o.text) === text) {
				this.value = o.value;
				o.selected = true;
				this.dispatchEvent(new Event('input', {bubbles: true}));
				this.dispatchEvent(new Event('change', {bubbles: true}));
				return {value: true};
			}
		}
		return {value: false};
	}`
	selectedFn = `function() {
		if (!this.isConnected) return {stale: true};
		const o = this.selectedIndex >= 0 ? this.options[this.selectedIndex] : null;
		if (!o) return {value: null};
		return {value: {text: o.text || '', class: o.className || ''}};
	}`
)

func (s *Session) Attribute(ctx context.Context, el driver.Element, name string) (string, bool, error) {
	v, err := callOn[*string](s, ctx, "attribute", el, attributeFn, name)
	if err != nil || v == nil {
		return "", false, err
	}
	return *v, true, nil
}

func (s *Session) Text(ctx context.Context, el driver.Element) (string, error) {
	return callOn[string](s, ctx, "text", el, textFn)
}

func (s *Session) IsVisible(ctx context.Context, el driver.Element) (bool, error) {
	return callOn[bool](s, ctx, "is_visible", el, visibleFn)
}

func (s *Session) IsEnabled(ctx context.Context, el driver.Element) (bool, error) {
	return callOn[bool](s, ctx, "is_enabled", el, enabledFn)
}

type hitTest struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Covered bool    `json:"covered"`
	By      string  `json:"by"`
}

// Click dispatches a real mouse click at the element's center after checking
// that nothing else would receive it.
func (s *Session) Click(ctx context.Context, el driver.Element) error {
	hit, err := callOn[hitTest](s, ctx, "click", el, hitTestFn)
	if err != nil {
		return err
	}
	if hit.Covered {
		return driver.Errorf(driver.KindIntercepted, "click", "element click intercepted by %s", hit.By)
	}
	return s.run(ctx, "click", chromedp.MouseClickXY(hit.X, hit.Y))
}

func (s *Session) SelectByVisibleText(ctx context.Context, el driver.Element, text string) error {
	ok, err := callOn[bool](s, ctx, "select", el, selectFn, text)
	if err != nil {
		return err
	}
	if !ok {
		return driver.Errorf(driver.KindNotFound, "select", "no option with visible text %q", text)
	}
	return nil
}

type selectedOption struct {
	Text  string `json:"text"`
	Class string `json:"class"`
}

func (s *Session) SelectedOption(ctx context.Context, el driver.Element) (string, string, error) {
	opt, err := callOn[*selectedOption](s, ctx, "selected_option", el, selectedFn)
	if err != nil {
		return "", "", err
	}
	if opt == nil {
		return "", "", driver.NewError(driver.KindNotFound, "selected_option", nil)
	}
	return opt.Text, opt.Class, nil
}

func (s *Session) ExecuteScript(ctx context.Context, script string, res any, args ...driver.Element) error {
	if len(args) == 0 {
		return s.run(ctx, "execute_script", chromedp.Evaluate(script, res))
	}
	e, err := s.asElement("execute_script", args[0])
	if err != nil {
		return err
	}
	return s.run(ctx, "execute_script", callFunctionOn(e, script, res))
}

func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	err := s.run(ctx, "current_url", chromedp.Location(&url))
	return url, err
}

func (s *Session) Title(ctx context.Context) (string, error) {
	var title string
	err := s.run(ctx, "title", chromedp.Title(&title))
	return title, err
}

// WindowHandles lists the page targets of the browser.
func (s *Session) WindowHandles(ctx context.Context) (driver.HandleSet, error) {
	runCtx, cancel := CombineContext(s.browserCtx, ctx)
	defer cancel()
	infos, err := chromedp.Targets(runCtx)
	if err != nil {
		return nil, classify(ctx, "window_handles", err)
	}
	set := make(driver.HandleSet, len(infos))
	for _, info := range infos {
		if info.Type == "page" {
			set[string(info.TargetID)] = struct{}{}
		}
	}
	return set, nil
}

func (s *Session) CurrentHandle() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SwitchToWindow makes handle the active tab, attaching to it on first use.
// An attached tab stays attached until Close.
func (s *Session) SwitchToWindow(ctx context.Context, handle string) error {
	s.mu.Lock()
	_, known := s.tabs[handle]
	s.mu.Unlock()

	if !known {
		tabCtx, cancel := chromedp.NewContext(s.browserCtx, chromedp.WithTargetID(target.ID(handle)))
		if err := attach(ctx, tabCtx, cancel); err != nil {
			cancel()
			return classify(ctx, "switch_to_window", err)
		}
		s.mu.Lock()
		if s.tabs == nil {
			s.mu.Unlock()
			cancel()
			return driver.Errorf(driver.KindUnexpected, "switch_to_window", "session is closed")
		}
		s.tabs[handle] = tab{ctx: tabCtx, cancel: cancel}
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.current = handle
	s.mu.Unlock()
	s.logger.Info("Switched browsing context.", zap.String("tab", handle))
	return nil
}
