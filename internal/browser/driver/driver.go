// internal/browser/driver/driver.go
// Package driver defines the browser capability consumed by the interaction
// layer. Implementations live in sibling packages: `session` drives a live
// Chromium instance over CDP, `snapshot` serves a saved HTML document.
package driver

import (
	"context"
	"fmt"
	"sort"
)

// LocatorKind names the selector dialect of a Locator.
type LocatorKind string

const (
	KindCSS   LocatorKind = "css"
	KindXPath LocatorKind = "xpath"
	KindID    LocatorKind = "id"
)

// Locator describes how to find zero or more elements. It is an immutable
// value; the interaction layer never inspects the selector.
type Locator struct {
	Kind  LocatorKind
	Value string
}

// CSS returns a CSS selector locator.
func CSS(sel string) Locator { return Locator{Kind: KindCSS, Value: sel} }

// XPath returns an XPath expression locator.
func XPath(expr string) Locator { return Locator{Kind: KindXPath, Value: expr} }

// ID returns a locator matching the element with the given id attribute.
func ID(id string) Locator { return Locator{Kind: KindID, Value: id} }

func (l Locator) String() string {
	return fmt.Sprintf("%s(%q)", l.Kind, l.Value)
}

// IsZero reports whether the locator is unset.
func (l Locator) IsZero() bool { return l.Value == "" }

// Element is an opaque handle to a node owned by a Driver. Handles can go
// stale when the page re-renders; operations on a stale handle fail with
// KindStaleReference.
type Element interface {
	// Handle returns a debugging identifier, unique within the owning driver.
	Handle() string
}

// HandleSet is the set of open browsing contexts (windows/tabs).
type HandleSet map[string]struct{}

// NewHandleSet builds a set from a list of handles.
func NewHandleSet(handles ...string) HandleSet {
	s := make(HandleSet, len(handles))
	for _, h := range handles {
		s[h] = struct{}{}
	}
	return s
}

// Contains reports whether h is in the set.
func (s HandleSet) Contains(h string) bool {
	_, ok := s[h]
	return ok
}

// Diff returns the handles in s that are not present in before, sorted for
// deterministic selection.
func (s HandleSet) Diff(before HandleSet) []string {
	var added []string
	for h := range s {
		if !before.Contains(h) {
			added = append(added, h)
		}
	}
	sort.Strings(added)
	return added
}

// Driver is the minimal browser automation surface. All methods may fail with
// a *Error whose Kind drives the retry and ignore policies of the callers.
//
// The driver is not safe for concurrent use; a single actor issues commands.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// FindElements returns matching elements in document order. No match is
	// an empty slice, not an error.
	FindElements(ctx context.Context, loc Locator) ([]Element, error)
	// FindWithin is FindElements scoped to the subtree of parent.
	FindWithin(ctx context.Context, parent Element, loc Locator) ([]Element, error)
	// Attribute returns the attribute or property value and whether it was present.
	Attribute(ctx context.Context, el Element, name string) (string, bool, error)
	Text(ctx context.Context, el Element) (string, error)
	IsVisible(ctx context.Context, el Element) (bool, error)
	IsEnabled(ctx context.Context, el Element) (bool, error)
	Click(ctx context.Context, el Element) error
	SelectByVisibleText(ctx context.Context, el Element, text string) error
	// SelectedOption returns the text and class attribute of the selected
	// option of a <select> element.
	SelectedOption(ctx context.Context, el Element) (text, class string, err error)
	// ExecuteScript evaluates script. Without args it is evaluated as an
	// expression in the page; with args it must be a function declaration
	// invoked with `this` bound to the first element.
	ExecuteScript(ctx context.Context, script string, res any, args ...Element) error
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	WindowHandles(ctx context.Context) (HandleSet, error)
	CurrentHandle() string
	SwitchToWindow(ctx context.Context, handle string) error
}
