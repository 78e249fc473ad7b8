// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
)

// -- Element Mock --

// MockElement is a driver.Element with a fixed handle.
type MockElement string

func (e MockElement) Handle() string { return string(e) }

// -- Driver Mock --

// MockDriver mocks driver.Driver. Slice and set returns may be configured as
// nil.
type MockDriver struct {
	mock.Mock
}

var _ driver.Driver = (*MockDriver)(nil)

// NewMockDriver returns a mock whose expectations are asserted on cleanup.
func NewMockDriver(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockDriver {
	m := &MockDriver{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockDriver) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockDriver) FindElements(ctx context.Context, loc driver.Locator) ([]driver.Element, error) {
	args := m.Called(ctx, loc)
	return elements(args.Get(0)), args.Error(1)
}

func (m *MockDriver) FindWithin(ctx context.Context, parent driver.Element, loc driver.Locator) ([]driver.Element, error) {
	args := m.Called(ctx, parent, loc)
	return elements(args.Get(0)), args.Error(1)
}

func (m *MockDriver) Attribute(ctx context.Context, el driver.Element, name string) (string, bool, error) {
	args := m.Called(ctx, el, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockDriver) Text(ctx context.Context, el driver.Element) (string, error) {
	args := m.Called(ctx, el)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) IsVisible(ctx context.Context, el driver.Element) (bool, error) {
	args := m.Called(ctx, el)
	return args.Bool(0), args.Error(1)
}

func (m *MockDriver) IsEnabled(ctx context.Context, el driver.Element) (bool, error) {
	args := m.Called(ctx, el)
	return args.Bool(0), args.Error(1)
}

func (m *MockDriver) Click(ctx context.Context, el driver.Element) error {
	args := m.Called(ctx, el)
	return args.Error(0)
}

func (m *MockDriver) SelectByVisibleText(ctx context.Context, el driver.Element, text string) error {
	args := m.Called(ctx, el, text)
	return args.Error(0)
}

func (m *MockDriver) SelectedOption(ctx context.Context, el driver.Element) (string, string, error) {
	args := m.Called(ctx, el)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockDriver) ExecuteScript(ctx context.Context, script string, res any, els ...driver.Element) error {
	args := m.Called(ctx, script, res, els)
	return args.Error(0)
}

func (m *MockDriver) CurrentURL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) Title(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) WindowHandles(ctx context.Context) (driver.HandleSet, error) {
	args := m.Called(ctx)
	set, _ := args.Get(0).(driver.HandleSet)
	return set, args.Error(1)
}

func (m *MockDriver) CurrentHandle() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockDriver) SwitchToWindow(ctx context.Context, handle string) error {
	args := m.Called(ctx, handle)
	return args.Error(0)
}

func elements(v any) []driver.Element {
	switch els := v.(type) {
	case []driver.Element:
		return els
	case []MockElement:
		out := make([]driver.Element, len(els))
		for i, e := range els {
			out[i] = e
		}
		return out
	default:
		return nil
	}
}
