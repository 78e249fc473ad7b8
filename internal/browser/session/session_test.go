// internal/browser/session/session_test.go
package session

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/jobprobe/internal/browser/driver"
)

var withChromeDP = flag.String("with-chromedp", "", "The url of the remote debugging port")

func TestClassify(t *testing.T) {
	live := context.Background()
	expired, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want driver.ErrorKind
	}{
		{"stale node id", live, errors.New("Could not find node with given id (-32000)"), driver.KindStaleReference},
		{"detached node", live, errors.New("Node is detached from document"), driver.KindStaleReference},
		{"navigated away", live, errors.New("Execution context was destroyed. (-32000)"), driver.KindStaleReference},
		{"other server errors", live, errors.New("Cannot navigate to invalid URL (-32000)"), driver.KindUnexpected},
		{"missing target", live, errors.New("No target with given id found"), driver.KindNotFound},
		{"operation deadline", expired, errors.New("context canceled"), driver.KindTimeoutExceeded},
		{"typed errors pass through", live, driver.NewError(driver.KindIntercepted, "click", nil), driver.KindIntercepted},
		{"anything else", live, errors.New("websocket closed"), driver.KindUnexpected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, driver.KindOf(classify(tt.ctx, "op", tt.err)))
		})
	}

	assert.NoError(t, classify(live, "op", nil))
}

func TestQueryOptions(t *testing.T) {
	sel, opts, err := queryOptions(driver.ID("jobs-list"))
	require.NoError(t, err)
	assert.Equal(t, `[id="jobs-list"]`, sel)
	assert.Len(t, opts, 1)

	sel, _, err = queryOptions(driver.XPath("//a"))
	require.NoError(t, err)
	assert.Equal(t, "//a", sel)

	_, _, err = queryOptions(driver.Locator{Kind: "link-text", Value: "x"})
	assert.Error(t, err)
}

func TestExecOptions(t *testing.T) {
	base := len(execOptions(Options{}))

	opts := execOptions(Options{
		Headless:     true,
		WindowWidth:  1440,
		WindowHeight: 900,
		Args:         []string{"--lang=en-US", "--mute-audio"},
	})

	assert.Len(t, opts, base+4)
}

func TestElementFromOtherTabIsStale(t *testing.T) {
	s := &Session{current: "tab-2", tabs: map[string]tab{}}
	el := &element{node: &cdp.Node{BackendNodeID: 7}, tab: "tab-1"}

	_, err := s.asElement("text", el)

	assert.ErrorIs(t, err, driver.ErrStale)
	assert.Equal(t, "tab-1/7", el.Handle())
}

func TestSessionOverRemoteConnection(t *testing.T) {
	fb := newFakeBrowser(t, map[string]string{"T2": "https://jobs.lever.co/insiderone/0a1b2c3d"})

	startup, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	s, err := New(startup, Options{RemoteURL: fb.URL()}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "T1", s.CurrentHandle())

	// Ending the startup context must leave the browser and its tab attached.
	cancelStartup()
	assert.Never(t, func() bool { return len(fb.called("Target.closeTarget")) > 0 }, 200*time.Millisecond, 20*time.Millisecond)
	require.NoError(t, s.browserCtx.Err())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	handles, err := s.WindowHandles(ctx)
	require.NoError(t, err)
	assert.True(t, handles.Contains("T1"))
	assert.True(t, handles.Contains("T2"))

	url, err := s.CurrentURL(ctx)
	require.NoError(t, err)
	assert.Equal(t, "about:blank", url)

	t.Run("switched tab keeps answering", func(t *testing.T) {
		switchCtx, switchCancel := context.WithTimeout(ctx, 5*time.Second)
		require.NoError(t, s.SwitchToWindow(switchCtx, "T2"))
		switchCancel()

		url, err := s.CurrentURL(ctx)
		require.NoError(t, err)
		assert.Equal(t, "https://jobs.lever.co/insiderone/0a1b2c3d", url)
		assert.Empty(t, fb.called("Target.closeTarget"))
	})

	t.Run("element functions run on the resolved node", func(t *testing.T) {
		fb.mu.Lock()
		fb.callResult = map[string]any{"value": "QA Lead"}
		fb.mu.Unlock()
		el := &element{node: &cdp.Node{BackendNodeID: 42}, tab: s.CurrentHandle()}

		text, err := s.Text(ctx, el)

		require.NoError(t, err)
		assert.Equal(t, "QA Lead", text)
		resolved := fb.called("DOM.resolveNode")
		require.Len(t, resolved, 1)
		assert.JSONEq(t, `{"backendNodeId":42}`, string(resolved[0].Params))
		calls := fb.called("Runtime.callFunctionOn")
		require.Len(t, calls, 1)
		assert.Contains(t, string(calls[0].Params), `"objectId":"obj-1"`)
		assert.Len(t, fb.called("Runtime.releaseObject"), 1)
	})

	t.Run("detached node reads as stale", func(t *testing.T) {
		fb.mu.Lock()
		fb.callResult = map[string]any{"stale": true}
		fb.mu.Unlock()
		el := &element{node: &cdp.Node{BackendNodeID: 43}, tab: s.CurrentHandle()}

		_, err := s.IsVisible(ctx, el)

		assert.ErrorIs(t, err, driver.ErrStale)
	})

	require.NoError(t, s.Close())
	assert.Eventually(t, func() bool {
		for _, c := range fb.called("Target.closeTarget") {
			if strings.Contains(string(c.Params), `"T1"`) {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
	assert.NoError(t, s.Close())
	assert.Error(t, s.browserCtx.Err())
}

func TestNewFailsWithoutBrowser(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := New(ctx, Options{RemoteURL: "ws://127.0.0.1:1/devtools/browser/none"}, zap.NewNop())

	assert.ErrorContains(t, err, "failed to start browser")
}

const fixturePage = `<!doctype html>
<html><head><title>Fixture</title></head>
<body>
  <div id="cover" style="position:fixed;inset:0;z-index:10;display:none"></div>
  <ul id="jobs-list">
    <li class="item"><p class="title">QA Engineer</p></li>
    <li class="item"><p class="title">QA Lead</p></li>
  </ul>
  <button id="go" onclick="document.title='clicked'">Go</button>
  <select id="loc"><option>All</option><option>Istanbul, Turkiye</option></select>
</body></html>`

func TestSessionAgainstBrowser(t *testing.T) {
	if *withChromeDP == "" {
		t.Skip("--with-chromedp not set")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, fixturePage)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s, err := New(ctx, Options{RemoteURL: *withChromeDP}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Navigate(ctx, srv.URL))

	items, err := s.FindElements(ctx, driver.CSS("#jobs-list .item"))
	require.NoError(t, err)
	require.Len(t, items, 2)

	titles, err := s.FindWithin(ctx, items[1], driver.CSS("p.title"))
	require.NoError(t, err)
	require.Len(t, titles, 1)
	text, err := s.Text(ctx, titles[0])
	require.NoError(t, err)
	assert.Equal(t, "QA Lead", text)

	none, err := s.FindElements(ctx, driver.XPath("//*[starts-with(@id,'close-button-')]"))
	require.NoError(t, err)
	assert.Empty(t, none)

	sel, err := s.FindElements(ctx, driver.ID("loc"))
	require.NoError(t, err)
	require.NoError(t, s.SelectByVisibleText(ctx, sel[0], "Istanbul, Turkiye"))
	selected, _, err := s.SelectedOption(ctx, sel[0])
	require.NoError(t, err)
	assert.Equal(t, "Istanbul, Turkiye", selected)

	btn, err := s.FindElements(ctx, driver.ID("go"))
	require.NoError(t, err)
	require.NoError(t, s.ExecuteScript(ctx, `document.getElementById('cover').style.display='block'`, nil))
	err = s.Click(ctx, btn[0])
	assert.ErrorIs(t, err, driver.ErrIntercepted)

	require.NoError(t, s.ExecuteScript(ctx, `document.getElementById('cover').remove()`, nil))
	require.NoError(t, s.Click(ctx, btn[0]))
	title, err := s.Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "clicked", title)

	handles, err := s.WindowHandles(ctx)
	require.NoError(t, err)
	assert.True(t, handles.Contains(s.CurrentHandle()))
}
