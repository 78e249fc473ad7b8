// internal/browser/session/fakecdp_test.go
package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	jsoniter "github.com/json-iterator/go"
)

// cdpCall is one command received by fakeBrowser.
type cdpCall struct {
	ID        int64               `json:"id"`
	SessionID string              `json:"sessionId,omitempty"`
	Method    string              `json:"method"`
	Params    jsoniter.RawMessage `json:"params,omitempty"`
}

// fakeBrowser speaks just enough of the DevTools protocol for chromedp to
// attach tabs and run evaluations. Tab "T1" is created by the first Run; any
// other target id named by the test exists up front.
type fakeBrowser struct {
	srv *httptest.Server

	mu    sync.Mutex
	calls []cdpCall
	urls  map[string]string // target id -> location
	// callResult is returned as the value of every Runtime.callFunctionOn.
	callResult any
}

func newFakeBrowser(t *testing.T, urls map[string]string) *fakeBrowser {
	t.Helper()
	fb := &fakeBrowser{urls: map[string]string{"T1": "about:blank"}}
	for id, u := range urls {
		fb.urls[id] = u
	}
	fb.srv = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.srv.Close)
	return fb
}

// URL is the browser websocket endpoint to hand to Options.RemoteURL.
func (fb *fakeBrowser) URL() string {
	return "ws" + strings.TrimPrefix(fb.srv.URL, "http") + "/devtools/browser/fake"
}

func (fb *fakeBrowser) serve(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		data, err := wsutil.ReadClientText(conn)
		if err != nil {
			return
		}
		var call cdpCall
		if err := jsoniter.Unmarshal(data, &call); err != nil {
			continue
		}
		fb.mu.Lock()
		fb.calls = append(fb.calls, call)
		result := fb.result(call)
		fb.mu.Unlock()

		reply, _ := jsoniter.Marshal(map[string]any{
			"id":        call.ID,
			"sessionId": call.SessionID,
			"result":    result,
		})
		if err := wsutil.WriteServerText(conn, reply); err != nil {
			return
		}
	}
}

func (fb *fakeBrowser) result(call cdpCall) any {
	target := strings.TrimPrefix(call.SessionID, "S-")
	switch call.Method {
	case "Target.createTarget":
		return map[string]any{"targetId": "T1"}
	case "Target.attachToTarget":
		var p struct {
			TargetID string `json:"targetId"`
		}
		_ = jsoniter.Unmarshal(call.Params, &p)
		return map[string]any{"sessionId": "S-" + p.TargetID}
	case "Target.getTargets":
		infos := []map[string]any{}
		for id, u := range fb.urls {
			infos = append(infos, map[string]any{
				"targetId": id, "type": "page", "title": id, "url": u,
				"attached": true, "canAccessOpener": false,
			})
		}
		return map[string]any{"targetInfos": infos}
	case "Target.closeTarget":
		return map[string]any{"success": true}
	case "Page.getFrameTree":
		return map[string]any{"frameTree": map[string]any{"frame": map[string]any{
			"id": "F-" + target, "loaderId": "L1", "url": fb.urls[target],
			"securityOrigin": "", "mimeType": "text/html",
		}}}
	case "DOM.getDocument":
		return map[string]any{"root": map[string]any{
			"nodeId": 1, "backendNodeId": 1, "nodeType": 9,
			"nodeName": "#document", "localName": "", "nodeValue": "",
		}}
	case "DOM.resolveNode":
		return map[string]any{"object": map[string]any{"type": "object", "objectId": "obj-1"}}
	case "Runtime.callFunctionOn":
		return map[string]any{"result": map[string]any{"type": "object", "value": fb.callResult}}
	case "Runtime.evaluate":
		var p struct {
			Expression string `json:"expression"`
		}
		_ = jsoniter.Unmarshal(call.Params, &p)
		switch p.Expression {
		case "self":
			return map[string]any{"result": map[string]any{"type": "object", "className": "Window"}}
		case "document.location.toString()":
			return map[string]any{"result": map[string]any{"type": "string", "value": fb.urls[target]}}
		}
		return map[string]any{"result": map[string]any{"type": "undefined"}}
	}
	return map[string]any{}
}

// called returns the commands received with the given method.
func (fb *fakeBrowser) called(method string) []cdpCall {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	var out []cdpCall
	for _, c := range fb.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}
