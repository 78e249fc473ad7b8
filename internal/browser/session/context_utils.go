// internal/browser/session/context_utils.go
package session

import (
	"context"
	"time"
)

// CombineContext derives a context from tabCtx, which carries the chromedp
// target, that is also canceled as soon as opCtx ends. opCtx supplies the
// caller's deadline and cancellation; tabCtx supplies the CDP values chromedp
// looks up on every action.
func CombineContext(tabCtx, opCtx context.Context) (context.Context, context.CancelFunc) {
	combined, cancel := context.WithCancel(tabCtx)
	stop := context.AfterFunc(opCtx, cancel)
	return combined, func() {
		stop()
		cancel()
	}
}

// valueOnlyContext keeps the values of its parent but none of its deadline or
// cancellation.
type valueOnlyContext struct {
	context.Context
}

func (valueOnlyContext) Deadline() (deadline time.Time, ok bool) { return }

func (valueOnlyContext) Done() <-chan struct{} { return nil }

func (valueOnlyContext) Err() error { return nil }

// Detach returns a context carrying the values of ctx that outlives it. Close
// uses it so cleanup can still reach the browser after the run context ends.
func Detach(ctx context.Context) context.Context {
	return valueOnlyContext{ctx}
}
