package ws

import (
	"context"
	"encoding/json"
	"sync"
)

// internal (untyped) handler signature.
type rawHandler func(ctx context.Context, c *ConnContext, frame json.RawMessage) error

// Router keeps a map[type]handler, à-la gin.Engine. Frames are flat JSON
// objects, so the whole frame is unmarshaled into the handler's request
// type rather than a nested body field.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
}

func NewRouter() *Router { return &Router{handlers: make(map[string]rawHandler)} }

// Register binds a message type to a strongly-typed handler.
func Register[Req any](
	r *Router,
	msgType string,
	h func(ctx context.Context, c *ConnContext, req Req) error,
) {
	if msgType == "" {
		panic("ws router: empty message type")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[msgType] = func(ctx context.Context, c *ConnContext, frame json.RawMessage) error {
		var req Req
		if len(frame) > 0 {
			if err := json.Unmarshal(frame, &req); err != nil {
				return err
			}
		}
		return h(ctx, c, req)
	}
}

// dispatch is called by the server's reader loop. Unknown message types are
// not an error; the frame is dropped.
func (r *Router) dispatch(ctx context.Context, c *ConnContext, msgType string, frame json.RawMessage) error {
	r.mu.RLock()
	h, ok := r.handlers[msgType]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return h(ctx, c, frame)
}
