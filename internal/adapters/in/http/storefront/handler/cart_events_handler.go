// internal/adapters/in/http/storefront/handler/cart_events_handler.go
package storefrontHandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	cartdom "storefront/internal/domain/cart"
)

const sseHeartbeat = 25 * time.Second

// latestState is a one-slot mailbox: a pending state is replaced by a newer
// one, so a slow stream skips intermediate carts instead of blocking the
// mutating request. Notifications of one store are serialised, so there is a
// single sender at a time.
type latestState chan cartdom.State

func (c latestState) CartChanged(st cartdom.State) {
	select {
	case c <- st:
		return
	default:
	}
	select {
	case <-c:
	default:
	}
	select {
	case c <- st:
	default:
	}
}

// GET /mall/cart/events
// Server-sent events: one "cart" event with the current cart, then one per
// change of the session cart, until the client disconnects.
func (h *CartHandler) Events(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sid := sessionID(r)
	rc := http.NewResponseController(w)

	mailbox := make(latestState, 1)
	initial, stop, err := h.uc.Watch(ctx, sid, mailbox)
	if err != nil {
		writeAppErr(w, r, h.log, err)
		return
	}
	defer stop()

	// the stream outlives the server write timeout
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	last := initial.Version
	if err := h.writeEvent(ctx, w, rc, initial); err != nil {
		return
	}
	h.log.Debug("cart stream opened", zap.String("sessionId", sid), zap.Uint64("version", last))

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug("cart stream closed", zap.String("sessionId", sid))
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		case st := <-mailbox:
			if st.Version <= last {
				continue
			}
			last = st.Version
			if err := h.writeEvent(ctx, w, rc, st); err != nil {
				return
			}
		}
	}
}

func (h *CartHandler) writeEvent(ctx context.Context, w http.ResponseWriter, rc *http.ResponseController, st cartdom.State) error {
	b, err := json.Marshal(h.query.FromState(ctx, st))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: cart\nid: %d\ndata: %s\n\n", st.Version, b); err != nil {
		return err
	}
	return rc.Flush()
}
