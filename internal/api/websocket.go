package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/yegors/vidscribe/pkg/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// checkOrigin applies the same allow-list as the CORS middleware
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	allowed := h.config.Server.CORSAllowedOrigins
	if origin == "" || len(allowed) == 0 {
		return true
	}
	for _, o := range allowed {
		if o == "*" || o == origin {
			return true
		}
	}
	return false
}

// StreamEvents pushes processing events over a websocket, starting after ?since=.
// The connection stays open across runs until the client goes away.
func (h *Handler) StreamEvents(w http.ResponseWriter, r *http.Request) {
	since, ok := parseSince(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.logger.Warn("Failed to upgrade events connection", logger.Error(err))
		return
	}
	defer conn.Close()

	log := h.logger.With(logger.String("remote_addr", r.RemoteAddr))
	log.Debug("Events stream opened", logger.Int64("since", since))

	// Client messages are ignored; reading only drives pongs and close detection
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	bus := h.session.Machine().Events()
	seq := since
	for {
		changed := bus.Changed()
		for _, event := range bus.Since(seq) {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				log.Debug("Events stream write failed", logger.Error(err))
				return
			}
			seq = event.Seq
		}

		select {
		case <-changed:
		case <-closed:
			log.Debug("Events stream closed by client")
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
