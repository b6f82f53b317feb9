package internal

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"triveni-inventory-api/internal/store"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Token auth already gates the endpoint; the API serves browsers on
	// other origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveFeed upgrades the request to a WebSocket and streams collection
// snapshots: one JSON object per message, the current state first, then a
// fresh snapshot after every change. Clients only receive; incoming
// frames are drained for control handling.
func (s *Server) liveFeed(collection string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := s.Store.Subscribe(r.Context(), collection)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			sub.Unsubscribe()
			s.Logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		s.Logger.Info("live feed opened",
			zap.String("collection", collection),
			zap.String("remote", conn.RemoteAddr().String()))
		s.Metrics.FeedOpened(collection)

		go s.readPump(conn, sub)
		s.writePump(conn, sub, collection)
	}
}

// readPump discards inbound frames and tears the subscription down when
// the client goes away.
func (s *Server) readPump(conn *websocket.Conn, sub *store.Subscription) {
	defer sub.Unsubscribe()

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, sub *store.Subscription, collection string) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sub.Unsubscribe()
		conn.Close()
		s.Metrics.FeedClosed(collection)
		s.Logger.Info("live feed closed", zap.String("collection", collection))
	}()

	for {
		select {
		case snap, ok := <-sub.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(snap.Docs); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
