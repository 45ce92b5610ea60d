package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/DoyleJ11/snake-draft-backend/internal/engine"
	"github.com/DoyleJ11/snake-draft-backend/internal/hub"
	"github.com/DoyleJ11/snake-draft-backend/internal/lobby"
	"github.com/DoyleJ11/snake-draft-backend/internal/types"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 5 * time.Minute
)

func Handler(h *hub.Hub, log *zap.Logger, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		lb, err := h.Lookup(r.Context(), code)
		if err != nil {
			http.Error(w, "hub unavailable", http.StatusServiceUnavailable)
			return
		}
		if lb == nil {
			http.Error(w, "lobby not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			log.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		log := log.With(zap.String("code", code), zap.String("client_id", clientID))
		log.Info("client connected")

		out := make(chan lobby.Snapshot, 8)
		select {
		case lb.Inbox() <- lobby.Join{ClientID: clientID, Outbox: out}:
		case <-lb.Done():
			conn.Close(websocket.StatusGoingAway, "lobby closed")
			return
		}
		defer func() {
			select {
			case lb.Inbox() <- lobby.Leave{ClientID: clientID}:
			case <-lb.Done():
			}
			log.Info("client disconnected")
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			// Lobby dropped us or shut down.
			defer conn.Close(websocket.StatusGoingAway, "lobby closed")
			for {
				var snap lobby.Snapshot
				select {
				case s, ok := <-out:
					if !ok {
						return
					}
					snap = s
				case <-lb.Done():
					return
				case <-writeCtx.Done():
					return
				}
				msg := types.ServerMessage{
					Type:    "StateSnapshot",
					Version: snap.Version,
					State:   types.NewSnapshot(snap.Version, snap.State, snap.UpdatedAt),
				}
				if err := write(writeCtx, conn, msg); err != nil {
					log.Debug("snapshot write failed", zap.Error(err))
				}
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), readTimeout)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read failed", zap.Error(err))
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = write(r.Context(), conn, types.ServerMessage{Type: "Error", Error: "bad json"})
				continue
			}

			cmd, err := cm.Command()
			if err != nil {
				_ = write(r.Context(), conn, types.ServerMessage{Type: "Error", Error: err.Error()})
				continue
			}

			res, err := lb.Submit(r.Context(), cmd)
			if err != nil {
				return
			}
			if res.Err != nil {
				_ = write(r.Context(), conn, types.ServerMessage{
					Type:    "Error",
					Version: res.Version,
					Error:   res.Err.Error(),
					Reason:  engine.RejectionReason(res.Err),
				})
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
