package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/map-draft-backend/internal/draft"
	"github.com/DoyleJ11/map-draft-backend/internal/hub"
	"github.com/DoyleJ11/map-draft-backend/internal/match"
	"github.com/DoyleJ11/map-draft-backend/internal/types"
)

// Handler upgrades to a websocket, joins the match actor as an observer,
// and relays submitted actions. Every ledger mutation reaches the client
// as a versioned StateSnapshot.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matchID := r.URL.Query().Get("match")
		if matchID == "" {
			http.Error(w, "missing match", http.StatusBadRequest)
			return
		}

		reply := make(chan hub.GetResult, 1)
		h.Inbox() <- hub.GetMatch{ID: matchID, Reply: reply}
		res := <-reply
		if res.Err != nil {
			http.Error(w, "match not found", http.StatusNotFound)
			return
		}
		m := res.Match

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan match.Snapshot, 8)
		clientID := uuid.NewString()

		m.Inbox() <- match.Join{ClientID: clientID, Outbox: out}
		defer func() { m.Inbox() <- match.Leave{ClientID: clientID} }()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{
					Type:    "StateSnapshot",
					Version: snap.Version,
					State:   &snap.State,
					Entry:   snap.LastEntry,
				}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeError(r.Context(), conn, "bad json")
				continue
			}
			sub, ok := toSubmit(cm)
			if !ok {
				writeError(r.Context(), conn, "unknown message")
				continue
			}

			result := make(chan match.SubmitResult, 1)
			sub.Reply = result
			m.Inbox() <- sub
			if res := <-result; res.Err != nil {
				log.Debug("action rejected",
					zap.String("match_id", matchID), zap.Error(res.Err))
				writeError(r.Context(), conn, res.Err.Error())
			}
		}
	}
}

func toSubmit(m types.ClientMessage) (match.Submit, bool) {
	if m.Type != "SubmitAction" {
		return match.Submit{}, false
	}
	side := draft.Side(m.Side)
	if !side.Valid() {
		return match.Submit{}, false
	}
	switch draft.ActionType(m.Action) {
	case draft.ActionRoll, draft.ActionPreference, draft.ActionBan, draft.ActionPick:
	default:
		return match.Submit{}, false
	}
	return match.Submit{
		Side:       side,
		Type:       draft.ActionType(m.Action),
		ItemID:     m.ItemID,
		Preference: draft.Preference(m.Preference),
	}, true
}

func writeError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(types.ServerMessage{Type: "Error", Error: msg})
	wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
