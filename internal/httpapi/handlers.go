package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/DoyleJ11/snake-draft-backend/internal/engine"
	"github.com/DoyleJ11/snake-draft-backend/internal/hub"
	"github.com/DoyleJ11/snake-draft-backend/internal/lobby"
	"github.com/DoyleJ11/snake-draft-backend/internal/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const maxCodeAttempts = 10

// Deps is everything the HTTP surface needs.
type Deps struct {
	Hub            *hub.Hub
	Logger         *zap.Logger
	Rules          engine.Rules
	Rosters        []engine.Roster
	AllowedOrigins []string
}

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateDraft(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for attempt := 0; code == "" && attempt < maxCodeAttempts; attempt++ {
			c, err := GenerateCode()
			if err != nil {
				d.Logger.Error("generate code", zap.Error(err))
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			lb, err := d.Hub.Lookup(r.Context(), c)
			if err != nil {
				writeLobbyErr(d, w, err)
				return
			}
			if lb == nil {
				code = c
				break
			}
			d.Logger.Debug("collision on code, regenerating", zap.String("code", c))
		}
		if code == "" {
			http.Error(w, "failed to generate code", http.StatusInternalServerError)
			return
		}

		if _, err := d.Hub.Ensure(r.Context(), code, engine.NewEmptyState(d.Rules, d.Rosters)); err != nil {
			writeLobbyErr(d, w, err)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func GetDraft(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, ok := lookup(d, w, r)
		if !ok {
			return
		}
		view, err := lb.Snapshot(r.Context())
		if err != nil {
			writeLobbyErr(d, w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.ServerMessage{
			Type:    "StateSnapshot",
			Version: view.Version,
			State:   types.NewSnapshot(view.Version, view.State, view.UpdatedAt),
		})
	}
}

func GetDraftEvents(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, ok := lookup(d, w, r)
		if !ok {
			return
		}
		view, err := lb.Snapshot(r.Context())
		if err != nil {
			writeLobbyErr(d, w, err)
			return
		}
		events := view.Events
		if events == nil {
			events = []engine.Event{}
		}
		writeJSON(w, http.StatusOK, struct {
			Version int            `json:"version"`
			Events  []engine.Event `json:"events"`
		}{Version: view.Version, Events: events})
	}
}

func PostAction(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb, ok := lookup(d, w, r)
		if !ok {
			return
		}

		var cm types.ClientMessage
		if err := json.NewDecoder(r.Body).Decode(&cm); err != nil {
			writeJSON(w, http.StatusBadRequest, types.ServerMessage{Type: "Error", Error: "bad json"})
			return
		}
		cmd, err := cm.Command()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, types.ServerMessage{Type: "Error", Error: err.Error()})
			return
		}

		res, err := lb.Submit(r.Context(), cmd)
		if err != nil {
			writeLobbyErr(d, w, err)
			return
		}
		if res.Err != nil {
			writeJSON(w, http.StatusConflict, types.ServerMessage{
				Type:    "Rejected",
				Version: res.Version,
				Error:   res.Err.Error(),
				Reason:  engine.RejectionReason(res.Err),
			})
			return
		}

		writeJSON(w, http.StatusOK, types.ServerMessage{
			Type:    "StateSnapshot",
			Version: res.Version,
			State:   types.NewSnapshot(res.Version, res.State, res.UpdatedAt),
		})
	}
}

func GetRosters(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, struct {
			Slots               int             `json:"slots"`
			PicksPerParticipant int             `json:"picks_per_participant"`
			Quota               int             `json:"quota"`
			Rosters             []engine.Roster `json:"rosters"`
		}{
			Slots:               d.Rules.Slots,
			PicksPerParticipant: d.Rules.PicksPerParticipant,
			Quota:               d.Rules.Quota(),
			Rosters:             d.Rosters,
		})
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func lookup(d Deps, w http.ResponseWriter, r *http.Request) (*lobby.Lobby, bool) {
	lb, err := d.Hub.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeLobbyErr(d, w, err)
		return nil, false
	}
	if lb == nil {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return nil, false
	}
	return lb, true
}

func writeLobbyErr(d Deps, w http.ResponseWriter, err error) {
	if errors.Is(err, lobby.ErrClosed) {
		http.Error(w, "lobby not found", http.StatusNotFound)
		return
	}
	d.Logger.Warn("lobby request failed", zap.Error(err))
	http.Error(w, "lobby unavailable", http.StatusServiceUnavailable)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
