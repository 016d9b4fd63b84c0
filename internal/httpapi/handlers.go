package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/map-draft-backend/internal/draft"
	"github.com/DoyleJ11/map-draft-backend/internal/hub"
	"github.com/DoyleJ11/map-draft-backend/internal/match"
	"github.com/DoyleJ11/map-draft-backend/internal/storage"
	"github.com/DoyleJ11/map-draft-backend/internal/types"
)

type API struct {
	Hub   *hub.Hub
	Store storage.Store
	Log   *zap.Logger
}

type createStageRequest struct {
	Name            string        `json:"name"`
	BestOf          int           `json:"best_of"`
	BanCount        int           `json:"ban_count"`
	TurnDurationSec int           `json:"turn_duration_sec"`
	Pattern         draft.Pattern `json:"pattern,omitempty"`
	Pools           []draft.Pool  `json:"pools"`
	TiebreakerPool  string        `json:"tiebreaker_pool"`
}

func (a *API) CreateStage(w http.ResponseWriter, r *http.Request) {
	var req createStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	cfg := draft.StageConfig{
		ID:           uuid.NewString(),
		Name:         req.Name,
		BestOf:       req.BestOf,
		BanCount:     req.BanCount,
		TurnDuration: time.Duration(req.TurnDurationSec) * time.Second,
		Pattern:      req.Pattern,
	}
	if len(cfg.Pattern) == 0 {
		cfg.Pattern = draft.DefaultPattern(cfg.BanCount, cfg.BestOf)
	}
	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cat := draft.Catalog{Pools: req.Pools, Tiebreaker: req.TiebreakerPool}
	if err := a.Store.CreateStage(r.Context(), storage.StageRecord{Config: cfg, Catalog: cat}); err != nil {
		a.Log.Error("create stage failed", zap.Error(err))
		http.Error(w, "failed to create stage", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, cfg)
}

func (a *API) GetStage(w http.ResponseWriter, r *http.Request) {
	rec, err := a.Store.GetStage(r.Context(), chi.URLParam(r, "stageID"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "stage not found", http.StatusNotFound)
			return
		}
		a.Log.Error("get stage failed", zap.Error(err))
		http.Error(w, "failed to load stage", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Config  draft.StageConfig `json:"config"`
		Catalog draft.Catalog     `json:"catalog"`
	}{rec.Config, rec.Catalog})
}

type createMatchRequest struct {
	StageID  string `json:"stage_id"`
	RedName  string `json:"red_name"`
	BlueName string `json:"blue_name"`
}

func (a *API) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req createMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StageID == "" {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	reply := make(chan hub.CreateResult, 1)
	a.Hub.Inbox() <- hub.CreateMatch{
		StageID:  req.StageID,
		RedName:  req.RedName,
		BlueName: req.BlueName,
		Reply:    reply,
	}
	res := <-reply
	if res.Err != nil {
		writeDraftError(w, res.Err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		ID string `json:"id"`
	}{res.Match.ID})
}

func (a *API) GetMatch(w http.ResponseWriter, r *http.Request) {
	m, ok := a.lookup(w, r)
	if !ok {
		return
	}
	reply := make(chan match.View, 1)
	m.Inbox() <- match.GetState{Reply: reply}
	view := <-reply
	writeJSON(w, http.StatusOK, struct {
		ID      string        `json:"id"`
		Version int           `json:"version"`
		State   draft.State   `json:"state"`
		Actions []draft.Entry `json:"actions"`
	}{m.ID, view.Version, view.State, view.Ledger})
}

func (a *API) SubmitAction(w http.ResponseWriter, r *http.Request) {
	m, ok := a.lookup(w, r)
	if !ok {
		return
	}
	var req types.ClientMessage
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	side := draft.Side(req.Side)
	if !side.Valid() {
		http.Error(w, "unknown side", http.StatusBadRequest)
		return
	}
	reply := make(chan match.SubmitResult, 1)
	m.Inbox() <- match.Submit{
		Side:       side,
		Type:       draft.ActionType(req.Action),
		ItemID:     req.ItemID,
		Preference: draft.Preference(req.Preference),
		Reply:      reply,
	}
	res := <-reply
	if res.Err != nil {
		writeDraftError(w, res.Err)
		return
	}
	if res.ReRolled {
		// The roll tied: both entries were discarded and the cycle
		// restarted, so there is no created record to return.
		writeJSON(w, http.StatusOK, struct {
			ReRolled bool `json:"re_rolled"`
		}{true})
		return
	}
	writeJSON(w, http.StatusCreated, res.Entry)
}

type adminRequest struct {
	Action string `json:"action"` // start | undo | reset
}

// Admin applies ledger corrections. Privilege is the caller's problem:
// this route is expected to sit behind the surrounding system's auth.
func (a *API) Admin(w http.ResponseWriter, r *http.Request) {
	m, ok := a.lookup(w, r)
	if !ok {
		return
	}
	var req adminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	reply := make(chan error, 1)
	switch req.Action {
	case "start":
		m.Inbox() <- match.Start{Reply: reply}
	case "undo":
		m.Inbox() <- match.AdminUndo{Reply: reply}
	case "reset":
		m.Inbox() <- match.AdminReset{Reply: reply}
	default:
		http.Error(w, "invalid admin action", http.StatusBadRequest)
		return
	}
	if err := <-reply; err != nil {
		writeDraftError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
	}{true})
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (a *API) lookup(w http.ResponseWriter, r *http.Request) (*match.Match, bool) {
	reply := make(chan hub.GetResult, 1)
	a.Hub.Inbox() <- hub.GetMatch{ID: chi.URLParam(r, "matchID"), Reply: reply}
	res := <-reply
	if res.Err != nil {
		writeDraftError(w, res.Err)
		return nil, false
	}
	return res.Match, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDraftError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, draft.ErrMatchNotFound), errors.Is(err, draft.ErrStageNotFound):
		status = http.StatusNotFound
	case errors.Is(err, draft.ErrInvalidTurn),
		errors.Is(err, draft.ErrItemUnavailable),
		errors.Is(err, draft.ErrEmptyLedger),
		errors.Is(err, draft.ErrMatchNotStarted),
		errors.Is(err, draft.ErrMatchCompleted):
		status = http.StatusConflict
	case errors.Is(err, draft.ErrInvalidPreference), errors.Is(err, draft.ErrUnsupportedAction):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, struct {
		Error string `json:"error"`
	}{err.Error()})
}
