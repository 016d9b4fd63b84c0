package hub

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/map-draft-backend/internal/draft"
	"github.com/DoyleJ11/map-draft-backend/internal/match"
	"github.com/DoyleJ11/map-draft-backend/internal/storage"
)

type HubMsg interface{ isHubMsg() }

type CreateMatch struct {
	StageID  string
	RedName  string
	BlueName string
	Reply    chan CreateResult
}

type CreateResult struct {
	Match *match.Match
	Err   error
}

// GetMatch replies with the live actor, rehydrating it from the store if
// the match exists but is not resident.
type GetMatch struct {
	ID    string
	Reply chan GetResult
}

type GetResult struct {
	Match *match.Match
	Err   error
}

type RemoveMatch struct{ ID string }

type ShutdownHub struct{}

func (CreateMatch) isHubMsg() {}
func (GetMatch) isHubMsg()    {}
func (RemoveMatch) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

// Hub is the registry actor mapping match ids to their actors. Stage
// configuration and catalogs come from the store and are read-only here.
type Hub struct {
	inbox   chan HubMsg
	matches map[string]*match.Match
	store   storage.Store
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, st storage.Store, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		matches: make(map[string]*match.Match),
		store:   st,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case raw := <-h.inbox:
			switch msg := raw.(type) {
			case CreateMatch:
				m, err := h.create(msg)
				msg.Reply <- CreateResult{Match: m, Err: err}

			case GetMatch:
				m, err := h.get(msg.ID)
				msg.Reply <- GetResult{Match: m, Err: err}

			case RemoveMatch:
				if m := h.matches[msg.ID]; m != nil {
					m.Inbox() <- match.Shutdown{}
				}
				delete(h.matches, msg.ID)

			case ShutdownHub:
				for _, m := range h.matches {
					m.Inbox() <- match.Shutdown{}
				}
				clear(h.matches)
				h.cancel()
			}
		}
	}
}

func (h *Hub) create(msg CreateMatch) (*match.Match, error) {
	stage, err := h.store.GetStage(h.ctx, msg.StageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, draft.ErrStageNotFound
		}
		return nil, err
	}
	rec := storage.MatchRecord{
		ID:        uuid.NewString(),
		StageID:   msg.StageID,
		RedName:   msg.RedName,
		BlueName:  msg.BlueName,
		CreatedAt: time.Now(),
	}
	if err := h.store.CreateMatch(h.ctx, rec); err != nil {
		return nil, err
	}
	m := match.New(h.ctx, rec.ID, stage.Config, stage.Catalog, h.store, false, nil, h.log)
	h.matches[rec.ID] = m
	h.log.Info("match created",
		zap.String("match_id", rec.ID), zap.String("stage_id", msg.StageID))
	return m, nil
}

func (h *Hub) get(id string) (*match.Match, error) {
	if m := h.matches[id]; m != nil {
		return m, nil
	}
	rec, err := h.store.GetMatch(h.ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, draft.ErrMatchNotFound
		}
		return nil, err
	}
	stage, err := h.store.GetStage(h.ctx, rec.StageID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, draft.ErrStageNotFound
		}
		return nil, err
	}
	ledger, err := h.store.ListActions(h.ctx, id)
	if err != nil {
		return nil, err
	}
	m := match.New(h.ctx, id, stage.Config, stage.Catalog, h.store, rec.Started, ledger, h.log)
	h.matches[id] = m
	h.log.Info("match rehydrated",
		zap.String("match_id", id), zap.Int("ledger_len", len(ledger)))
	return m, nil
}
