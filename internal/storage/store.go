package storage

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/map-draft-backend/internal/draft"
)

// ErrNotFound is returned for unknown stage or match ids; callers translate
// it to the draft-level referential errors.
var ErrNotFound = errors.New("record not found")

// StageRecord bundles a stage's immutable configuration with its item
// catalog.
type StageRecord struct {
	Config  draft.StageConfig
	Catalog draft.Catalog
}

type MatchRecord struct {
	ID        string
	StageID   string
	RedName   string
	BlueName  string
	Started   bool
	CreatedAt time.Time
}

// Store persists stages, matches, and the per-match action ledger. The
// ledger operations mirror the only mutations the core performs: append,
// remove the tail entry, drop a tied roll cycle, and wholesale clear.
type Store interface {
	CreateStage(ctx context.Context, rec StageRecord) error
	GetStage(ctx context.Context, id string) (StageRecord, error)

	CreateMatch(ctx context.Context, rec MatchRecord) error
	GetMatch(ctx context.Context, id string) (MatchRecord, error)
	ListMatches(ctx context.Context) ([]MatchRecord, error)
	SetMatchStarted(ctx context.Context, id string, started bool) error

	AppendAction(ctx context.Context, matchID string, e draft.Entry) error
	DeleteLastAction(ctx context.Context, matchID string) error
	DeleteRollActions(ctx context.Context, matchID string) error
	ClearActions(ctx context.Context, matchID string) error
	ListActions(ctx context.Context, matchID string) ([]draft.Entry, error)
}
