package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/DoyleJ11/map-draft-backend/internal/draft"
)

// Memory is an in-process Store used in tests and when no database is
// configured.
type Memory struct {
	mu      sync.RWMutex
	stages  map[string]StageRecord
	matches map[string]MatchRecord
	actions map[string][]draft.Entry
}

func NewMemory() *Memory {
	return &Memory{
		stages:  make(map[string]StageRecord),
		matches: make(map[string]MatchRecord),
		actions: make(map[string][]draft.Entry),
	}
}

func (m *Memory) CreateStage(_ context.Context, rec StageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages[rec.Config.ID] = rec
	return nil
}

func (m *Memory) GetStage(_ context.Context, id string) (StageRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.stages[id]
	if !ok {
		return StageRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) CreateMatch(_ context.Context, rec MatchRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matches[rec.ID] = rec
	return nil
}

func (m *Memory) GetMatch(_ context.Context, id string) (MatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.matches[id]
	if !ok {
		return MatchRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *Memory) ListMatches(_ context.Context) ([]MatchRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MatchRecord, 0, len(m.matches))
	for _, rec := range m.matches {
		out = append(out, rec)
	}
	return out, nil
}

func (m *Memory) SetMatchStarted(_ context.Context, id string, started bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.matches[id]
	if !ok {
		return ErrNotFound
	}
	rec.Started = started
	m.matches[id] = rec
	return nil
}

func (m *Memory) AppendAction(_ context.Context, matchID string, e draft.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[matchID] = append(m.actions[matchID], e)
	return nil
}

func (m *Memory) DeleteLastAction(_ context.Context, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.actions[matchID]
	if len(entries) == 0 {
		return ErrNotFound
	}
	m.actions[matchID] = entries[:len(entries)-1]
	return nil
}

func (m *Memory) DeleteRollActions(_ context.Context, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions[matchID] = slices.DeleteFunc(m.actions[matchID], func(e draft.Entry) bool {
		return e.Type == draft.ActionRoll
	})
	return nil
}

func (m *Memory) ClearActions(_ context.Context, matchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.actions, matchID)
	return nil
}

func (m *Memory) ListActions(_ context.Context, matchID string) ([]draft.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.actions[matchID]), nil
}
