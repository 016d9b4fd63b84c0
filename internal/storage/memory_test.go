package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/map-draft-backend/internal/draft"
)

func sp(s string) *string { return &s }

func seedStage(t *testing.T, st Store) StageRecord {
	t.Helper()
	rec := StageRecord{
		Config: draft.StageConfig{
			ID:           "stage-1",
			Name:         "Group Stage",
			BestOf:       5,
			BanCount:     2,
			TurnDuration: 90 * time.Second,
			Pattern:      draft.DefaultPattern(2, 5),
		},
		Catalog: draft.Catalog{
			Pools: []draft.Pool{
				{Name: "HD", Items: []string{"hd1", "hd2"}},
				{Name: "NM", Items: []string{"nm1", "nm2", "nm3"}},
				{Name: "TB", Items: []string{"tb1"}},
			},
			Tiebreaker: "TB",
		},
	}
	require.NoError(t, st.CreateStage(context.Background(), rec))
	return rec
}

func TestMemory_StageRoundTrip(t *testing.T) {
	st := NewMemory()
	want := seedStage(t, st)

	got, err := st.GetStage(context.Background(), "stage-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = st.GetStage(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_MatchRoundTrip(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()
	rec := MatchRecord{
		ID:        "match-1",
		StageID:   "stage-1",
		RedName:   "Team A",
		BlueName:  "Team B",
		CreatedAt: time.Now(),
	}
	require.NoError(t, st.CreateMatch(ctx, rec))

	got, err := st.GetMatch(ctx, "match-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.False(t, got.Started)

	require.NoError(t, st.SetMatchStarted(ctx, "match-1", true))
	got, err = st.GetMatch(ctx, "match-1")
	require.NoError(t, err)
	assert.True(t, got.Started)

	assert.ErrorIs(t, st.SetMatchStarted(ctx, "missing", true), ErrNotFound)

	list, err := st.ListMatches(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemory_ActionLedger(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	entries := []draft.Entry{
		{Seq: 1, Side: draft.SideRed, Type: draft.ActionRoll, Value: 40},
		{Seq: 2, Side: draft.SideBlue, Type: draft.ActionRoll, Value: 71},
		{Seq: 3, Side: draft.SideBlue, Type: draft.ActionPreference, Preference: draft.PrefFirstPick},
		{Seq: 4, Side: draft.SideRed, Type: draft.ActionBan, ItemID: sp("nm1")},
	}
	for _, e := range entries {
		require.NoError(t, st.AppendAction(ctx, "match-1", e))
	}

	got, err := st.ListActions(ctx, "match-1")
	require.NoError(t, err)
	assert.Equal(t, entries, got)

	require.NoError(t, st.DeleteLastAction(ctx, "match-1"))
	got, err = st.ListActions(ctx, "match-1")
	require.NoError(t, err)
	assert.Equal(t, entries[:3], got)

	require.NoError(t, st.DeleteRollActions(ctx, "match-1"))
	got, err = st.ListActions(ctx, "match-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, draft.ActionPreference, got[0].Type)

	require.NoError(t, st.ClearActions(ctx, "match-1"))
	got, err = st.ListActions(ctx, "match-1")
	require.NoError(t, err)
	assert.Empty(t, got)

	// Clearing again is a no-op, deleting from an empty ledger is not.
	require.NoError(t, st.ClearActions(ctx, "match-1"))
	assert.ErrorIs(t, st.DeleteLastAction(ctx, "match-1"), ErrNotFound)
}
