package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/map-draft-backend/internal/draft"
	"github.com/DoyleJ11/map-draft-backend/internal/hub"
	"github.com/DoyleJ11/map-draft-backend/internal/storage"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	st := storage.NewMemory()
	h := hub.NewHub(context.Background(), st, zap.NewNop())
	srv := httptest.NewServer(SetupRoutes(&API{Hub: h, Store: st, Log: zap.NewNop()}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func createStage(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/stages", map[string]any{
		"name":              "Quarterfinals",
		"best_of":           3,
		"ban_count":         1,
		"turn_duration_sec": 60,
		"pools": []map[string]any{
			{"name": "NM", "items": []string{"nm1", "nm2", "nm3", "nm4"}},
			{"name": "TB", "items": []string{"tb1"}},
		},
		"tiebreaker_pool": "TB",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cfg := decode[draft.StageConfig](t, resp)
	require.NotEmpty(t, cfg.ID)
	// Pattern was filled in from ban_count/best_of.
	require.Len(t, cfg.Pattern, 4)
	return cfg.ID
}

func createMatch(t *testing.T, srv *httptest.Server, stageID string) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/matches", map[string]any{
		"stage_id":  stageID,
		"red_name":  "Team A",
		"blue_name": "Team B",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[struct {
		ID string `json:"id"`
	}](t, resp)
	require.NotEmpty(t, out.ID)
	return out.ID
}

type matchResponse struct {
	ID      string        `json:"id"`
	Version int           `json:"version"`
	State   draft.State   `json:"state"`
	Actions []draft.Entry `json:"actions"`
}

func getState(t *testing.T, srv *httptest.Server, matchID string) matchResponse {
	t.Helper()
	resp, err := http.Get(srv.URL + "/matches/" + matchID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decode[matchResponse](t, resp)
}

func admin(t *testing.T, srv *httptest.Server, matchID, action string) *http.Response {
	t.Helper()
	return postJSON(t, srv.URL+"/matches/"+matchID+"/admin", map[string]string{"action": action})
}

func TestAPI_StageValidation(t *testing.T) {
	srv := testServer(t)
	resp := postJSON(t, srv.URL+"/stages", map[string]any{
		"name": "broken", "best_of": 4, "ban_count": 1, "turn_duration_sec": 60,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_MatchLifecycle(t *testing.T) {
	srv := testServer(t)
	stageID := createStage(t, srv)
	matchID := createMatch(t, srv, stageID)

	// Created in waiting; actions are rejected until the admin starts it.
	state := getState(t, srv, matchID)
	assert.Equal(t, draft.StatusWaiting, state.State.Status)

	resp := postJSON(t, srv.URL+"/matches/"+matchID+"/actions",
		map[string]any{"side": "red", "action": "roll"})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = admin(t, srv, matchID, "start")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state = getState(t, srv, matchID)
	assert.Equal(t, draft.StatusRolling, state.State.Status)

	// Both sides roll; the server generates the values.
	resp = postJSON(t, srv.URL+"/matches/"+matchID+"/actions",
		map[string]any{"side": "red", "action": "roll"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	entry := decode[draft.Entry](t, resp)
	assert.Equal(t, 1, entry.Seq)
	assert.GreaterOrEqual(t, entry.Value, 1)
	assert.LessOrEqual(t, entry.Value, 100)

	// The second roll either creates an entry (201) or ties, which clears
	// both rolls and reports the re-roll instead of a phantom record (200).
	resp = postJSON(t, srv.URL+"/matches/"+matchID+"/actions",
		map[string]any{"side": "blue", "action": "roll"})
	secondRoll := resp.StatusCode
	resp.Body.Close()
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, secondRoll)

	state = getState(t, srv, matchID)
	if secondRoll == http.StatusOK {
		assert.Equal(t, draft.StatusRolling, state.State.Status)
		assert.Empty(t, state.Actions)
	} else {
		assert.Equal(t, draft.StatusPreference, state.State.Status)
		require.NotNil(t, state.State.RollWinner)
	}
}

func TestAPI_AdminUndoAndReset(t *testing.T) {
	srv := testServer(t)
	stageID := createStage(t, srv)
	matchID := createMatch(t, srv, stageID)

	// Undo with an empty ledger is a reported error, not a crash.
	resp := admin(t, srv, matchID, "undo")
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = admin(t, srv, matchID, "start")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/matches/"+matchID+"/actions",
		map[string]any{"side": "red", "action": "roll"})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = admin(t, srv, matchID, "undo")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, getState(t, srv, matchID).Actions)

	for i := 0; i < 2; i++ {
		resp = admin(t, srv, matchID, "reset")
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		state := getState(t, srv, matchID)
		assert.Equal(t, draft.StatusRolling, state.State.Status)
		assert.Empty(t, state.Actions)
	}
}

func TestAPI_UnknownMatchAndStage(t *testing.T) {
	srv := testServer(t)

	resp, err := http.Get(srv.URL + "/matches/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/matches", map[string]any{"stage_id": "missing"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
