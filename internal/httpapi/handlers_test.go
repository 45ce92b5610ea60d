package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DoyleJ11/snake-draft-backend/internal/engine"
	"github.com/DoyleJ11/snake-draft-backend/internal/hub"
	"github.com/DoyleJ11/snake-draft-backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv, _ := newServerWithHub(t)
	return srv
}

func newServerWithHub(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()
	log := zaptest.NewLogger(t)
	h := hub.NewHub(context.Background(), hub.WithLogger(log))
	t.Cleanup(func() { _ = h.Close(context.Background()) })

	srv := httptest.NewServer(SetupRoutes(Deps{
		Hub:     h,
		Logger:  log,
		Rules:   engine.Rules{Slots: 2, PicksPerParticipant: 1},
		Rosters: engine.DefaultRosters(),
	}))
	t.Cleanup(srv.Close)
	return srv, h
}

func createDraft(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/drafts", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Code, 6)
	return body.Code
}

func postAction(t *testing.T, srv *httptest.Server, code string, msg types.ClientMessage) (int, types.ServerMessage) {
	t.Helper()
	payload, err := json.Marshal(msg)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/drafts/"+code+"/actions", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out types.ServerMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode()
	require.NoError(t, err)
	assert.Regexp(t, `^[A-Z0-9]{6}$`, code)
}

func TestDraftLifecycleOverHTTP(t *testing.T) {
	srv := newServer(t)
	code := createDraft(t, srv)

	status, msg := postAction(t, srv, code, types.ClientMessage{Type: "StartDraft", Names: []string{"Ann", "Bo"}})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "draft", msg.State.Stage)
	first := msg.State.OnTheClock

	status, _ = postAction(t, srv, code, types.ClientMessage{Type: "SelectPlayer", Roster: "NYM", Player: "Juan Soto (L) RF"})
	require.Equal(t, http.StatusOK, status)
	status, msg = postAction(t, srv, code, types.ClientMessage{Type: "ConfirmPick"})
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, msg.State.LastPick)
	assert.Equal(t, first, msg.State.LastPick.Participant)

	// Taken player is rejected and leaves the version alone.
	status, rejected := postAction(t, srv, code, types.ClientMessage{Type: "SelectPlayer", Roster: "NYM", Player: "Juan Soto (L) RF"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Rejected", rejected.Type)
	assert.Equal(t, "invalid_selection", rejected.Reason)
	assert.Equal(t, msg.Version, rejected.Version)

	status, _ = postAction(t, srv, code, types.ClientMessage{Type: "SelectPlayer", Roster: "LAD", Player: "Will Smith (R) C"})
	require.Equal(t, http.StatusOK, status)
	status, msg = postAction(t, srv, code, types.ClientMessage{Type: "ConfirmPick"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "complete", msg.State.Stage)
	require.Len(t, msg.State.Results, 2)

	status, rejected = postAction(t, srv, code, types.ClientMessage{Type: "ConfirmPick"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "exhausted", rejected.Reason)

	resp, err := http.Get(srv.URL + "/drafts/" + code + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	var log struct {
		Version int            `json:"version"`
		Events  []engine.Event `json:"events"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&log))
	assert.Equal(t, 5, log.Version)
	assert.True(t, engine.ContainsEvent(log.Events, engine.EvtDraftCompleted))

	status, msg = postAction(t, srv, code, types.ClientMessage{Type: "Reset"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "setup", msg.State.Stage)
	assert.Equal(t, []string{"", ""}, msg.State.Slots)
	assert.Empty(t, msg.State.History)
}

func TestGetDraftAndErrors(t *testing.T) {
	srv := newServer(t)
	code := createDraft(t, srv)

	resp, err := http.Get(srv.URL + "/drafts/" + code)
	require.NoError(t, err)
	var msg types.ServerMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "setup", msg.State.Stage)
	assert.Equal(t, 2, msg.State.Quota)

	resp, err = http.Get(srv.URL + "/drafts/NOPE00")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/drafts/"+code+"/actions", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	status, out := postAction(t, srv, code, types.ClientMessage{Type: "Trade"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, out.Error, "unknown type")

	// Codes are the only handle on a draft, so they are never listed.
	resp, err = http.Get(srv.URL + "/drafts")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestClosedHubFailsFast(t *testing.T) {
	srv, h := newServerWithHub(t)
	code := createDraft(t, srv)
	require.NoError(t, h.Close(context.Background()))

	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Post(srv.URL+"/drafts", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = client.Get(srv.URL + "/drafts/" + code)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRostersAndHealth(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/rosters")
	require.NoError(t, err)
	defer resp.Body.Close()
	var body struct {
		Quota   int             `json:"quota"`
		Rosters []engine.Roster `json:"rosters"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Quota)
	require.Len(t, body.Rosters, 2)
	assert.Equal(t, "NYM", body.Rosters[0].Team)
}

func TestOriginHosts(t *testing.T) {
	assert.Equal(t,
		[]string{"localhost:3000", "draft.example.com", "*"},
		originHosts([]string{"http://localhost:3000", "https://draft.example.com/", "*"}))
}
