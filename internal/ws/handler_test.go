package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DoyleJ11/snake-draft-backend/internal/engine"
	"github.com/DoyleJ11/snake-draft-backend/internal/hub"
	"github.com/DoyleJ11/snake-draft-backend/internal/lobby"
	"github.com/DoyleJ11/snake-draft-backend/internal/types"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setup(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	// Handler goroutines outlive the test once connections close.
	log := zap.NewNop()
	h := hub.NewHub(context.Background(), hub.WithLogger(log))
	t.Cleanup(func() { _ = h.Close(context.Background()) })

	reply := make(chan *lobby.Lobby, 1)
	state := engine.NewEmptyState(engine.Rules{Slots: 2, PicksPerParticipant: 1}, engine.DefaultRosters())
	h.Inbox() <- hub.CreateLobby{Code: "WS0001", State: state, Reply: reply}
	<-reply

	srv := httptest.NewServer(Handler(h, log, nil))
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) types.ServerMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var msg types.ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, msg types.ClientMessage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, msg))
}

func TestHandler_BroadcastsAcceptedCommands(t *testing.T) {
	_, url := setup(t)
	a := dial(t, url+"?code=WS0001")
	b := dial(t, url+"?code=WS0001")

	for _, c := range []*websocket.Conn{a, b} {
		msg := read(t, c)
		require.Equal(t, "StateSnapshot", msg.Type)
		assert.Equal(t, 0, msg.Version)
		assert.Equal(t, "setup", msg.State.Stage)
	}

	send(t, a, types.ClientMessage{Type: "StartDraft", Names: []string{"Ann", "Bo"}})

	for _, c := range []*websocket.Conn{a, b} {
		msg := read(t, c)
		require.Equal(t, "StateSnapshot", msg.Type)
		assert.Equal(t, 1, msg.Version)
		assert.Equal(t, "draft", msg.State.Stage)
		assert.ElementsMatch(t, []string{"Ann", "Bo"}, msg.State.DraftOrder)
		assert.Equal(t, msg.State.DraftOrder[0], msg.State.OnTheClock)
	}
}

func TestHandler_RejectionGoesOnlyToSender(t *testing.T) {
	_, url := setup(t)
	a := dial(t, url+"?code=WS0001")
	b := dial(t, url+"?code=WS0001")
	_ = read(t, a)
	_ = read(t, b)

	send(t, a, types.ClientMessage{Type: "ConfirmPick"})
	msg := read(t, a)
	assert.Equal(t, "Error", msg.Type)
	assert.Equal(t, "invalid_selection", msg.Reason)

	send(t, a, types.ClientMessage{Type: "Bogus"})
	msg = read(t, a)
	assert.Equal(t, "Error", msg.Type)
	assert.Contains(t, msg.Error, "unknown type")

	// b must see nothing until the next accepted command.
	send(t, a, types.ClientMessage{Type: "SetName", Slot: 0, Name: "Ann"})
	msg = read(t, b)
	assert.Equal(t, "StateSnapshot", msg.Type)
	assert.Equal(t, 1, msg.Version)
	assert.Equal(t, []string{"Ann", ""}, msg.State.Slots)
}

func TestHandler_UnknownLobby(t *testing.T) {
	srv, _ := setup(t)

	resp, err := http.Get(srv.URL + "?code=NOPE00")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp2, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}
