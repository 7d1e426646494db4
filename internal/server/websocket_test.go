package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/bizunit/internal/server"
	"github.com/kode4food/bizunit/pkg/api"
)

const wsReadTimeout = 2 * time.Second

func testWebSocket(t *testing.T) (*testServerEnv, *websocket.Conn, string) {
	t.Helper()
	env := testServer(t)
	srv := httptest.NewServer(env.Router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return env, conn, srv.URL
}

func subscribe(t *testing.T, conn *websocket.Conn, sub api.SubscribeRequest) {
	t.Helper()
	sub.Type = server.MessageSubscribe
	require.NoError(t, conn.WriteJSON(sub))

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	var ack api.SubscribedResult
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, server.MessageSubscribed, ack.Type)
	assert.Equal(t, sub.PlanID, ack.PlanID)
}

func TestSocketSilentUntilSubscribed(t *testing.T) {
	_, conn, _ := testWebSocket(t)

	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestSocketStreamsEvents(t *testing.T) {
	env, conn, base := testWebSocket(t)
	require.Equal(t, http.StatusOK,
		env.put(t, "watched", api.NewDocument(respond(200, nil))).Code,
	)

	subscribe(t, conn, api.SubscribeRequest{
		PlanID: "watched",
		Events: []api.EventType{api.EventTypeExecutionFinished},
	})

	resp, err := http.Get(base + "/run/watched")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	var ev api.ExecutionEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, api.EventTypeExecutionFinished, ev.Type)
	assert.Equal(t, api.PlanID("watched"), ev.PlanID)
	assert.NotEmpty(t, ev.ExecutionID)
}

func TestSocketInvalidMessage(t *testing.T) {
	_, conn, _ := testWebSocket(t)

	err := conn.WriteMessage(websocket.TextMessage, []byte("invalid json"))
	require.NoError(t, err)

	subscribe(t, conn, api.SubscribeRequest{})
}

func TestCloseWebSockets(t *testing.T) {
	env, conn, _ := testWebSocket(t)
	subscribe(t, conn, api.SubscribeRequest{})

	env.Server.CloseWebSockets()

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestBuildFilter(t *testing.T) {
	started := &api.ExecutionEvent{
		Type: api.EventTypeExecutionStarted, PlanID: "a",
	}
	finished := &api.ExecutionEvent{
		Type: api.EventTypeExecutionFinished, PlanID: "b",
	}

	all := server.BuildFilter(&api.SubscribeRequest{})
	assert.True(t, all(started))
	assert.True(t, all(finished))

	byPlan := server.BuildFilter(&api.SubscribeRequest{PlanID: "a"})
	assert.True(t, byPlan(started))
	assert.False(t, byPlan(finished))

	both := server.BuildFilter(&api.SubscribeRequest{
		PlanID: "b",
		Events: []api.EventType{api.EventTypeExecutionStarted},
	})
	assert.False(t, both(started))
	assert.False(t, both(finished))
}
