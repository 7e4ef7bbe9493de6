package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, ts *testServer, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	srv := httptest.NewServer(ts.server.Router())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	return websocket.DefaultDialer.Dial(url, header)
}

func TestWebSocket_Chat(t *testing.T) {
	ts := newTestServer(t)
	conn, _, err := dial(t, ts, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(ChatRequest{Message: "one bread please"}))
	var order map[string]interface{}
	require.NoError(t, conn.ReadJSON(&order))
	assert.Equal(t, "order_confirmed", order["state"])
	assert.Contains(t, order["reply"], "Total: $5.00")

	require.NoError(t, conn.WriteJSON(ChatRequest{Message: "where are you?"}))
	var answer map[string]interface{}
	require.NoError(t, conn.ReadJSON(&answer))
	assert.Equal(t, "delegating", answer["state"])
	assert.Equal(t, "We are open from 8 AM to 6 PM.", answer["reply"])
}

func TestWebSocket_Errors(t *testing.T) {
	ts := newTestServer(t)
	ts.engine.err = errors.New("model offline")
	conn, _, err := dial(t, ts, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var bad map[string]interface{}
	require.NoError(t, conn.ReadJSON(&bad))
	assert.Equal(t, "invalid message frame", bad["error"])

	require.NoError(t, conn.WriteJSON(ChatRequest{Message: "any news?"}))
	var unavailable map[string]interface{}
	require.NoError(t, conn.ReadJSON(&unavailable))
	assert.Equal(t, "assistant unavailable", unavailable["error"])
	assert.NotContains(t, unavailable, "reply")
}

func TestWebSocket_RejectsForeignOrigin(t *testing.T) {
	ts := newTestServer(t)

	_, resp, err := dial(t, ts, http.Header{"Origin": []string{"http://evil.example"}})

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
