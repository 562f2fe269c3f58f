package rpc

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jtx "github.com/LeJamon/goOCR2/internal/testing"
)

func dialWS(t *testing.T, f *fixture) (*WebSocketServer, *websocket.Conn) {
	t.Helper()
	ws := NewWebSocketServer(f.server.Registry())
	f.backend.ws = ws
	srv := httptest.NewServer(ws)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return ws, conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, cmd map[string]interface{}) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.WriteJSON(cmd))
	return readJSON(t, conn)
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketCommands(t *testing.T) {
	f := newFixture(t)
	_, conn := dialWS(t, f)

	resp := roundTrip(t, conn, map[string]interface{}{"id": 1, "command": "feed_info", "feed": f.agg.Feed.Address.String()})
	assert.Equal(t, "response", resp["type"])
	assert.Equal(t, "success", resp["status"])
	assert.Equal(t, float64(1), resp["id"])
	assert.Equal(t, "agg", resp["result"].(map[string]interface{})["description"])

	resp = roundTrip(t, conn, map[string]interface{}{"id": 2, "command": "nope"})
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "unknownCmd", resp["error"])

	resp = roundTrip(t, conn, map[string]interface{}{"id": 3})
	assert.Equal(t, "missingCommand", resp["error"])

	resp = roundTrip(t, conn, map[string]interface{}{"id": 4, "command": "subscribe", "streams": []string{"ledger"}})
	assert.Equal(t, "malformedStream", resp["error"])

	resp = roundTrip(t, conn, map[string]interface{}{"id": 5, "command": "subscribe"})
	assert.Equal(t, "invalidParams", resp["error"])
}

func TestWebSocketTransmissions(t *testing.T) {
	f := newFixture(t)
	ws, conn := dialWS(t, f)

	resp := roundTrip(t, conn, map[string]interface{}{"id": 1, "command": "subscribe", "streams": []string{"transmissions"}})
	require.Equal(t, "success", resp["status"])
	require.Equal(t, 1, ws.SubscriberCount(SubTransmissions))
	require.Zero(t, ws.SubscriberCount(SubTransactions))

	requireSuccess(t, f.call(t, "submit", map[string]string{"tx": f.transmitTx(t, 777)}))

	ev := readJSON(t, conn)
	assert.Equal(t, "transmission", ev["type"])
	assert.Equal(t, f.agg.Feed.Address.String(), ev["feed"])
	assert.Equal(t, "777", ev["answer"])
	assert.Equal(t, float64(1), ev["round_id"])
	assert.Equal(t, float64(7), ev["juels_per_feecoin"])

	resp = roundTrip(t, conn, map[string]interface{}{"id": 2, "command": "unsubscribe", "streams": []string{"transmissions"}})
	require.Equal(t, "success", resp["status"])
	require.Zero(t, ws.SubscriberCount(SubTransmissions))
}

func TestWebSocketFeedFilter(t *testing.T) {
	f := newFixture(t)
	_, conn := dialWS(t, f)

	other := jtx.NewAccount("other-feed").Address.String()
	resp := roundTrip(t, conn, map[string]interface{}{
		"command": "subscribe", "streams": []string{"transmissions", "transactions"}, "feeds": []string{other},
	})
	require.Equal(t, "success", resp["status"])

	requireSuccess(t, f.call(t, "submit", map[string]string{"tx": f.transmitTx(t, 5)}))

	// the transaction arrives, the transmission of an unwatched feed does not
	ev := readJSON(t, conn)
	assert.Equal(t, "transaction", ev["type"])
	resp = roundTrip(t, conn, map[string]interface{}{"id": 9, "command": "ping"})
	assert.Equal(t, float64(9), resp["id"])
}

func TestWebSocketClose(t *testing.T) {
	f := newFixture(t)
	ws, conn := dialWS(t, f)

	roundTrip(t, conn, map[string]interface{}{"command": "subscribe", "streams": []string{"transactions"}})
	require.Equal(t, 1, ws.SubscriberCount(SubTransactions))

	ws.Close()
	require.Zero(t, ws.SubscriberCount(SubTransactions))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}
