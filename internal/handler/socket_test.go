package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/pairing-relay-go/internal/model"
)

func dialSocket(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readServerMessage(t *testing.T, conn *websocket.Conn) serverMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg serverMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestSocketHandler(t *testing.T) {
	t.Run("subscribe then receive pairing-success", func(t *testing.T) {
		env := newTestEnv(t)
		srv := httptest.NewServer(env.router)
		defer srv.Close()
		code := env.generate(t, "U1", true)
		conn := dialSocket(t, srv)

		require.NoError(t, conn.WriteJSON(clientMessage{Type: msgSubscribe, Code: strings.ToLower(code)}))
		subscribed := readServerMessage(t, conn)
		assert.Equal(t, msgSubscribed, subscribed.Type)
		assert.Equal(t, code, subscribed.Code)
		assert.Equal(t, model.PairingStatusPending, subscribed.Status)

		_, err := env.registry.Redeem(code, "D1")
		require.NoError(t, err)

		msg := readServerMessage(t, conn)
		assert.Equal(t, msgPairingSuccess, msg.Type)
		require.NotNil(t, msg.Data)
		assert.Equal(t, "U1", msg.Data.User)
		assert.Equal(t, "D1", msg.Data.DeviceID)
		assert.True(t, msg.Data.Premium)

		require.Eventually(t, func() bool { return env.hub.SubscriberCount(code) == 0 }, time.Second, 10*time.Millisecond)
	})

	t.Run("subscribing to an already paired code delivers once", func(t *testing.T) {
		env := newTestEnv(t)
		srv := httptest.NewServer(env.router)
		defer srv.Close()
		code := env.generate(t, "U1", false)
		_, err := env.registry.Redeem(code, "D1")
		require.NoError(t, err)
		conn := dialSocket(t, srv)

		require.NoError(t, conn.WriteJSON(clientMessage{Type: msgSubscribe, Code: code}))

		assert.Equal(t, model.PairingStatusPaired, readServerMessage(t, conn).Status)
		msg := readServerMessage(t, conn)
		assert.Equal(t, msgPairingSuccess, msg.Type)
		assert.Equal(t, "D1", msg.Data.DeviceID)

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
		var extra serverMessage
		assert.Error(t, conn.ReadJSON(&extra), "no duplicate delivery")
	})

	t.Run("invalid input yields error messages and keeps the socket open", func(t *testing.T) {
		env := newTestEnv(t)
		srv := httptest.NewServer(env.router)
		defer srv.Close()
		conn := dialSocket(t, srv)

		require.NoError(t, conn.WriteJSON(clientMessage{Type: msgSubscribe, Code: "bad!"}))
		assert.Equal(t, msgError, readServerMessage(t, conn).Type)

		require.NoError(t, conn.WriteJSON(clientMessage{Type: "dance"}))
		assert.Equal(t, msgError, readServerMessage(t, conn).Type)

		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		assert.Equal(t, msgError, readServerMessage(t, conn).Type)

		code := env.generate(t, "U1", false)
		require.NoError(t, conn.WriteJSON(clientMessage{Type: msgSubscribe, Code: code}))
		assert.Equal(t, msgSubscribed, readServerMessage(t, conn).Type)
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		env := newTestEnv(t)
		srv := httptest.NewServer(env.router)
		defer srv.Close()
		code := env.generate(t, "U1", false)
		conn := dialSocket(t, srv)

		require.NoError(t, conn.WriteJSON(clientMessage{Type: msgSubscribe, Code: code}))
		readServerMessage(t, conn)
		require.NoError(t, conn.WriteJSON(clientMessage{Type: msgUnsubscribe, Code: code}))
		require.Eventually(t, func() bool { return env.hub.SubscriberCount(code) == 0 }, time.Second, 10*time.Millisecond)

		assert.Equal(t, 0, env.hub.Publish(code, model.PairingRecord{Code: code}))
	})

	t.Run("closing the socket drops every subscription", func(t *testing.T) {
		env := newTestEnv(t)
		srv := httptest.NewServer(env.router)
		defer srv.Close()
		first := env.generate(t, "U1", false)
		second := env.generate(t, "U2", false)
		conn := dialSocket(t, srv)

		for _, code := range []string{first, second} {
			require.NoError(t, conn.WriteJSON(clientMessage{Type: msgSubscribe, Code: code}))
			readServerMessage(t, conn)
		}
		require.Equal(t, 2, env.hub.TotalSubscribers())

		conn.Close()

		require.Eventually(t, func() bool { return env.hub.TotalSubscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
		assert.True(t, env.status.Lookup(first).Active())
		assert.True(t, env.status.Lookup(second).Active())
	})

	t.Run("rejects foreign origins when a list is configured", func(t *testing.T) {
		env := newTestEnv(t)
		srv := httptest.NewServer(NewSocketHandler(env.hub, env.status, []string{"https://pair.example"}))
		defer srv.Close()
		url := "ws" + strings.TrimPrefix(srv.URL, "http")

		_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example"}})
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://pair.example"}})
		require.NoError(t, err)
		conn.Close()
	})
}
