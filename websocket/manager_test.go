package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, manager *Manager) (*httptest.Server, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(manager.HandleConnections))
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return server, cancel
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestManager_BroadcastReachesClients(t *testing.T) {
	manager := NewManager(nil)
	server, _ := startHub(t, manager)

	first := dial(t, server)
	second := dial(t, server)
	require.Eventually(t, func() bool { return manager.ClientCount() == 2 }, 5*time.Second, 10*time.Millisecond)

	manager.Broadcast("dataset_refreshed", map[string]int{"rows": 42})

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, conn)
		assert.Equal(t, "dataset_refreshed", event.Type)
		assert.Equal(t, map[string]interface{}{"rows": 42.0}, event.Payload)
	}
}

func TestManager_AnswersPing(t *testing.T) {
	manager := NewManager(nil)
	server, _ := startHub(t, manager)
	conn := dial(t, server)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	assert.Equal(t, "pong", readEvent(t, conn).Type)
}

func TestManager_ReplyToDepartedClientIsDropped(t *testing.T) {
	manager := NewManager(nil)
	startHub(t, manager)

	gone := &Client{ID: "gone", Send: make(chan []byte, sendBufferSize)}
	manager.register <- gone
	manager.unregister <- gone
	require.Eventually(t, func() bool { return manager.ClientCount() == 0 }, 5*time.Second, 10*time.Millisecond)

	assert.NotPanics(t, func() { manager.reply(gone, []byte(`{"type":"pong"}`)) })

	live := &Client{ID: "live", Send: make(chan []byte, sendBufferSize)}
	manager.register <- live
	manager.reply(live, []byte(`{"type":"pong"}`))

	select {
	case frame := <-live.Send:
		assert.JSONEq(t, `{"type":"pong"}`, string(frame))
	case <-time.After(5 * time.Second):
		t.Fatal("reply not delivered")
	}
	_, open := <-gone.Send
	assert.False(t, open)
}

func TestManager_UnregistersOnClose(t *testing.T) {
	manager := NewManager(nil)
	server, _ := startHub(t, manager)

	conn := dial(t, server)
	require.Eventually(t, func() bool { return manager.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return manager.ClientCount() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestManager_RejectsForeignOrigin(t *testing.T) {
	manager := NewManager(nil, "http://dashboard.local")
	server, _ := startHub(t, manager)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	header := http.Header{"Origin": []string{"http://evil.local"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestManager_RelaysThroughRedisBus(t *testing.T) {
	mr := miniredis.RunT(t)
	newBus := func() *RedisBus {
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { client.Close() })
		return NewRedisBus(client, "", nil)
	}

	publisher := NewManager(nil).WithBus(newBus())
	subscriber := NewManager(nil).WithBus(newBus())
	startHub(t, publisher)
	server, _ := startHub(t, subscriber)

	conn := dial(t, server)
	require.Eventually(t, func() bool { return subscriber.ClientCount() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return mr.PubSubNumSub(DefaultChannel)[DefaultChannel] == 2 },
		5*time.Second, 10*time.Millisecond)

	publisher.Broadcast("cache_invalidated", nil)

	event := readEvent(t, conn)
	assert.Equal(t, "cache_invalidated", event.Type)
	assert.NotEmpty(t, event.Origin)
}
