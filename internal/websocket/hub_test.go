package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashcli/internal/config"
	"ashcli/internal/pipeline"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		PingPeriod:      10 * time.Second,
		PongWait:        20 * time.Second,
	}
}

// dial upgrades one client against a hub-backed test server and returns the
// client side of the connection.
func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		ServeWS(hub, conn, testWSConfig(), slog.Default())
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func TestHubSendsConnectionMessage(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	t.Cleanup(hub.Stop)

	conn := dial(t, hub)
	env := readEnvelope(t, conn)
	assert.Equal(t, TypeConnection, env.Type)

	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "connected", data["status"])
	assert.NotEmpty(t, data["client_id"])
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	t.Cleanup(hub.Stop)

	first := dial(t, hub)
	second := dial(t, hub)
	readEnvelope(t, first)
	readEnvelope(t, second)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 },
		time.Second, 10*time.Millisecond)

	hub.Broadcast(TypeProgress, map[string]int{"current": 3, "total": 10})

	for _, conn := range []*websocket.Conn{first, second} {
		env := readEnvelope(t, conn)
		assert.Equal(t, TypeProgress, env.Type)
		assert.NotEmpty(t, env.Timestamp)
	}
}

func TestEventObserverBroadcastsEntityEvents(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	t.Cleanup(hub.Stop)

	conn := dial(t, hub)
	readEnvelope(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	NewEventObserver(hub, nil).EntityDone(pipeline.Event{
		Code:  "sh.600000",
		Board: "MainBoard",
		Index: 1,
		Total: 5,
	})

	env := readEnvelope(t, conn)
	assert.Equal(t, TypeEntity, env.Type)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sh.600000", data["code"])
	assert.Equal(t, "MainBoard", data["board"])
}

// stubProgress exposes a fixed tracker the way the pipeline does.
type stubProgress struct {
	tracker *pipeline.Tracker
}

func (s *stubProgress) Tracker() *pipeline.Tracker { return s.tracker }

func TestEventObserverBroadcastsProgressSnapshots(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	t.Cleanup(hub.Stop)

	conn := dial(t, hub)
	readEnvelope(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	tracker := pipeline.NewTracker("run-1", 5)
	tracker.Increment("sh.600000")
	observer := NewEventObserver(hub, &stubProgress{tracker: tracker})

	observer.EntityDone(pipeline.Event{Code: "sh.600000", Index: 1, Total: 5})

	env := readEnvelope(t, conn)
	assert.Equal(t, TypeEntity, env.Type)

	env = readEnvelope(t, conn)
	assert.Equal(t, TypeProgress, env.Type)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "run-1", data["run_id"])
	assert.Equal(t, float64(1), data["current"])
	assert.Equal(t, float64(5), data["total"])

	// Without a live tracker only the entity event goes out.
	idle := NewEventObserver(hub, &stubProgress{})
	idle.EntityDone(pipeline.Event{Code: "sz.000001", Index: 2, Total: 5})
	env = readEnvelope(t, conn)
	assert.Equal(t, TypeEntity, env.Type)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHubBroadcastsRunSummary(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	t.Cleanup(hub.Stop)

	conn := dial(t, hub)
	readEnvelope(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.Broadcast(TypeSummary, &pipeline.Summary{
		RunID:        "run-1",
		Total:        5,
		Succeeded:    4,
		Placeholders: 1,
	})

	env := readEnvelope(t, conn)
	assert.Equal(t, TypeSummary, env.Type)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(4), data["succeeded"])
	assert.Equal(t, float64(1), data["placeholders"])
}

func TestHubStopDisconnectsClients(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()

	conn := dial(t, hub)
	readEnvelope(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		time.Second, 10*time.Millisecond)

	hub.Stop()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "server closes the connection on shutdown")
}
