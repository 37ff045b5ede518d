package hub

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve runs h behind a real listener and returns the websocket URL.
func serve(t *testing.T, h *Hub) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		NewClient(h, c, c.Query("topic")).Run()
	}))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go app.Listener(ln)

	t.Cleanup(func() {
		cancel()
		_ = app.Shutdown()
	})
	return "ws://" + ln.Addr().String() + "/ws"
}

func dial(t *testing.T, url string) *gws.Conn {
	t.Helper()
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.ClientCount() == n },
		2*time.Second, 10*time.Millisecond, "want %d clients", n)
}

type event struct {
	Type string `json:"type"`
	City string `json:"city"`
}

func TestPublishReachesEveryClient(t *testing.T) {
	h := New("events", quietLogger())
	url := serve(t, h)

	a := dial(t, url)
	b := dial(t, url)
	waitClients(t, h, 2)

	require.NoError(t, h.Publish(event{Type: "tool_call", City: "izmir"}))

	for _, conn := range []*gws.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		kind, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, gws.TextMessage, kind)

		var got event
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, event{Type: "tool_call", City: "izmir"}, got)
	}
}

func TestPublishToDeliversOnlyToTopic(t *testing.T) {
	h := New("events", quietLogger())
	url := serve(t, h)

	a := dial(t, url+"?topic=alpha")
	b := dial(t, url+"?topic=beta")
	all := dial(t, url)
	waitClients(t, h, 3)

	require.NoError(t, h.PublishTo("alpha", event{Type: "turn_start", City: "ankara"}))
	require.NoError(t, h.PublishTo("beta", event{Type: "turn_start", City: "izmir"}))

	read := func(conn *gws.Conn) event {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var got event
		require.NoError(t, json.Unmarshal(data, &got))
		return got
	}

	// Messages are delivered in publish order, so a leak would arrive first.
	assert.Equal(t, "ankara", read(a).City)
	assert.Equal(t, "izmir", read(b).City)
	assert.Equal(t, "ankara", read(all).City)
	assert.Equal(t, "izmir", read(all).City)
}

func TestDisconnectUnregisters(t *testing.T) {
	h := New("events", quietLogger())
	url := serve(t, h)

	a := dial(t, url)
	dial(t, url)
	waitClients(t, h, 2)

	require.NoError(t, a.Close())
	waitClients(t, h, 1)
}

func TestCloseDisconnectsClients(t *testing.T) {
	h := New("events", quietLogger())
	url := serve(t, h)

	conn := dial(t, url)
	waitClients(t, h, 1)

	h.Close()
	require.Eventually(t, func() bool { return !h.IsRunning() }, 2*time.Second, 10*time.Millisecond)
	assert.Zero(t, h.ClientCount())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestBroadcastWithoutRunDoesNotBlock(t *testing.T) {
	h := New("idle", quietLogger())
	done := make(chan struct{})
	go func() {
		for i := 0; i < queueSize*2; i++ {
			h.Broadcast(Message{Data: []byte(`{}`)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Broadcast blocked")
	}

	h.Close()
	h.Close()
	h.Broadcast(Message{Data: []byte(`{}`)})
}

func TestEncodeRejectsUnsupported(t *testing.T) {
	_, err := Encode(make(chan int))
	assert.Error(t, err)

	msg, err := Encode(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(msg.Data))
}
