package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mythrivebuddy/thrive_server/internal/pkg/pubsub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func newTestHub() *Hub {
	return NewHub(logrus.NewEntry(logrus.New()))
}

// connect 建立一条真实的 websocket 连接并注册到 hub，返回客户端一侧
func connect(t *testing.T, hub *Hub, userID int64) (*websocket.Conn, *Client) {
	t.Helper()

	registered := make(chan *Client, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := &Client{UserID: userID, Conn: conn}
		hub.Register(client)
		registered <- client
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case c := <-registered:
		return conn, c
	case <-time.After(2 * time.Second):
		t.Fatal("client was not registered")
		return nil, nil
	}
}

func TestHub_Empty(t *testing.T) {
	hub := newTestHub()
	assert.Zero(t, hub.ConnectionCount())
	assert.False(t, hub.IsOnline(123))
	assert.NoError(t, hub.SendToUser(123, &Message{Type: "notification"}))
}

func TestHub_SendToUser_AllConnections(t *testing.T) {
	hub := newTestHub()
	tab1, _ := connect(t, hub, 7)
	tab2, _ := connect(t, hub, 7)
	other, _ := connect(t, hub, 8)

	assert.Equal(t, 3, hub.ConnectionCount())
	assert.True(t, hub.IsOnline(7))

	require.NoError(t, hub.SendToUser(7, &Message{Type: "notification", Data: map[string]string{"title": "Welcome"}}))

	for _, conn := range []*websocket.Conn{tab1, tab2} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"notification","data":{"title":"Welcome"}}`, string(data))
	}

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestHub_Deliver(t *testing.T) {
	hub := newTestHub()
	conn, _ := connect(t, hub, 42)

	hub.Deliver(&pubsub.RealtimeMessage{Type: pubsub.TypeNotification, UserID: 42, Title: "Goal reminder"})
	hub.Deliver(nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title":"Goal reminder"`)
	assert.Contains(t, string(data), `"type":"notification"`)
}

func TestHub_Unregister(t *testing.T) {
	hub := newTestHub()
	_, c1 := connect(t, hub, 9)
	_, c2 := connect(t, hub, 9)

	hub.Unregister(c1)
	assert.True(t, hub.IsOnline(9))
	assert.Equal(t, 1, hub.ConnectionCount())

	hub.Unregister(c2)
	assert.False(t, hub.IsOnline(9))
	assert.Zero(t, hub.ConnectionCount())

	// 重复注销不报错
	hub.Unregister(c2)
}
