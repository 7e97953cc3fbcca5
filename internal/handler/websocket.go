package handler

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"chatline/internal/auth"
	"chatline/internal/hub"
)

// WebSocketHandler owns the session lifecycle: it authenticates an inbound
// connection, binds it to its user in the registry, keeps it alive, and
// guarantees the registry entry is gone when the connection is.
type WebSocketHandler struct {
	Registry    *hub.Registry
	Presence    *hub.Presence
	TokenConfig auth.TokenConfig
}

type clientMessage struct {
	Type string `json:"type"`
}

type pongMessage struct {
	Type string `json:"type"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsWriter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// Write is called from HTTP handler goroutines (message and receipt pushes),
// other sessions' serve goroutines (presence broadcasts), and this session's
// read loop (pong replies). gorilla allows a single concurrent writer, so
// deadline and write form one critical section.
func (w *wsWriter) Write(message []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.conn.WriteMessage(websocket.TextMessage, message)
}

func (w *wsWriter) Close() error {
	return w.conn.Close()
}

func (h *WebSocketHandler) Serve(c *gin.Context) {
	// Authentication happens before the upgrade: no application frame is
	// ever read from an unauthenticated connection.
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}
	claims, err := auth.VerifyToken(tokenString, h.TokenConfig)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	conn := &hub.Connection{
		UserID:    claims.UserID,
		Writer:    &wsWriter{conn: ws},
		CreatedAt: time.Now().UnixMilli(),
	}
	h.Registry.Register(conn)
	h.Presence.Announce()
	defer func() {
		// Runs on graceful close, abrupt failure, and supersession alike.
		// The registry guard makes a stale teardown a no-op, so announce
		// only when this connection actually held the entry.
		if h.Registry.Unregister(conn) {
			h.Presence.Announce()
		}
		_ = ws.Close()
	}()

	ws.SetReadLimit(1024 * 1024)
	const pongWait = 60 * time.Second
	const writeWait = 10 * time.Second
	pingPeriod := (pongWait * 9) / 10

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				deadline := time.Now().Add(writeWait)
				if err := ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					_ = ws.Close()
					return
				}
			}
		}
	}()

	// The socket is push-only for application events; messages are created
	// over REST. The read loop exists to detect the peer going away and to
	// answer client-level pings.
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		if msg.Type == "ping" {
			out, _ := json.Marshal(pongMessage{Type: "pong"})
			_ = conn.Writer.Write(out)
		}
	}
}
