package apihttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"moviescout/internal/domain"
	"moviescout/internal/metrics"
	"moviescout/internal/session"
	"moviescout/internal/view"
)

const (
	wsWriteTimeout    = 10 * time.Second
	wsPongTimeout     = 60 * time.Second
	wsPingInterval    = 30 * time.Second
	wsMaxMessageBytes = 2048
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsMessage is a server-to-client frame.
type wsMessage struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// wsClientMessage is a client-to-server frame. Only "input" is understood.
type wsClientMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// wsClient ties one websocket connection to its search session. The session
// loop and both pumps stop when cancel fires.
type wsClient struct {
	hub    *wsHub
	conn   *websocket.Conn
	sess   *session.Session
	cancel context.CancelFunc
}

// wsHub tracks live search sessions and fans trending updates out to them.
// Delivery goes through each session's mailbox, which drops the oldest
// pending list instead of blocking, so one stalled client cannot hold up
// the rest.
type wsHub struct {
	logger     *slog.Logger
	clients    map[*wsClient]struct{}
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []domain.SearchRecord
	counts     chan chan int
	done       chan struct{}
}

func newWSHub(logger *slog.Logger) *wsHub {
	return &wsHub{
		logger:     logger,
		clients:    make(map[*wsClient]struct{}),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []domain.SearchRecord, 1),
		counts:     make(chan chan int),
		done:       make(chan struct{}),
	}
}

func (h *wsHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			metrics.SessionsActive.Inc()
			h.logger.Debug("ws session opened", slog.Int("sessions", len(h.clients)))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				metrics.SessionsActive.Dec()
				h.logger.Debug("ws session closed", slog.Int("sessions", len(h.clients)))
			}
		case records := <-h.broadcast:
			for client := range h.clients {
				client.sess.UpdateTrending(records)
			}
		case reply := <-h.counts:
			reply <- len(h.clients)
		case <-h.done:
			for client := range h.clients {
				client.cancel()
				metrics.SessionsActive.Dec()
			}
			h.clients = make(map[*wsClient]struct{})
			return
		}
	}
}

// BroadcastTrending hands the list to the hub loop. Pending lists are
// replaced rather than queued; only the newest matters.
func (h *wsHub) BroadcastTrending(records []domain.SearchRecord) {
	metrics.TrendingBroadcastsTotal.Inc()
	for {
		select {
		case h.broadcast <- records:
			return
		case <-h.done:
			return
		default:
		}
		select {
		case <-h.broadcast:
		default:
		}
	}
}

func (h *wsHub) Close() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}

// clientCount asks the hub loop for the live session count.
func (h *wsHub) clientCount() int {
	reply := make(chan int, 1)
	select {
	case h.counts <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

func (s *Server) handleSearchSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("ws upgrade failed",
			slog.String("remote", clientIP(r)),
			slog.String("error", err.Error()),
		)
		return
	}

	opts := []session.Option{session.WithLogger(s.logger)}
	if s.debounce > 0 {
		opts = append(opts, session.WithDebounce(s.debounce))
	}
	sess := session.New(s.search, opts...)

	// The session must outlive the upgrade request, so its context does not
	// derive from r.Context().
	ctx, cancel := context.WithCancel(context.Background())
	client := &wsClient{hub: s.hub, conn: conn, sess: sess, cancel: cancel}

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		cancel()
		conn.Close()
		return
	}

	go sess.Run(ctx)
	go client.writePump(ctx)
	go client.readPump()
}

// writePump owns all writes on the connection: rendered state snapshots,
// pings, and the final close frame.
func (c *wsClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			_ = c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case state := <-c.sess.Snapshots():
			payload, err := json.Marshal(wsMessage{Type: "state", Data: view.Render(state)})
			if err != nil {
				c.hub.logger.Error("ws state marshal failed", slog.String("error", err.Error()))
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump forwards typed input to the session and tears everything down
// when the peer goes away.
func (c *wsClient) readPump() {
	defer func() {
		c.cancel()
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(wsMaxMessageBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.logger.Debug("ws read ended", slog.String("error", err.Error()))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))

		var msg wsClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.logger.Debug("ws frame ignored", slog.String("error", err.Error()))
			continue
		}
		switch msg.Type {
		case "input":
			if utf8.RuneCountInString(msg.Text) > maxQueryLength {
				c.hub.logger.Debug("ws input ignored", slog.Int("length", len(msg.Text)))
				continue
			}
			c.sess.Input(msg.Text)
		default:
			c.hub.logger.Debug("ws frame ignored", slog.String("type", msg.Type))
		}
	}
}
