package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nats-io/nats.go"
)

// StreamConfig contains timing configuration for websocket streams.
type StreamConfig struct {
	// Time allowed to write a message to the peer.
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration

	// Send pings to peer with this period. Must be less than PongWait.
	PingPeriod time.Duration
}

// DefaultStreamConfig returns the default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		WriteWait:  10 * time.Second,
		PongWait:   60 * time.Second,
		PingPeriod: (60 * time.Second * 9) / 10,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS policy is enforced at the router; the upgrade itself
		// accepts any origin.
		return true
	},
}

type streamClient struct {
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	config StreamConfig
	log    *slog.Logger
}

// NarrativeStreamHandler bridges narrative-detected events from NATS
// onto a websocket connection. The stream is one-way; client messages
// are read only to service pings and detect disconnects.
func NarrativeStreamHandler(natsConn *nats.Conn, subject string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", slog.Any("err", err))
			return
		}

		client := &streamClient{
			conn:   conn,
			send:   make(chan []byte, 256),
			done:   make(chan struct{}),
			config: DefaultStreamConfig(),
			log:    logger,
		}

		sub, err := natsConn.Subscribe(subject, func(msg *nats.Msg) {
			select {
			case client.send <- msg.Data:
			default:
				// Slow consumer; drop rather than block the bus.
			}
		})
		if err != nil {
			logger.Warn("narrative stream subscribe failed", slog.Any("err", err))
			conn.Close()
			return
		}

		go client.writePump()
		client.readPump()

		sub.Unsubscribe()
		close(client.done)
	}
}

func (c *streamClient) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket closed unexpectedly", slog.Any("err", err))
			}
			return
		}
	}
}

func (c *streamClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
