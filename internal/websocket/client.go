package chatws

import (
	"encoding/json"
	"log"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/premkumar3616/junk-chat/internal/bus"
)

// Client bridges one websocket connection to the delivery bus. The client
// drives its own subscriptions: it sends subscribe/unsubscribe frames naming
// a topic, and the server relays every envelope published on its subscribed
// topics. Subscriptions are restricted to topics addressed to the
// authenticated user.
type Client struct {
	conn   *websocket.Conn
	sub    *bus.Subscriber
	userID int64
	errs   chan []byte
}

type controlFrame struct {
	Type  string `json:"type"`
	Topic string `json:"topic"`
}

type errorFrame struct {
	Type      string `json:"type"`
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

func NewClient(deliveryBus *bus.Bus, conn *websocket.Conn, userID int64) *Client {
	return &Client{
		conn:   conn,
		sub:    deliveryBus.NewSubscriber(),
		userID: userID,
		errs:   make(chan []byte, 8),
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.sub.Detach()
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var frame controlFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			c.writeError("invalid frame")
			continue
		}

		switch frame.Type {
		case "subscribe":
			if !bus.AllowedSubscriber(frame.Topic, c.userID) {
				c.writeError("topic not allowed")
				continue
			}
			c.sub.Subscribe(frame.Topic)
		case "unsubscribe":
			c.sub.Unsubscribe(frame.Topic)
		default:
			c.writeError("unsupported frame type")
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.sub.C():
			if !ok {
				return
			}
			encoded, err := json.Marshal(env)
			if err != nil {
				log.Printf("ws client encode envelope: %v", err)
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, encoded); err != nil {
				return
			}
		case payload := <-c.errs:
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeError(message string) {
	payload, err := json.Marshal(errorFrame{
		Type:      "error",
		Error:     message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return
	}
	select {
	case c.errs <- payload:
	default:
	}
}
