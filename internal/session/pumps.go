package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

const maxMessageSize = 8192

// readPump decodes client frames and dispatches them until the connection
// fails or ctx ends.
func (h *Hub) readPump(ctx context.Context, c *Connection) error {
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	h.handlePong(c)

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn(ctx, "websocket read failed", "conn_id", c.ID, "error", err)
			}
			return nil
		}
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Warn(ctx, "malformed client message", "conn_id", c.ID, "error", err)
			continue
		}
		h.dispatch(ctx, c, msg)
	}
}

// writePump owns all writes to the socket: queued messages and pings.
func (h *Hub) writePump(ctx context.Context, c *Connection) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.SendCh:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(msg); err != nil {
				return err
			}

		case <-ticker.C:
			if err := h.sendPing(c); err != nil {
				return err
			}

		case <-ctx.Done():
			h.drain(c)
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				h.logger.Debug(ctx, "close frame not sent", "conn_id", c.ID, "error", err)
			}
			return nil
		}
	}
}

// drain writes whatever is already queued, best effort.
func (h *Hub) drain(c *Connection) {
	for {
		select {
		case msg := <-c.SendCh:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteJSON(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}
