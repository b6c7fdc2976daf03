package live

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/patchwork/pkg/protocol"
)

// client is one WebSocket connection. Only writeLoop writes to conn
// and only writeLoop closes it.
type client struct {
	hub  *Hub
	id   string
	conn *websocket.Conn
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	closeReason protocol.CloseReason
	closeMsg    string
	announce    bool
}

func newClient(h *Hub, id string, conn *websocket.Conn) *client {
	return &client{
		hub:  h,
		id:   id,
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue queues msgs without blocking. It reports false when the
// client's buffer is full.
func (c *client) enqueue(msgs ...[]byte) bool {
	for _, m := range msgs {
		select {
		case <-c.done:
			return true
		case c.send <- m:
		default:
			return false
		}
	}
	return true
}

// sendClose makes writeLoop send a close control message before it
// shuts the connection.
func (c *client) sendClose(reason protocol.CloseReason, msg string) {
	c.mu.Lock()
	c.closeReason, c.closeMsg, c.announce = reason, msg, true
	c.mu.Unlock()
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.hub.wg.Done()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				c.hub.logger.Debug("write failed", "client", c.id, "error", err)
				c.close()
				return
			}
		case now := <-ticker.C:
			ping := protocol.EncodeControl(&protocol.Control{Type: protocol.ControlPing, Timestamp: uint64(now.UnixMilli())})
			if err := c.write(protocol.NewFrame(protocol.FrameControl, ping).Encode()); err != nil {
				c.close()
				return
			}
		case <-c.done:
			c.farewell()
			return
		}
	}
}

func (c *client) write(msg []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		return err
	}
	c.hub.frameSent(protocol.FrameType(msg[0]), len(msg))
	return nil
}

func (c *client) farewell() {
	c.mu.Lock()
	reason, msg, announce := c.closeReason, c.closeMsg, c.announce
	c.mu.Unlock()
	if !announce {
		return
	}
	payload := protocol.EncodeControl(&protocol.Control{Type: protocol.ControlClose, Reason: reason, Message: msg})
	if err := c.write(protocol.NewFrame(protocol.FrameControl, payload).Encode()); err != nil {
		return
	}
	deadline := time.Now().Add(c.hub.config.WriteTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, msg), deadline)
}

func (c *client) readLoop() {
	defer func() {
		c.hub.remove(c)
		c.close()
		c.hub.wg.Done()
		c.hub.logger.Info("client disconnected", "client", c.id)
	}()

	var asm protocol.Reassembler
	for {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.hub.logger.Warn("read error", "client", c.id, "error", err)
			}
			return
		}

		frame, err := protocol.DecodeFrame(data)
		if err != nil {
			c.sendError(protocol.ErrInvalidFrame, err.Error())
			continue
		}
		ft, payload, complete, err := asm.Add(frame)
		if err != nil {
			c.sendError(protocol.ErrInvalidFrame, err.Error())
			continue
		}
		if !complete {
			continue
		}

		switch ft {
		case protocol.FrameControl:
			if !c.handleControl(payload) {
				return
			}
		default:
			c.sendError(protocol.ErrUnexpectedFrame, "unexpected "+ft.String()+" frame")
		}
	}
}

// handleControl reports false when the client asked to close.
func (c *client) handleControl(payload []byte) bool {
	ctrl, err := protocol.DecodeControl(payload)
	if err != nil {
		c.sendError(protocol.ErrInvalidFrame, err.Error())
		return true
	}
	switch ctrl.Type {
	case protocol.ControlPing:
		pong := protocol.EncodeControl(&protocol.Control{Type: protocol.ControlPong, Timestamp: ctrl.Timestamp})
		c.enqueue(protocol.NewFrame(protocol.FrameControl, pong).Encode())
	case protocol.ControlPong:
		c.hub.logger.Debug("received pong", "client", c.id)
	case protocol.ControlResyncRequest:
		c.hub.logger.Info("resync requested", "client", c.id, "last_seq", ctrl.LastSeq)
		c.hub.resync(c)
	case protocol.ControlClose:
		c.hub.logger.Info("client closing", "client", c.id, "reason", ctrl.Reason.String(), "message", ctrl.Message)
		return false
	}
	return true
}

func (c *client) sendError(code protocol.ErrorCode, msg string) {
	payload := protocol.EncodeErrorMessage(protocol.NewError(code, msg))
	c.enqueue(protocol.NewFrame(protocol.FrameError, payload).Encode())
}
