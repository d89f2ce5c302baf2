package server

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/markerscan/markerd/internal/dispatcher"
	"github.com/markerscan/markerd/pkg/streaming"
)

const (
	sendChSize    = 256
	frameQueueLen = 4
	writeWait     = 10 * time.Second
	maxFrameBytes = 8 << 20
)

// client manages one WebSocket connection with a single write goroutine.
type client struct {
	srv  *Server
	disp *dispatcher.Dispatcher

	mu     sync.Mutex
	conn   *ws.Conn
	closed bool

	sendCh chan []byte
	done   chan struct{}
}

func newClient(s *Server, conn *ws.Conn) (*client, error) {
	c := &client{
		srv:    s,
		conn:   conn,
		sendCh: make(chan []byte, sendChSize),
		done:   make(chan struct{}),
	}

	disp, err := dispatcher.New(slogAdapter{s.logger})
	if err != nil {
		return nil, fmt.Errorf("creating dispatcher: %w", err)
	}

	// Frames queue shallow and drop under load: a stale frame is worth
	// less than the next one.
	disp.Register(streaming.TypeFrame, c.handleFrame, dispatcher.Buffered(frameQueueLen))
	disp.Register(streaming.TypeReload, c.handleReload, dispatcher.Logged())

	c.disp = disp
	return c, nil
}

// run reads messages until the connection drops, then shuts down the
// write loop.
func (c *client) run() {
	go c.writeLoop()
	c.readLoop()
	c.close()
}

// readLoop decodes envelopes and routes them through the dispatcher.
func (c *client) readLoop() {
	c.conn.SetReadLimit(maxFrameBytes)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if !ws.IsCloseError(err, ws.CloseNormalClosure, ws.CloseGoingAway) {
					c.srv.logger.Warn("WebSocket read error", "error", err)
				}
			}
			return
		}

		var env streaming.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			c.sendError(fmt.Sprintf("malformed message: %v", err))
			continue
		}

		if _, err := c.disp.Dispatch(dispatcher.Event{
			Type:      env.Type,
			Payload:   env.Payload,
			Timestamp: time.Now(),
		}); err != nil {
			c.sendError(err.Error())
		}
	}
}

// writeLoop drains sendCh and writes messages to the WebSocket.
func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			c.mu.Lock()
			conn := c.conn
			c.mu.Unlock()

			if conn == nil {
				return
			}

			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.srv.logger.Warn("WebSocket SetWriteDeadline error", "error", err)
				c.close()
				return
			}
			if err := conn.WriteMessage(ws.TextMessage, data); err != nil {
				c.srv.logger.Warn("WebSocket write error", "error", err)
				c.close()
				return
			}
		}
	}
}

// send pushes data to the write loop. Non-blocking; drops if channel full.
func (c *client) send(data []byte) {
	select {
	case c.sendCh <- data:
	default:
		c.srv.logger.Warn("WebSocket send channel full, dropping message")
	}
}

// sendEnvelope marshals the payload into an Envelope and pushes it to
// the write loop.
func (c *client) sendEnvelope(msgType string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		c.srv.logger.Error("Failed to marshal payload", "type", msgType, "error", err)
		return
	}
	data, err := json.Marshal(streaming.Envelope{Type: msgType, Payload: raw})
	if err != nil {
		c.srv.logger.Error("Failed to marshal envelope", "type", msgType, "error", err)
		return
	}
	c.send(data)
}

func (c *client) sendError(message string) {
	c.sendEnvelope(streaming.TypeError, streaming.ErrorPayload{Message: message})
}

// sendStatus greets a freshly connected client with the processing
// parameters and session info.
func (c *client) sendStatus() {
	c.sendEnvelope(streaming.TypeStatus, streaming.StatusPayload{
		Message:    "connected",
		Processing: c.srv.processingParams(),
		Session:    c.srv.opts.Session.Get(),
	})
}

// close sends a WebSocket close frame and shuts down both loops.
func (c *client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		_ = conn.WriteMessage(
			ws.CloseMessage,
			ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
		)
		_ = conn.Close()
	}

	c.disp.Close()
}

// slogAdapter bridges *slog.Logger to the dispatcher's Logger interface.
type slogAdapter struct {
	logger interface {
		Debug(msg string, args ...any)
		Info(msg string, args ...any)
		Error(msg string, args ...any)
	}
}

func (a slogAdapter) Debug(msg string, keysAndValues ...any) { a.logger.Debug(msg, keysAndValues...) }
func (a slogAdapter) Info(msg string, keysAndValues ...any)  { a.logger.Info(msg, keysAndValues...) }
func (a slogAdapter) Error(msg string, keysAndValues ...any) { a.logger.Error(msg, keysAndValues...) }
