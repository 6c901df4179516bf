package host

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/tripcanvas/tripcanvas/pkg/logger"
)

const eventFollowUp = "host.sendFollowUpMessage"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The widget is served from the same gateway; the host page origin
		// varies per deployment.
		return true
	},
}

// frame is the wire envelope for every message in either direction.
type frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Conn is the widget end of the socket. Inbound set_globals pushes are
// decoded and exposed on Events(); follow-up messages go back out as JSON
// frames.
type Conn struct {
	ws        *websocket.Conn
	events    chan SetGlobalsEvent
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects the widget to a host gateway at a ws:// or wss:// URL.
func Dial(ctx context.Context, url string) (*Conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("host dial failed: %w", err)
	}

	c := &Conn{
		ws:     ws,
		events: make(chan SetGlobalsEvent, 16),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Events delivers decoded set_globals pushes. The channel is closed when the
// connection ends.
func (c *Conn) Events() <-chan SetGlobalsEvent {
	return c.events
}

func (c *Conn) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnCF("host", "Websocket read error", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			logger.DebugC("host", "Dropping malformed frame")
			continue
		}
		if f.Event != EventSetGlobals {
			continue
		}

		var ev SetGlobalsEvent
		if err := json.Unmarshal(f.Payload, &ev); err != nil {
			logger.DebugC("host", "Dropping malformed set_globals payload")
			continue
		}

		select {
		case c.events <- ev:
		case <-c.done:
			return
		default:
			// Slow consumer: the newest push supersedes, so make room by
			// discarding the oldest queued one.
			select {
			case <-c.events:
			default:
			}
			select {
			case c.events <- ev:
			case <-c.done:
				return
			default:
			}
			logger.WarnC("host", "Event buffer full, dropped oldest set_globals push")
		}
	}
}

// SendFollowUpMessage writes a follow-up frame to the host page.
func (c *Conn) SendFollowUpMessage(ctx context.Context, msg FollowUpMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	data, err := json.Marshal(frame{Event: eventFollowUp, Payload: payload})
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return fmt.Errorf("connection closed")
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}

// Page is the host-page end of the socket, created when a widget connects.
// It broadcasts set_globals pushes and surfaces follow-up messages the
// widget sends back.
type Page struct {
	ws        *websocket.Conn
	followUps chan FollowUpMessage
	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// Upgrade hijacks an HTTP request from a widget into a websocket and starts
// reading follow-up frames.
func Upgrade(w http.ResponseWriter, r *http.Request) (*Page, error) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket upgrade failed: %w", err)
	}

	p := &Page{
		ws:        ws,
		followUps: make(chan FollowUpMessage, 16),
		done:      make(chan struct{}),
	}
	go p.readLoop()
	return p, nil
}

// FollowUps delivers follow-up messages from the widget. The channel is
// closed when the connection ends.
func (p *Page) FollowUps() <-chan FollowUpMessage {
	return p.followUps
}

func (p *Page) readLoop() {
	defer close(p.followUps)
	for {
		_, data, err := p.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WarnCF("host", "Websocket read error", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			logger.DebugC("host", "Dropping malformed frame")
			continue
		}
		if f.Event != eventFollowUp {
			continue
		}

		var msg FollowUpMessage
		if err := json.Unmarshal(f.Payload, &msg); err != nil {
			logger.DebugC("host", "Dropping malformed follow-up payload")
			continue
		}

		select {
		case p.followUps <- msg:
		case <-p.done:
			return
		default:
			logger.WarnC("host", "Follow-up buffer full, dropping message")
		}
	}
}

// SendSetGlobals pushes updated widget globals to the connected widget.
func (p *Page) SendSetGlobals(ev SetGlobalsEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	data, err := json.Marshal(frame{Event: EventSetGlobals, Payload: payload})
	if err != nil {
		return err
	}

	select {
	case <-p.done:
		return fmt.Errorf("connection closed")
	default:
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return p.ws.WriteMessage(websocket.TextMessage, data)
}

// Close tears the connection down. Safe to call more than once.
func (p *Page) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		p.writeMu.Lock()
		p.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		p.writeMu.Unlock()
		err = p.ws.Close()
	})
	return err
}
