package remote

import (
	"sync"
	"time"

	"github.com/diamondburned/mirage/internal/media"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Message types sent to clients.
const (
	SessionUpdated = "SESSION_UPDATED"
	VideoPresent   = "VIDEO_PRESENT"
	VideoUnload    = "VIDEO_UNLOAD"
	VideoPlaying   = "VIDEO_PLAYING"
	VideoSeek      = "VIDEO_SEEK"
	VideoVolume    = "VIDEO_VOLUME"
)

// Output is a message sent to clients.
type Output struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

type client struct {
	conn *websocket.Conn
	send chan Output
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case out, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(out); err != nil {
				log.WithError(err).Debugln("Failed to write to websocket")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub broadcasts messages to every connected websocket client. It implements
// the coordinator's VideoBackend by broadcasting the intents, so a browser
// client can render the video.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

func (h *Hub) register(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan Output, sendBuffer),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go c.writePump()
	return c
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// sendTo sends the message to one client only.
func (h *Hub) sendTo(c *client, out Output) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- out:
	default:
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.clients)
}

// Broadcast sends the message to every client. It never blocks; clients that
// cannot keep up are disconnected.
func (h *Hub) Broadcast(out Output) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- out:
		default:
			log.Warnln("Dropping slow websocket client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Present(item *media.Item) {
	if item == nil {
		h.Broadcast(Output{Type: VideoUnload})
		return
	}
	h.Broadcast(Output{Type: VideoPresent, Payload: envelope{"item": item}})
}

func (h *Hub) SetPlaying(playing bool) {
	h.Broadcast(Output{Type: VideoPlaying, Payload: envelope{"playing": playing}})
}

func (h *Hub) Seek(pos float64) {
	h.Broadcast(Output{Type: VideoSeek, Payload: envelope{"position": pos}})
}

func (h *Hub) SetVolume(v float64) {
	h.Broadcast(Output{Type: VideoVolume, Payload: envelope{"volume": v}})
}
