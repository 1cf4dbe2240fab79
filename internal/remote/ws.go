package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Message types received from clients. Clients that render video report the
// player's progress with these.
const (
	ClientTime     = "TIME"
	ClientDuration = "DURATION"
	ClientPaused   = "PAUSED"
	ClientEnded    = "ENDED"
	ClientError    = "ERROR"
)

type input struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type wsHandler func(payload json.RawMessage) error

func (s *Server) wsRoutes() map[string]wsHandler {
	return map[string]wsHandler{
		ClientTime: func(payload json.RawMessage) error {
			var data struct {
				Position float64 `json:"position"`
			}
			if err := json.Unmarshal(payload, &data); err != nil {
				return err
			}
			s.loop.IdleAdd(func() { s.events.OnPositionChange(data.Position) })
			return nil
		},
		ClientDuration: func(payload json.RawMessage) error {
			var data struct {
				Duration float64 `json:"duration"`
			}
			if err := json.Unmarshal(payload, &data); err != nil {
				return err
			}
			s.loop.IdleAdd(func() { s.events.OnDurationChange(data.Duration) })
			return nil
		},
		ClientPaused: func(payload json.RawMessage) error {
			var data struct {
				Paused bool `json:"paused"`
			}
			if err := json.Unmarshal(payload, &data); err != nil {
				return err
			}
			s.loop.IdleAdd(func() { s.events.OnPauseUpdate(data.Paused) })
			return nil
		},
		ClientEnded: func(json.RawMessage) error {
			s.loop.IdleAdd(s.events.OnEndOfFile)
			return nil
		},
		ClientError: func(payload json.RawMessage) error {
			var data struct {
				Message string `json:"message"`
			}
			json.Unmarshal(payload, &data)

			err := errors.Errorf("browser player failed: %s", data.Message)
			s.loop.IdleAdd(func() { s.events.OnPlaybackError(err) })
			return nil
		},
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logRequestError(r, "upgrade", err)
		return
	}

	c := s.hub.register(conn)
	defer s.hub.unregister(c)

	// Greet the client with the current session.
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	err = s.loop.Invoke(ctx, func() {
		s.hub.sendTo(c, Output{Type: SessionUpdated, Payload: snapshot(s.state)})
	})
	cancel()

	if err != nil {
		logRequestError(r, "greet", err)
		return
	}

	s.readPump(conn)
}

func (s *Server) readPump(conn *websocket.Conn) {
	routes := s.wsRoutes()

	conn.SetReadLimit(maxBodySize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var in input
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debugln("Websocket closed unexpectedly")
			}
			return
		}

		handler, ok := routes[in.Type]
		if !ok {
			log.WithField("type", in.Type).Debugln("Unknown websocket message")
			continue
		}

		if err := handler(in.Payload); err != nil {
			log.WithError(err).WithField("type", in.Type).Debugln("Invalid websocket message")
		}
	}
}
