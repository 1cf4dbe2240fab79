// Package remote serves the coordinator over HTTP for a browser front-end. A
// JSON API under /api drives the coordinator, and a websocket at /ws pushes
// session updates and video intents to the browser.
package remote

import (
	"context"
	"net/http"
	"time"

	"github.com/diamondburned/mirage/internal/media"
	"github.com/diamondburned/mirage/internal/prober"
	"github.com/diamondburned/mirage/internal/state"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Loop runs functions on the goroutine that owns the state.
type Loop interface {
	IdleAdd(fn func())
	Invoke(ctx context.Context, fn func()) error
}

// Server is the HTTP remote. Its methods are safe to call from any goroutine
// except Update, which must be called in the main loop.
type Server struct {
	state    *state.State
	loop     Loop
	hub      *Hub
	prober   *prober.Prober
	validate *bodyValidator
	upgrader websocket.Upgrader
	events   state.BackendEvents
}

// New creates a server. The prober may be nil, in which case files can only be
// added by URL.
func New(s *state.State, loop Loop, hub *Hub, p *prober.Prober) *Server {
	return &Server{
		state:    s,
		loop:     loop,
		hub:      hub,
		prober:   p,
		validate: newBodyValidator(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		events: s.BackendEvents(media.Video),
	}
}

// Hub returns the server's websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Update broadcasts the session to every websocket client.
func (s *Server) Update(st *state.State) {
	s.hub.Broadcast(Output{Type: SessionUpdated, Payload: snapshot(st)})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/files", func(r chi.Router) {
			r.Get("/", s.listFiles)
			r.Post("/", s.addFile)
			r.Post("/probe", s.probeFiles)
			r.Get("/{id}", s.getFile)
			r.Delete("/{id}", s.removeFile)
		})

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Post("/play", s.playFile)
			r.Post("/pause", s.simple(s.state.PausePlayback))
			r.Post("/resume", s.simple(s.state.ResumePlayback))
			r.Post("/toggle", s.simple(s.state.TogglePlayback))
			r.Post("/next", s.simple(s.state.NextTrack))
			r.Post("/previous", s.simple(s.state.PreviousTrack))
			r.Put("/position", s.seek)
			r.Put("/volume", s.setVolume)
			r.Put("/muted", s.setMuted)
			r.Put("/repeat", s.setRepeat)
			r.Put("/visible", s.setVisible)
			r.Put("/fullscreen", s.setFullscreen)
		})

		r.Route("/playlists", func(r chi.Router) {
			r.Get("/", s.listPlaylists)
			r.Post("/", s.createPlaylist)
			r.Post("/import", s.importPlaylist)
			r.Get("/{id}", s.getPlaylist)
			r.Patch("/{id}", s.renamePlaylist)
			r.Delete("/{id}", s.deletePlaylist)
			r.Post("/{id}/export", s.exportPlaylist)
			r.Put("/{id}/items/{fileID}", s.addToPlaylist)
			r.Delete("/{id}/items/{fileID}", s.removeFromPlaylist)
		})

		r.Get("/favorites", s.listFavorites)
		r.Post("/favorites/{id}", s.toggleFavorite)
		r.Get("/stats", s.getStats)
	})

	r.Get("/ws", s.serveWS)

	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.hub.Close()
		srv.Shutdown(ctx)
	}()

	log.WithField("addr", addr).Infoln("Remote listening")

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": ww.Status(),
			"took":   time.Since(start),
		}).Debugln("Handled request")
	})
}

func logRequestError(r *http.Request, op string, err error) {
	entry := log.WithError(err).WithField("op", op)
	if r != nil {
		entry = entry.WithField("path", r.URL.Path)
	}
	entry.Warnln("Remote request failed")
}
