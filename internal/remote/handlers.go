package remote

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/diamondburned/mirage/internal/media"
	"github.com/diamondburned/mirage/internal/muse/playlist"
	"github.com/diamondburned/mirage/internal/prober"
	"github.com/diamondburned/mirage/internal/state"
	"github.com/diamondburned/mirage/internal/stats"
	"github.com/go-chi/chi/v5"
)

// sessionSnapshot is the session as clients see it.
type sessionSnapshot struct {
	state.Session
	Index  int              `json:"index"`
	Repeat state.RepeatMode `json:"repeat"`
}

func snapshot(s *state.State) sessionSnapshot {
	ix, _ := s.NowPlaying()
	return sessionSnapshot{
		Session: s.Session(),
		Index:   ix,
		Repeat:  s.RepeatMode(),
	}
}

// invoke runs fn in the main loop and writes its result. The body is encoded
// in the loop too, since it may point into the state. A nil body writes just
// the status.
func (s *Server) invoke(w http.ResponseWriter, r *http.Request, fn func() (int, envelope)) {
	var status int
	var b []byte
	var encErr error

	err := s.loop.Invoke(r.Context(), func() {
		var body envelope
		status, body = fn()
		if body != nil {
			b, encErr = json.Marshal(body)
		}
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "main loop is busy")
		return
	}

	if encErr != nil {
		logRequestError(r, "encode response", encErr)
		writeError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	if b == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func notFound(what string) (int, envelope) {
	return http.StatusNotFound, envelope{"error": what + " not found"}
}

func (s *Server) simple(fn func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.invoke(w, r, func() (int, envelope) {
			fn()
			return http.StatusOK, envelope{"session": snapshot(s.state)}
		})
	}
}

// Files.

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var query media.Query
	query.Search = q.Get("search")

	if t := q.Get("type"); t != "" {
		typ, err := media.ParseType(t)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		query.Type = typ
	}

	sortBy := q.Get("sort")
	field, err := media.ParseSortField(sortBy)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	desc, _ := strconv.ParseBool(q.Get("desc"))

	s.invoke(w, r, func() (int, envelope) {
		lib := s.state.Library()

		var items []*media.Item

		if query.Search != "" && sortBy == "" {
			// Keep the search ranking.
			for _, item := range lib.Search(query.Search) {
				if query.Type == "" || item.Type == query.Type {
					items = append(items, item)
				}
			}
		} else {
			items = lib.Filter(query)
			if sortBy != "" {
				media.Sort(items, field, desc)
			}
		}

		if items == nil {
			items = []*media.Item{}
		}

		return http.StatusOK, envelope{"files": items}
	})
}

type addFileRequest struct {
	URL      string  `json:"url" validate:"required"`
	Title    string  `json:"title" validate:"max=512"`
	Artist   string  `json:"artist" validate:"max=512"`
	Album    string  `json:"album" validate:"max=512"`
	Cover    string  `json:"cover"`
	Type     string  `json:"type" validate:"omitempty,oneof=audio video"`
	Duration float64 `json:"duration" validate:"gte=0"`
	Size     int64   `json:"size" validate:"gte=0"`
}

func (s *Server) addFile(w http.ResponseWriter, r *http.Request) {
	var req addFileRequest
	if !s.decode(w, r, &req) {
		return
	}

	item := &media.Item{
		Title:    req.Title,
		Artist:   req.Artist,
		Album:    req.Album,
		Cover:    req.Cover,
		URL:      req.URL,
		Type:     media.Type(req.Type),
		Duration: req.Duration,
		Size:     req.Size,
	}

	if item.Title == "" {
		item.Title = playlist.TitleFromPath(req.URL)
	}
	if item.Type == "" {
		item.Type = media.TypeFromPath(req.URL)
	}

	s.invoke(w, r, func() (int, envelope) {
		item.ID = s.state.NewID()
		s.state.AddFile(item)
		return http.StatusCreated, envelope{"file": item}
	})
}

type probeFilesRequest struct {
	Paths []string `json:"paths" validate:"required,min=1,dive,required"`
}

func (s *Server) probeFiles(w http.ResponseWriter, r *http.Request) {
	if s.prober == nil {
		writeError(w, http.StatusNotImplemented, "probing is not available")
		return
	}

	var req probeFilesRequest
	if !s.decode(w, r, &req) {
		return
	}

	jobs := make([]prober.Job, len(req.Paths))
	for i, path := range req.Paths {
		jobs[i] = prober.Job{
			Path: path,
			Done: func(item *media.Item, err error) {
				if err == nil {
					s.state.AddFile(item)
				}
			},
		}
	}

	s.prober.Queue(jobs...)

	writeJSON(w, http.StatusAccepted, envelope{"queued": len(jobs)})
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.invoke(w, r, func() (int, envelope) {
		item, ok := s.state.File(id)
		if !ok {
			return notFound("file")
		}
		return http.StatusOK, envelope{"file": item, "favorite": s.state.IsFavorite(id)}
	})
}

func (s *Server) removeFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.invoke(w, r, func() (int, envelope) {
		if _, ok := s.state.File(id); !ok {
			return notFound("file")
		}
		s.state.RemoveFile(id)
		return http.StatusNoContent, nil
	})
}

// Session.

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	s.invoke(w, r, func() (int, envelope) {
		return http.StatusOK, envelope{"session": snapshot(s.state)}
	})
}

type playRequest struct {
	ID string `json:"id" validate:"required"`
}

func (s *Server) playFile(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.invoke(w, r, func() (int, envelope) {
		item, ok := s.state.File(req.ID)
		if !ok {
			return notFound("file")
		}
		s.state.PlayFile(item)
		return http.StatusOK, envelope{"session": snapshot(s.state)}
	})
}

type seekRequest struct {
	Position *float64 `json:"position" validate:"required"`
}

func (s *Server) seek(w http.ResponseWriter, r *http.Request) {
	var req seekRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.invoke(w, r, func() (int, envelope) {
		s.state.SeekTo(*req.Position)
		return http.StatusOK, envelope{"session": snapshot(s.state)}
	})
}

type volumeRequest struct {
	Volume *float64 `json:"volume" validate:"required"`
}

func (s *Server) setVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.invoke(w, r, func() (int, envelope) {
		s.state.SetVolume(*req.Volume)
		return http.StatusOK, envelope{"session": snapshot(s.state)}
	})
}

type flagRequest struct {
	Value *bool `json:"value" validate:"required"`
}

func (s *Server) setFlag(fn func(bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req flagRequest
		if !s.decode(w, r, &req) {
			return
		}

		s.invoke(w, r, func() (int, envelope) {
			fn(*req.Value)
			return http.StatusOK, envelope{"session": snapshot(s.state)}
		})
	}
}

func (s *Server) setMuted(w http.ResponseWriter, r *http.Request) {
	s.setFlag(s.state.SetMuted)(w, r)
}

func (s *Server) setVisible(w http.ResponseWriter, r *http.Request) {
	s.setFlag(s.state.SetPlayerVisible)(w, r)
}

func (s *Server) setFullscreen(w http.ResponseWriter, r *http.Request) {
	s.setFlag(s.state.SetFullscreen)(w, r)
}

type repeatRequest struct {
	Mode string `json:"mode" validate:"required,oneof=none all single"`
}

func (s *Server) setRepeat(w http.ResponseWriter, r *http.Request) {
	var req repeatRequest
	if !s.decode(w, r, &req) {
		return
	}

	mode, err := state.ParseRepeatMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.invoke(w, r, func() (int, envelope) {
		s.state.SetRepeatMode(mode)
		return http.StatusOK, envelope{"session": snapshot(s.state)}
	})
}

// Playlists.

func (s *Server) listPlaylists(w http.ResponseWriter, r *http.Request) {
	s.invoke(w, r, func() (int, envelope) {
		return http.StatusOK, envelope{"playlists": s.state.Playlists()}
	})
}

type playlistNameRequest struct {
	Name string `json:"name" validate:"required,max=128"`
}

func (s *Server) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var req playlistNameRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.invoke(w, r, func() (int, envelope) {
		return http.StatusCreated, envelope{"playlist": s.state.CreatePlaylist(req.Name)}
	})
}

func (s *Server) getPlaylist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.invoke(w, r, func() (int, envelope) {
		pl, ok := s.state.Playlist(id)
		if !ok {
			return notFound("playlist")
		}
		return http.StatusOK, envelope{"playlist": pl}
	})
}

func (s *Server) renamePlaylist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req playlistNameRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.invoke(w, r, func() (int, envelope) {
		pl, ok := s.state.Playlist(id)
		if !ok {
			return notFound("playlist")
		}
		s.state.RenamePlaylist(id, req.Name)
		return http.StatusOK, envelope{"playlist": pl}
	})
}

func (s *Server) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.invoke(w, r, func() (int, envelope) {
		if _, ok := s.state.Playlist(id); !ok {
			return notFound("playlist")
		}
		s.state.DeletePlaylist(id)
		return http.StatusNoContent, nil
	})
}

type pathRequest struct {
	Path string `json:"path" validate:"required"`
}

func (s *Server) importPlaylist(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.invoke(w, r, func() (int, envelope) {
		pl, err := s.state.ImportPlaylist(req.Path)
		if err != nil {
			logRequestError(r, "import", err)
			return http.StatusBadRequest, envelope{"error": err.Error()}
		}
		return http.StatusCreated, envelope{"playlist": pl}
	})
}

func (s *Server) exportPlaylist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req pathRequest
	if !s.decode(w, r, &req) {
		return
	}

	done := make(chan error, 1)
	var found bool

	err := s.loop.Invoke(r.Context(), func() {
		if _, found = s.state.Playlist(id); found {
			s.state.ExportPlaylist(id, req.Path, func(err error) { done <- err })
		}
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "main loop is busy")
		return
	}

	if !found {
		writeError(w, http.StatusNotFound, "playlist not found")
		return
	}

	select {
	case err := <-done:
		if err != nil {
			logRequestError(r, "export", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, envelope{"path": req.Path})

	case <-r.Context().Done():
		writeError(w, http.StatusServiceUnavailable, "export cancelled")
	}
}

func (s *Server) addToPlaylist(w http.ResponseWriter, r *http.Request) {
	s.editPlaylist(w, r, s.state.AddToPlaylist)
}

func (s *Server) removeFromPlaylist(w http.ResponseWriter, r *http.Request) {
	s.editPlaylist(w, r, s.state.RemoveFromPlaylist)
}

func (s *Server) editPlaylist(w http.ResponseWriter, r *http.Request, edit func(plID, fileID string)) {
	id := chi.URLParam(r, "id")
	fileID := chi.URLParam(r, "fileID")

	s.invoke(w, r, func() (int, envelope) {
		pl, ok := s.state.Playlist(id)
		if !ok {
			return notFound("playlist")
		}
		if _, ok := s.state.File(fileID); !ok {
			return notFound("file")
		}

		edit(id, fileID)
		return http.StatusOK, envelope{"playlist": pl}
	})
}

// Favorites and stats.

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	s.invoke(w, r, func() (int, envelope) {
		return http.StatusOK, envelope{"files": s.state.Favorites()}
	})
}

func (s *Server) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.invoke(w, r, func() (int, envelope) {
		if _, ok := s.state.File(id); !ok {
			return notFound("file")
		}
		return http.StatusOK, envelope{"favorite": s.state.ToggleFavorite(id)}
	})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	s.invoke(w, r, func() (int, envelope) {
		return http.StatusOK, envelope{"stats": stats.Summarize(s.state.Files())}
	})
}
