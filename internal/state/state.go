// Package state contains the playback coordinator: the single owner of the
// media library, the playlists and the now-playing session.
//
// State is not thread-safe. Every method must be called from the main loop;
// see package mainloop.
package state

import (
	"github.com/diamondburned/mirage/internal/media"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// DefaultVolume is the volume of a new session.
const DefaultVolume = 0.8

type State struct {
	// onUpdate is called after every change. Changes to what is saved go
	// through changed, which also marks the state unsaved.
	onUpdate func(s *State)

	library   *media.Library
	playlists []*media.Playlist
	favorites []string // item IDs

	session   Session
	repeating RepeatMode

	audio AudioBackend
	video VideoBackend

	newID func() string

	fs        afero.Fs
	stateFile string

	saving  chan struct{}
	unsaved bool
}

// NewState creates an empty coordinator with no backends. Audio items cannot
// be played until UseAudio is called.
func NewState() *State {
	return &State{
		onUpdate: func(*State) {},
		library:  media.NewLibrary(),
		session:  Session{Volume: DefaultVolume},
		video:    nopVideo{},
		newID:    uuid.NewString,
		saving:   make(chan struct{}, 1),
	}
}

// UseAudio sets the audio backend.
func (s *State) UseAudio(audio AudioBackend) {
	s.audio = audio

	if audio != nil {
		if err := audio.SetVolume(s.session.effectiveVolume()); err != nil {
			logBackendError("volume", nil, err)
		}
	}
}

// UseVideo sets the video backend. A nil backend discards video intents.
func (s *State) UseVideo(video VideoBackend) {
	if video == nil {
		video = nopVideo{}
	}

	s.video = video
	s.video.SetVolume(s.session.effectiveVolume())
}

// OnUpdate adds into the call stack a callback that is triggered when the
// state is changed.
func (s *State) OnUpdate(fn func(*State)) {
	old := s.onUpdate
	s.onUpdate = func(s *State) {
		old(s)
		fn(s)
	}
}

// MarkChanged marks the state as unsaved and notifies observers.
func (s *State) MarkChanged() {
	s.changed()
}

// changed marks the state as unsaved and notifies observers. Session changes
// only notify, since the session is never saved.
func (s *State) changed() {
	s.unsaved = true
	s.onUpdate(s)
}

// Files returns the library items in insertion order.
func (s *State) Files() []*media.Item {
	return s.library.Items()
}

// File returns the library item with the given ID.
func (s *State) File(id string) (*media.Item, bool) {
	return s.library.Get(id)
}

// Library returns the underlying library. Callers must not modify it; use
// AddFile and RemoveFile instead.
func (s *State) Library() *media.Library {
	return s.library
}

// AddFile appends an item to the library. Items with an ID already in the
// library are ignored.
func (s *State) AddFile(item *media.Item) bool {
	if !s.library.Add(item) {
		if item != nil {
			log.Println("Library collision while adding:", item.ID)
		}
		return false
	}

	s.changed()
	return true
}

// RemoveFile removes the item from the library, from every playlist and from
// the favorites. If the item is playing, the session is emptied.
func (s *State) RemoveFile(id string) {
	if s.library.Remove(id) == nil {
		return
	}

	for _, pl := range s.playlists {
		pl.Remove(id)
	}

	s.removeFavorite(id)

	if s.session.Item != nil && s.session.Item.ID == id {
		s.stopCurrent()
		s.session.reset()
	}

	s.changed()
}

// Playlists returns the playlists in creation order.
func (s *State) Playlists() []*media.Playlist {
	playlists := make([]*media.Playlist, len(s.playlists))
	copy(playlists, s.playlists)
	return playlists
}

// Playlist returns the playlist with the given ID.
func (s *State) Playlist(id string) (*media.Playlist, bool) {
	for _, pl := range s.playlists {
		if pl.ID == id {
			return pl, true
		}
	}
	return nil, false
}

// PlaylistByName returns the first playlist with the given name.
func (s *State) PlaylistByName(name string) (*media.Playlist, bool) {
	for _, pl := range s.playlists {
		if pl.Name == name {
			return pl, true
		}
	}
	return nil, false
}

// CreatePlaylist creates an empty playlist with a fresh ID.
func (s *State) CreatePlaylist(name string) *media.Playlist {
	pl := media.NewPlaylist(s.newID(), name)
	s.playlists = append(s.playlists, pl)

	s.changed()
	return pl
}

// DeletePlaylist deletes the playlist with the given ID. The items stay in the
// library.
func (s *State) DeletePlaylist(id string) {
	for i, pl := range s.playlists {
		if pl.ID == id {
			s.playlists = append(s.playlists[:i], s.playlists[i+1:]...)
			s.changed()
			return
		}
	}
}

// RenamePlaylist renames the playlist with the given ID.
func (s *State) RenamePlaylist(id, name string) {
	pl, ok := s.Playlist(id)
	if !ok || pl.Name == name {
		return
	}

	pl.Name = name
	s.changed()
}

// AddToPlaylist appends the library item to the playlist. Unknown IDs and
// items already in the playlist are ignored.
func (s *State) AddToPlaylist(playlistID, fileID string) {
	item, ok := s.library.Get(fileID)
	if !ok {
		return
	}

	pl, ok := s.Playlist(playlistID)
	if !ok {
		return
	}

	if pl.Add(item) {
		s.changed()
	}
}

// RemoveFromPlaylist removes the item from the playlist. Unknown IDs are
// ignored.
func (s *State) RemoveFromPlaylist(playlistID, fileID string) {
	pl, ok := s.Playlist(playlistID)
	if !ok {
		return
	}

	if pl.Remove(fileID) {
		s.changed()
	}
}

// Favorites returns the favorite items in the order they were marked.
func (s *State) Favorites() []*media.Item {
	items := make([]*media.Item, 0, len(s.favorites))
	for _, id := range s.favorites {
		if item, ok := s.library.Get(id); ok {
			items = append(items, item)
		}
	}
	return items
}

// IsFavorite returns true if the item is marked as a favorite.
func (s *State) IsFavorite(id string) bool {
	for _, fav := range s.favorites {
		if fav == id {
			return true
		}
	}
	return false
}

// ToggleFavorite marks or unmarks the library item as a favorite and returns
// whether it is now a favorite. Unknown IDs are ignored.
func (s *State) ToggleFavorite(id string) bool {
	if _, ok := s.library.Get(id); !ok {
		return false
	}

	defer s.changed()

	if s.removeFavorite(id) {
		return false
	}

	s.favorites = append(s.favorites, id)
	return true
}

func (s *State) removeFavorite(id string) bool {
	for i, fav := range s.favorites {
		if fav == id {
			s.favorites = append(s.favorites[:i], s.favorites[i+1:]...)
			return true
		}
	}
	return false
}

// RepeatMode returns the current repeat mode.
func (s *State) RepeatMode() RepeatMode {
	return s.repeating
}

// SetRepeatMode sets the current repeat mode.
func (s *State) SetRepeatMode(mode RepeatMode) {
	if s.repeating == mode {
		return
	}

	s.repeating = mode

	s.changed()
}

// NewID returns a fresh ID for a new item or playlist.
func (s *State) NewID() string {
	return s.newID()
}
