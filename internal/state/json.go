package state

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/diamondburned/mirage/internal/media"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

type jsonPlaylist struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Items []string `json:"items"` // item IDs
}

// jsonState is the persisted part of the state. The session is never saved.
type jsonState struct {
	Library   []*media.Item  `json:"library"`
	Playlists []jsonPlaylist `json:"playlists"`
	Favorites []string       `json:"favorites,omitempty"`
	Repeating RepeatMode     `json:"repeating"`
}

func makeJSONState(s *State) jsonState {
	playlists := make([]jsonPlaylist, len(s.playlists))
	for i, pl := range s.playlists {
		ids := make([]string, len(pl.Items))
		for j, item := range pl.Items {
			ids[j] = item.ID
		}

		playlists[i] = jsonPlaylist{
			ID:    pl.ID,
			Name:  pl.Name,
			Items: ids,
		}
	}

	return jsonState{
		Library:   s.library.Items(),
		Playlists: playlists,
		Favorites: append([]string(nil), s.favorites...),
		Repeating: s.repeating,
	}
}

func makeStateFromJSON(jsonState jsonState) *State {
	state := NewState()
	state.repeating = jsonState.Repeating

	for _, item := range jsonState.Library {
		if item == nil || item.ID == "" {
			continue
		}
		if !state.library.Add(item) {
			log.Println("Dropping duplicate library item from state:", item.ID)
		}
	}

	for _, jsonPl := range jsonState.Playlists {
		pl := media.NewPlaylist(jsonPl.ID, jsonPl.Name)
		if pl.ID == "" {
			pl.ID = state.newID()
		}

		for _, id := range jsonPl.Items {
			// Drop references to items that are gone.
			if item, ok := state.library.Get(id); ok {
				pl.Add(item)
			}
		}

		state.playlists = append(state.playlists, pl)
	}

	for _, id := range jsonState.Favorites {
		if _, ok := state.library.Get(id); ok && !state.IsFavorite(id) {
			state.favorites = append(state.favorites, id)
		}
	}

	return state
}

// ReadFromFile reads the state from the given file. A missing file gives a new
// empty state.
func ReadFromFile(fs afero.Fs, file string) (*State, error) {
	b, err := afero.ReadFile(fs, file)
	if err != nil {
		if os.IsNotExist(err) {
			s := NewState()
			s.SetStateFile(fs, file)
			return s, nil
		}
		return nil, errors.Wrap(err, "failed to read state file")
	}

	var jsonState jsonState

	if err := json.Unmarshal(b, &jsonState); err != nil {
		return nil, errors.Wrap(err, "failed to decode state file")
	}

	s := makeStateFromJSON(jsonState)
	s.SetStateFile(fs, file)

	return s, nil
}

// SetStateFile sets where SaveState and SaveAll write to. A state without a
// file is never saved.
func (s *State) SetStateFile(fs afero.Fs, file string) {
	s.fs = fs
	s.stateFile = file
}

// Unsaved returns true if the state changed since it was last saved.
func (s *State) Unsaved() bool {
	return s.unsaved
}

// SaveState saves the state. It is non-blocking, but the JSON is marshaled in
// the same thread as the caller. done, if not nil, is called from another
// goroutine once the file is written; it is not called if nothing was saved.
func (s *State) SaveState(done func(error)) {
	if s.fs == nil || !s.unsaved {
		return
	}

	select {
	case s.saving <- struct{}{}:
		// success
	default:
		return
	}

	b, err := json.Marshal(makeJSONState(s))
	if err != nil {
		log.Println("Failed to JSON marshal state:", err)
		<-s.saving
		return
	}

	s.unsaved = false

	go func() {
		err := s.writeFile(b)
		if err != nil {
			log.Println("Failed to save JSON state:", err)
		}

		<-s.saving

		if done != nil {
			done(err)
		}
	}()
}

// SaveAll saves the state synchronously. It waits for a pending SaveState.
func (s *State) SaveAll() error {
	if s.fs == nil {
		return nil
	}

	b, err := json.MarshalIndent(makeJSONState(s), "", "\t")
	if err != nil {
		return errors.Wrap(err, "failed to JSON marshal state")
	}

	s.saving <- struct{}{}
	defer func() { <-s.saving }()

	if err := s.writeFile(b); err != nil {
		return err
	}

	s.unsaved = false
	return nil
}

func (s *State) writeFile(b []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.stateFile), os.ModePerm); err != nil {
		return errors.Wrap(err, "failed to make state directory")
	}

	// Write into a temporary file first so a crash never leaves a truncated
	// state behind.
	tmp := s.stateFile + ".tmp"

	if err := afero.WriteFile(s.fs, tmp, b, 0644); err != nil {
		return errors.Wrap(err, "failed to write state")
	}

	if err := s.fs.Rename(tmp, s.stateFile); err != nil {
		return errors.Wrap(err, "failed to replace state file")
	}

	return nil
}
