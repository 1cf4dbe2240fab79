package state

import (
	"fmt"
	"time"

	"github.com/diamondburned/mirage/internal/media"
	"github.com/diamondburned/mirage/internal/muse/playlist"
	"github.com/pkg/errors"

	_ "github.com/diamondburned/mirage/internal/muse/playlist/audpl"
	_ "github.com/diamondburned/mirage/internal/muse/playlist/m3u"
)

// ImportPlaylist parses the playlist file and adds it as a new playlist.
// Tracks are matched against the library by URL; tracks not in the library are
// added to it.
func (s *State) ImportPlaylist(path string) (*media.Playlist, error) {
	p, err := playlist.ParseFile(path)
	if err != nil {
		return nil, err
	}

	return s.AddPlaylist(p), nil
}

// AddPlaylist adds the parsed playlist as a new playlist. If the name is taken,
// a suffix is appended.
func (s *State) AddPlaylist(p *playlist.Playlist) *media.Playlist {
	pl := media.NewPlaylist(s.newID(), s.uniquePlaylistName(p.Name))

	for _, track := range p.Tracks {
		item := s.itemByURL(track.Filepath)
		if item == nil {
			item = s.itemFromTrack(track)
			s.library.Add(item)
		}

		pl.Add(item)
	}

	s.playlists = append(s.playlists, pl)
	s.changed()

	return pl
}

// ExportPlaylist writes the playlist into a file in the background. The format
// is chosen by the path's extension. done is called in another goroutine.
func (s *State) ExportPlaylist(id, path string, done func(error)) {
	pl, ok := s.Playlist(id)
	if !ok {
		done(errors.Errorf("unknown playlist %q", id))
		return
	}

	p := &playlist.Playlist{
		Name:   pl.Name,
		Path:   path,
		Tracks: make([]playlist.Track, len(pl.Items)),
	}

	for i, item := range pl.Items {
		p.Tracks[i] = playlist.Track{
			Title:    item.Title,
			Artist:   item.Artist,
			Album:    item.Album,
			Number:   i + 1,
			Length:   time.Duration(item.Duration * float64(time.Second)),
			Filepath: item.URL,
		}
	}

	p.Save(done)
}

func (s *State) itemByURL(url string) *media.Item {
	for _, item := range s.library.Items() {
		if item.URL == url {
			return item
		}
	}
	return nil
}

func (s *State) itemFromTrack(track playlist.Track) *media.Item {
	item := &media.Item{
		ID:     s.newID(),
		Title:  track.Title,
		Artist: track.Artist,
		Album:  track.Album,
		URL:    track.Filepath,
		Type:   media.TypeFromPath(track.Filepath),
	}

	if item.Title == "" {
		item.Title = playlist.TitleFromPath(track.Filepath)
	}

	if track.Length > 0 {
		item.Duration = track.Length.Seconds()
	}

	return item
}

func (s *State) uniquePlaylistName(name string) string {
	if name == "" {
		name = "Playlist"
	}

	if _, taken := s.PlaylistByName(name); !taken {
		return name
	}

	for i := 1; ; i++ {
		mangled := fmt.Sprintf("%s~%d", name, i)
		if _, taken := s.PlaylistByName(mangled); !taken {
			return mangled
		}
	}
}
