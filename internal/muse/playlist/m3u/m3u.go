// Package m3u registers the .m3u playlist format.
package m3u

import (
	"io"
	"net/url"
	"path/filepath"
	"time"

	"github.com/diamondburned/mirage/internal/muse/playlist"
	"github.com/ushis/m3u"
)

func init() {
	playlist.Register(".m3u", Parse, Write)
	playlist.Register(".m3u8", Parse, Write)
}

// Parse parses an M3U playlist. The name is taken from the file name.
func Parse(r io.Reader, path string) (*playlist.Playlist, error) {
	p, err := m3u.Parse(r)
	if err != nil {
		return nil, err
	}

	var pl = playlist.Playlist{
		Name:   basename(path),
		Path:   path,
		Tracks: make([]playlist.Track, 0, len(p)),
	}

	for _, track := range p {
		if track.Path == "" {
			continue
		}

		var title = track.Title
		if title == "" {
			title = playlist.TitleFromPath(track.Path)
		}

		var length time.Duration
		if track.Time > 0 {
			length = time.Duration(track.Time) * time.Second
		}

		pl.Tracks = append(pl.Tracks, playlist.Track{
			Title:    title,
			Length:   length,
			Filepath: track.Path,
		})
	}

	return &pl, nil
}

func basename(path string) string {
	name := filepath.Base(path)
	ext := filepath.Ext(name)
	name = name[:len(name)-len(ext)]

	u, err := url.PathUnescape(name)
	if err != nil {
		return name
	}
	return u
}

// Write writes the playlist as extended M3U. Unknown lengths are written as
// -1.
func Write(w io.Writer, p *playlist.Playlist) error {
	var plist = make(m3u.Playlist, len(p.Tracks))

	for i, track := range p.Tracks {
		secs := int64(-1)
		if track.Length > 0 {
			secs = int64(track.Length.Seconds())
		}

		title := track.Title
		if track.Artist != "" {
			title = track.Artist + " - " + title
		}

		plist[i] = m3u.Track{
			Title: title,
			Path:  track.Filepath,
			Time:  secs,
		}
	}

	_, err := plist.WriteTo(w)
	return err
}
