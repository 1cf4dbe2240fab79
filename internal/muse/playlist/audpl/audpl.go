// Package audpl registers Audacious' .audpl playlist format.
package audpl

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/diamondburned/audpl"
	"github.com/diamondburned/mirage/internal/muse/playlist"
	log "github.com/sirupsen/logrus"
)

func init() {
	playlist.Register(".audpl", Parse, Write)
}

// Parse parses an Audacious playlist.
func Parse(r io.Reader, path string) (*playlist.Playlist, error) {
	p, err := audpl.Parse(r)
	if err != nil {
		return nil, err
	}

	var playlistCopy = playlist.Playlist{
		Name:   p.Name,
		Path:   path,
		Tracks: make([]playlist.Track, 0, len(p.Tracks)),
	}

	for _, track := range p.Tracks {
		path, ok := trackPath(track.URI)
		if !ok {
			log.Println("[audpl]: ignoring track with rogue URI:", track.URI)
			continue
		}

		trackNum, _ := strconv.Atoi(track.TrackNumber)
		lengthMs, _ := strconv.Atoi(track.Length)
		bitrateKbit, _ := strconv.Atoi(track.Bitrate)

		playlistCopy.Tracks = append(playlistCopy.Tracks, playlist.Track{
			Title:    track.Title,
			Artist:   track.Artist,
			Album:    track.Album,
			Number:   trackNum,
			Length:   time.Duration(lengthMs) * time.Millisecond,
			Bitrate:  bitrateKbit * 1000,
			Filepath: path,
		})
	}

	return &playlistCopy, nil
}

// trackPath turns a file:// URI into a local path. Other URIs with a scheme
// are kept as they are.
func trackPath(uri string) (string, bool) {
	if strings.HasPrefix(uri, "file://") {
		return strings.TrimPrefix(uri, "file://"), true
	}
	if strings.Contains(uri, "://") {
		return uri, true
	}
	return "", false
}

func trackURI(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return fmt.Sprintf("file://%s", path)
}

// Write writes the playlist in the Audacious format.
func Write(w io.Writer, p *playlist.Playlist) error {
	plist := audpl.Playlist{
		Name:   p.Name,
		Tracks: make([]audpl.Track, len(p.Tracks)),
	}

	for i, track := range p.Tracks {
		plist.Tracks[i] = audpl.Track{
			Title:       track.Title,
			Artist:      track.Artist,
			Album:       track.Album,
			TrackNumber: strconv.Itoa(track.Number),
			Length:      strconv.Itoa(int(track.Length / time.Millisecond)),
			Bitrate:     strconv.Itoa(track.Bitrate / 1000),
			URI:         trackURI(track.Filepath),
		}
	}

	return plist.SaveTo(w)
}
