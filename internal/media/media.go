// Package media holds the library model shared by the coordinator and its
// consumers: playable items, playlists and the ordered library collection.
package media

import (
	"mime"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Type tags an item with the kind of player that can render it.
type Type string

const (
	Audio Type = "audio"
	Video Type = "video"
)

// ErrUnknownType is returned by ParseType.
var ErrUnknownType = errors.New("unknown media type")

// ParseType parses "audio" or "video", case-insensitively.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case Audio, Video:
		return t, nil
	default:
		return "", errors.Wrapf(ErrUnknownType, "%q", s)
	}
}

// Item is a single playable entry. Items are never mutated after they are
// added to a Library; replace the pointer instead.
type Item struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist,omitempty"`
	Album  string `json:"album,omitempty"`
	Cover  string `json:"cover,omitempty"`
	URL    string `json:"url"`
	Type   Type   `json:"type"`
	// Duration is in seconds. Zero means unknown.
	Duration float64 `json:"duration,omitempty"`
	// Size is in bytes. Zero means unknown.
	Size int64 `json:"size,omitempty"`
}

// IsAudio returns true if the item is played through the audio backend.
func (it *Item) IsAudio() bool { return it.Type == Audio }

// IsVideo returns true if the item is handed to the video player.
func (it *Item) IsVideo() bool { return it.Type == Video }

var videoExts = map[string]struct{}{
	".mp4": {}, ".m4v": {}, ".mkv": {}, ".webm": {}, ".mov": {},
	".avi": {}, ".wmv": {}, ".flv": {}, ".mpg": {}, ".mpeg": {}, ".ts": {},
}

// TypeFromPath guesses the type of a file or URL from its extension. Anything
// not known to be a video is assumed to be audio.
func TypeFromPath(path string) Type {
	if u, err := url.Parse(path); err == nil && u.Scheme != "" {
		path = u.Path
	}

	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := videoExts[ext]; ok {
		return Video
	}
	if strings.HasPrefix(mime.TypeByExtension(ext), "video/") {
		return Video
	}

	return Audio
}
