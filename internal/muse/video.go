package muse

import (
	"github.com/diamondburned/mirage/internal/media"
	log "github.com/sirupsen/logrus"
)

// VideoPlayer presents video items in a windowed mpv session. Errors are
// logged; the session's event handler reports failed loads.
type VideoPlayer struct {
	*Session
}

// NewVideoPlayer wraps a session started with Options.Video.
func NewVideoPlayer(s *Session) VideoPlayer {
	return VideoPlayer{s}
}

func (v VideoPlayer) logError(op string, err error) {
	if err != nil {
		log.WithError(err).WithField("op", op).Warnln("Video player failed")
	}
}

// Present loads the item, or unloads the current video if item is nil.
func (v VideoPlayer) Present(item *media.Item) {
	if item == nil {
		v.logError("unload", v.Session.Unload())
		return
	}
	v.logError("load", v.Session.Load(item.URL))
}

func (v VideoPlayer) SetPlaying(playing bool) {
	v.logError("pause", v.Session.SetPlay(playing))
}

func (v VideoPlayer) Seek(pos float64) {
	v.logError("seek", v.Session.Seek(pos))
}

func (v VideoPlayer) SetVolume(volume float64) {
	v.logError("volume", v.Session.SetVolume(volume))
}
