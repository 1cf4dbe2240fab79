package state

import (
	"math"

	"github.com/diamondburned/mirage/internal/media"
	log "github.com/sirupsen/logrus"
)

// AudioBackend plays audio items. Every method is a synchronous request whose
// error is turned into a state flag by the coordinator and never returned to
// callers.
type AudioBackend interface {
	// Load replaces whatever is loaded with the given URL. It does not change
	// the paused state.
	Load(url string) error
	Play() error
	Pause() error
	// Seek seeks to the position in seconds.
	Seek(pos float64) error
	// SetVolume sets the volume in [0, 1].
	SetVolume(v float64) error
}

// VideoBackend is the presentation-layer video player. The coordinator only
// records intent for video items, so the methods have nothing to report back.
type VideoBackend interface {
	// Present hands the item to the player. A nil item means the player should
	// unload whatever it shows.
	Present(item *media.Item)
	SetPlaying(playing bool)
	Seek(pos float64)
	SetVolume(v float64)
}

type nopVideo struct{}

func (nopVideo) Present(*media.Item) {}
func (nopVideo) SetPlaying(bool)     {}
func (nopVideo) Seek(float64)        {}
func (nopVideo) SetVolume(float64)   {}

// BackendEvents forwards backend events to the coordinator. Events are only
// applied while the current item has the backend's media type, so a stale
// event from the audio backend cannot move a video's position. Methods must be
// called in the main loop.
type BackendEvents struct {
	state *State
	typ   media.Type
}

// BackendEvents returns the event sink for the backend playing items of the
// given type.
func (s *State) BackendEvents(typ media.Type) BackendEvents {
	return BackendEvents{state: s, typ: typ}
}

func (ev BackendEvents) current() bool {
	item := ev.state.session.Item
	return item != nil && item.Type == ev.typ
}

// OnPositionChange is called when the playback position moves.
func (ev BackendEvents) OnPositionChange(pos float64) {
	if ev.current() {
		ev.state.UpdateCurrentTime(pos)
	}
}

// OnDurationChange is called when the backend learns the duration.
func (ev BackendEvents) OnDurationChange(duration float64) {
	if ev.current() {
		ev.state.UpdateDuration(duration)
	}
}

// OnPauseUpdate is called when the backend pauses or resumes on its own, for
// example through its own window controls.
func (ev BackendEvents) OnPauseUpdate(pause bool) {
	if !ev.current() || ev.state.session.Playing == !pause {
		return
	}

	ev.state.session.Playing = !pause
	ev.state.onUpdate(ev.state)
}

// OnEndOfFile is called when the current item played to its end.
func (ev BackendEvents) OnEndOfFile() {
	if ev.current() {
		ev.state.OnEnded()
	}
}

// OnPlaybackError is called when the backend failed to play the item.
func (ev BackendEvents) OnPlaybackError(err error) {
	if ev.current() {
		ev.state.OnPlaybackError(err)
	}
}

func validSeconds(secs float64) bool {
	return !math.IsNaN(secs) && !math.IsInf(secs, 0) && secs >= 0
}

func clamp(v, min, max float64) float64 {
	switch {
	case math.IsNaN(v):
		return min
	case v < min:
		return min
	case v > max:
		return max
	default:
		return v
	}
}

func logBackendError(op string, item *media.Item, err error) {
	entry := log.WithError(err).WithField("op", op)
	if item != nil {
		entry = entry.WithField("item", item.ID)
	}
	entry.Warnln("Playback backend failed")
}
