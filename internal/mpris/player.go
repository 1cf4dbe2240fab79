package mpris

import (
	"fmt"
	"math"
	"time"

	"github.com/diamondburned/mirage/internal/state"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type microsecond = int64

func secondsToMicroseconds(secs float64) microsecond {
	const us = float64(time.Second / time.Microsecond)
	return int64(math.Round(secs * us))
}

func microsecondsToSeconds(usec microsecond) float64 {
	const us = float64(time.Second / time.Microsecond)
	return float64(usec) / us
}

func trackID(trackIx int) dbus.ObjectPath {
	if trackIx < 0 {
		return dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")
	}
	const trackIDfmt = tracksPath + "/%d"
	return dbus.ObjectPath(fmt.Sprintf(trackIDfmt, trackIx))
}

var noTrackMetadata = map[string]dbus.Variant{
	"mpris:trackid": dbus.MakeVariant(trackID(-1)),
}

type player struct {
	state   *state.State
	idleAdd func(func())

	// trackID is only touched in the main loop.
	trackID dbus.ObjectPath
}

func newPlayer(s *state.State, idleAdd func(func())) *player {
	return &player{
		state:   s,
		idleAdd: idleAdd,
		trackID: trackID(-1),
	}
}

func metadata(s *state.State) (dbus.ObjectPath, map[string]dbus.Variant) {
	i, item := s.NowPlaying()
	if item == nil {
		return trackID(-1), noTrackMetadata
	}

	id := trackID(i)
	md := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(id),
		"xesam:title":   dbus.MakeVariant(item.Title),
		"xesam:url":     dbus.MakeVariant(item.URL),
	}

	if duration := s.Session().Duration; duration > 0 {
		md["mpris:length"] = dbus.MakeVariant(secondsToMicroseconds(duration))
	}
	if item.Artist != "" {
		md["xesam:artist"] = dbus.MakeVariant([]string{item.Artist})
	}
	if item.Album != "" {
		md["xesam:album"] = dbus.MakeVariant(item.Album)
	}
	if item.Cover != "" {
		md["mpris:artUrl"] = dbus.MakeVariant(item.Cover)
	}

	return id, md
}

// update sets every property from the state. Properties set from here do not
// call the change callbacks, so nothing echoes back into the state.
func (p *player) update(props *prop.Properties, s *state.State) {
	session := s.Session()
	ix, _ := s.NowPlaying()

	id, md := metadata(s)
	p.trackID = id

	set := func(name string, v interface{}) {
		defer func() {
			if r := recover(); r != nil {
				log.Println("MPRIS set prop failed:", r)
			}
		}()
		props.SetMust(playerID, name, v)
	}

	set("PlaybackStatus", playbackStatus(session))
	set("Metadata", md)
	set("LoopStatus", loopStatus(s.RepeatMode()))
	set("Volume", session.Volume)
	set("Position", secondsToMicroseconds(session.Position))
	set("CanGoNext", ix >= 0 && ix < len(s.Files())-1)
	set("CanGoPrevious", ix > 0)
	set("CanPlay", !session.IsEmpty())
	set("CanPause", !session.IsEmpty())
	set("CanSeek", session.Duration > 0)
}

// Property callbacks. These are called from the bus goroutine.

func (p *player) setLoopStatus(c *prop.Change) *dbus.Error {
	status, _ := c.Value.(string)

	mode, ok := repeatMode(status)
	if !ok {
		return dbus.MakeFailedError(errors.Errorf("unknown loop status %q", status))
	}

	p.idleAdd(func() { p.state.SetRepeatMode(mode) })
	return nil
}

func (p *player) setVolume(c *prop.Change) *dbus.Error {
	volume, ok := c.Value.(float64)
	if !ok {
		return dbus.MakeFailedError(errors.New("volume is not a double"))
	}

	p.idleAdd(func() { p.state.SetVolume(volume) })
	return nil
}

// DBus methods.

func (p *player) Next() *dbus.Error {
	p.idleAdd(p.state.NextTrack)
	return nil
}

func (p *player) Previous() *dbus.Error {
	p.idleAdd(p.state.PreviousTrack)
	return nil
}

func (p *player) Pause() *dbus.Error {
	p.idleAdd(p.state.PausePlayback)
	return nil
}

func (p *player) Play() *dbus.Error {
	p.idleAdd(p.state.ResumePlayback)
	return nil
}

func (p *player) PlayPause() *dbus.Error {
	p.idleAdd(p.state.TogglePlayback)
	return nil
}

func (p *player) Stop() *dbus.Error {
	p.idleAdd(func() {
		p.state.PausePlayback()
		p.state.SeekTo(0)
	})
	return nil
}

func (p *player) Seek(us microsecond) *dbus.Error {
	p.idleAdd(func() {
		pos := p.state.Session().Position + microsecondsToSeconds(us)
		p.state.SeekTo(pos)
	})
	return nil
}

func (p *player) SetPosition(id dbus.ObjectPath, us microsecond) *dbus.Error {
	p.idleAdd(func() {
		// Seek if our trackID is not stale.
		if p.trackID == id {
			p.state.SeekTo(microsecondsToSeconds(us))
		}
	})
	return nil
}

func (p *player) OpenUri(uri string) *dbus.Error {
	return errUnimplemented
}

// root implements org.mpris.MediaPlayer2. There is no window to raise and
// quitting is left to the terminal.
type root struct{}

func (root) Raise() *dbus.Error { return nil }

func (root) Quit() *dbus.Error { return errUnimplemented }
