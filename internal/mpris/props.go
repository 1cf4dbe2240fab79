package mpris

import (
	"github.com/diamondburned/mirage/internal/state"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/pkg/errors"
)

var rootProps = map[string]*prop.Prop{
	"CanQuit":             newProp(false),
	"CanRaise":            newProp(false),
	"HasTrackList":        newProp(false),
	"Identity":            newProp("Mirage"),
	"SupportedUriSchemes": newProp([]string{"file", "http", "https"}),
	"SupportedMimeTypes":  newProp([]string{"audio/mpeg", "audio/flac", "audio/ogg", "video/mp4", "video/webm"}),
}

func (p *player) props() map[string]*prop.Prop {
	return map[string]*prop.Prop{
		"PlaybackStatus": newProp("Stopped"),
		"LoopStatus":     newWritableProp("None", p.setLoopStatus),
		"Rate":           newWritableProp(1.0, unimplementedChangeFn),
		"Shuffle":        newWritableProp(false, unimplementedChangeFn),
		"Metadata":       newProp(noTrackMetadata),
		"Volume":         newWritableProp(state.DefaultVolume, p.setVolume),
		"Position":       newUnemittedProp(int64(0)),
		"MinimumRate":    newProp(1.0),
		"MaximumRate":    newProp(1.0),
		"CanGoNext":      newProp(false),
		"CanGoPrevious":  newProp(false),
		"CanPlay":        newProp(false),
		"CanPause":       newProp(false),
		"CanSeek":        newProp(false),
		"CanControl":     newProp(true),
	}
}

var errUnimplemented = dbus.MakeFailedError(errors.New("unimplemented"))

func unimplementedChangeFn(*prop.Change) *dbus.Error {
	return errUnimplemented
}

func newProp(v interface{}) *prop.Prop {
	return &prop.Prop{
		Value:    v,
		Writable: false,
		Emit:     prop.EmitTrue,
	}
}

func newWritableProp(v interface{}, fn func(*prop.Change) *dbus.Error) *prop.Prop {
	return &prop.Prop{
		Value:    v,
		Writable: true,
		Emit:     prop.EmitTrue,
		Callback: fn,
	}
}

func newUnemittedProp(v interface{}) *prop.Prop {
	return &prop.Prop{
		Value:    v,
		Writable: false,
		Emit:     prop.EmitFalse,
	}
}

var loopStatuses = map[state.RepeatMode]string{
	state.RepeatNone:   "None",
	state.RepeatAll:    "Playlist",
	state.RepeatSingle: "Track",
}

func loopStatus(mode state.RepeatMode) string {
	return loopStatuses[mode]
}

func repeatMode(status string) (state.RepeatMode, bool) {
	for mode, s := range loopStatuses {
		if s == status {
			return mode, true
		}
	}
	return state.RepeatNone, false
}

func playbackStatus(session state.Session) string {
	switch {
	case session.IsEmpty():
		return "Stopped"
	case session.Playing:
		return "Playing"
	default:
		return "Paused"
	}
}
