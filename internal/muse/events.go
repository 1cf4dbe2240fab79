package muse

type mpvEvent uint

const (
	allEvent mpvEvent = iota
	pauseEvent
	bitrateEvent
	timePositionEvent
	durationEvent
	audioDeviceEvent
)

var events = []string{
	"idle",
	"end-file",
}

var propertyMap = map[mpvEvent]string{
	pauseEvent:        "pause",
	bitrateEvent:      "audio-bitrate",
	timePositionEvent: "time-pos",
	durationEvent:     "duration",
	audioDeviceEvent:  "audio-device",
}

// EventHandler methods are all called in the main loop.
type EventHandler interface {
	OnPositionChange(pos float64)
	OnDurationChange(duration float64)
	OnPauseUpdate(pause bool)
	// OnEndOfFile is called when a file played to its end. Files replaced by
	// Load do not trigger it.
	OnEndOfFile()
	OnPlaybackError(err error)
}

type nopHandler struct{}

func (nopHandler) OnPositionChange(float64) {}
func (nopHandler) OnDurationChange(float64) {}
func (nopHandler) OnPauseUpdate(bool)       {}
func (nopHandler) OnEndOfFile()             {}
func (nopHandler) OnPlaybackError(error)    {}
