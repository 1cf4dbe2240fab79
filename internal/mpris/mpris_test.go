package mpris

import (
	"testing"

	"github.com/diamondburned/mirage/internal/media"
	"github.com/diamondburned/mirage/internal/state"
	"github.com/go-test/deep"
	"github.com/godbus/dbus/v5"
)

func TestMicroseconds(t *testing.T) {
	if us := secondsToMicroseconds(1.5); us != 1500000 {
		t.Fatalf("unexpected microseconds %d", us)
	}
	if secs := microsecondsToSeconds(2500000); secs != 2.5 {
		t.Fatalf("unexpected seconds %v", secs)
	}
}

func TestLoopStatus(t *testing.T) {
	for _, mode := range []state.RepeatMode{state.RepeatNone, state.RepeatAll, state.RepeatSingle} {
		got, ok := repeatMode(loopStatus(mode))
		if !ok || got != mode {
			t.Errorf("mode %v did not round trip, got %v", mode, got)
		}
	}

	if _, ok := repeatMode("Shuffle"); ok {
		t.Error("unknown loop status was accepted")
	}
}

func TestPlaybackStatus(t *testing.T) {
	item := &media.Item{ID: "A"}

	tests := []struct {
		session state.Session
		expect  string
	}{
		{state.Session{}, "Stopped"},
		{state.Session{Item: item, Playing: true}, "Playing"},
		{state.Session{Item: item}, "Paused"},
	}

	for _, test := range tests {
		if got := playbackStatus(test.session); got != test.expect {
			t.Errorf("expected %q, got %q", test.expect, got)
		}
	}
}

func TestMetadata(t *testing.T) {
	s := state.NewState()

	id, md := metadata(s)
	if id != trackID(-1) || len(md) != 1 {
		t.Fatalf("unexpected empty metadata %v %v", id, md)
	}

	item := &media.Item{
		ID:       "A",
		Title:    "Electric Dreams",
		Artist:   "Synthwave Artist",
		URL:      "/music/a.flac",
		Type:     media.Audio,
		Duration: 214,
	}
	s.AddFile(&media.Item{ID: "0", Type: media.Audio})
	s.AddFile(item)
	s.PlayFile(item)

	id, md = metadata(s)

	expect := map[string]interface{}{
		"mpris:trackid": dbus.ObjectPath(tracksPath + "/1"),
		"mpris:length":  int64(214000000),
		"xesam:title":   "Electric Dreams",
		"xesam:artist":  []string{"Synthwave Artist"},
		"xesam:url":     "/music/a.flac",
	}

	values := make(map[string]interface{}, len(md))
	for k, v := range md {
		values[k] = v.Value()
	}

	if id != dbus.ObjectPath(tracksPath+"/1") {
		t.Fatalf("unexpected track ID %v", id)
	}
	if ineqs := deep.Equal(values, expect); ineqs != nil {
		t.Fatal("unexpected metadata:", ineqs)
	}
}
