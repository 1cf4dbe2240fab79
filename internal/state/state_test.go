package state

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/diamondburned/mirage/internal/media"
	"github.com/go-test/deep"
	"github.com/pkg/errors"
)

type fakeAudio struct {
	calls    []string
	volume   float64
	failLoad bool
	failPlay bool
}

func (a *fakeAudio) Load(url string) error {
	a.calls = append(a.calls, "load "+url)
	if a.failLoad {
		return errors.New("load failed")
	}
	return nil
}

func (a *fakeAudio) Play() error {
	a.calls = append(a.calls, "play")
	if a.failPlay {
		return errors.New("play failed")
	}
	return nil
}

func (a *fakeAudio) Pause() error {
	a.calls = append(a.calls, "pause")
	return nil
}

func (a *fakeAudio) Seek(pos float64) error {
	a.calls = append(a.calls, fmt.Sprintf("seek %g", pos))
	return nil
}

func (a *fakeAudio) SetVolume(v float64) error {
	a.volume = v
	return nil
}

func (a *fakeAudio) reset() { a.calls = nil }

type fakeVideo struct {
	calls  []string
	volume float64
}

func (v *fakeVideo) Present(item *media.Item) {
	if item == nil {
		v.calls = append(v.calls, "present nil")
	} else {
		v.calls = append(v.calls, "present "+item.ID)
	}
}

func (v *fakeVideo) SetPlaying(playing bool) {
	v.calls = append(v.calls, fmt.Sprintf("playing %t", playing))
}

func (v *fakeVideo) Seek(pos float64) {
	v.calls = append(v.calls, fmt.Sprintf("seek %g", pos))
}

func (v *fakeVideo) SetVolume(volume float64) {
	v.volume = volume
}

func (v *fakeVideo) reset() { v.calls = nil }

var (
	itemA = &media.Item{ID: "A", Title: "Electric Dreams", URL: "/music/a.flac", Type: media.Audio, Duration: 214}
	itemB = &media.Item{ID: "B", Title: "Big Buck Bunny", URL: "/video/b.mp4", Type: media.Video}
	itemC = &media.Item{ID: "C", Title: "Neon Twilight", URL: "/music/c.mp3", Type: media.Audio, Duration: 180}
)

func newTestState(items ...*media.Item) (*State, *fakeAudio, *fakeVideo) {
	audio := &fakeAudio{}
	video := &fakeVideo{}

	var n int

	s := NewState()
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	s.UseAudio(audio)
	s.UseVideo(video)

	for _, item := range items {
		s.AddFile(item)
	}

	return s, audio, video
}

func currentID(s *State) string {
	if item := s.Session().Item; item != nil {
		return item.ID
	}
	return ""
}

func ids(items []*media.Item) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func TestAddFileOrder(t *testing.T) {
	s, _, _ := newTestState()

	var expect []string
	for i := 0; i < 10; i++ {
		id := fmt.Sprint(i)
		s.AddFile(&media.Item{ID: id, Type: media.Audio})
		expect = append(expect, id)
	}

	if ineqs := deep.Equal(ids(s.Files()), expect); ineqs != nil {
		t.Fatal("unexpected library order:", ineqs)
	}
}

func TestAddFileDuplicate(t *testing.T) {
	s, _, _ := newTestState(itemA)

	if s.AddFile(&media.Item{ID: "A", Title: "Other"}) {
		t.Fatal("duplicate ID was added")
	}
	if s.AddFile(nil) {
		t.Fatal("nil item was added")
	}

	if item, _ := s.File("A"); item != itemA {
		t.Fatal("duplicate replaced the original item")
	}
}

func TestPlayFileAudio(t *testing.T) {
	s, audio, video := newTestState(itemA, itemB)

	s.PlayFile(itemA)

	session := s.Session()
	if session.Item != itemA || !session.Playing || !session.Visible {
		t.Fatalf("unexpected session %+v", session)
	}
	if session.Duration != 214 {
		t.Fatalf("expected known duration, got %v", session.Duration)
	}

	if ineqs := deep.Equal(audio.calls, []string{"load /music/a.flac", "play"}); ineqs != nil {
		t.Fatal("unexpected audio calls:", ineqs)
	}
	if audio.volume != DefaultVolume {
		t.Fatalf("expected volume %v, got %v", DefaultVolume, audio.volume)
	}
	if len(video.calls) > 0 {
		t.Fatal("video backend was used:", video.calls)
	}
}

func TestPlayFileVideo(t *testing.T) {
	s, audio, video := newTestState(itemA, itemB)

	s.PlayFile(itemB)

	session := s.Session()
	if session.Item != itemB || !session.Playing || session.Duration != 0 {
		t.Fatalf("unexpected session %+v", session)
	}

	if ineqs := deep.Equal(video.calls, []string{"present B", "playing true"}); ineqs != nil {
		t.Fatal("unexpected video calls:", ineqs)
	}
	if len(audio.calls) > 0 {
		t.Fatal("audio backend was used:", audio.calls)
	}
}

func TestPlayFileAgainResumes(t *testing.T) {
	s, _, _ := newTestState(itemA)

	s.PlayFile(itemA)
	s.UpdateCurrentTime(42)
	s.PausePlayback()

	s.PlayFile(itemA)

	session := s.Session()
	if !session.Playing {
		t.Fatal("playing again did not resume")
	}
	if session.Position != 42 {
		t.Fatalf("position was reset to %v", session.Position)
	}

	// Playing twice in a row keeps playing.
	s.PlayFile(itemA)

	if session := s.Session(); !session.Playing || session.Position != 42 {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestPlayFileFailures(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		s, audio, _ := newTestState(itemA)
		audio.failLoad = true

		s.PlayFile(itemA)

		if session := s.Session(); session.Playing || session.Item != itemA {
			t.Fatalf("unexpected session %+v", session)
		}
	})

	t.Run("play", func(t *testing.T) {
		s, audio, _ := newTestState(itemA)
		audio.failPlay = true

		s.PlayFile(itemA)

		if s.Session().Playing {
			t.Fatal("failed play left the session playing")
		}
	})

	t.Run("no backend", func(t *testing.T) {
		s := NewState()
		s.AddFile(itemA)

		s.PlayFile(itemA)

		if s.Session().Playing {
			t.Fatal("audio played without a backend")
		}
	})
}

func TestPauseResumeToggle(t *testing.T) {
	s, audio, _ := newTestState(itemA)

	// Nothing is current, so these do nothing.
	s.ResumePlayback()
	s.TogglePlayback()

	if s.Session().Playing || len(audio.calls) > 0 {
		t.Fatal("resumed an empty session")
	}

	s.PlayFile(itemA)
	audio.reset()

	s.TogglePlayback()
	if s.Session().Playing {
		t.Fatal("toggle did not pause")
	}

	s.TogglePlayback()
	if !s.Session().Playing {
		t.Fatal("toggle did not resume")
	}

	s.PausePlayback()
	s.ResumePlayback()

	expect := []string{"pause", "play", "pause", "play"}
	if ineqs := deep.Equal(audio.calls, expect); ineqs != nil {
		t.Fatal("unexpected audio calls:", ineqs)
	}
}

func TestResumeVideo(t *testing.T) {
	s, _, video := newTestState(itemB)

	s.PlayFile(itemB)
	s.PausePlayback()
	s.ResumePlayback()

	expect := []string{"present B", "playing true", "playing false", "playing true"}
	if ineqs := deep.Equal(video.calls, expect); ineqs != nil {
		t.Fatal("unexpected video calls:", ineqs)
	}
}

func TestSeekTo(t *testing.T) {
	tests := []struct {
		name     string
		duration float64
		seek     float64
		expect   float64
		ignored  bool
	}{
		{"in range", 214, 100, 100, false},
		{"negative", 214, -5, 0, false},
		{"past end", 214, 300, 214, false},
		{"infinite", 214, math.Inf(1), 214, false},
		{"unknown duration", 0, 300, 300, false},
		{"unknown duration negative", 0, -1, 0, false},
		{"unknown duration infinite", 0, math.Inf(1), 0, true},
		{"unknown duration negative infinite", 0, math.Inf(-1), 0, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			item := &media.Item{ID: "x", URL: "x.mp3", Type: media.Audio, Duration: test.duration}

			s, audio, _ := newTestState(item)
			s.PlayFile(item)
			audio.reset()

			s.SeekTo(test.seek)

			if pos := s.Session().Position; pos != test.expect {
				t.Fatalf("expected position %v, got %v", test.expect, pos)
			}

			var calls []string
			if !test.ignored {
				calls = []string{fmt.Sprintf("seek %g", test.expect)}
			}
			if ineqs := deep.Equal(audio.calls, calls); ineqs != nil {
				t.Fatal("unexpected audio calls:", ineqs)
			}

			if _, err := json.Marshal(s.Session()); err != nil {
				t.Fatal("session does not encode:", err)
			}
		})
	}
}

func TestSeekVideo(t *testing.T) {
	s, audio, video := newTestState(itemB)
	s.PlayFile(itemB)
	video.reset()

	s.SeekTo(12)

	if ineqs := deep.Equal(video.calls, []string{"seek 12"}); ineqs != nil {
		t.Fatal("unexpected video calls:", ineqs)
	}
	if len(audio.calls) > 0 {
		t.Fatal("audio backend was used:", audio.calls)
	}
}

func TestSetVolume(t *testing.T) {
	s, audio, video := newTestState(itemA)
	s.PlayFile(itemA)

	s.SetVolume(0)
	if s.Session().Volume != 0 || !s.Session().Playing {
		t.Fatalf("unexpected session %+v", s.Session())
	}

	s.SetVolume(0.5)
	if s.Session().Volume != 0.5 || !s.Session().Playing {
		t.Fatalf("unexpected session %+v", s.Session())
	}
	if audio.volume != 0.5 || video.volume != 0.5 {
		t.Fatalf("volume not forwarded: audio %v, video %v", audio.volume, video.volume)
	}

	s.SetVolume(1.5)
	if v := s.Session().Volume; v != 1 {
		t.Fatalf("expected volume clamped to 1, got %v", v)
	}

	s.SetVolume(-1)
	if v := s.Session().Volume; v != 0 {
		t.Fatalf("expected volume clamped to 0, got %v", v)
	}

	// Volume alone never starts playback.
	s.PausePlayback()
	s.SetVolume(0.7)
	if s.Session().Playing {
		t.Fatal("volume change resumed playback")
	}
}

func TestSetMuted(t *testing.T) {
	s, audio, _ := newTestState(itemA)
	s.SetVolume(0.6)

	s.SetMuted(true)
	if audio.volume != 0 || s.Session().Volume != 0.6 {
		t.Fatalf("unexpected mute: backend %v, session %v", audio.volume, s.Session().Volume)
	}

	s.SetMuted(false)
	if audio.volume != 0.6 {
		t.Fatalf("unmute did not restore volume, got %v", audio.volume)
	}
}

func TestNextPrevious(t *testing.T) {
	s, audio, video := newTestState(itemA, itemB)

	s.PlayFile(itemA)
	if currentID(s) != "A" || !s.Session().Playing {
		t.Fatalf("unexpected session %+v", s.Session())
	}

	s.UpdateCurrentTime(50)
	audio.reset()

	s.NextTrack()

	session := s.Session()
	if session.Item != itemB || !session.Playing || session.Position != 0 {
		t.Fatalf("unexpected session after next %+v", session)
	}
	if ineqs := deep.Equal(audio.calls, []string{"pause"}); ineqs != nil {
		t.Fatal("audio was not paused for video:", ineqs)
	}

	video.reset()
	s.PreviousTrack()

	if currentID(s) != "A" || !s.Session().Playing {
		t.Fatalf("unexpected session after previous %+v", s.Session())
	}
	if ineqs := deep.Equal(video.calls, []string{"present nil"}); ineqs != nil {
		t.Fatal("video was not unloaded for audio:", ineqs)
	}
}

func TestNextPreviousBoundaries(t *testing.T) {
	s, _, _ := newTestState(itemA, itemC)

	// Nothing is current.
	s.NextTrack()
	s.PreviousTrack()

	if !s.Session().IsEmpty() {
		t.Fatal("next on an empty session played something")
	}

	s.PlayFile(itemA)
	s.PreviousTrack()

	if currentID(s) != "A" || !s.Session().Playing {
		t.Fatalf("previous at the start changed the session %+v", s.Session())
	}

	s.PlayFile(itemC)
	s.PausePlayback()
	s.NextTrack()

	if currentID(s) != "C" || s.Session().Playing {
		t.Fatalf("next at the end changed the session %+v", s.Session())
	}
}

func TestNextUsesLibraryOrder(t *testing.T) {
	s, _, _ := newTestState(itemA, itemB, itemC)

	pl := s.CreatePlaylist("Mixed")
	s.AddToPlaylist(pl.ID, "C")
	s.AddToPlaylist(pl.ID, "A")

	s.PlayFile(itemA)
	s.NextTrack()

	if currentID(s) != "B" {
		t.Fatalf("expected library successor B, got %q", currentID(s))
	}
}

func TestRemoveCurrentFile(t *testing.T) {
	s, audio, _ := newTestState(itemA, itemB)

	pl1 := s.CreatePlaylist("One")
	pl2 := s.CreatePlaylist("Two")
	s.AddToPlaylist(pl1.ID, "A")
	s.AddToPlaylist(pl1.ID, "B")
	s.AddToPlaylist(pl2.ID, "A")
	s.ToggleFavorite("A")

	s.PlayFile(itemA)
	s.SetVolume(0.3)
	audio.reset()

	s.RemoveFile("A")

	session := s.Session()
	if session.Item != nil || session.Playing {
		t.Fatalf("session not emptied: %+v", session)
	}
	if session.Volume != 0.3 {
		t.Fatalf("volume was lost: %v", session.Volume)
	}

	for _, pl := range s.Playlists() {
		if pl.Contains("A") {
			t.Fatalf("playlist %q still has the removed item", pl.Name)
		}
	}

	if ineqs := deep.Equal(ids(pl1.Items), []string{"B"}); ineqs != nil {
		t.Fatal("unexpected playlist items:", ineqs)
	}
	if s.IsFavorite("A") {
		t.Fatal("removed item is still a favorite")
	}
	if _, ok := s.File("A"); ok {
		t.Fatal("removed item is still in the library")
	}
	if ineqs := deep.Equal(audio.calls, []string{"pause"}); ineqs != nil {
		t.Fatal("unexpected audio calls:", ineqs)
	}
}

func TestRemoveOtherFile(t *testing.T) {
	s, _, _ := newTestState(itemA, itemB)

	s.PlayFile(itemA)
	s.RemoveFile("B")
	s.RemoveFile("missing")

	if currentID(s) != "A" || !s.Session().Playing {
		t.Fatalf("unexpected session %+v", s.Session())
	}
}

func TestPlaylists(t *testing.T) {
	s, _, _ := newTestState(itemA, itemB)

	pl := s.CreatePlaylist("Chill Vibes")
	if pl.ID != "id-1" || pl.Name != "Chill Vibes" || len(pl.Items) != 0 {
		t.Fatalf("unexpected playlist %+v", pl)
	}

	s.AddToPlaylist(pl.ID, "A")
	s.AddToPlaylist(pl.ID, "A")
	s.AddToPlaylist(pl.ID, "B")
	s.AddToPlaylist(pl.ID, "missing")
	s.AddToPlaylist("missing", "A")

	if ineqs := deep.Equal(ids(pl.Items), []string{"A", "B"}); ineqs != nil {
		t.Fatal("unexpected playlist items:", ineqs)
	}

	s.RemoveFromPlaylist(pl.ID, "A")
	s.RemoveFromPlaylist(pl.ID, "missing")
	s.RemoveFromPlaylist("missing", "B")

	if ineqs := deep.Equal(ids(pl.Items), []string{"B"}); ineqs != nil {
		t.Fatal("unexpected playlist items:", ineqs)
	}

	// Removing from a playlist keeps the item in the library.
	if _, ok := s.File("A"); !ok {
		t.Fatal("item was removed from the library")
	}

	s.RenamePlaylist(pl.ID, "Focus")
	if got, ok := s.PlaylistByName("Focus"); !ok || got != pl {
		t.Fatal("rename did not apply")
	}

	s.DeletePlaylist(pl.ID)
	if _, ok := s.Playlist(pl.ID); ok {
		t.Fatal("playlist was not deleted")
	}
	if len(s.Files()) != 2 {
		t.Fatal("deleting a playlist removed library items")
	}
}

func TestFavorites(t *testing.T) {
	s, _, _ := newTestState(itemA, itemB, itemC)

	if !s.ToggleFavorite("C") || !s.ToggleFavorite("A") {
		t.Fatal("toggle did not mark favorites")
	}
	if s.ToggleFavorite("missing") {
		t.Fatal("unknown item became a favorite")
	}

	if ineqs := deep.Equal(ids(s.Favorites()), []string{"C", "A"}); ineqs != nil {
		t.Fatal("unexpected favorites:", ineqs)
	}

	if s.ToggleFavorite("C") {
		t.Fatal("toggle did not unmark the favorite")
	}
	if ineqs := deep.Equal(ids(s.Favorites()), []string{"A"}); ineqs != nil {
		t.Fatal("unexpected favorites:", ineqs)
	}
}

func TestOnEnded(t *testing.T) {
	t.Run("none advances", func(t *testing.T) {
		s, _, _ := newTestState(itemA, itemC)
		s.PlayFile(itemA)
		s.OnEnded()

		if currentID(s) != "C" || !s.Session().Playing {
			t.Fatalf("unexpected session %+v", s.Session())
		}
	})

	t.Run("none stops at the end", func(t *testing.T) {
		s, _, _ := newTestState(itemA, itemC)
		s.PlayFile(itemC)
		s.OnEnded()

		session := s.Session()
		if session.Item != itemC || session.Playing || session.Position != 180 {
			t.Fatalf("unexpected session %+v", session)
		}
	})

	t.Run("all wraps", func(t *testing.T) {
		s, _, _ := newTestState(itemA, itemC)
		s.SetRepeatMode(RepeatAll)
		s.PlayFile(itemC)
		s.OnEnded()

		if currentID(s) != "A" || !s.Session().Playing {
			t.Fatalf("unexpected session %+v", s.Session())
		}
	})

	t.Run("all with one item", func(t *testing.T) {
		s, audio, _ := newTestState(itemA)
		s.SetRepeatMode(RepeatAll)
		s.PlayFile(itemA)
		s.UpdateCurrentTime(214)
		audio.reset()

		s.OnEnded()

		if session := s.Session(); !session.Playing || session.Position != 0 {
			t.Fatalf("unexpected session %+v", session)
		}
		if ineqs := deep.Equal(audio.calls, []string{"load /music/a.flac", "play"}); ineqs != nil {
			t.Fatal("unexpected audio calls:", ineqs)
		}
	})

	t.Run("single restarts", func(t *testing.T) {
		s, _, video := newTestState(itemA, itemB)
		s.SetRepeatMode(RepeatSingle)
		s.PlayFile(itemB)
		s.UpdateCurrentTime(60)
		video.reset()

		s.OnEnded()

		if currentID(s) != "B" || s.Session().Position != 0 {
			t.Fatalf("unexpected session %+v", s.Session())
		}
		if ineqs := deep.Equal(video.calls, []string{"seek 0", "playing true"}); ineqs != nil {
			t.Fatal("unexpected video calls:", ineqs)
		}
	})

	t.Run("resume after the end starts over", func(t *testing.T) {
		s, audio, _ := newTestState(itemA, itemC)
		s.PlayFile(itemC)
		s.BackendEvents(media.Audio).OnEndOfFile()
		audio.reset()

		s.ResumePlayback()

		session := s.Session()
		if session.Item != itemC || !session.Playing || session.Position != 0 {
			t.Fatalf("unexpected session %+v", session)
		}
		if ineqs := deep.Equal(audio.calls, []string{"load /music/c.mp3", "play"}); ineqs != nil {
			t.Fatal("unexpected audio calls:", ineqs)
		}
	})

	t.Run("toggle after the end starts over", func(t *testing.T) {
		s, audio, _ := newTestState(itemA, itemC)
		s.PlayFile(itemC)
		s.OnEnded()
		audio.reset()

		s.TogglePlayback()

		if session := s.Session(); !session.Playing || session.Position != 0 {
			t.Fatalf("unexpected session %+v", session)
		}
		if ineqs := deep.Equal(audio.calls, []string{"load /music/c.mp3", "play"}); ineqs != nil {
			t.Fatal("unexpected audio calls:", ineqs)
		}
	})

	t.Run("empty", func(t *testing.T) {
		s, _, _ := newTestState(itemA)
		s.OnEnded()

		if !s.Session().IsEmpty() {
			t.Fatal("ended on an empty session played something")
		}
	})
}

func TestBackendEvents(t *testing.T) {
	s, _, _ := newTestState(itemA, itemB)
	audio := s.BackendEvents(media.Audio)
	video := s.BackendEvents(media.Video)

	s.PlayFile(itemB)

	// Stale audio events must not touch the video session.
	audio.OnPositionChange(99)
	audio.OnEndOfFile()
	audio.OnPlaybackError(errors.New("stale"))

	session := s.Session()
	if session.Item != itemB || !session.Playing || session.Position != 0 {
		t.Fatalf("audio events applied to video: %+v", session)
	}

	video.OnDurationChange(600)
	video.OnPositionChange(12)

	if session := s.Session(); session.Duration != 600 || session.Position != 12 {
		t.Fatalf("video events not applied: %+v", session)
	}

	video.OnPauseUpdate(true)
	if s.Session().Playing {
		t.Fatal("pause event not applied")
	}

	video.OnPauseUpdate(false)
	video.OnPlaybackError(errors.New("decoder failed"))
	if s.Session().Playing {
		t.Fatal("playback error left the session playing")
	}
}

func TestUpdateTimesIgnoreInvalid(t *testing.T) {
	s, _, _ := newTestState(itemA)
	s.PlayFile(itemA)

	s.UpdateCurrentTime(10)
	s.UpdateCurrentTime(-1)
	s.UpdateDuration(-5)

	session := s.Session()
	if session.Position != 10 || session.Duration != 214 {
		t.Fatalf("invalid times were applied: %+v", session)
	}
}

func TestOnUpdate(t *testing.T) {
	s, _, _ := newTestState()

	var updates int
	s.OnUpdate(func(*State) { updates++ })

	s.AddFile(itemA)
	s.PlayFile(itemA)
	s.AddFile(itemA) // duplicate, no update

	if updates != 2 {
		t.Fatalf("expected 2 updates, got %d", updates)
	}
	if !s.Unsaved() {
		t.Fatal("changes did not mark the state unsaved")
	}
}

func TestSessionChangesStaySaved(t *testing.T) {
	s, _, _ := newTestState(itemA)
	s.unsaved = false

	s.PlayFile(itemA)
	s.UpdateDuration(214)
	s.UpdateCurrentTime(12)
	s.SeekTo(30)
	s.SetVolume(0.3)
	s.SetMuted(true)
	s.PausePlayback()

	if s.Unsaved() {
		t.Fatal("session changes marked the state unsaved")
	}

	s.SetRepeatMode(RepeatAll)

	if !s.Unsaved() {
		t.Fatal("repeat change did not mark the state unsaved")
	}
}

func TestFlags(t *testing.T) {
	s, _, _ := newTestState()

	s.SetPlayerVisible(true)
	s.SetFullscreen(true)
	s.SetRepeatMode(RepeatSingle)

	session := s.Session()
	if !session.Visible || !session.Fullscreen || s.RepeatMode() != RepeatSingle {
		t.Fatalf("flags not applied: %+v, %v", session, s.RepeatMode())
	}
}
