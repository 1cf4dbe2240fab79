package state

import (
	"math"

	"github.com/diamondburned/mirage/internal/media"
	log "github.com/sirupsen/logrus"
)

// Session is the live transport state. There is exactly one per State, and it
// is never persisted.
type Session struct {
	// Item is the current item, or nil if the session is empty.
	Item    *media.Item `json:"item"`
	Playing bool        `json:"playing"`
	// Volume is in [0, 1]. It is kept while muted.
	Volume float64 `json:"volume"`
	Muted  bool    `json:"muted"`
	// Position and Duration are in seconds. Duration is 0 until known.
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	// Visible is true once something was played, so the player widget
	// should be shown.
	Visible    bool `json:"visible"`
	Fullscreen bool `json:"fullscreen"`
}

// IsEmpty returns true if nothing is loaded.
func (s Session) IsEmpty() bool {
	return s.Item == nil
}

func (s Session) effectiveVolume() float64 {
	if s.Muted {
		return 0
	}
	return s.Volume
}

// reset empties the session but keeps the user's volume settings.
func (s *Session) reset() {
	*s = Session{
		Volume: s.Volume,
		Muted:  s.Muted,
	}
}

// Session returns a copy of the current session.
func (s *State) Session() Session {
	return s.session
}

// NowPlaying returns the current library index and item, or (-1, nil) if the
// session is empty.
func (s *State) NowPlaying() (int, *media.Item) {
	if s.session.Item == nil {
		return -1, nil
	}
	return s.library.Index(s.session.Item.ID), s.session.Item
}

// PlayFile plays the given item. If the item is already current, playback is
// resumed from where it is. Otherwise the item becomes current, the player is
// shown and playback starts from the beginning.
func (s *State) PlayFile(item *media.Item) {
	if item == nil {
		return
	}

	if s.session.Item != nil && s.session.Item.ID == item.ID {
		s.ResumePlayback()
		return
	}

	defer s.onUpdate(s)

	prev := s.session.Item

	s.session.Item = item
	s.session.Visible = true
	s.session.Position = 0
	s.session.Duration = 0
	if validSeconds(item.Duration) {
		s.session.Duration = item.Duration
	}

	// Stop the other backend so the two never play at once.
	if prev != nil && prev.Type != item.Type {
		switch prev.Type {
		case media.Audio:
			s.audioPause(prev)
		case media.Video:
			s.video.Present(nil)
		}
	}

	switch item.Type {
	case media.Audio:
		s.session.Playing = s.startAudio(item)
	case media.Video:
		s.video.SetVolume(s.session.effectiveVolume())
		s.video.Present(item)
		s.video.SetPlaying(true)
		s.session.Playing = true
	default:
		log.Printf("Not playing item %q with unknown type %q\n", item.ID, item.Type)
		s.session.Playing = false
	}
}

func (s *State) startAudio(item *media.Item) bool {
	if s.audio == nil {
		log.Println("No audio backend to play", item.ID)
		return false
	}

	if err := s.audio.Load(item.URL); err != nil {
		logBackendError("load", item, err)
		return false
	}

	if err := s.audio.SetVolume(s.session.effectiveVolume()); err != nil {
		logBackendError("volume", item, err)
	}

	if err := s.audio.Play(); err != nil {
		logBackendError("play", item, err)
		return false
	}

	return true
}

func (s *State) audioPause(item *media.Item) {
	if s.audio == nil {
		return
	}
	if err := s.audio.Pause(); err != nil {
		logBackendError("pause", item, err)
	}
}

// stopCurrent stops whichever backend plays the current item.
func (s *State) stopCurrent() {
	item := s.session.Item
	if item == nil {
		return
	}

	switch item.Type {
	case media.Audio:
		s.audioPause(item)
	case media.Video:
		s.video.SetPlaying(false)
		s.video.Present(nil)
	}
}

// PausePlayback pauses playback.
func (s *State) PausePlayback() {
	defer s.onUpdate(s)

	s.session.Playing = false

	item := s.session.Item
	if item == nil {
		return
	}

	switch item.Type {
	case media.Audio:
		s.audioPause(item)
	case media.Video:
		s.video.SetPlaying(false)
	}
}

// ResumePlayback resumes playback of the current item. It does nothing if the
// session is empty. An item that already played to its end starts over.
func (s *State) ResumePlayback() {
	item := s.session.Item
	if item == nil {
		return
	}

	if s.atEnd() {
		s.restart()
		return
	}

	defer s.onUpdate(s)

	switch item.Type {
	case media.Audio:
		if s.audio == nil {
			s.session.Playing = false
			return
		}
		if err := s.audio.Play(); err != nil {
			logBackendError("play", item, err)
			s.session.Playing = false
			return
		}
		s.session.Playing = true

	case media.Video:
		s.video.SetPlaying(true)
		s.session.Playing = true
	}
}

// atEnd returns true if the position reached the known duration. The backend
// has unloaded the item by then.
func (s *State) atEnd() bool {
	return s.session.Duration > 0 && s.session.Position >= s.session.Duration
}

// TogglePlayback pauses or resumes playback. It does nothing if the session is
// empty.
func (s *State) TogglePlayback() {
	if s.session.Item == nil {
		return
	}

	if s.session.Playing {
		s.PausePlayback()
	} else {
		s.ResumePlayback()
	}
}

// SeekTo seeks to the given position in seconds. The position is clamped to
// [0, Duration], or only to 0 if the duration is not known yet. An infinite
// position is ignored while the duration is unknown.
func (s *State) SeekTo(pos float64) {
	max := s.session.Duration
	if max <= 0 {
		if math.IsInf(pos, 1) {
			return
		}
		max = math.Max(pos, 0)
	}
	pos = clamp(pos, 0, max)

	defer s.onUpdate(s)

	s.session.Position = pos

	item := s.session.Item
	if item == nil {
		return
	}

	switch item.Type {
	case media.Audio:
		if s.audio != nil {
			if err := s.audio.Seek(pos); err != nil {
				logBackendError("seek", item, err)
			}
		}
	case media.Video:
		s.video.Seek(pos)
	}
}

// SetVolume sets the volume, clamped to [0, 1]. It does not change whether
// anything is playing.
func (s *State) SetVolume(v float64) {
	s.session.Volume = clamp(v, 0, 1)
	s.applyVolume()
	s.onUpdate(s)
}

// SetMuted mutes or unmutes playback without losing the volume.
func (s *State) SetMuted(muted bool) {
	if s.session.Muted == muted {
		return
	}

	s.session.Muted = muted
	s.applyVolume()
	s.onUpdate(s)
}

func (s *State) applyVolume() {
	v := s.session.effectiveVolume()

	if s.audio != nil {
		if err := s.audio.SetVolume(v); err != nil {
			logBackendError("volume", s.session.Item, err)
		}
	}

	s.video.SetVolume(v)
}

// SetPlayerVisible shows or hides the player.
func (s *State) SetPlayerVisible(visible bool) {
	if s.session.Visible == visible {
		return
	}

	s.session.Visible = visible
	s.onUpdate(s)
}

// SetFullscreen sets whether the player is fullscreen.
func (s *State) SetFullscreen(fullscreen bool) {
	if s.session.Fullscreen == fullscreen {
		return
	}

	s.session.Fullscreen = fullscreen
	s.onUpdate(s)
}

// NextTrack plays the library item after the current one. It does nothing at
// the end of the library or if the session is empty. The library order is
// used even if the item was started from a playlist.
func (s *State) NextTrack() {
	ix, item := s.NowPlaying()
	if item == nil || ix < 0 || ix >= s.library.Len()-1 {
		return
	}

	s.PlayFile(s.library.At(ix + 1))
}

// PreviousTrack plays the library item before the current one. It does nothing
// at the start of the library or if the session is empty.
func (s *State) PreviousTrack() {
	ix, item := s.NowPlaying()
	if item == nil || ix <= 0 {
		return
	}

	s.PlayFile(s.library.At(ix - 1))
}

// UpdateCurrentTime records the position reported by a backend.
func (s *State) UpdateCurrentTime(pos float64) {
	if !validSeconds(pos) || s.session.Position == pos {
		return
	}

	s.session.Position = pos
	s.onUpdate(s)
}

// UpdateDuration records the duration reported by a backend.
func (s *State) UpdateDuration(duration float64) {
	if !validSeconds(duration) || s.session.Duration == duration {
		return
	}

	s.session.Duration = duration
	s.onUpdate(s)
}

// OnEnded is called when the current item played to its end. What plays next
// depends on the repeat mode.
func (s *State) OnEnded() {
	ix, item := s.NowPlaying()
	if item == nil {
		return
	}

	switch s.repeating {
	case RepeatSingle:
		s.restart()
		return

	case RepeatAll:
		if ix >= 0 {
			next := s.library.At((ix + 1) % s.library.Len())
			if next.ID == item.ID {
				s.restart()
			} else {
				s.PlayFile(next)
			}
			return
		}

	default:
		if ix >= 0 && ix < s.library.Len()-1 {
			s.PlayFile(s.library.At(ix + 1))
			return
		}
	}

	// Nothing left to play.
	s.session.Playing = false
	if s.session.Duration > 0 {
		s.session.Position = s.session.Duration
	}
	s.onUpdate(s)
}

// restart plays the current item again from the beginning. The audio backend
// has already unloaded a finished file, so audio is loaded again.
func (s *State) restart() {
	item := s.session.Item

	defer s.onUpdate(s)

	s.session.Position = 0

	switch item.Type {
	case media.Audio:
		s.session.Playing = s.startAudio(item)
	case media.Video:
		s.video.Seek(0)
		s.video.SetPlaying(true)
		s.session.Playing = true
	}
}

// OnPlaybackError is called when a backend failed to play the current item.
func (s *State) OnPlaybackError(err error) {
	logBackendError("playback", s.session.Item, err)

	if !s.session.Playing {
		return
	}

	s.session.Playing = false
	s.onUpdate(s)
}
