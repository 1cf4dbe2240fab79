// Package muse drives mpv over its JSON IPC socket. A Session plays audio for
// the coordinator; a Session started with Options.Video can back the video
// player through VideoPlayer.
package muse

import (
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/DexterLB/mpvipc"
)

// Options configures a new session.
type Options struct {
	// Name identifies the session in logs and names its socket.
	Name string
	// Binary is the mpv executable. It defaults to "mpv".
	Binary string
	// SocketPath is the IPC socket to create. It defaults to a file in the
	// temporary directory.
	SocketPath string
	// Video opens a window instead of disabling video output.
	Video bool
	// IdleAdd queues event handler calls onto the main loop. It must not be
	// nil.
	IdleAdd func(func())
}

func (opts *Options) setDefaults() {
	if opts.Name == "" {
		opts.Name = "mpv"
	}
	if opts.Binary == "" {
		opts.Binary = "mpv"
	}
	if opts.SocketPath == "" {
		opts.SocketPath = filepath.Join(tmpdir, "mpv", opts.Name+".sock")
	}
}

type Session struct {
	Playback  *mpvipc.Connection
	PlayState *PlayState
	Command   *exec.Cmd
	mpvRead   *mpvReader

	handler EventHandler
	idleAdd func(func())

	socketPath string
	stopped    uint32 // atomic
}

// NewSession starts mpv and connects to it. Call SetHandler then Start to
// receive events, and Stop when done.
func NewSession(opts Options) (*Session, error) {
	opts.setDefaults()
	return newMpv(opts)
}

// Load replaces the current file. The pause state is kept.
func (s *Session) Load(url string) error {
	_, err := s.Playback.Call("loadfile", url, "replace")
	return err
}

// Play unpauses playback.
func (s *Session) Play() error {
	return s.SetPlay(true)
}

// Pause pauses playback.
func (s *Session) Pause() error {
	return s.SetPlay(false)
}

func (s *Session) SetPlay(playing bool) error {
	return s.Playback.Set("pause", !playing)
}

// Seek seeks to the absolute position in seconds.
func (s *Session) Seek(pos float64) error {
	return s.Playback.Set("time-pos", pos)
}

// SetVolume sets the volume from 0 to 1.
func (s *Session) SetVolume(v float64) error {
	return s.Playback.Set("volume", v*100)
}

// Unload stops playback and unloads the current file.
func (s *Session) Unload() error {
	_, err := s.Playback.Call("stop")
	return err
}

type batchErrors []error

func makeBatchErrors(errs ...error) error {
	var nonNils []error
	for _, err := range errs {
		if err != nil {
			nonNils = append(nonNils, err)
		}
	}

	if len(nonNils) == 0 {
		return nil
	}

	return batchErrors(nonNils)
}

func (b batchErrors) Error() string {
	var errors = make([]string, len(b))
	for i, err := range b {
		errors[i] = err.Error()
	}

	// English moment.
	return strings.Join(errors, ", and ")
}
