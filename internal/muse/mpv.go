package muse

import (
	"context"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/DexterLB/mpvipc"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var tmpdir = filepath.Join(os.TempDir(), "mirage")

func mpvArgs(opts Options) []string {
	args := []string{
		"--idle",
		"--quiet",
		"--pause",
		"--no-input-terminal",
		"--loop-playlist=no",
		"--gapless-audio=weak",
		"--replaygain=track",
		"--replaygain-clip=no",
		"--input-ipc-server=" + opts.SocketPath,
		"--volume=100",
		"--volume-max=100",
	}

	if opts.Video {
		args = append(args, "--force-window=yes", "--title=Mirage")
	} else {
		args = append(args, "--no-video", "--ad=lavc:*")
	}

	// Try and support MPV_MPRIS.
	if scripts := os.Getenv("MPV_SCRIPTS"); scripts != "" {
		for _, script := range strings.Split(scripts, ":") {
			args = append(args, "--script="+script)
		}
	}

	return args
}

func newMpv(opts Options) (*Session, error) {
	if err := os.MkdirAll(filepath.Dir(opts.SocketPath), os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "failed to make socket directory")
	}

	// Clean up after a previous crash.
	if err := os.RemoveAll(opts.SocketPath); err != nil {
		return nil, errors.Wrap(err, "failed to clean up socket")
	}

	reader := newMpvReader(opts.Name)

	cmd := exec.Command(opts.Binary, mpvArgs(opts)...)
	cmd.Env = os.Environ()
	cmd.Stdout = reader
	cmd.Stderr = reader

	conn := mpvipc.NewConnection(opts.SocketPath)

	if err := cmd.Start(); err != nil {
		reader.Close()
		return nil, errors.Wrap(err, "failed to start mpv")
	}

	s := &Session{
		Playback:   conn,
		PlayState:  &PlayState{},
		Command:    cmd,
		mpvRead:    reader,
		handler:    nopHandler{},
		idleAdd:    opts.IdleAdd,
		socketPath: opts.SocketPath,
	}

	reader.Start()

	if err := s.connect(); err != nil {
		s.Stop()
		return nil, err
	}

	return s, nil
}

func (s *Session) connect() error {
	// Give us a 5-second period timeout.
	ctx, cancel := context.WithTimeout(context.TODO(), 5*time.Second)
	defer cancel()

	// Spin until we can connect.
	var err error
RetryOpen:
	for {
		err = s.Playback.Open()
		if err == nil {
			break RetryOpen
		}
		select {
		case <-ctx.Done():
			break RetryOpen
		case <-time.After(10 * time.Millisecond):
			runtime.Gosched()
			continue RetryOpen
		}
	}

	if err != nil {
		return errors.Wrap(err, "failed to open connection")
	}

	var errs []error

	for _, event := range events {
		_, err := s.Playback.Call("enable_event", event)
		errs = append(errs, errors.Wrapf(err, "failed to enable event %q", event))
	}

	for id, property := range propertyMap {
		_, err := s.Playback.Call("observe_property", uint(id), property)
		errs = append(errs, errors.Wrapf(err, "failed to observe property %q", property))
	}

	return makeBatchErrors(errs...)
}

// SetHandler sets the event handler. It must be called before Start.
func (s *Session) SetHandler(h EventHandler) {
	if h == nil {
		h = nopHandler{}
	}
	s.handler = h
}

// Start starts all the event listeners in background goroutines. As such, it is
// non-blocking.
func (s *Session) Start() {
	// Copy the handler so the caller cannot change it.
	var handler = s.handler

	go s.Playback.ListenForEvents(func(event *mpvipc.Event) {
		if event.Error != "" {
			log.Println("Error in mpv event:", event.Error)
		}

		if event.Data == nil {
			goto handleAllEvents
		}

		switch mpvEvent(event.ID) {
		case allEvent:
			goto handleAllEvents

		case pauseEvent:
			if b, ok := event.Data.(bool); ok {
				s.idleAdd(func() { handler.OnPauseUpdate(b) })
			}

		case bitrateEvent:
			if f, ok := event.Data.(float64); ok {
				s.PlayState.updateBitrate(f)
			}

		case timePositionEvent:
			if f, ok := event.Data.(float64); ok {
				s.PlayState.updatePos(f)
				s.idleAdd(func() { handler.OnPositionChange(f) })
			}

		case durationEvent:
			if f, ok := event.Data.(float64); ok {
				s.PlayState.updateDuration(f)
				s.idleAdd(func() { handler.OnDurationChange(f) })
			}

		case audioDeviceEvent:
			log.Println("Audio device changed to", event.Data)
		}

		return

	handleAllEvents:
		switch event.Name {
		case "end-file":
			s.PlayState.updatePos(0)
			s.PlayState.updateBitrate(0)

			switch event.Reason {
			case "eof":
				s.idleAdd(handler.OnEndOfFile)
			case "error":
				err := errors.New("mpv failed to play the file")
				s.idleAdd(func() { handler.OnPlaybackError(err) })
			}
		}
	})
}

// Stop stops the mpv session. A stopped session cannot be reused.
func (s *Session) Stop() {
	if !atomic.CompareAndSwapUint32(&s.stopped, 0, 1) {
		return
	}

	if err := s.Playback.Close(); err != nil {
		log.Debugln("Failed to close mpv connection:", err)
	}

	if err := s.Command.Process.Signal(os.Interrupt); err != nil {
		log.Println("Attempted to send SIGINT failed, error occured:", err)
		log.Println("Killing anyway.")

		if err = s.Command.Process.Kill(); err != nil {
			log.Println("Failed to kill mpv:", err)
		}
	}

	// Wait for mpv to finish up.
	s.Command.Wait()
	s.mpvRead.Close()

	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		log.Println("Failed to clean up socket:", err)
	}
}

// PlayState wraps the current playback state. It is updated from the event
// goroutine and can be read from any goroutine.
type PlayState struct {
	btr uint64
	pos uint64
	dur uint64
}

func (tc *PlayState) updatePos(pos float64) {
	atomic.StoreUint64(&tc.pos, math.Float64bits(pos))
}

func (tc *PlayState) updateDuration(dur float64) {
	atomic.StoreUint64(&tc.dur, math.Float64bits(dur))
}

func (tc *PlayState) updateBitrate(btr float64) {
	atomic.StoreUint64(&tc.btr, math.Float64bits(btr))
}

// Bitrate reads the bitrate atomically.
func (tc *PlayState) Bitrate() float64 {
	return math.Float64frombits(atomic.LoadUint64(&tc.btr))
}

// PlayTime reads the playback timestamps atomically.
func (tc *PlayState) PlayTime() (pos, dur float64) {
	pos = math.Float64frombits(atomic.LoadUint64(&tc.pos))
	dur = math.Float64frombits(atomic.LoadUint64(&tc.dur))
	return
}
