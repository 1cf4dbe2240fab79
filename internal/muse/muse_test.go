package muse

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-test/deep"
)

func TestBatchErrors(t *testing.T) {
	if err := makeBatchErrors(nil, nil); err != nil {
		t.Fatal("expected nil for all-nil errors, got", err)
	}

	err := makeBatchErrors(nil, errors.New("a"), nil, errors.New("b"))
	if err == nil || err.Error() != "a, and b" {
		t.Fatalf("unexpected batch error %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Name: "video"}
	opts.setDefaults()

	if opts.Binary != "mpv" {
		t.Errorf("unexpected binary %q", opts.Binary)
	}
	if filepath.Base(opts.SocketPath) != "video.sock" {
		t.Errorf("unexpected socket path %q", opts.SocketPath)
	}
}

func TestMpvArgs(t *testing.T) {
	tests := []struct {
		name   string
		video  bool
		has    []string
		hasNot []string
	}{
		{
			name:   "audio",
			video:  false,
			has:    []string{"--no-video", "--idle", "--input-ipc-server=/tmp/s.sock"},
			hasNot: []string{"--force-window=yes"},
		},
		{
			name:   "video",
			video:  true,
			has:    []string{"--force-window=yes", "--idle"},
			hasNot: []string{"--no-video"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			args := mpvArgs(Options{SocketPath: "/tmp/s.sock", Video: test.video})
			joined := " " + strings.Join(args, " ") + " "

			for _, arg := range test.has {
				if !strings.Contains(joined, " "+arg+" ") {
					t.Errorf("missing %q in %v", arg, args)
				}
			}
			for _, arg := range test.hasNot {
				if strings.Contains(joined, " "+arg+" ") {
					t.Errorf("unexpected %q in %v", arg, args)
				}
			}
		})
	}
}

func TestPlayState(t *testing.T) {
	var ps PlayState
	ps.updatePos(12.5)
	ps.updateDuration(214)
	ps.updateBitrate(320000)

	pos, dur := ps.PlayTime()
	if ineqs := deep.Equal([]float64{pos, dur, ps.Bitrate()}, []float64{12.5, 214, 320000}); ineqs != nil {
		t.Fatal("unexpected play state:", ineqs)
	}
}
