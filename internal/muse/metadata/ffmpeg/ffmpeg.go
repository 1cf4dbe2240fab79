// Package ffmpeg runs ffmpeg to render still pictures for the library.
package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

var globalCtx, globalStop = context.WithCancel(context.Background())

// StopAll kills all running ffmpeg processes and prevents new ones.
func StopAll() {
	globalStop()
}

// Thumbnail renders a JPEG picture of the given media file, scaled down to at
// most size pixels high. For videos, the frame at the given offset is used;
// for audio files with an embedded cover, the cover is used.
func Thumbnail(w io.Writer, path string, offset time.Duration, size int) error {
	ctx, cancel := context.WithTimeout(globalCtx, 1*time.Minute)
	defer cancel()

	vf := fmt.Sprintf("scale=-1:'min(%d,ih)'", size)

	cmd := exec.CommandContext(ctx,
		"ffmpeg",
		"-hide_banner", "-threads", "1", "-loglevel", "error", "-y",
		"-ss", fmt.Sprintf("%.3f", offset.Seconds()),
		"-i", path,
		"-an", "-frames:v", "1",
		"-c:v", "mjpeg", "-sws_flags", "lanczos", "-q:v", "5", "-vf", vf,
		"-f", "mjpeg", "-",
	)
	cmd.Stderr = os.Stderr
	cmd.Stdout = w

	return cmd.Run()
}
