package muse

import (
	"bufio"
	"io"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"
)

// warnLine matches mpv output worth surfacing above debug level.
var warnLine = regexp.MustCompile(`(?i)\b(error|failed|cannot|can't)\b`)

// mpvReader forwards mpv's output into the log.
type mpvReader struct {
	wp  *io.PipeWriter
	rp  *io.PipeReader
	log *log.Entry
}

func newMpvReader(name string) *mpvReader {
	rp, wp := io.Pipe()
	return &mpvReader{
		wp,
		rp,
		log.WithField("mpv", name),
	}
}

func (r *mpvReader) Start() {
	go func() {
		var scanner = bufio.NewScanner(r.rp)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			if warnLine.MatchString(line) {
				r.log.Warnln(line)
			} else {
				r.log.Debugln(line)
			}
		}
	}()
}

func (r *mpvReader) Write(b []byte) (int, error) {
	return r.wp.Write(b)
}

func (r *mpvReader) Close() error {
	r.wp.Close()
	r.rp.Close()
	return nil
}
