// Package ffprobe runs ffprobe and decodes its JSON output.
package ffprobe

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Timeout bounds a single Probe call.
const Timeout = 15 * time.Second

// Probe probes the file or URL at the given path for its format and streams.
func Probe(ctx context.Context, path string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx,
		"ffprobe",
		"-loglevel", "fatal",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	cmd.Stderr = os.Stderr

	o, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to make stdout pipe")
	}
	defer o.Close()

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start ffprobe")
	}
	defer cmd.Wait()

	return Decode(o)
}

// Decode decodes ffprobe's JSON output.
func Decode(r io.Reader) (*ProbeResult, error) {
	var result ProbeResult

	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, errors.Wrap(err, "failed to parse ffprobe JSON")
	}

	return &result, nil
}

type ProbeResult struct {
	Format  Format   `json:"format"`
	Streams []Stream `json:"streams"`
}

// Duration returns the duration in seconds, or 0 if ffprobe did not know.
func (r *ProbeResult) Duration() float64 {
	secs, err := strconv.ParseFloat(r.Format.Duration, 64)
	if err != nil || secs < 0 {
		return 0
	}
	return secs
}

// Size returns the file size in bytes, or 0 if unknown.
func (r *ProbeResult) Size() int64 {
	n, _ := strconv.ParseInt(r.Format.Size, 10, 64)
	return n
}

// HasVideo returns true if the file has a video stream that isn't just an
// embedded cover picture.
func (r *ProbeResult) HasVideo() bool {
	for _, stream := range r.Streams {
		if stream.CodecType == "video" && stream.Disposition.AttachedPic == 0 {
			return true
		}
	}
	return false
}

type Format struct {
	Filename       string `json:"filename"`
	NbStreams      int    `json:"nb_streams"`
	NbPrograms     int    `json:"nb_programs"`
	FormatName     string `json:"format_name"`
	FormatLongName string `json:"format_long_name"`
	StartTime      string `json:"start_time"`
	Duration       string `json:"duration"`
	Size           string `json:"size"`
	BitRate        string `json:"bit_rate"`
	ProbeScore     int    `json:"probe_score"`
	Tags           Tags   `json:"tags"`
}

type Stream struct {
	Index       int         `json:"index"`
	CodecName   string      `json:"codec_name"`
	CodecType   string      `json:"codec_type"`
	Disposition Disposition `json:"disposition"`
}

type Disposition struct {
	AttachedPic int `json:"attached_pic"`
}

// Tags is a map of lower-cased tag names.
type Tags map[string]string

func (tags *Tags) UnmarshalJSON(v []byte) error {
	var rawTags = map[string]string{}

	if err := json.Unmarshal(v, &rawTags); err != nil {
		return err
	}

	var lowered = make(map[string]string, len(rawTags))
	for k, v := range rawTags {
		lowered[strings.ToLower(k)] = v
	}

	*tags = lowered
	return nil
}
