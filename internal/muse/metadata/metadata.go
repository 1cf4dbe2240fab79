// Package metadata turns media files into library items.
package metadata

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/diamondburned/mirage/internal/media"
	"github.com/diamondburned/mirage/internal/muse/albumart"
	"github.com/diamondburned/mirage/internal/muse/metadata/ffmpeg"
	"github.com/diamondburned/mirage/internal/muse/metadata/ffprobe"
	"github.com/diamondburned/mirage/internal/muse/playlist"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// thumbnailSize is the maximum height of rendered video thumbnails.
const thumbnailSize = 360

// Options configures Probe.
type Options struct {
	// CoverDir is where embedded covers and video thumbnails are cached. No
	// files are written if it is empty.
	CoverDir string
	// NewID makes the item ID. It must not be nil.
	NewID func() string
}

// Probe reads the metadata of a local file or a URL. Missing tools and
// unreadable tags are not errors; the item then has fewer fields filled in.
// An error is only returned if a local file does not exist.
func Probe(ctx context.Context, path string, opts Options) (*media.Item, error) {
	item := &media.Item{
		ID:  opts.NewID(),
		URL: path,
	}

	local := !strings.Contains(path, "://")

	if local {
		abs, err := filepath.Abs(path)
		if err == nil {
			path = abs
			item.URL = abs
		}

		s, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to stat media file")
		}
		if s.IsDir() {
			return nil, errors.Errorf("%q is a directory", path)
		}

		item.Size = s.Size()
	}

	item.Type = media.TypeFromPath(path)

	probe, err := ffprobe.Probe(ctx, path)
	if err != nil {
		log.WithError(err).WithField("path", path).Debugln("ffprobe failed")
	} else {
		applyProbe(item, probe)
	}

	if local {
		readTags(item, path)
	}

	if item.Title == "" {
		item.Title = playlist.TitleFromPath(path)
	}

	if local && opts.CoverDir != "" {
		item.Cover = findCover(item, path, opts.CoverDir)
	}

	return item, nil
}

func applyProbe(item *media.Item, probe *ffprobe.ProbeResult) {
	item.Duration = probe.Duration()

	if size := probe.Size(); size > 0 && item.Size == 0 {
		item.Size = size
	}

	if probe.HasVideo() {
		item.Type = media.Video
	} else if len(probe.Streams) > 0 {
		item.Type = media.Audio
	}

	item.Title = probe.Format.Tags["title"]
	item.Artist = probe.Format.Tags["artist"]
	item.Album = probe.Format.Tags["album"]
}

// readTags overrides the ffprobe tags with the file's own tags, which know
// about more formats of ID3 frames.
func readTags(item *media.Item, path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	f.SetDeadline(time.Now().Add(time.Minute))

	m, err := tag.ReadFrom(f)
	if err != nil {
		return
	}

	item.Title = stringOr(m.Title(), item.Title)
	item.Artist = stringOr(m.Artist(), item.Artist)
	item.Album = stringOr(m.Album(), item.Album)
}

func findCover(item *media.Item, path, coverDir string) string {
	if item.IsAudio() {
		ref, err := albumart.CoverReference(path, coverDir)
		if err != nil {
			log.WithError(err).WithField("path", path).Warnln("Failed to cache cover")
		}
		return ref
	}

	// Take a frame a tenth into the video, which skips most black intros.
	offset := time.Duration(item.Duration / 10 * float64(time.Second))

	var buf bytes.Buffer
	if err := ffmpeg.Thumbnail(&buf, path, offset, thumbnailSize); err != nil {
		log.WithError(err).WithField("path", path).Debugln("Failed to render thumbnail")
		return ""
	}

	ref, err := albumart.Cache(&buf, coverDir, path)
	if err != nil {
		log.WithError(err).WithField("path", path).Warnln("Failed to cache thumbnail")
		return ""
	}

	return ref
}

func stringOr(str, or string) string {
	if str != "" {
		return str
	}
	return or
}
