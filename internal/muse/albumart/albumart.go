// Package albumart finds cover pictures for local media files.
package albumart

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/pkg/errors"
)

// Stolen from: mpv/blob/master/player/external_files.c#L45, which was
// stolen from: vlc/blob/master/modules/meta_engine/folder.c#L40.
// Sorted by priority.
var coverFiles = []string{
	"AlbumArt.jpg",
	"Album.jpg",
	"cover.jpg",
	"cover.png",
	"front.jpg",
	"front.png",
	"Cover.jpg",

	"AlbumArtSmall.jpg",
	"Folder.jpg",
	"Folder.png",
	".folder.png",
	"thumb.jpg",

	"front.bmp",
	"front.gif",
	"cover.gif",
}

// File is a found cover picture.
type File struct {
	io.ReadCloser
	Extension string // jpeg, ...
	// Path is the sidecar file the picture was read from. It is empty for
	// embedded pictures.
	Path string
}

func (f File) IsValid() bool {
	return f.ReadCloser != nil
}

// AlbumArt queries for an album art. It returns an invalid File if there is no
// album art. The function may read the album art into memory.
func AlbumArt(path string) File {
	// Prioritize searching for external album arts over reading the album art
	// into memory.
	dir := filepath.Dir(path)

	for _, coverFile := range coverFiles {
		coverPath := filepath.Join(dir, coverFile)

		f, err := os.Open(coverPath)
		if err != nil {
			continue
		}

		return File{
			ReadCloser: f,
			Extension:  normalizeExt(filepath.Ext(coverFile)),
			Path:       coverPath,
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return File{}
	}
	defer f.Close()

	// Use a 1 minute timeout.
	f.SetDeadline(time.Now().Add(time.Minute))

	m, err := tag.ReadFrom(f)
	if err == nil {
		if pic := m.Picture(); pic != nil {
			return File{
				ReadCloser: ioutil.NopCloser(bytes.NewReader(pic.Data)),
				Extension:  normalizeExt(pic.Ext),
			}
		}
	}

	return File{}
}

// CoverReference returns a reference to the cover of the media file at path,
// suitable for media.Item.Cover. Sidecar files are referenced in place;
// embedded pictures are copied into cacheDir. An empty string is returned if
// there is no cover.
func CoverReference(path, cacheDir string) (string, error) {
	f := AlbumArt(path)
	if !f.IsValid() {
		return "", nil
	}
	defer f.Close()

	if f.Path != "" {
		return f.Path, nil
	}

	if cacheDir == "" {
		return "", nil
	}

	return Cache(f, cacheDir, path)
}

// Cache writes the picture into dir, named after the hash of key, and returns
// the written path. An existing file is reused.
func Cache(r io.Reader, dir, key string) (string, error) {
	ext := "jpeg"
	if f, ok := r.(File); ok && f.Extension != "" {
		ext = f.Extension
	}

	sum := sha1.Sum([]byte(key))
	dst := filepath.Join(dir, hex.EncodeToString(sum[:])+"."+ext)

	if _, err := os.Stat(dst); err == nil {
		return dst, nil
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "failed to make cover cache directory")
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", errors.Wrap(err, "failed to create cover file")
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(dst)
		return "", errors.Wrap(err, "failed to write cover file")
	}

	if err := out.Close(); err != nil {
		return "", errors.Wrap(err, "failed to close cover file")
	}

	return dst, nil
}

func normalizeExt(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	ext = strings.ToLower(ext)

	if ext == "jpg" {
		ext = "jpeg"
	}

	return ext
}
