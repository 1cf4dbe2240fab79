// Package playlist reads and writes playlist files. Formats register
// themselves by file extension; import the format packages for their side
// effects.
package playlist

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrUnknownFormat is returned for files whose extension has no registered
// format.
var ErrUnknownFormat = errors.New("unknown playlist format")

// Parser parses a playlist. The path is the file the reader was opened from;
// formats that have no name field derive the playlist name from it.
type Parser func(r io.Reader, path string) (*Playlist, error)

// Writer writes the playlist in its format.
type Writer func(w io.Writer, p *Playlist) error

type format struct {
	parse Parser
	write Writer
}

var formats = map[string]format{}

// Register registers a format for the given extension, including the dot.
func Register(fileExt string, parse Parser, write Writer) {
	formats[strings.ToLower(fileExt)] = format{parse, write}
}

// SupportedExtensions returns the registered extensions, sorted.
func SupportedExtensions() []string {
	var exts = make([]string, 0, len(formats))
	for ext := range formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func formatOf(path string) (format, error) {
	f, ok := formats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return format{}, errors.Wrapf(ErrUnknownFormat, "%q", filepath.Ext(path))
	}
	return f, nil
}

// ParseFile parses the playlist file at the given path.
func ParseFile(path string) (*Playlist, error) {
	format, err := formatOf(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open playlist")
	}
	defer f.Close()

	f.SetDeadline(time.Now().Add(15 * time.Second))

	p, err := format.parse(bufio.NewReader(f), path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse playlist")
	}

	p.Path = path
	return p, nil
}

// Playlist is a playlist file's contents.
type Playlist struct {
	Name   string
	Path   string
	Tracks []Track
}

// Track is a playlist entry. Only Filepath is guaranteed to be set.
type Track struct {
	Title  string
	Artist string
	Album  string
	Number int
	Length time.Duration
	// Bitrate is in bits per second.
	Bitrate int
	// Filepath is a local path or a URL.
	Filepath string
}

// TitleFromPath makes up a title from the file name.
func TitleFromPath(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// Save writes the playlist to its Path in the background. The format is chosen
// by the extension. done is called in another goroutine.
func (p *Playlist) Save(done func(error)) {
	format, err := formatOf(p.Path)
	if err != nil {
		done(err)
		return
	}

	go func() { done(p.writeFile(format)) }()
}

func (p *Playlist) writeFile(format format) error {
	f, err := os.Create(p.Path)
	if err != nil {
		return errors.Wrap(err, "failed to create playlist file")
	}
	defer f.Close()

	buf := bufio.NewWriter(f)

	if err := format.write(buf, p); err != nil {
		return errors.Wrap(err, "failed to write playlist")
	}

	if err := buf.Flush(); err != nil {
		return errors.Wrap(err, "failed to flush")
	}

	return nil
}
