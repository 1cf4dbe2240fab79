package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/diamondburned/mirage/internal/media"
	"github.com/diamondburned/mirage/internal/muse/playlist"
	"github.com/go-test/deep"
)

func TestImportPlaylist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Road Trip.m3u")

	const m3u = "#EXTM3U\n" +
		"#EXTINF:214,Electric Dreams\n" +
		"/music/a.flac\n" +
		"#EXTINF:95,Sunset\n" +
		"/video/sunset.mkv\n"

	if err := os.WriteFile(path, []byte(m3u), 0644); err != nil {
		t.Fatal("failed to write playlist:", err)
	}

	s, _, _ := newTestState(itemA)

	pl, err := s.ImportPlaylist(path)
	if err != nil {
		t.Fatal("failed to import:", err)
	}

	if pl.Name != "Road Trip" {
		t.Fatalf("unexpected name %q", pl.Name)
	}
	if len(pl.Items) != 2 || pl.Items[0] != itemA {
		t.Fatalf("unexpected items %s", ids(pl.Items))
	}

	added := pl.Items[1]
	expect := &media.Item{
		ID:       added.ID,
		Title:    "Sunset",
		URL:      "/video/sunset.mkv",
		Type:     media.Video,
		Duration: 95,
	}
	if ineqs := deep.Equal(added, expect); ineqs != nil {
		t.Fatal("unexpected imported item:", ineqs)
	}

	if ineqs := deep.Equal(ids(s.Files()), []string{"A", added.ID}); ineqs != nil {
		t.Fatal("unexpected library:", ineqs)
	}

	// Importing again makes a new playlist and reuses the items.
	again, err := s.ImportPlaylist(path)
	if err != nil {
		t.Fatal("failed to import again:", err)
	}
	if again.Name != "Road Trip~1" {
		t.Fatalf("unexpected mangled name %q", again.Name)
	}
	if len(s.Files()) != 2 {
		t.Fatal("importing again duplicated library items")
	}
}

func TestImportUnknownFormat(t *testing.T) {
	s, _, _ := newTestState()

	if _, err := s.ImportPlaylist("/tmp/playlist.pls"); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if len(s.Playlists()) != 0 {
		t.Fatal("failed import created a playlist")
	}
}

func TestExportPlaylist(t *testing.T) {
	s, _, _ := newTestState(itemA, itemC)

	pl := s.CreatePlaylist("Evening")
	s.AddToPlaylist(pl.ID, "C")
	s.AddToPlaylist(pl.ID, "A")

	path := filepath.Join(t.TempDir(), "evening.m3u")

	done := make(chan error, 1)
	s.ExportPlaylist(pl.ID, path, func(err error) { done <- err })

	select {
	case err := <-done:
		if err != nil {
			t.Fatal("failed to export:", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for export")
	}

	p, err := playlist.ParseFile(path)
	if err != nil {
		t.Fatal("failed to parse exported playlist:", err)
	}

	var paths []string
	for _, track := range p.Tracks {
		paths = append(paths, track.Filepath)
	}

	if ineqs := deep.Equal(paths, []string{"/music/c.mp3", "/music/a.flac"}); ineqs != nil {
		t.Fatal("unexpected exported tracks:", ineqs)
	}
	if p.Tracks[0].Length != 180*time.Second {
		t.Fatalf("unexpected length %v", p.Tracks[0].Length)
	}
}

func TestExportUnknownPlaylist(t *testing.T) {
	s, _, _ := newTestState()

	var got error
	s.ExportPlaylist("missing", "/tmp/x.m3u", func(err error) { got = err })

	if got == nil {
		t.Fatal("expected error for unknown playlist")
	}
}
