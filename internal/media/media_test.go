package media

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-test/deep"
)

func items(ids ...string) []*Item {
	var items = make([]*Item, len(ids))
	for i, id := range ids {
		items[i] = &Item{
			ID:    id,
			Title: "Track " + id,
			URL:   "file:///music/" + id + ".flac",
			Type:  Audio,
		}
	}
	return items
}

func fmtItems(items []*Item) string {
	var builder strings.Builder
	for _, item := range items {
		fmt.Fprintf(&builder, "%q ", item.ID)
	}
	return builder.String()
}

func assertIDs(t *testing.T, got []*Item, ids ...string) {
	t.Helper()

	var gotIDs = make([]string, len(got))
	for i, item := range got {
		gotIDs[i] = item.ID
	}

	if ineqs := deep.Equal(gotIDs, ids); ineqs != nil {
		t.Errorf("got:      %s", fmtItems(got))
		t.Errorf("expected: %q", ids)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in   string
		out  Type
		fail bool
	}{
		{"audio", Audio, false},
		{" Video ", Video, false},
		{"image", "", true},
		{"", "", true},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			typ, err := ParseType(test.in)
			if test.fail {
				if err == nil {
					t.Fatal("expected error, got", typ)
				}
				return
			}
			if err != nil {
				t.Fatal("unexpected error:", err)
			}
			if typ != test.out {
				t.Fatalf("expected %q, got %q", test.out, typ)
			}
		})
	}
}

func TestLibraryAdd(t *testing.T) {
	lib := NewLibrary()

	for i, item := range items("a", "b", "c", "d") {
		if !lib.Add(item) {
			t.Fatalf("failed to add item %d", i)
		}
		if lib.Len() != i+1 {
			t.Fatalf("expected length %d, got %d", i+1, lib.Len())
		}
	}

	assertIDs(t, lib.Items(), "a", "b", "c", "d")

	if lib.Add(&Item{ID: "b"}) {
		t.Fatal("duplicate ID was added")
	}
	if lib.Add(nil) {
		t.Fatal("nil item was added")
	}

	assertIDs(t, lib.Items(), "a", "b", "c", "d")
}

func TestLibraryRemove(t *testing.T) {
	tests := []struct {
		name   string
		remove []string
		expect []string
	}{
		{"first", []string{"a"}, []string{"b", "c"}},
		{"between", []string{"b"}, []string{"a", "c"}},
		{"last", []string{"c"}, []string{"a", "b"}},
		{"unknown", []string{"z"}, []string{"a", "b", "c"}},
		{"all", []string{"c", "a", "b"}, []string{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			lib := NewLibrary(items("a", "b", "c")...)
			for _, id := range test.remove {
				lib.Remove(id)
			}
			assertIDs(t, lib.Items(), test.expect...)
		})
	}
}

func TestLibraryItemsIsCopy(t *testing.T) {
	lib := NewLibrary(items("a", "b")...)

	got := lib.Items()
	got[0] = &Item{ID: "z"}

	assertIDs(t, lib.Items(), "a", "b")
}

func TestLibraryFilter(t *testing.T) {
	lib := NewLibrary(
		&Item{ID: "1", Title: "Electric Dreams", Artist: "Synthwave Artist", Type: Audio},
		&Item{ID: "2", Title: "Neon Twilight", Artist: "Digital Rain", Type: Audio},
		&Item{ID: "3", Title: "Cosmic Journey", Artist: "Visual Arts", Type: Video},
	)

	tests := []struct {
		name   string
		query  Query
		expect []string
	}{
		{"everything", Query{}, []string{"1", "2", "3"}},
		{"audio only", Query{Type: Audio}, []string{"1", "2"}},
		{"video only", Query{Type: Video}, []string{"3"}},
		{"title", Query{Search: "neon"}, []string{"2"}},
		{"artist", Query{Search: "visual"}, []string{"3"}},
		{"fuzzy", Query{Search: "edrm"}, []string{"1"}},
		{"type and search", Query{Search: "neon", Type: Video}, []string{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assertIDs(t, nonNil(lib.Filter(test.query)), test.expect...)
		})
	}
}

func TestLibrarySearch(t *testing.T) {
	lib := NewLibrary(
		&Item{ID: "1", Title: "Starlight Overdrive", Artist: "Moon"},
		&Item{ID: "2", Title: "Star", Artist: "Sun"},
		&Item{ID: "3", Title: "Comet", Artist: "Stargazer"},
		&Item{ID: "4", Title: "Nothing", Artist: "Nobody"},
	)

	// Closest title first, then artist-only matches.
	assertIDs(t, lib.Search("star"), "2", "1", "3")
	assertIDs(t, lib.Search("  "), "1", "2", "3", "4")
}

func TestSort(t *testing.T) {
	unsorted := func() []*Item {
		return []*Item{
			{ID: "b", Title: "beta", Artist: "Zed", Duration: 30, Size: 1},
			{ID: "a", Title: "Alpha", Artist: "", Duration: 10, Size: 3},
			{ID: "c", Title: "gamma", Artist: "amy", Duration: 20, Size: 2},
		}
	}

	tests := []struct {
		field  SortField
		desc   bool
		expect []string
	}{
		{SortTitle, false, []string{"a", "b", "c"}},
		{SortTitle, true, []string{"c", "b", "a"}},
		{SortArtist, false, []string{"a", "c", "b"}},
		{SortDuration, false, []string{"a", "c", "b"}},
		{SortDuration, true, []string{"b", "c", "a"}},
		{SortSize, false, []string{"b", "c", "a"}},
	}

	for _, test := range tests {
		t.Run(fmt.Sprintf("%s desc=%v", test.field, test.desc), func(t *testing.T) {
			items := unsorted()
			Sort(items, test.field, test.desc)
			assertIDs(t, items, test.expect...)
		})
	}
}

func TestPlaylist(t *testing.T) {
	a, b, c := items("a", "b", "c")[0], items("b")[0], items("c")[0]

	pl := NewPlaylist("pl", "Favorites")

	if !pl.Add(a) || !pl.Add(b) || !pl.Add(c) {
		t.Fatal("failed to add distinct items")
	}
	if pl.Add(b) {
		t.Fatal("duplicate item was added")
	}
	assertIDs(t, pl.Items, "a", "b", "c")

	if !pl.Remove("b") {
		t.Fatal("failed to remove b")
	}
	if pl.Remove("b") {
		t.Fatal("removed b twice")
	}
	assertIDs(t, pl.Items, "a", "c")

	if !pl.Contains("c") || pl.Contains("b") {
		t.Fatal("Contains disagrees with Items")
	}
}

func nonNil(items []*Item) []*Item {
	if items == nil {
		return []*Item{}
	}
	return items
}

func TestTypeFromPath(t *testing.T) {
	tests := []struct {
		path   string
		expect Type
	}{
		{"/music/track.flac", Audio},
		{"/music/track.MP3", Audio},
		{"/videos/clip.mkv", Video},
		{"https://storage.googleapis.com/media-session/elephants-dream/progressive-hevc.mp4?x=1", Video},
		{"https://example.com/stream", Audio},
		{"C:/Users/me/Videos/a.webm", Video},
		{"/music/no-extension-at-all", Audio},
	}

	for _, test := range tests {
		if got := TypeFromPath(test.path); got != test.expect {
			t.Errorf("TypeFromPath(%q) = %q, expected %q", test.path, got, test.expect)
		}
	}
}
