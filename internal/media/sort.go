package media

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/pkg/errors"
)

// SortField is the item attribute to sort by.
type SortField string

const (
	SortTitle    SortField = "title"
	SortArtist   SortField = "artist"
	SortAlbum    SortField = "album"
	SortDuration SortField = "duration"
	SortSize     SortField = "size"
)

// ErrUnknownSortField is returned by ParseSortField.
var ErrUnknownSortField = errors.New("unknown sort field")

// ParseSortField parses a SortField. An empty string means SortTitle.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(strings.ToLower(s)); f {
	case "":
		return SortTitle, nil
	case SortTitle, SortArtist, SortAlbum, SortDuration, SortSize:
		return f, nil
	default:
		return "", errors.Wrapf(ErrUnknownSortField, "%q", s)
	}
}

// itemSorter sorts a slice of items in place. Missing strings sort as empty
// strings and missing numbers as zero, so unknown values come first in
// ascending order.
type itemSorter struct {
	items []*Item
	field SortField
	desc  bool
}

func (sorter itemSorter) Len() int {
	return len(sorter.items)
}

func (sorter itemSorter) Less(i, j int) bool {
	if sorter.desc {
		i, j = j, i
	}

	a, b := sorter.items[i], sorter.items[j]

	switch sorter.field {
	case SortArtist:
		return strings.ToLower(a.Artist) < strings.ToLower(b.Artist)
	case SortAlbum:
		return strings.ToLower(a.Album) < strings.ToLower(b.Album)
	case SortDuration:
		return a.Duration < b.Duration
	case SortSize:
		return a.Size < b.Size
	default:
		return strings.ToLower(a.Title) < strings.ToLower(b.Title)
	}
}

func (sorter itemSorter) Swap(i, j int) {
	sorter.items[i], sorter.items[j] = sorter.items[j], sorter.items[i]
}

// Sort sorts items in place by the given field. Equal items keep their
// relative order.
func Sort(items []*Item, field SortField, descending bool) {
	sort.Stable(itemSorter{
		items: items,
		field: field,
		desc:  descending,
	})
}

func sortRanks(ranks fuzzy.Ranks) {
	sort.Stable(ranks)
}
