package media

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Library is the insertion-ordered collection of known items, uniqued by ID.
// The zero value is an empty library. It is not thread-safe.
type Library struct {
	items []*Item
}

// NewLibrary creates a library from the given items, dropping nil items and
// later duplicates.
func NewLibrary(items ...*Item) *Library {
	lib := &Library{items: make([]*Item, 0, len(items))}
	for _, item := range items {
		lib.Add(item)
	}
	return lib
}

// Len returns the number of items.
func (lib *Library) Len() int { return len(lib.items) }

// Items returns a copy of the ordered item list.
func (lib *Library) Items() []*Item {
	items := make([]*Item, len(lib.items))
	copy(items, lib.items)
	return items
}

// At returns the item at index i, or nil if i is out of bounds.
func (lib *Library) At(i int) *Item {
	if i < 0 || i >= len(lib.items) {
		return nil
	}
	return lib.items[i]
}

// Index returns the position of the item with the given ID, or -1.
func (lib *Library) Index(id string) int {
	for i, item := range lib.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the item with the given ID.
func (lib *Library) Get(id string) (*Item, bool) {
	if i := lib.Index(id); i >= 0 {
		return lib.items[i], true
	}
	return nil, false
}

// Add appends the item. It returns false and does nothing if the item is nil
// or an item with the same ID already exists.
func (lib *Library) Add(item *Item) bool {
	if item == nil || lib.Index(item.ID) >= 0 {
		return false
	}
	lib.items = append(lib.items, item)
	return true
}

// Remove removes the item with the given ID and returns it, or nil if there
// was none.
func (lib *Library) Remove(id string) *Item {
	i := lib.Index(id)
	if i < 0 {
		return nil
	}

	item := lib.items[i]

	// https://github.com/golang/go/wiki/SliceTricks
	copy(lib.items[i:], lib.items[i+1:])
	lib.items[len(lib.items)-1] = nil
	lib.items = lib.items[:len(lib.items)-1]

	return item
}

// Query filters the library. The zero value matches everything.
type Query struct {
	// Search is fuzzy-matched against the title and artist.
	Search string
	// Type, if not empty, only matches items of that type.
	Type Type
}

// Match returns true if the item satisfies the query.
func (q Query) Match(item *Item) bool {
	if q.Type != "" && item.Type != q.Type {
		return false
	}

	search := strings.TrimSpace(q.Search)
	if search == "" {
		return true
	}

	return fuzzy.MatchFold(search, item.Title) || fuzzy.MatchFold(search, item.Artist)
}

// Filter returns the items matching the query, in library order.
func (lib *Library) Filter(q Query) []*Item {
	var matched []*Item
	for _, item := range lib.items {
		if q.Match(item) {
			matched = append(matched, item)
		}
	}
	return matched
}

// Search returns items whose titles fuzzy-match the query, best matches first.
// Items that only match by artist follow in library order.
func (lib *Library) Search(query string) []*Item {
	query = strings.TrimSpace(query)
	if query == "" {
		return lib.Items()
	}

	titles := make([]string, len(lib.items))
	for i, item := range lib.items {
		titles[i] = item.Title
	}

	ranks := fuzzy.RankFindFold(query, titles)
	sortRanks(ranks)

	seen := make(map[int]struct{}, len(ranks))
	found := make([]*Item, 0, len(ranks))

	for _, rank := range ranks {
		seen[rank.OriginalIndex] = struct{}{}
		found = append(found, lib.items[rank.OriginalIndex])
	}

	for i, item := range lib.items {
		if _, ok := seen[i]; ok {
			continue
		}
		if fuzzy.MatchFold(query, item.Artist) {
			found = append(found, item)
		}
	}

	return found
}
