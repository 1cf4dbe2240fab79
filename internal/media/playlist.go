package media

// Playlist is a named, ordered group of library items. Items are shared with
// the library; a playlist never holds the same item twice.
type Playlist struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Items []*Item `json:"items"`
}

// NewPlaylist creates an empty playlist.
func NewPlaylist(id, name string) *Playlist {
	return &Playlist{
		ID:    id,
		Name:  name,
		Items: []*Item{},
	}
}

// Index returns the position of the item with the given ID, or -1.
func (pl *Playlist) Index(id string) int {
	for i, item := range pl.Items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Contains returns true if the playlist holds an item with the given ID.
func (pl *Playlist) Contains(id string) bool {
	return pl.Index(id) >= 0
}

// Add appends the item unless the playlist already has it. It returns true if
// the item was added.
func (pl *Playlist) Add(item *Item) bool {
	if item == nil || pl.Contains(item.ID) {
		return false
	}
	pl.Items = append(pl.Items, item)
	return true
}

// Remove removes the item with the given ID. It returns true if an item was
// removed.
func (pl *Playlist) Remove(id string) bool {
	i := pl.Index(id)
	if i < 0 {
		return false
	}

	copy(pl.Items[i:], pl.Items[i+1:])
	pl.Items[len(pl.Items)-1] = nil
	pl.Items = pl.Items[:len(pl.Items)-1]

	return true
}

// Duration returns the sum of the known durations of the playlist's items.
func (pl *Playlist) Duration() float64 {
	var total float64
	for _, item := range pl.Items {
		total += item.Duration
	}
	return total
}
