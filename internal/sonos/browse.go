package sonos

import "context"

// Category is a music library container in the ContentDirectory
// hierarchy.
type Category string

// Library categories socos can search.
const (
	CategoryTracks         Category = "A:TRACKS"
	CategoryAlbums         Category = "A:ALBUM"
	CategoryArtists        Category = "A:ARTIST"
	CategoryPlaylists      Category = "A:PLAYLISTS"
	CategorySonosPlaylists Category = "SQ:"
)

// SearchLibrary browses a music library category. An empty term lists
// everything in the category; otherwise the device performs a fuzzy
// match on the term.
func (s *Speaker) SearchLibrary(ctx context.Context, category Category, term string) ([]Item, error) {
	objectID := string(category)
	if term != "" {
		if category == CategorySonosPlaylists {
			objectID += term
		} else {
			objectID += ":" + term
		}
	}
	return s.browse(ctx, objectID)
}
