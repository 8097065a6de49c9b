package models

type TrackType string

const (
	TrackTypeTrack   TrackType = "track"
	TrackTypeEpisode TrackType = "episode"
)

type CollectionType string

const (
	CollectionPlaylist CollectionType = "playlist"
	CollectionAlbum    CollectionType = "album"
)

// UnknownArtist is used when a collection item carries no named artist.
const UnknownArtist = "Unknown Artist"

// Track is a single resolved item ready to be searched for and downloaded.
type Track struct {
	Name         string
	Performers   string
	ThumbnailURL string // empty when no cover art is known
	Type         TrackType
	SearchQuery  string
}

// NewTrack builds a Track and derives its search query.
func NewTrack(name, performers, thumbnailURL string, trackType TrackType) Track {
	return Track{
		Name:         name,
		Performers:   performers,
		ThumbnailURL: thumbnailURL,
		Type:         trackType,
		SearchQuery:  SearchQuery(performers, name),
	}
}

// SearchQuery joins performers and name with a single " - " separator.
func SearchQuery(performers, name string) string {
	return performers + " - " + name
}

// DisplayName is the "performer - title" form used for file names.
func (t Track) DisplayName() string {
	return t.Performers + " - " + t.Name
}

type Collection struct {
	Type   CollectionType
	Name   string
	Tracks []Track
}

func (c *Collection) Len() int {
	return len(c.Tracks)
}
