package config

import "tunedl/models"

// PlatformMarkers maps a platform to the substrings that identify its links.
// Markers are expected to be disjoint between platforms; the first platform
// with a matching marker wins.
type PlatformMarkers struct {
	Platform models.Platform
	Markers  []string
}

func DefaultPlatforms() []PlatformMarkers {
	return []PlatformMarkers{
		{Platform: models.PlatformSpotify, Markers: []string{"open.spotify.com", "spotify:"}},
		{Platform: models.PlatformAppleMusic, Markers: []string{"music.apple.com", "itunes.apple.com"}},
		{Platform: models.PlatformYouTube, Markers: []string{"youtube.com", "youtu.be"}},
		{Platform: models.PlatformSoundCloud, Markers: []string{"soundcloud.com"}},
		{Platform: models.PlatformDeezer, Markers: []string{"deezer.com", "deezer.page.link"}},
	}
}
