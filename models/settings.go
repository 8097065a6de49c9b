package models

import "fmt"

// DownloadSource is the backend that supplies the audio bytes.
type DownloadSource string

const (
	SourceYouTube    DownloadSource = "youtube"
	SourceSoundCloud DownloadSource = "soundcloud"
)

// DownloadSources is the enumerated list offered to the user, in menu order.
var DownloadSources = []DownloadSource{SourceYouTube, SourceSoundCloud}

func ParseDownloadSource(value string) (DownloadSource, error) {
	for _, source := range DownloadSources {
		if string(source) == value {
			return source, nil
		}
	}
	return "", fmt.Errorf("unknown download source %q", value)
}

// Platform identifies where a reference points to.
type Platform string

const (
	PlatformNone       Platform = ""
	PlatformSpotify    Platform = "spotify"
	PlatformAppleMusic Platform = "applemusic"
	PlatformYouTube    Platform = "youtube"
	PlatformSoundCloud Platform = "soundcloud"
	PlatformDeezer     Platform = "deezer"
)

// IsCatalog reports whether the platform only supplies metadata, so the audio
// has to be located on a download source.
func (p Platform) IsCatalog() bool {
	return p == PlatformSpotify || p == PlatformAppleMusic
}

// Settings are the user preferences read by the pipeline.
type Settings struct {
	AskSource       bool
	PreferredSource DownloadSource
}

func DefaultSettings() Settings {
	return Settings{
		AskSource:       false,
		PreferredSource: SourceYouTube,
	}
}
