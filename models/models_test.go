package models

import (
	"errors"
	"io"
	"testing"
)

func TestNewTrackSearchQuery(t *testing.T) {
	tests := []struct {
		name       string
		track      string
		performers string
		want       string
	}{
		{"single artist", "Song", "Artist", "Artist - Song"},
		{"multiple artists", "Song", "A, B", "A, B - Song"},
		{"unknown artist", "Song", UnknownArtist, "Unknown Artist - Song"},
		{"dash in title", "Intro - Live", "Band", "Band - Intro - Live"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewTrack(tt.track, tt.performers, "", TrackTypeTrack)
			if got.SearchQuery != tt.want {
				t.Errorf("SearchQuery = %q, want %q", got.SearchQuery, tt.want)
			}
			if got.DisplayName() != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got.DisplayName(), tt.want)
			}
		})
	}
}

func TestParseDownloadSource(t *testing.T) {
	tests := []struct {
		value   string
		want    DownloadSource
		wantErr bool
	}{
		{"youtube", SourceYouTube, false},
		{"soundcloud", SourceSoundCloud, false},
		{"deezer", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseDownloadSource(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDownloadSource(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDownloadSource(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestPlatformIsCatalog(t *testing.T) {
	catalogs := map[Platform]bool{
		PlatformSpotify:    true,
		PlatformAppleMusic: true,
		PlatformYouTube:    false,
		PlatformSoundCloud: false,
		PlatformDeezer:     false,
		PlatformNone:       false,
	}
	for platform, want := range catalogs {
		if got := platform.IsCatalog(); got != want {
			t.Errorf("%q.IsCatalog() = %v, want %v", platform, got, want)
		}
	}
}

func TestErrorsUnwrap(t *testing.T) {
	cause := io.ErrUnexpectedEOF

	var resolution *ResolutionError
	if err := error(&ResolutionError{Reference: "ref", Err: cause}); !errors.As(err, &resolution) || !errors.Is(err, cause) {
		t.Errorf("ResolutionError does not unwrap to its cause")
	}
	var fetch *FetchError
	if err := error(&FetchError{URL: "u", Err: cause}); !errors.As(err, &fetch) || !errors.Is(err, cause) {
		t.Errorf("FetchError does not unwrap to its cause")
	}
	var tag *TagError
	if err := error(&TagError{Path: "p", Err: cause}); !errors.As(err, &tag) || !errors.Is(err, cause) {
		t.Errorf("TagError does not unwrap to its cause")
	}
}
