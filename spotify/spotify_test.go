package spotify

import (
	"testing"
)

func TestParseSpotifyURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    SpotifyRequest
		wantErr bool
	}{
		{
			name: "track",
			url:  "https://open.spotify.com/track/0VjIjW4GlUZAMYd2vXMi3b",
			want: SpotifyRequest{TrackID: "0VjIjW4GlUZAMYd2vXMi3b"},
		},
		{
			name: "track with si query",
			url:  "https://open.spotify.com/track/0VjIjW4GlUZAMYd2vXMi3b?si=abc123",
			want: SpotifyRequest{TrackID: "0VjIjW4GlUZAMYd2vXMi3b"},
		},
		{
			name: "track without scheme",
			url:  "open.spotify.com/track/abc",
			want: SpotifyRequest{TrackID: "abc"},
		},
		{
			name: "track with locale",
			url:  "https://open.spotify.com/intl-de/track/abc",
			want: SpotifyRequest{TrackID: "abc"},
		},
		{
			name: "playlist",
			url:  "https://open.spotify.com/playlist/37i9dQZF1DXcBWIGoYBM5M",
			want: SpotifyRequest{PlaylistID: "37i9dQZF1DXcBWIGoYBM5M"},
		},
		{
			name: "album",
			url:  "https://open.spotify.com/album/4yP0hdKOZPNshxUOjY0cZj",
			want: SpotifyRequest{AlbumID: "4yP0hdKOZPNshxUOjY0cZj"},
		},
		{
			name: "episode",
			url:  "https://open.spotify.com/episode/512ojhOuo1ktJprKbVcKyQ",
			want: SpotifyRequest{EpisodeID: "512ojhOuo1ktJprKbVcKyQ"},
		},
		{
			name: "artist",
			url:  "https://open.spotify.com/artist/4NHQPlJsbc7kbJTwq0B3lD",
			want: SpotifyRequest{ArtistID: "4NHQPlJsbc7kbJTwq0B3lD"},
		},
		{
			name: "uri",
			url:  "spotify:track:0VjIjW4GlUZAMYd2vXMi3b",
			want: SpotifyRequest{TrackID: "0VjIjW4GlUZAMYd2vXMi3b"},
		},
		{
			name:    "short uri",
			url:     "spotify:track",
			wantErr: true,
		},
		{
			name:    "invalid domain",
			url:     "https://example.com/track/abc",
			wantErr: true,
		},
		{
			name:    "missing id",
			url:     "https://open.spotify.com/track/",
			wantErr: true,
		},
		{
			name:    "wrong path",
			url:     "https://open.spotify.com/wrong/abc",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpotifyURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseSpotifyURL() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("ParseSpotifyURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContentKind(t *testing.T) {
	tests := []struct {
		url          string
		want         Kind
		isCollection bool
	}{
		{"open.spotify.com/track/abc", KindTrack, false},
		{"open.spotify.com/playlist/xyz", KindPlaylist, true},
		{"https://open.spotify.com/album/xyz", KindAlbum, true},
		{"https://open.spotify.com/episode/xyz", KindEpisode, false},
		{"spotify:playlist:xyz", KindPlaylist, true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got := ContentKind(tt.url)
			if got != tt.want {
				t.Errorf("ContentKind(%q) = %q, want %q", tt.url, got, tt.want)
			}
			if got.IsCollection() != tt.isCollection {
				t.Errorf("ContentKind(%q).IsCollection() = %v, want %v", tt.url, got.IsCollection(), tt.isCollection)
			}
		})
	}
}
