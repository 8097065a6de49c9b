package spotify

import (
	"context"
	"errors"
	"testing"

	spotifyclient "github.com/zmb3/spotify/v2"

	"tunedl/models"
)

type fakeAPI struct {
	playlistPages []spotifyclient.PlaylistItemPage
	albumPages    []spotifyclient.SimpleTrackPage
	album         *spotifyclient.FullAlbum
	playlistName  string
	track         *spotifyclient.FullTrack
	episode       *spotifyclient.EpisodePage
	search        *spotifyclient.SearchResult
	err           error

	playlistCalls   int
	albumCalls      int
	albumTrackCalls int
}

func (f *fakeAPI) GetTrack(ctx context.Context, id spotifyclient.ID, opts ...spotifyclient.RequestOption) (*spotifyclient.FullTrack, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.track, nil
}

func (f *fakeAPI) GetEpisode(ctx context.Context, id string, opts ...spotifyclient.RequestOption) (*spotifyclient.EpisodePage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.episode, nil
}

func (f *fakeAPI) GetAlbum(ctx context.Context, id spotifyclient.ID, opts ...spotifyclient.RequestOption) (*spotifyclient.FullAlbum, error) {
	f.albumCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.album, nil
}

func (f *fakeAPI) GetAlbumTracks(ctx context.Context, id spotifyclient.ID, opts ...spotifyclient.RequestOption) (*spotifyclient.SimpleTrackPage, error) {
	if f.albumTrackCalls >= len(f.albumPages) {
		return nil, errors.New("no more album pages")
	}
	page := f.albumPages[f.albumTrackCalls]
	f.albumTrackCalls++
	return &page, nil
}

func (f *fakeAPI) GetPlaylist(ctx context.Context, playlistID spotifyclient.ID, opts ...spotifyclient.RequestOption) (*spotifyclient.FullPlaylist, error) {
	if f.err != nil {
		return nil, f.err
	}
	playlist := &spotifyclient.FullPlaylist{}
	playlist.Name = f.playlistName
	return playlist, nil
}

func (f *fakeAPI) GetPlaylistItems(ctx context.Context, playlistID spotifyclient.ID, opts ...spotifyclient.RequestOption) (*spotifyclient.PlaylistItemPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.playlistCalls >= len(f.playlistPages) {
		return nil, errors.New("no more playlist pages")
	}
	page := f.playlistPages[f.playlistCalls]
	f.playlistCalls++
	return &page, nil
}

func (f *fakeAPI) Search(ctx context.Context, query string, t spotifyclient.SearchType, opts ...spotifyclient.RequestOption) (*spotifyclient.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.search, nil
}

func fullTrack(name string, artists ...string) *spotifyclient.FullTrack {
	track := &spotifyclient.FullTrack{}
	track.Name = name
	for _, artist := range artists {
		track.Artists = append(track.Artists, spotifyclient.SimpleArtist{Name: artist})
	}
	return track
}

func playlistPage(next string, tracks ...*spotifyclient.FullTrack) spotifyclient.PlaylistItemPage {
	page := spotifyclient.PlaylistItemPage{}
	for _, track := range tracks {
		item := spotifyclient.PlaylistItem{}
		item.Track.Track = track
		page.Items = append(page.Items, item)
	}
	page.Next = next
	return page
}

func albumPage(next string, names ...string) spotifyclient.SimpleTrackPage {
	page := spotifyclient.SimpleTrackPage{}
	for _, name := range names {
		page.Tracks = append(page.Tracks, spotifyclient.SimpleTrack{
			Name:    name,
			Artists: []spotifyclient.SimpleArtist{{Name: "Band"}},
		})
	}
	page.Next = next
	return page
}

func TestGetCollectionPlaylistSkipsMalformedItems(t *testing.T) {
	withCover := fullTrack("A", "X")
	withCover.Album.Images = []spotifyclient.Image{{URL: "https://img/a.jpg"}}

	api := &fakeAPI{
		playlistPages: []spotifyclient.PlaylistItemPage{
			playlistPage("", withCover, nil, fullTrack("B")),
		},
	}
	client := newClient(api)

	got, err := client.GetCollection(context.Background(), "https://open.spotify.com/playlist/xyz", models.CollectionPlaylist)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}

	want := []models.Track{
		models.NewTrack("A", "X", "https://img/a.jpg", models.TrackTypeTrack),
		models.NewTrack("B", models.UnknownArtist, "", models.TrackTypeTrack),
	}
	if got.Type != models.CollectionPlaylist {
		t.Errorf("Type = %q, want playlist", got.Type)
	}
	if len(got.Tracks) != len(want) {
		t.Fatalf("got %d tracks, want %d: %+v", len(got.Tracks), len(want), got.Tracks)
	}
	for i := range want {
		if got.Tracks[i] != want[i] {
			t.Errorf("track %d = %+v, want %+v", i, got.Tracks[i], want[i])
		}
	}
}

func TestGetCollectionPlaylistFollowsPages(t *testing.T) {
	api := &fakeAPI{
		playlistPages: []spotifyclient.PlaylistItemPage{
			playlistPage("next-1", fullTrack("1", "A"), fullTrack("2", "A")),
			playlistPage("next-2", fullTrack("3", "A")),
			playlistPage("", fullTrack("4", "A")),
		},
	}
	client := newClient(api)

	got, err := client.GetCollection(context.Background(), "spotify:playlist:xyz", models.CollectionPlaylist)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}
	if api.playlistCalls != 3 {
		t.Errorf("playlist calls = %d, want 3", api.playlistCalls)
	}
	for i, name := range []string{"1", "2", "3", "4"} {
		if got.Tracks[i].Name != name {
			t.Errorf("track %d = %q, want %q (order must be preserved)", i, got.Tracks[i].Name, name)
		}
	}
}

func TestGetCollectionPlaylistEmptyPageWithNext(t *testing.T) {
	api := &fakeAPI{
		playlistName: "Road Trip",
		playlistPages: []spotifyclient.PlaylistItemPage{
			playlistPage("next-1", fullTrack("A", "X")),
			playlistPage("next-2"),
			playlistPage("", fullTrack("B", "X")),
		},
	}
	client := newClient(api)

	got, err := client.GetCollection(context.Background(), "https://open.spotify.com/playlist/xyz", models.CollectionPlaylist)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}
	if api.playlistCalls != 3 {
		t.Errorf("playlist calls = %d, want 3", api.playlistCalls)
	}
	if got.Name != "Road Trip" {
		t.Errorf("Name = %q, want Road Trip", got.Name)
	}
	if len(got.Tracks) != 2 || got.Tracks[0].Name != "A" || got.Tracks[1].Name != "B" {
		t.Errorf("Tracks = %+v, want A then B", got.Tracks)
	}
}

func TestGetCollectionAlbumEmptyPageWithNext(t *testing.T) {
	album := &spotifyclient.FullAlbum{}
	album.Name = "Record"
	api := &fakeAPI{
		album: album,
		albumPages: []spotifyclient.SimpleTrackPage{
			albumPage("next-1", "One"),
			albumPage("next-2"),
			albumPage("", "Two"),
		},
	}
	client := newClient(api)

	got, err := client.GetCollection(context.Background(), "https://open.spotify.com/album/abc", models.CollectionAlbum)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}
	if api.albumTrackCalls != 3 || len(got.Tracks) != 2 {
		t.Errorf("album track calls = %d, tracks = %+v", api.albumTrackCalls, got.Tracks)
	}
}

func TestNextOffset(t *testing.T) {
	tests := []struct {
		name      string
		offset    spotifyclient.Numeric
		limit     spotifyclient.Numeric
		requested int
		want      int
	}{
		{"page limit", 100, 100, 100, 200},
		{"smaller page limit", 0, 50, 100, 50},
		{"missing limit", 20, 0, 100, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextOffset(tt.offset, tt.limit, tt.requested); got != tt.want {
				t.Errorf("nextOffset(%d, %d, %d) = %d, want %d", tt.offset, tt.limit, tt.requested, got, tt.want)
			}
		})
	}
}

func TestGetCollectionEmpty(t *testing.T) {
	api := &fakeAPI{
		playlistPages: []spotifyclient.PlaylistItemPage{
			playlistPage("", nil, fullTrack("", "X")),
		},
	}
	client := newClient(api)

	_, err := client.GetCollection(context.Background(), "https://open.spotify.com/playlist/xyz", models.CollectionPlaylist)
	if !errors.Is(err, models.ErrCollectionEmpty) {
		t.Fatalf("GetCollection() error = %v, want ErrCollectionEmpty", err)
	}
}

func TestGetCollectionAlbumReusesCover(t *testing.T) {
	album := &spotifyclient.FullAlbum{}
	album.Name = "Record"
	album.Images = []spotifyclient.Image{{URL: "https://img/album.jpg"}, {URL: "https://img/small.jpg"}}

	api := &fakeAPI{
		album: album,
		albumPages: []spotifyclient.SimpleTrackPage{
			albumPage("next", "One", ""),
			albumPage("", "Two"),
		},
	}
	client := newClient(api)

	got, err := client.GetCollection(context.Background(), "https://open.spotify.com/album/abc", models.CollectionAlbum)
	if err != nil {
		t.Fatalf("GetCollection() error = %v", err)
	}
	if api.albumCalls != 1 {
		t.Errorf("album lookups = %d, want exactly 1", api.albumCalls)
	}
	if got.Name != "Record" {
		t.Errorf("Name = %q, want Record", got.Name)
	}
	if len(got.Tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(got.Tracks))
	}
	for _, track := range got.Tracks {
		if track.ThumbnailURL != "https://img/album.jpg" {
			t.Errorf("%s thumbnail = %q, want album cover", track.Name, track.ThumbnailURL)
		}
		if track.SearchQuery != "Band - "+track.Name {
			t.Errorf("SearchQuery = %q", track.SearchQuery)
		}
	}
}

func TestGetCollectionBackendError(t *testing.T) {
	client := newClient(&fakeAPI{err: errors.New("503")})

	_, err := client.GetCollection(context.Background(), "https://open.spotify.com/playlist/xyz", models.CollectionPlaylist)
	var resolution *models.ResolutionError
	if !errors.As(err, &resolution) {
		t.Fatalf("GetCollection() error = %v, want ResolutionError", err)
	}
}

func TestGetCollectionKindMismatch(t *testing.T) {
	client := newClient(&fakeAPI{})

	_, err := client.GetCollection(context.Background(), "https://open.spotify.com/track/abc", models.CollectionAlbum)
	var resolution *models.ResolutionError
	if !errors.As(err, &resolution) {
		t.Fatalf("GetCollection() error = %v, want ResolutionError", err)
	}
}

func TestPerformersOrUnknown(t *testing.T) {
	tests := []struct {
		name    string
		artists []spotifyclient.SimpleArtist
		want    string
	}{
		{"none", nil, models.UnknownArtist},
		{"all empty", []spotifyclient.SimpleArtist{{Name: ""}, {Name: ""}}, models.UnknownArtist},
		{"one", []spotifyclient.SimpleArtist{{Name: "X"}}, "X"},
		{"skips empty", []spotifyclient.SimpleArtist{{Name: "X"}, {Name: ""}, {Name: "Y"}}, "X, Y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := performersOrUnknown(tt.artists); got != tt.want {
				t.Errorf("performersOrUnknown() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetTrackInfo(t *testing.T) {
	track := fullTrack("Song", "A", "B")
	track.Album.Images = []spotifyclient.Image{{URL: "https://img/cover.jpg"}}
	client := newClient(&fakeAPI{track: track})

	got, err := client.GetTrackInfo(context.Background(), "https://open.spotify.com/track/abc")
	if err != nil {
		t.Fatalf("GetTrackInfo() error = %v", err)
	}
	want := models.NewTrack("Song", "A, B", "https://img/cover.jpg", models.TrackTypeTrack)
	if got != want {
		t.Errorf("GetTrackInfo() = %+v, want %+v", got, want)
	}
}

func TestGetTrackInfoEpisode(t *testing.T) {
	episode := &spotifyclient.EpisodePage{}
	episode.Name = "Episode 4 (BYPASS)"
	episode.Images = []spotifyclient.Image{{URL: "https://img/episode.jpg"}}
	episode.Show.Publisher = "Network"
	client := newClient(&fakeAPI{episode: episode})

	got, err := client.GetTrackInfo(context.Background(), "https://open.spotify.com/episode/abc")
	if err != nil {
		t.Fatalf("GetTrackInfo() error = %v", err)
	}
	want := models.NewTrack("Episode 4", "Network", "https://img/episode.jpg", models.TrackTypeEpisode)
	if got != want {
		t.Errorf("GetTrackInfo() = %+v, want %+v", got, want)
	}
}

func TestGetTrackInfoError(t *testing.T) {
	cause := errors.New("404 Not Found")
	client := newClient(&fakeAPI{err: cause})

	_, err := client.GetTrackInfo(context.Background(), "https://open.spotify.com/track/abc")
	var resolution *models.ResolutionError
	if !errors.As(err, &resolution) || !errors.Is(err, cause) {
		t.Fatalf("GetTrackInfo() error = %v, want ResolutionError wrapping the cause", err)
	}
}

func TestSearch(t *testing.T) {
	page := &spotifyclient.FullTrackPage{}
	page.Tracks = []spotifyclient.FullTrack{*fullTrack("One", "A"), *fullTrack("Two", "B", "C")}
	client := newClient(&fakeAPI{search: &spotifyclient.SearchResult{Tracks: page}})

	got, err := client.Search(context.Background(), "query", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 || got[1].Performers != "B, C" || got[1].SearchQuery != "B, C - Two" {
		t.Errorf("Search() = %+v", got)
	}
}
