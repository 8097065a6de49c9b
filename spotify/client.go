package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"tunedl/helpers"
	"tunedl/models"
)

var ErrInvalidURL = errors.New("invalid Spotify URL")

// catalogAPI is the subset of the Spotify Web API client used here.
type catalogAPI interface {
	GetTrack(ctx context.Context, id spotifyclient.ID, opts ...spotifyclient.RequestOption) (*spotifyclient.FullTrack, error)
	GetEpisode(ctx context.Context, id string, opts ...spotifyclient.RequestOption) (*spotifyclient.EpisodePage, error)
	GetAlbum(ctx context.Context, id spotifyclient.ID, opts ...spotifyclient.RequestOption) (*spotifyclient.FullAlbum, error)
	GetAlbumTracks(ctx context.Context, id spotifyclient.ID, opts ...spotifyclient.RequestOption) (*spotifyclient.SimpleTrackPage, error)
	GetPlaylist(ctx context.Context, playlistID spotifyclient.ID, opts ...spotifyclient.RequestOption) (*spotifyclient.FullPlaylist, error)
	GetPlaylistItems(ctx context.Context, playlistID spotifyclient.ID, opts ...spotifyclient.RequestOption) (*spotifyclient.PlaylistItemPage, error)
	Search(ctx context.Context, query string, t spotifyclient.SearchType, opts ...spotifyclient.RequestOption) (*spotifyclient.SearchResult, error)
}

type SpotifyRequest struct {
	TrackID    string
	PlaylistID string
	AlbumID    string
	ArtistID   string
	EpisodeID  string
}

// Kind is the content kind of a Spotify link.
type Kind string

const (
	KindTrack    Kind = "track"
	KindEpisode  Kind = "episode"
	KindPlaylist Kind = "playlist"
	KindAlbum    Kind = "album"
)

func (k Kind) IsCollection() bool {
	return k == KindPlaylist || k == KindAlbum
}

type Client struct {
	api    catalogAPI
	logger *log.Entry
}

func NewClient(ctx context.Context, clientID, clientSecret string) (*Client, error) {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	// fail fast on bad credentials; config.Client refreshes the token afterwards
	if _, err := config.Token(ctx); err != nil {
		sentry.CaptureException(err)
		return nil, fmt.Errorf("spotify authentication failed: %w", err)
	}

	return newClient(spotifyclient.New(config.Client(ctx))), nil
}

func newClient(api catalogAPI) *Client {
	return &Client{
		api: api,
		logger: log.WithFields(log.Fields{
			"module": "spotify",
		}),
	}
}

// ContentKind detects what a Spotify link points to. Playlists are checked
// before albums and episodes; everything else is treated as a track.
func ContentKind(ref string) Kind {
	switch {
	case strings.Contains(ref, "playlist"):
		return KindPlaylist
	case strings.Contains(ref, "album"):
		return KindAlbum
	case strings.Contains(ref, "episode"):
		return KindEpisode
	default:
		return KindTrack
	}
}

// GetTrackInfo resolves a track or episode link into a Track.
func (c *Client) GetTrackInfo(ctx context.Context, ref string) (models.Track, error) {
	request, err := ParseSpotifyURL(ref)
	if err != nil {
		return models.Track{}, &models.ResolutionError{Reference: ref, Err: err}
	}

	if request.EpisodeID != "" {
		return c.getEpisode(ctx, ref, request.EpisodeID)
	}
	if request.TrackID == "" {
		return models.Track{}, &models.ResolutionError{Reference: ref, Err: errors.New("link is not a track or episode")}
	}
	return c.getTrack(ctx, ref, request.TrackID)
}

func (c *Client) getTrack(ctx context.Context, ref, trackID string) (models.Track, error) {
	c.logger.Tracef("Fetching track from Spotify API: %s", trackID)

	span := sentry.StartSpan(ctx, "spotify.get_track")
	span.Description = "Get track from Spotify API"
	span.SetTag("track_id", trackID)
	defer span.Finish()

	track, err := c.api.GetTrack(span.Context(), spotifyclient.ID(trackID))
	if err != nil {
		c.logger.Errorf("Failed to fetch Spotify track %s: %v", trackID, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return models.Track{}, &models.ResolutionError{Reference: ref, Err: err}
	}

	performers := artistNames(track.Artists)
	thumbnail := firstImageURL(track.Album.Images)

	c.logger.Debugf("Successfully fetched Spotify track: '%s' by %s", track.Name, performers)
	span.Status = sentry.SpanStatusOK
	return models.NewTrack(track.Name, performers, thumbnail, models.TrackTypeTrack), nil
}

func (c *Client) getEpisode(ctx context.Context, ref, episodeID string) (models.Track, error) {
	c.logger.Tracef("Fetching episode from Spotify API: %s", episodeID)

	span := sentry.StartSpan(ctx, "spotify.get_episode")
	span.Description = "Get episode from Spotify API"
	span.SetTag("episode_id", episodeID)
	defer span.Finish()

	episode, err := c.api.GetEpisode(span.Context(), episodeID)
	if err != nil {
		c.logger.Errorf("Failed to fetch Spotify episode %s: %v", episodeID, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return models.Track{}, &models.ResolutionError{Reference: ref, Err: err}
	}

	name := helpers.CleanTitle(episode.Name)
	thumbnail := firstImageURL(episode.Images)

	c.logger.Debugf("Successfully fetched Spotify episode: '%s' by %s", name, episode.Show.Publisher)
	span.Status = sentry.SpanStatusOK
	return models.NewTrack(name, episode.Show.Publisher, thumbnail, models.TrackTypeEpisode), nil
}

// Search returns up to limit tracks matching a free-text query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	span := sentry.StartSpan(ctx, "spotify.search")
	span.Description = "Search Spotify API"
	span.SetTag("query", query)
	defer span.Finish()

	results, err := c.api.Search(span.Context(), query, spotifyclient.SearchTypeTrack, spotifyclient.Limit(limit))
	if err != nil {
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("spotify search failed: %w", err)
	}

	tracks := []models.Track{}
	if results.Tracks != nil {
		for _, track := range results.Tracks.Tracks {
			tracks = append(tracks, models.NewTrack(
				track.Name,
				artistNames(track.Artists),
				firstImageURL(track.Album.Images),
				models.TrackTypeTrack,
			))
			if len(tracks) == limit {
				break
			}
		}
	}

	span.Status = sentry.SpanStatusOK
	span.SetData("results_count", len(tracks))
	return tracks, nil
}

// ParseSpotifyURL accepts open.spotify.com links (with or without scheme,
// locale prefix or query string) and spotify: URIs.
func ParseSpotifyURL(url string) (SpotifyRequest, error) {
	url = strings.TrimSpace(url)

	var kind, id string
	if strings.HasPrefix(url, "spotify:") {
		parts := strings.Split(url, ":")
		if len(parts) < 3 {
			log.Warnf("Invalid Spotify URI format: %s", url)
			return SpotifyRequest{}, ErrInvalidURL
		}
		kind, id = parts[1], parts[2]
	} else {
		idx := strings.Index(url, "open.spotify.com/")
		if idx == -1 {
			log.Warnf("URL is not an open.spotify.com link: %s", url)
			return SpotifyRequest{}, ErrInvalidURL
		}
		path := url[idx+len("open.spotify.com/"):]
		// Strip query parameters from ID (e.g., ?si=tracking_id)
		path = strings.SplitN(path, "?", 2)[0]
		parts := strings.Split(strings.Trim(path, "/"), "/")
		if len(parts) > 0 && strings.HasPrefix(parts[0], "intl-") {
			parts = parts[1:]
		}
		if len(parts) < 2 {
			log.Warnf("Invalid Spotify URL format (too few parts): %s", url)
			return SpotifyRequest{}, ErrInvalidURL
		}
		kind, id = parts[0], parts[1]
	}

	if id == "" {
		return SpotifyRequest{}, ErrInvalidURL
	}

	request := SpotifyRequest{}
	switch kind {
	case "track":
		request.TrackID = id
	case "episode":
		request.EpisodeID = id
	case "playlist":
		request.PlaylistID = id
	case "album":
		request.AlbumID = id
	case "artist":
		request.ArtistID = id
	default:
		log.Warnf("Unsupported Spotify link type %q: %s", kind, url)
		return SpotifyRequest{}, ErrInvalidURL
	}
	log.Tracef("Parsed Spotify %s link: %s", kind, id)

	return request, nil
}

// artistNames joins every artist name, as returned for single tracks.
func artistNames(artists []spotifyclient.SimpleArtist) string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		names = append(names, artist.Name)
	}
	return strings.Join(names, ", ")
}

func firstImageURL(images []spotifyclient.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}
