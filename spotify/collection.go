package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	spotifyclient "github.com/zmb3/spotify/v2"

	"tunedl/models"
)

const (
	playlistPageLimit = 100
	albumPageLimit    = 50
)

// GetCollection expands a playlist or album link into its ordered tracks.
// Items without a track or a name are skipped; a collection without any
// usable track returns models.ErrCollectionEmpty.
func (c *Client) GetCollection(ctx context.Context, ref string, kind models.CollectionType) (models.Collection, error) {
	request, err := ParseSpotifyURL(ref)
	if err != nil {
		return models.Collection{}, &models.ResolutionError{Reference: ref, Err: err}
	}

	span := sentry.StartSpan(ctx, "spotify.get_collection")
	span.Description = "Expand Spotify collection"
	span.SetTag("kind", string(kind))
	defer span.Finish()

	var collection models.Collection
	switch kind {
	case models.CollectionPlaylist:
		if request.PlaylistID == "" {
			err = errors.New("link is not a playlist")
			break
		}
		collection, err = c.getPlaylist(span.Context(), request.PlaylistID)
	case models.CollectionAlbum:
		if request.AlbumID == "" {
			err = errors.New("link is not an album")
			break
		}
		collection, err = c.getAlbum(span.Context(), request.AlbumID)
	default:
		err = fmt.Errorf("unsupported collection type %q", kind)
	}
	if err != nil {
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return models.Collection{}, &models.ResolutionError{Reference: ref, Err: err}
	}

	if len(collection.Tracks) == 0 {
		c.logger.Warnf("Spotify %s %s has no usable tracks", kind, ref)
		span.Status = sentry.SpanStatusNotFound
		return models.Collection{}, models.ErrCollectionEmpty
	}

	span.Status = sentry.SpanStatusOK
	span.SetData("tracks_count", len(collection.Tracks))
	c.logger.Debugf("Expanded Spotify %s into %d tracks", kind, len(collection.Tracks))
	return collection, nil
}

func (c *Client) getPlaylist(ctx context.Context, playlistID string) (models.Collection, error) {
	logger := c.logger.WithFields(log.Fields{"function": "getPlaylist", "playlist_id": playlistID})

	playlist, err := c.api.GetPlaylist(ctx, spotifyclient.ID(playlistID), spotifyclient.Fields("name"))
	if err != nil {
		logger.Errorf("Failed to fetch playlist: %v", err)
		return models.Collection{}, err
	}

	page, err := c.api.GetPlaylistItems(ctx, spotifyclient.ID(playlistID), spotifyclient.Limit(playlistPageLimit))
	if err != nil {
		logger.Errorf("Failed to fetch playlist items: %v", err)
		return models.Collection{}, err
	}
	items := page.Items

	// an empty page can still carry a next link, so only Next ends the loop
	for page.Next != "" {
		offset := nextOffset(page.Offset, page.Limit, playlistPageLimit)
		logger.Tracef("Fetching next playlist page at offset %d", offset)
		page, err = c.api.GetPlaylistItems(ctx, spotifyclient.ID(playlistID),
			spotifyclient.Limit(playlistPageLimit), spotifyclient.Offset(offset))
		if err != nil {
			logger.Errorf("Failed to fetch playlist page at offset %d: %v", offset, err)
			return models.Collection{}, fmt.Errorf("failed to fetch playlist page at offset %d: %w", offset, err)
		}
		items = append(items, page.Items...)
	}

	return models.Collection{
		Type:   models.CollectionPlaylist,
		Name:   playlist.Name,
		Tracks: expandPlaylistItems(items, logger),
	}, nil
}

func (c *Client) getAlbum(ctx context.Context, albumID string) (models.Collection, error) {
	logger := c.logger.WithFields(log.Fields{"function": "getAlbum", "album_id": albumID})

	// the album cover is shared by every track, so it is fetched once
	album, err := c.api.GetAlbum(ctx, spotifyclient.ID(albumID))
	if err != nil {
		logger.Errorf("Failed to fetch album: %v", err)
		return models.Collection{}, err
	}
	thumbnail := firstImageURL(album.Images)

	page, err := c.api.GetAlbumTracks(ctx, spotifyclient.ID(albumID), spotifyclient.Limit(albumPageLimit))
	if err != nil {
		logger.Errorf("Failed to fetch album tracks: %v", err)
		return models.Collection{}, err
	}
	tracks := page.Tracks

	for page.Next != "" {
		offset := nextOffset(page.Offset, page.Limit, albumPageLimit)
		page, err = c.api.GetAlbumTracks(ctx, spotifyclient.ID(albumID),
			spotifyclient.Limit(albumPageLimit), spotifyclient.Offset(offset))
		if err != nil {
			logger.Errorf("Failed to fetch album page at offset %d: %v", offset, err)
			return models.Collection{}, fmt.Errorf("failed to fetch album page at offset %d: %w", offset, err)
		}
		tracks = append(tracks, page.Tracks...)
	}

	return models.Collection{
		Type:   models.CollectionAlbum,
		Name:   album.Name,
		Tracks: expandAlbumTracks(tracks, thumbnail, logger),
	}, nil
}

// nextOffset is where the page after one starting at offset begins. The page's
// own limit wins over the requested one.
func nextOffset(offset, limit spotifyclient.Numeric, requested int) int {
	if limit <= 0 {
		return int(offset) + requested
	}
	return int(offset + limit)
}

func expandPlaylistItems(items []spotifyclient.PlaylistItem, logger *log.Entry) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for i, item := range items {
		// episodes and unavailable tracks come back without a track payload
		track := item.Track.Track
		if track == nil {
			logger.Warnf("Skipping playlist item %d: missing track data", i+1)
			continue
		}
		if track.Name == "" {
			logger.Warnf("Skipping playlist item %d: missing track name", i+1)
			continue
		}

		tracks = append(tracks, models.NewTrack(
			track.Name,
			performersOrUnknown(track.Artists),
			firstImageURL(track.Album.Images),
			models.TrackTypeTrack,
		))
	}
	return tracks
}

func expandAlbumTracks(items []spotifyclient.SimpleTrack, thumbnail string, logger *log.Entry) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for i, track := range items {
		if track.Name == "" {
			logger.Warnf("Skipping album track %d: missing track name", i+1)
			continue
		}
		tracks = append(tracks, models.NewTrack(
			track.Name,
			performersOrUnknown(track.Artists),
			thumbnail,
			models.TrackTypeTrack,
		))
	}
	return tracks
}

// performersOrUnknown joins the non-empty artist names, falling back to
// models.UnknownArtist.
func performersOrUnknown(artists []spotifyclient.SimpleArtist) string {
	names := make([]string, 0, len(artists))
	for _, artist := range artists {
		if artist.Name != "" {
			names = append(names, artist.Name)
		}
	}
	if len(names) == 0 {
		return models.UnknownArtist
	}
	return strings.Join(names, ", ")
}
