package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"
	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"tunedl/models"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// LyricsSource looks up lyrics for a "performer - title" query.
type LyricsSource interface {
	Search(ctx context.Context, query string) (string, error)
}

// Tagger writes title, performer, cover art and optionally lyrics into
// downloaded mp3 files.
type Tagger struct {
	httpClient *http.Client
	lyrics     LyricsSource // nil disables lyrics
	logger     *log.Entry
}

func NewTagger(lyrics LyricsSource) *Tagger {
	return &Tagger{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		lyrics: lyrics,
		logger: log.WithFields(log.Fields{
			"module": "metadata",
		}),
	}
}

// Tag overwrites the title and performer of the file at path and embeds the
// track cover when it can be fetched. Cover and lyrics failures are logged and
// skipped; anything else comes back as a *models.TagError.
func (t *Tagger) Tag(ctx context.Context, path string, track models.Track) error {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".mp3" {
		return &models.TagError{Path: path, Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)}
	}

	id3, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return &models.TagError{Path: path, Err: err}
	}
	defer id3.Close()

	id3.SetDefaultEncoding(id3v2.EncodingUTF8)
	id3.SetTitle(track.Name)
	id3.SetArtist(track.Performers)

	if track.ThumbnailURL != "" {
		if cover, err := t.fetchCover(ctx, track.ThumbnailURL); err != nil {
			t.logger.WithField("url", track.ThumbnailURL).Warnf("skipping cover: %v", err)
		} else {
			id3.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    "image/jpeg",
				PictureType: id3v2.PTFrontCover,
				Description: "Cover",
				Picture:     cover,
			})
		}
	}

	if t.lyrics != nil {
		text, err := t.lyrics.Search(ctx, track.SearchQuery)
		switch {
		case err != nil:
			t.logger.WithField("query", track.SearchQuery).Warnf("skipping lyrics: %v", err)
		case text != "":
			id3.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
				Encoding:          id3v2.EncodingUTF8,
				Language:          "eng",
				ContentDescriptor: "",
				Lyrics:            text,
			})
		}
	}

	if err := id3.Save(); err != nil {
		sentry.CaptureException(err)
		return &models.TagError{Path: path, Err: err}
	}

	t.logger.Debugf("tagged %s", path)
	return nil
}

func (t *Tagger) fetchCover(ctx context.Context, coverURL string) ([]byte, error) {
	span := sentry.StartSpan(ctx, "metadata.cover")
	span.Description = "Fetch cover art"
	span.SetTag("url", coverURL)
	defer span.Finish()

	req, err := http.NewRequestWithContext(span.Context(), http.MethodGet, coverURL, nil)
	if err != nil {
		span.Status = sentry.SpanStatusInvalidArgument
		return nil, err
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		span.Status = sentry.SpanStatusUnavailable
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		span.Status = sentry.SpanStatusNotFound
		return nil, fmt.Errorf("cover request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
		return nil, err
	}

	span.Status = sentry.SpanStatusOK
	return body, nil
}

// ReadTitle returns the title stored in the tags of the audio file at path.
func ReadTitle(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", err
	}
	return m.Title(), nil
}
