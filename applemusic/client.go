package applemusic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"

	"tunedl/models"
)

const (
	defaultBaseURL = "https://music.apple.com"
	browserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client resolves Apple Music track links by reading the public storefront page.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Entry
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		logger:     log.WithField("module", "applemusic"),
	}
}

// GetTrackInfo resolves a track link. Album and playlist links are rejected.
func (c *Client) GetTrackInfo(ctx context.Context, ref string) (models.Track, error) {
	link, err := ParseAppleMusicURL(ref)
	if err != nil {
		return models.Track{}, &models.ResolutionError{Reference: ref, Err: err}
	}
	if !link.IsTrack() {
		return models.Track{}, &models.ResolutionError{
			Reference: ref,
			Err:       errors.New("only Apple Music track links are supported"),
		}
	}

	span := sentry.StartSpan(ctx, "applemusic.get_track")
	span.Description = "Read Apple Music track page"
	span.SetTag("country", link.Country)
	span.SetTag("track_id", link.TrackID)
	defer span.Finish()

	page, err := c.fetchTrackPage(span.Context(), link)
	if err != nil {
		c.logger.Errorf("failed to read %s: %v", ref, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return models.Track{}, &models.ResolutionError{Reference: ref, Err: err}
	}

	span.Status = sentry.SpanStatusOK
	span.SetData("track_title", page.Title)
	span.SetData("track_album", page.Album)
	c.logger.Debugf("resolved '%s' by %v", page.Title, page.Artists)

	return models.NewTrack(page.Title, strings.Join(page.Artists, ", "), page.ArtworkURL, models.TrackTypeTrack), nil
}

func (c *Client) fetchTrackPage(ctx context.Context, link Link) (pageTrack, error) {
	pageURL := c.baseURL + link.pagePath()
	c.logger.Tracef("fetching %s", pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return pageTrack{}, err
	}
	// The storefront serves a stripped page to unknown agents.
	req.Header.Set("User-Agent", browserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pageTrack{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return pageTrack{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return pageTrack{}, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return readPage(doc)
}
