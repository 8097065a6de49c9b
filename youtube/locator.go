package youtube

import (
	"context"
	"fmt"
	"html"
	"strconv"

	sentry "github.com/getsentry/sentry-go"
	"github.com/lrstanley/go-ytdlp"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"google.golang.org/api/option"
	ytapi "google.golang.org/api/youtube/v3"

	"tunedl/models"
)

const watchURL = "https://www.youtube.com/watch?v="

// Hit is one search result offered to the user.
type Hit struct {
	Title string
	URL   string
}

// searchRunner runs a yt-dlp flat search and returns the JSON document it printed.
type searchRunner func(ctx context.Context, search string) (string, error)

// Locator turns a free-text query into a media URL on a download source.
type Locator struct {
	run         searchRunner
	apiKey      string
	apiEndpoint string
	logger      *log.Entry
}

// NewLocator builds a Locator backed by yt-dlp. When apiKey is set, youtube
// lookups go through the YouTube Data API instead.
func NewLocator(apiKey string) *Locator {
	return &Locator{
		run:    runYtdlpSearch,
		apiKey: apiKey,
		logger: log.WithFields(log.Fields{
			"module": "youtube",
		}),
	}
}

func runYtdlpSearch(ctx context.Context, search string) (string, error) {
	result, err := ytdlp.New().
		FlatPlaylist().
		DumpSingleJSON().
		Quiet().
		NoWarnings().
		Run(ctx, search)
	if err != nil {
		return "", err
	}
	return result.Stdout, nil
}

func searchPrefix(source models.DownloadSource, n int) (string, error) {
	switch source {
	case models.SourceYouTube:
		return "ytsearch" + strconv.Itoa(n) + ":", nil
	case models.SourceSoundCloud:
		return "scsearch" + strconv.Itoa(n) + ":", nil
	default:
		return "", fmt.Errorf("unsupported download source %q", source)
	}
}

// Locate returns the URL of the single best match for query on source.
func (l *Locator) Locate(ctx context.Context, source models.DownloadSource, query string) (string, error) {
	logger := l.logger.WithFields(log.Fields{"source": source, "query": query})

	if source == models.SourceYouTube && l.apiKey != "" {
		return l.locateWithAPI(ctx, query)
	}

	hits, err := l.Search(ctx, source, query, 1)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		logger.Warn("no media found")
		return "", models.ErrLocatorMiss
	}

	logger.Debugf("located %s", hits[0].URL)
	return hits[0].URL, nil
}

// Search returns up to n hits for query on source, in the order the backend ranked them.
func (l *Locator) Search(ctx context.Context, source models.DownloadSource, query string, n int) ([]Hit, error) {
	prefix, err := searchPrefix(source, n)
	if err != nil {
		return nil, err
	}

	span := sentry.StartSpan(ctx, "youtube.search")
	span.Description = "Search " + string(source) + " via yt-dlp"
	span.SetTag("source", string(source))
	span.SetTag("query", query)
	defer span.Finish()

	output, err := l.run(span.Context(), prefix+query)
	if err != nil {
		l.logger.Errorf("error searching %s: %v", source, err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return nil, fmt.Errorf("search on %s failed: %w", source, err)
	}

	hits := parseSearchOutput(output, n)
	span.Status = sentry.SpanStatusOK
	span.SetData("results_count", len(hits))
	l.logger.Tracef("found %d results on %s", len(hits), source)
	return hits, nil
}

func parseSearchOutput(output string, n int) []Hit {
	if !gjson.Valid(output) {
		return nil
	}

	hits := make([]Hit, 0, n)
	gjson.Get(output, "entries").ForEach(func(_, entry gjson.Result) bool {
		url := entry.Get("webpage_url").String()
		if url == "" {
			url = entry.Get("url").String()
		}
		if url == "" {
			return true
		}
		hits = append(hits, Hit{
			Title: entry.Get("title").String(),
			URL:   url,
		})
		return len(hits) < n
	})
	return hits
}

func (l *Locator) locateWithAPI(ctx context.Context, query string) (string, error) {
	span := sentry.StartSpan(ctx, "youtube.search")
	span.Description = "Search YouTube API"
	span.SetTag("query", query)
	defer span.Finish()

	opts := []option.ClientOption{option.WithAPIKey(l.apiKey)}
	if l.apiEndpoint != "" {
		opts = append(opts, option.WithEndpoint(l.apiEndpoint))
	}

	service, err := ytapi.NewService(span.Context(), opts...)
	if err != nil {
		l.logger.Errorf("error creating YouTube client: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return "", fmt.Errorf("error creating YouTube client: %w", err)
	}

	response, err := service.Search.List([]string{"snippet"}).
		Q(query).
		MaxResults(1).
		Type("video").
		VideoCategoryId("10").
		Context(span.Context()).
		Do()
	if err != nil {
		l.logger.Errorf("error querying YouTube: %v", err)
		sentry.CaptureException(err)
		span.Status = sentry.SpanStatusInternalError
		return "", fmt.Errorf("error querying YouTube: %w", err)
	}

	for _, item := range response.Items {
		if item.Id == nil || item.Id.Kind != "youtube#video" {
			continue
		}
		if item.Snippet != nil {
			l.logger.Tracef("video found: %v", html.UnescapeString(item.Snippet.Title))
		}
		span.Status = sentry.SpanStatusOK
		return watchURL + item.Id.VideoId, nil
	}

	span.Status = sentry.SpanStatusNotFound
	return "", models.ErrLocatorMiss
}
