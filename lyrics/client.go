// Package lyrics looks up song lyrics on lrclib.net.
package lyrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sentry "github.com/getsentry/sentry-go"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const defaultBaseURL = "https://lrclib.net"

var lrcTimestamp = regexp.MustCompile(`\[\d+:\d+\.\d+\]`)

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Entry
}

func New() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		logger:     log.WithField("module", "lyrics"),
	}
}

// Search returns the lyrics of the first lrclib match that has any, or "" when
// none does. Synced lyrics are returned without their timestamps.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	span := sentry.StartSpan(ctx, "lyrics.search")
	span.SetTag("query", query)
	defer span.Finish()

	endpoint := c.baseURL + "/api/search?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(span.Context(), http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.Status = sentry.SpanStatusUnavailable
		return "", fmt.Errorf("lrclib request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		span.Status = sentry.SpanStatusInternalError
		return "", fmt.Errorf("lrclib API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return "", errors.New("lrclib returned invalid JSON")
	}

	for _, hit := range gjson.ParseBytes(body).Array() {
		if plain := hit.Get("plainLyrics").String(); plain != "" {
			span.Status = sentry.SpanStatusOK
			return plain, nil
		}
		if synced := hit.Get("syncedLyrics").String(); synced != "" {
			span.Status = sentry.SpanStatusOK
			return strings.TrimSpace(lrcTimestamp.ReplaceAllString(synced, "")), nil
		}
	}

	c.logger.Tracef("no lyrics found for %q", query)
	span.Status = sentry.SpanStatusNotFound
	return "", nil
}
