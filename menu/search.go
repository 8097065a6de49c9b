package menu

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"

	"tunedl/controller"
	"tunedl/models"
	"tunedl/youtube"
)

// SearchResults holds up to five hits per backend, in the order shown.
type SearchResults struct {
	Spotify    []models.Track
	YouTube    []youtube.Hit
	SoundCloud []youtube.Hit
}

func (r SearchResults) count(platform models.Platform) int {
	switch platform {
	case models.PlatformSpotify:
		return len(r.Spotify)
	case models.PlatformYouTube:
		return len(r.YouTube)
	case models.PlatformSoundCloud:
		return len(r.SoundCloud)
	default:
		return 0
	}
}

// choicePrefixes are matched in order; "sp" and "so" must come before any
// single-letter prefix.
var choicePrefixes = []struct {
	prefix   string
	platform models.Platform
}{
	{"sp", models.PlatformSpotify},
	{"so", models.PlatformSoundCloud},
	{"y", models.PlatformYouTube},
	{"d", models.PlatformDeezer},
}

// parseChoice reads a "<prefix><1-based index>" token such as "sp3" or "y2"
// and returns the platform and 0-based index. ok is false for unknown prefixes,
// non-numeric indexes and indexes outside the results for that platform.
func parseChoice(choice string, results SearchResults) (platform models.Platform, index int, ok bool) {
	choice = strings.ToLower(strings.TrimSpace(choice))
	for _, p := range choicePrefixes {
		rest, found := strings.CutPrefix(choice, p.prefix)
		if !found {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 || n > results.count(p.platform) {
			return models.PlatformNone, 0, false
		}
		return p.platform, n - 1, true
	}
	return models.PlatformNone, 0, false
}

func (m *Menu) collectResults(ctx context.Context, query string) SearchResults {
	var results SearchResults

	backends := []struct {
		source models.DownloadSource
		label  string
		prefix string
		dest   *[]youtube.Hit
	}{
		{models.SourceYouTube, "YouTube", "y", &results.YouTube},
		{models.SourceSoundCloud, "SoundCloud", "so", &results.SoundCloud},
	}
	for _, b := range backends {
		hits, err := m.media.Search(ctx, b.source, query, searchResultsPerBackend)
		if err != nil {
			failureColor.Fprintf(m.out, "%s search failed: %v\n", b.label, err)
			continue
		}
		*b.dest = hits
		if len(hits) == 0 {
			continue
		}
		headingColor.Fprintf(m.out, "\n%s (%s1-%s%d):\n", b.label, b.prefix, b.prefix, len(hits))
		for i, hit := range hits {
			fmt.Fprintf(m.out, "%s%d. %s\n", b.prefix, i+1, hit.Title)
		}
	}

	if m.catalog != nil {
		tracks, err := m.catalog.Search(ctx, query, searchResultsPerBackend)
		if err != nil {
			failureColor.Fprintf(m.out, "Spotify search failed: %v\n", err)
		} else if len(tracks) > 0 {
			results.Spotify = tracks
			headingColor.Fprintf(m.out, "\nSpotify (sp1-sp%d):\n", len(tracks))
			for i, track := range tracks {
				fmt.Fprintf(m.out, "sp%d. %s\n", i+1, track.DisplayName())
			}
		}
	}

	return results
}

func (m *Menu) search(ctx context.Context) {
	var query string
	if err := survey.AskOne(&survey.Input{Message: "Search for:"}, &query); err != nil || strings.TrimSpace(query) == "" {
		return
	}

	fmt.Fprintln(m.out, "\nSearching...")
	results := m.collectResults(ctx, query)

	hintColor.Fprintln(m.out, "\nEnter a track code to download (for example: sp3, y2) or 'q' to go back")
	for {
		var choice string
		if err := survey.AskOne(&survey.Input{Message: "Your choice:"}, &choice); err != nil {
			return
		}
		if strings.EqualFold(strings.TrimSpace(choice), "q") {
			return
		}

		platform, index, ok := parseChoice(choice, results)
		if !ok {
			failureColor.Fprintln(m.out, "Invalid code. Examples: sp3, y2")
			continue
		}

		item, err := m.downloadChoice(ctx, platform, index, results)
		if err != nil {
			failureColor.Fprintf(m.out, "Could not download: %v\n", err)
			continue
		}
		printItem(m.out, item)
		if item.Succeeded() {
			return
		}
	}
}

// downloadChoice downloads one picked search result. Spotify picks go through
// the catalog path; the others are downloaded directly.
func (m *Menu) downloadChoice(ctx context.Context, platform models.Platform, index int, results SearchResults) (controller.ItemResult, error) {
	switch platform {
	case models.PlatformSpotify:
		track := results.Spotify[index]
		source, err := controller.SelectSource(m.settings, platform, m.prompter)
		if err != nil {
			return controller.ItemResult{}, err
		}
		return m.downloader.DownloadTrack(ctx, "", track, source), nil
	case models.PlatformYouTube:
		return m.downloader.DownloadDirect(ctx, results.YouTube[index].URL, models.SourceYouTube), nil
	case models.PlatformSoundCloud:
		return m.downloader.DownloadDirect(ctx, results.SoundCloud[index].URL, models.SourceSoundCloud), nil
	default:
		return controller.ItemResult{}, fmt.Errorf("%s search is not available", platform)
	}
}
