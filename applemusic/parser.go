package applemusic

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

var (
	albumPath    = regexp.MustCompile(`/album/(?:[^/]+/)?(\d+)`)
	songPath     = regexp.MustCompile(`/song/(?:[^/]+/)?(\d+)`)
	playlistPath = regexp.MustCompile(`/playlist/[^/]+/(pl\.[a-zA-Z0-9-]+)`)
)

var ErrNotAppleMusic = errors.New("not an Apple Music URL")

// Link is a parsed Apple Music reference. A track is addressed either by a
// song link or by an album link carrying the track in its "i" parameter.
type Link struct {
	Country    string
	AlbumID    string
	PlaylistID string
	TrackID    string
}

func (l Link) IsTrack() bool {
	return l.TrackID != ""
}

// pagePath is the storefront path of the page describing the linked track.
func (l Link) pagePath() string {
	country := l.Country
	if country == "" {
		country = "us"
	}
	if l.AlbumID != "" {
		return "/" + country + "/album/" + l.AlbumID + "?i=" + l.TrackID
	}
	return "/" + country + "/song/" + l.TrackID
}

func ParseAppleMusicURL(rawURL string) (Link, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Link{}, err
	}
	if !strings.HasSuffix(parsed.Host, "apple.com") {
		return Link{}, ErrNotAppleMusic
	}

	var link Link
	if segments := strings.Split(strings.Trim(parsed.Path, "/"), "/"); len(segments) > 1 {
		link.Country = segments[0]
	}
	link.AlbumID = submatch(albumPath, parsed.Path)
	link.PlaylistID = submatch(playlistPath, parsed.Path)
	link.TrackID = parsed.Query().Get("i")
	if link.TrackID == "" {
		link.TrackID = submatch(songPath, parsed.Path)
	}

	if link.AlbumID == "" && link.PlaylistID == "" && link.TrackID == "" {
		return Link{}, errors.New("no Apple Music id in link")
	}
	return link, nil
}

func submatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}
