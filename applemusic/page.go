package applemusic

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"
)

// pageTrack is what a track page tells us about the recording.
type pageTrack struct {
	Title      string
	Artists    []string
	Album      string
	ArtworkURL string
}

// readPage prefers the MusicRecording JSON-LD block and falls back to the
// Open Graph tags. The og:image is used when JSON-LD carries no artwork.
func readPage(doc *goquery.Document) (pageTrack, error) {
	track, err := fromJSONLD(doc)
	if err != nil {
		if track, err = fromOpenGraph(doc); err != nil {
			return pageTrack{}, err
		}
	}
	if track.ArtworkURL == "" {
		track.ArtworkURL = doc.Find(`meta[property="og:image"]`).AttrOr("content", "")
	}
	return track, nil
}

func fromJSONLD(doc *goquery.Document) (pageTrack, error) {
	var track pageTrack
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		block := s.Text()
		if !gjson.Valid(block) || gjson.Get(block, "@type").String() != "MusicRecording" {
			return true
		}
		title := gjson.Get(block, "name").String()
		if title == "" {
			return true
		}

		track = pageTrack{
			Title:      title,
			Album:      gjson.Get(block, "inAlbum.name").String(),
			ArtworkURL: gjson.Get(block, "image").String(),
		}
		// byArtist is an object for solo recordings and an array otherwise.
		byArtist := gjson.Get(block, "byArtist")
		if byArtist.IsArray() {
			for _, artist := range byArtist.Array() {
				if name := artist.Get("name").String(); name != "" {
					track.Artists = append(track.Artists, name)
				}
			}
		} else if name := byArtist.Get("name").String(); name != "" {
			track.Artists = []string{name}
		}
		return false
	})

	if track.Title == "" {
		return pageTrack{}, errors.New("no MusicRecording JSON-LD on page")
	}
	if len(track.Artists) == 0 {
		return pageTrack{}, errors.New("JSON-LD recording has no artist")
	}
	return track, nil
}

func fromOpenGraph(doc *goquery.Document) (pageTrack, error) {
	meta := func(selector string) string {
		return strings.TrimSpace(doc.Find(selector).AttrOr("content", ""))
	}

	title := meta(`meta[property="og:title"]`)
	if title == "" {
		title = meta(`meta[name="twitter:title"]`)
	}
	if title == "" {
		return pageTrack{}, errors.New("page has no og:title")
	}

	artist := meta(`meta[property="music:musician_description"]`)
	if artist == "" {
		// "<title> - <artist> on Apple Music"
		if _, rest, ok := strings.Cut(doc.Find("title").First().Text(), " - "); ok {
			artist = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "on Apple Music"))
		}
	}
	if artist == "" {
		return pageTrack{}, errors.New("page has no artist")
	}

	return pageTrack{
		Title:   title,
		Artists: []string{artist},
		Album:   meta(`meta[property="music:album"]`),
	}, nil
}
