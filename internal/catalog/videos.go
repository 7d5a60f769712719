package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// VideoLink pairs a cleaned video title with its playback URI.
type VideoLink struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// artistSeparators cover the plain hyphen and the en dash both seen in
// catalog video titles.
var artistSeparators = []string{" - ", " – "}

// AlignVideos turns a release's bonus-video list into a deduplicated,
// display-ordered set of links. Titles usually embed the artist
// ("Queen - Bohemian Rhapsody"); the artist prefix or suffix is stripped
// case-insensitively. Some catalogs list the identical title twice, in which
// case the next unused track title stands in for the duplicate. A lowercase
// key may be used only once across the whole list; later collisions are
// dropped. The result is sorted with English collation, ignoring case.
func AlignVideos(artist string, videos []Video, tracks []Track) []VideoLink {
	if len(videos) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(videos))
	links := make([]VideoLink, 0, len(videos))

	for _, v := range videos {
		title, stripped := stripArtist(artist, v.Title)
		if !stripped && seen[strings.ToLower(title)] {
			sub, ok := nextUnusedTrackTitle(tracks, seen)
			if !ok {
				continue
			}
			title = sub
		}

		key := strings.ToLower(title)
		if seen[key] {
			continue
		}
		seen[key] = true
		links = append(links, VideoLink{Title: title, URI: v.URI})
	}

	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(links, func(i, j int) bool {
		return c.CompareString(links[i].Title, links[j].Title) < 0
	})
	return links
}

// stripArtist removes a leading "<artist> - " or trailing " - <artist>"
// (hyphen or en dash, any case) and reports whether anything was removed.
func stripArtist(artist, title string) (string, bool) {
	if artist == "" {
		return title, false
	}
	for _, sep := range artistSeparators {
		prefix := artist + sep
		if len(title) > len(prefix) && strings.EqualFold(title[:len(prefix)], prefix) {
			return title[len(prefix):], true
		}
		suffix := sep + artist
		if len(title) > len(suffix) && strings.EqualFold(title[len(title)-len(suffix):], suffix) {
			return title[:len(title)-len(suffix)], true
		}
	}
	return title, false
}

func nextUnusedTrackTitle(tracks []Track, seen map[string]bool) (string, bool) {
	for _, t := range tracks {
		if isHeading(t) || isVideoPlaceholder(t) {
			continue
		}
		if !seen[strings.ToLower(t.Title)] {
			return t.Title, true
		}
	}
	return "", false
}
