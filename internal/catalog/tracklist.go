package catalog

import (
	"fmt"
	"strings"
)

// FormatTracklist renders raw tracklist entries as numbered display lines.
// Section headings and bonus-video rows are skipped without consuming a
// number, so a vinyl rip with "Side A"/"Side B" headings still counts 1..N.
func FormatTracklist(tracks []Track) []string {
	var lines []string
	n := 0
	for _, t := range tracks {
		if isHeading(t) || isVideoPlaceholder(t) {
			continue
		}
		n++
		if t.Duration == "" {
			lines = append(lines, fmt.Sprintf("%d. %s", n, t.Title))
		} else {
			lines = append(lines, fmt.Sprintf("%d. %s (%s)", n, t.Title, t.Duration))
		}
	}
	return lines
}

func isHeading(t Track) bool {
	return t.Type == "heading"
}

func isVideoPlaceholder(t Track) bool {
	return strings.HasPrefix(strings.ToLower(t.Position), "video")
}
