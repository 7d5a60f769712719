package catalog

import (
	"reflect"
	"testing"
)

func TestFormatTracklist(t *testing.T) {
	tests := []struct {
		name   string
		tracks []Track
		want   []string
	}{
		{
			name: "headings skipped without consuming a number",
			tracks: []Track{
				{Type: "heading", Title: "Side A"},
				{Position: "A1", Title: "Intro"},
				{Position: "A2", Title: "Main", Duration: "3:21"},
			},
			want: []string{"1. Intro", "2. Main (3:21)"},
		},
		{
			name: "video placeholder rows skipped",
			tracks: []Track{
				{Position: "1", Title: "Opener", Duration: "4:02"},
				{Position: "Video 1", Title: "Opener (music video)"},
				{Position: "2", Title: "Closer", Duration: "5:10"},
			},
			want: []string{"1. Opener (4:02)", "2. Closer (5:10)"},
		},
		{
			name:   "empty tracklist",
			tracks: nil,
			want:   nil,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := FormatTracklist(tc.tracks)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("FormatTracklist = %#v, want %#v", got, tc.want)
			}
		})
	}
}
