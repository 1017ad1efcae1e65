package main

import (
	"testing"

	"karolbroda.com/lyricpip/internal/cache"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSimilarEntries(t *testing.T) {
	entries := []*cache.LyricEntry{
		{ArtistNames: "Daft Punk", TrackName: "One More Time"},
		{ArtistNames: "Daft Punk", TrackName: "Around the World"},
		{ArtistNames: "Daft Punk-Pharrell", TrackName: "Get Lucky"},
	}

	got := similarEntries(entries, "daft punk", "one more")
	if len(got) != 1 || got[0].TrackName != "One More Time" {
		t.Errorf("exact artist pass = %+v", got)
	}

	got = similarEntries(entries, "pharrell", "lucky")
	if len(got) != 1 || got[0].TrackName != "Get Lucky" {
		t.Errorf("fuzzy artist pass = %+v", got)
	}

	if got := similarEntries(entries, "abba", "waterloo"); len(got) != 0 {
		t.Errorf("unrelated query matched %+v", got)
	}
}

func TestSortEntries(t *testing.T) {
	entries := []*cache.LyricEntry{
		{ArtistNames: "b", TrackName: "z", Duration: 10},
		{ArtistNames: "a", TrackName: "y", Duration: 30},
		{ArtistNames: "c", TrackName: "x", Duration: 20},
	}

	sortEntries(entries, "title")
	if entries[0].TrackName != "x" {
		t.Errorf("title sort first = %q", entries[0].TrackName)
	}
	sortEntries(entries, "duration")
	if entries[0].Duration != 10 {
		t.Errorf("duration sort first = %v", entries[0].Duration)
	}
	sortEntries(entries, "artist")
	if entries[0].ArtistNames != "a" {
		t.Errorf("artist sort first = %q", entries[0].ArtistNames)
	}
}
