package song

import (
	"context"
	"errors"
	"testing"
	"time"

	"karolbroda.com/lyricpip/internal/cache"
	"karolbroda.com/lyricpip/internal/colors"
	"karolbroda.com/lyricpip/internal/lyrics"
	"karolbroda.com/lyricpip/internal/track"
)

type fakeLyrics struct {
	lines []lyrics.Line
	err   error
	calls int
}

func (f *fakeLyrics) Resolve(context.Context, *track.Info) ([]lyrics.Line, string, error) {
	f.calls++
	return f.lines, "fake", f.err
}

type fakePalettes struct {
	palette colors.Palette
	err     error
}

func (f *fakePalettes) Palette(context.Context, string) (colors.Palette, error) {
	return f.palette, f.err
}

type fakeSaver struct {
	saved []*cache.LyricEntry
}

func (f *fakeSaver) SaveLyrics(entry *cache.LyricEntry) (bool, error) {
	f.saved = append(f.saved, entry)
	return true, nil
}

func snapshot(id string, progressMs int64, playing bool) *track.Snapshot {
	return &track.Snapshot{
		Track: &track.Info{
			ID:           id,
			Title:        "Title " + id,
			Artists:      []string{"A", "B"},
			Album:        "Album",
			DurationSecs: 180,
			ArtworkURL:   "file:///cover.png",
		},
		ProgressMs: progressMs,
		Playing:    playing,
	}
}

func newTestSong(t *testing.T, opts Options) *Song {
	t.Helper()
	if opts.Colors == nil {
		resolver, err := colors.NewResolver(nil)
		if err != nil {
			t.Fatalf("NewResolver: %v", err)
		}
		opts.Colors = resolver
	}
	return New(opts)
}

func TestIngestReportsChanges(t *testing.T) {
	s := newTestSong(t, Options{})

	if s.Progress() != NoProgress {
		t.Errorf("fresh song progress = %d, want NoProgress", s.Progress())
	}
	if !s.Ingest(snapshot("one", 1000, true)) {
		t.Error("first track should report a change")
	}
	if s.Ingest(snapshot("one", 2000, true)) {
		t.Error("same track should not report a change")
	}
	if s.Progress() != 2000 {
		t.Errorf("progress = %d, want 2000", s.Progress())
	}
	if !s.Ingest(snapshot("two", 0, true)) {
		t.Error("new track id should report a change")
	}
}

func TestIngestNilResets(t *testing.T) {
	s := newTestSong(t, Options{})
	s.Ingest(snapshot("one", 1000, false))

	if s.Ingest(nil) {
		t.Error("nil snapshot must never report a change")
	}
	if s.ID() != "" || s.Info() != nil {
		t.Errorf("song not reset: id=%q", s.ID())
	}
	if s.Progress() != NoProgress {
		t.Errorf("progress = %d, want NoProgress", s.Progress())
	}
	if s.Paused() {
		t.Error("reset song should not be paused")
	}
	if !s.Ingest(snapshot("one", 0, true)) {
		t.Error("track after reset should report a change")
	}
}

func TestAdvance(t *testing.T) {
	s := newTestSong(t, Options{})

	s.Advance(time.Second)
	if s.Progress() != NoProgress {
		t.Error("advance without a song must keep NoProgress")
	}

	s.Ingest(snapshot("one", 1000, true))
	s.Advance(time.Second)
	if got := s.Progress(); got != 1850 {
		t.Errorf("progress after 1s = %d, want 1850", got)
	}

	s.Ingest(snapshot("one", 5000, false))
	s.Advance(time.Second)
	if got := s.Progress(); got != 5000 {
		t.Errorf("paused progress = %d, want 5000", got)
	}
}

func TestSince(t *testing.T) {
	s := newTestSong(t, Options{})
	start := time.Unix(1000, 0)
	now := start
	s.now = func() time.Time { return now }

	s.Ingest(snapshot("one", 0, true))
	now = start.Add(3 * time.Second)
	s.Ingest(snapshot("one", 3000, true))

	if got := s.Since(); got != 3*time.Second {
		t.Errorf("Since = %v, want 3s", got)
	}
}

func TestFetchLyricsAndColors(t *testing.T) {
	red := colors.RGB{R: 220, G: 30, B: 30}
	grey := colors.RGB{R: 120, G: 120, B: 120}
	lines := []lyrics.Line{{StartMs: 1000, Text: "one"}, {StartMs: 2000, Text: "two"}}

	s := newTestSong(t, Options{
		Lyrics:   &fakeLyrics{lines: lines},
		Palettes: &fakePalettes{palette: colors.Palette{grey, red}},
	})
	s.Ingest(snapshot("one", 0, true))

	resolved, err := s.FetchLyricsAndColors(context.Background())
	if err != nil {
		t.Fatalf("FetchLyricsAndColors: %v", err)
	}
	if resolved.TrackID != "one" || len(resolved.Lines) != 2 {
		t.Errorf("resolved = %+v", resolved)
	}
	if resolved.Scheme.Background != red {
		t.Errorf("background = %v, want most saturated %v", resolved.Scheme.Background, red)
	}

	record := s.Record()
	if record == nil {
		t.Fatal("record not set")
	}
	if record.ArtistNames != "A-B" || record.SyncedLyrics != "[00:01.00] one\n[00:02.00] two" {
		t.Errorf("record = %+v", record)
	}
	if len(s.Palette()) != 2 {
		t.Errorf("palette size = %d, want 2", len(s.Palette()))
	}
}

func TestFetchWithoutArtworkUsesNeutral(t *testing.T) {
	s := newTestSong(t, Options{
		Lyrics:   &fakeLyrics{lines: []lyrics.Line{{StartMs: 0, Text: "x"}}},
		Palettes: &fakePalettes{err: errors.New("no artwork")},
	})
	s.Ingest(snapshot("one", 0, true))

	resolved, err := s.FetchLyricsAndColors(context.Background())
	if err != nil {
		t.Fatalf("FetchLyricsAndColors: %v", err)
	}
	if resolved.Scheme != colors.Neutral {
		t.Errorf("scheme = %+v, want neutral", resolved.Scheme)
	}
}

func TestFetchErrors(t *testing.T) {
	s := newTestSong(t, Options{Lyrics: &fakeLyrics{err: lyrics.ErrNoLyrics}})

	if _, err := s.FetchLyricsAndColors(context.Background()); !errors.Is(err, ErrNoTrack) {
		t.Errorf("error without track = %v, want ErrNoTrack", err)
	}

	s.Ingest(snapshot("one", 0, true))
	if _, err := s.FetchLyricsAndColors(context.Background()); !errors.Is(err, lyrics.ErrNoLyrics) {
		t.Errorf("error = %v, want ErrNoLyrics", err)
	}
	if s.Record() != nil {
		t.Error("record should stay empty when no lyrics resolved")
	}
}

func TestSaveLyrics(t *testing.T) {
	saver := &fakeSaver{}
	s := newTestSong(t, Options{
		Lyrics: &fakeLyrics{lines: []lyrics.Line{{StartMs: 0, Text: "x"}}},
		Saver:  saver,
	})

	if s.SaveLyrics() {
		t.Error("SaveLyrics without a record should report false")
	}

	s.Ingest(snapshot("one", 0, true))
	if _, err := s.FetchLyricsAndColors(context.Background()); err != nil {
		t.Fatalf("FetchLyricsAndColors: %v", err)
	}
	if len(saver.saved) != 0 {
		t.Error("lyrics saved although auto save is off")
	}
	if !s.SaveLyrics() || len(saver.saved) != 1 {
		t.Fatalf("explicit save failed, saved=%d", len(saver.saved))
	}
	if saver.saved[0].TrackName != "Title one" {
		t.Errorf("saved entry = %+v", saver.saved[0])
	}
}

func TestAutoSaveLyrics(t *testing.T) {
	saver := &fakeSaver{}
	s := newTestSong(t, Options{
		Lyrics:     &fakeLyrics{lines: []lyrics.Line{{StartMs: 0, Text: "x"}}},
		Saver:      saver,
		SaveLyrics: true,
	})
	s.Ingest(snapshot("one", 0, true))

	if _, err := s.FetchLyricsAndColors(context.Background()); err != nil {
		t.Fatalf("FetchLyricsAndColors: %v", err)
	}
	if len(saver.saved) != 1 {
		t.Errorf("saved %d entries, want 1", len(saver.saved))
	}
}

func TestChangeColor(t *testing.T) {
	a := colors.RGB{R: 200, G: 10, B: 10}
	b := colors.RGB{R: 10, G: 200, B: 10}
	s := newTestSong(t, Options{
		Lyrics:   &fakeLyrics{lines: []lyrics.Line{{StartMs: 0, Text: "x"}}},
		Palettes: &fakePalettes{palette: colors.Palette{a, b}},
	})

	if _, ok := s.ChangeColor(a, 1); ok {
		t.Error("ChangeColor without a track should fail")
	}

	s.Ingest(snapshot("one", 0, true))
	resolved, err := s.FetchLyricsAndColors(context.Background())
	if err != nil {
		t.Fatalf("FetchLyricsAndColors: %v", err)
	}

	scheme, ok := s.ChangeColor(resolved.Scheme.Background, 1)
	if !ok || scheme.Background == resolved.Scheme.Background {
		t.Errorf("ChangeColor = %+v, %v", scheme, ok)
	}
	back, _ := s.ChangeColor(scheme.Background, -1)
	if back.Background != resolved.Scheme.Background {
		t.Errorf("cycling back = %v, want %v", back.Background, resolved.Scheme.Background)
	}

	set, ok := s.SetColor(colors.RGB{R: 1, G: 2, B: 3})
	if !ok || set.Text != colors.LightText {
		t.Errorf("SetColor = %+v, %v", set, ok)
	}
}
