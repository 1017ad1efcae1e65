package cache

import (
	"errors"
	"path/filepath"
	"testing"

	"karolbroda.com/lyricpip/internal/track"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testEntry() *LyricEntry {
	return &LyricEntry{
		ArtistNames:  "Artist One-Artist Two",
		AlbumName:    "Album",
		TrackName:    "Song",
		Duration:     200.5,
		SyncedLyrics: "[00:01.00] first\n[00:02.50] second",
	}
}

func TestColorUpsert(t *testing.T) {
	store := openTestStore(t)

	if err := store.SaveColor("track-1", 0x112233); err != nil {
		t.Fatalf("SaveColor: %v", err)
	}
	if err := store.SaveColor("track-1", 0xABCDEF); err != nil {
		t.Fatalf("SaveColor (update): %v", err)
	}
	if err := store.SaveColor("track-2", 42); err != nil {
		t.Fatalf("SaveColor: %v", err)
	}

	colors, err := store.LoadColors()
	if err != nil {
		t.Fatalf("LoadColors: %v", err)
	}
	if len(colors) != 2 {
		t.Fatalf("expected 2 colors, got %d", len(colors))
	}
	if colors["track-1"] != 0xABCDEF {
		t.Errorf("track-1 = %#x, want 0xabcdef", colors["track-1"])
	}
	if colors["track-2"] != 42 {
		t.Errorf("track-2 = %d, want 42", colors["track-2"])
	}
}

func TestColorStoredAsDecimalString(t *testing.T) {
	store := openTestStore(t)
	if err := store.SaveColor("track-1", 0xFF0000); err != nil {
		t.Fatalf("SaveColor: %v", err)
	}

	var row ColorEntry
	if err := store.DB.Where("song_id = ?", "track-1").Take(&row).Error; err != nil {
		t.Fatalf("query: %v", err)
	}
	if row.Color != "16711680" {
		t.Errorf("stored color = %q, want %q", row.Color, "16711680")
	}
}

func TestFindLyricsWithinDurationTolerance(t *testing.T) {
	store := openTestStore(t)
	if _, err := store.SaveLyrics(testEntry()); err != nil {
		t.Fatalf("SaveLyrics: %v", err)
	}

	key := testEntry().Key()

	tests := []struct {
		name     string
		duration float64
		wantHit  bool
	}{
		{"exact", 200.5, true},
		{"two seconds short", 198.5, true},
		{"two seconds long", 202.5, true},
		{"too short", 198.4, false},
		{"too long", 202.6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := key
			k.DurationSecs = tt.duration
			entry, err := store.FindLyrics(k)
			if tt.wantHit {
				if err != nil {
					t.Fatalf("FindLyrics: %v", err)
				}
				if entry.SyncedLyrics != testEntry().SyncedLyrics {
					t.Errorf("unexpected blob %q", entry.SyncedLyrics)
				}
				return
			}
			if !errors.Is(err, ErrMiss) {
				t.Errorf("expected ErrMiss, got %v", err)
			}
		})
	}
}

func TestFindLyricsRequiresAllTextFields(t *testing.T) {
	store := openTestStore(t)
	store.SaveLyrics(testEntry())

	key := testEntry().Key()
	key.AlbumName = "Other Album"
	if _, err := store.FindLyrics(key); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss for a different album, got %v", err)
	}
}

func TestSaveLyricsNeverOverwrites(t *testing.T) {
	store := openTestStore(t)

	written, err := store.SaveLyrics(testEntry())
	if err != nil || !written {
		t.Fatalf("first SaveLyrics = %v, %v; want true, nil", written, err)
	}

	replacement := testEntry()
	replacement.SyncedLyrics = "[00:09.00] changed"
	written, err = store.SaveLyrics(replacement)
	if err != nil {
		t.Fatalf("second SaveLyrics: %v", err)
	}
	if written {
		t.Error("expected the second write to be ignored")
	}

	entry, err := store.FindLyrics(testEntry().Key())
	if err != nil {
		t.Fatalf("FindLyrics: %v", err)
	}
	if entry.SyncedLyrics != testEntry().SyncedLyrics {
		t.Errorf("blob was overwritten: %q", entry.SyncedLyrics)
	}
}

func TestStatsAndClear(t *testing.T) {
	store := openTestStore(t)
	store.SaveLyrics(testEntry())
	store.SaveColor("track-1", 1)

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Lyrics != 1 || stats.Colors != 1 {
		t.Errorf("Stats = %+v, want 1 lyric and 1 color", stats)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats, _ = store.Stats()
	if stats.Lyrics != 0 || stats.Colors != 0 {
		t.Errorf("Stats after Clear = %+v, want empty", stats)
	}
}

func TestDeleteLyrics(t *testing.T) {
	store := openTestStore(t)
	store.SaveLyrics(testEntry())

	key := testEntry().Key()
	key.DurationSecs = 201
	n, err := store.DeleteLyrics(key)
	if err != nil {
		t.Fatalf("DeleteLyrics: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d rows, want 1", n)
	}
}

func TestClosedStore(t *testing.T) {
	store := openTestStore(t)
	store.Close()

	if _, err := store.LoadColors(); !errors.Is(err, ErrClosed) {
		t.Errorf("LoadColors after Close = %v, want ErrClosed", err)
	}
	if err := store.SaveColor("x", 1); !errors.Is(err, ErrClosed) {
		t.Errorf("SaveColor after Close = %v, want ErrClosed", err)
	}
}

func TestKeyMatchesTolerance(t *testing.T) {
	a := track.Key{ArtistNames: "a", AlbumName: "b", TrackName: "c", DurationSecs: 100}
	b := a
	b.DurationSecs = 102
	if !a.Matches(b) {
		t.Error("expected keys 2s apart to match")
	}
	b.DurationSecs = 102.01
	if a.Matches(b) {
		t.Error("expected keys more than 2s apart not to match")
	}
}
