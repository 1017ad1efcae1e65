package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"karolbroda.com/lyricpip/internal/cache"
	"karolbroda.com/lyricpip/internal/colors"
	"karolbroda.com/lyricpip/internal/lyrics"
)

var (
	// flags for cache list
	cacheSortBy  string
	cacheConfirm bool
)

var errNotCached = errors.New("song not found in database")

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "manage the lyric database",
	Long:  `manage saved lyrics and background colours, including statistics, listing entries, and clearing the database.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "show database statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Stats()
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("database statistics:")
		fmt.Printf("  location: %s\n", store.Path())
		fmt.Printf("  lyrics:   %d\n", stats.Lyrics)
		fmt.Printf("  colors:   %d\n", stats.Colors)
		fmt.Printf("  size:     %s\n", formatBytes(stats.SizeBytes))

		return nil
	},
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "list all saved songs",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.ListLyrics()
		if err != nil {
			return fmt.Errorf("failed to list lyrics: %w", err)
		}

		if len(entries) == 0 {
			fmt.Println("no saved lyrics")
			return nil
		}

		sortEntries(entries, cacheSortBy)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ARTIST\tTITLE\tALBUM\tDURATION\tLINES")
		for _, entry := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
				entry.ArtistNames,
				entry.TrackName,
				orDash(entry.AlbumName),
				colors.FormatTime(int64(entry.Duration)),
				len(lyrics.Parse(entry.SyncedLyrics)),
			)
		}
		w.Flush()

		fmt.Printf("\ntotal: %d songs\n", len(entries))
		return nil
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show <artist> <title>",
	Short: "show the saved entry for a song",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		entry, err := findEntry(store, args[0], args[1])
		if err != nil {
			return err
		}

		lines := lyrics.Parse(entry.SyncedLyrics)

		fmt.Printf("artist:   %s\n", entry.ArtistNames)
		fmt.Printf("title:    %s\n", entry.TrackName)
		fmt.Printf("album:    %s\n", orDash(entry.AlbumName))
		fmt.Printf("duration: %s\n", colors.FormatTime(int64(entry.Duration)))
		fmt.Printf("\nsynced lyrics: %d lines\n", len(lines))

		return nil
	},
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete <artist> <title>",
	Short: "remove a song from the database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		entry, err := findEntry(store, args[0], args[1])
		if err != nil {
			return err
		}

		removed, err := store.DeleteLyrics(entry.Key())
		if err != nil {
			return fmt.Errorf("failed to delete from database: %w", err)
		}

		fmt.Printf("deleted '%s - %s' (%d rows)\n", entry.ArtistNames, entry.TrackName, removed)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "clear all saved lyrics and colors",
	Long:  `remove every saved lyric and colour. use --confirm to skip confirmation prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cacheConfirm {
			fmt.Print("are you sure you want to clear the database? (y/n): ")
			var response string
			fmt.Scanln(&response)
			if strings.ToLower(response) != "y" && strings.ToLower(response) != "yes" {
				fmt.Println("cancelled")
				return nil
			}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear database: %w", err)
		}

		fmt.Println("database cleared successfully")
		return nil
	},
}

var cacheColorsCmd = &cobra.Command{
	Use:   "colors",
	Short: "list saved background colours",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		saved, err := store.LoadColors()
		if err != nil {
			return fmt.Errorf("failed to load colors: %w", err)
		}
		if len(saved) == 0 {
			fmt.Println("no saved colors")
			return nil
		}

		ids := make([]string, 0, len(saved))
		for id := range saved {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TRACK ID\tCOLOR")
		for _, id := range ids {
			fmt.Fprintf(w, "%s\t%s\n", id, colors.Unpack(saved[id]).Hex())
		}
		w.Flush()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheDeleteCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheColorsCmd)

	cacheListCmd.Flags().StringVar(&cacheSortBy, "sort", "artist", "sort by: artist, title, duration")
	cacheClearCmd.Flags().BoolVar(&cacheConfirm, "confirm", false, "skip confirmation prompt")
}

// helper functions

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func sortEntries(entries []*cache.LyricEntry, sortBy string) {
	switch sortBy {
	case "title":
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].TrackName) < strings.ToLower(entries[j].TrackName)
		})
	case "duration":
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Duration < entries[j].Duration
		})
	default:
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].ArtistNames) < strings.ToLower(entries[j].ArtistNames)
		})
	}
}

// findEntry matches artist and title case-insensitively. on a miss it
// prints close matches to stderr.
func findEntry(store *cache.Store, artist string, title string) (*cache.LyricEntry, error) {
	entries, err := store.ListLyrics()
	if err != nil {
		return nil, fmt.Errorf("failed to list lyrics: %w", err)
	}

	for _, entry := range entries {
		if strings.EqualFold(entry.ArtistNames, artist) && strings.EqualFold(entry.TrackName, title) {
			return entry, nil
		}
	}

	if suggestions := similarEntries(entries, artist, title); len(suggestions) > 0 {
		fmt.Fprintf(os.Stderr, "did you mean one of these?\n")
		for _, s := range suggestions {
			fmt.Fprintf(os.Stderr, "  %s - %s\n", s.ArtistNames, s.TrackName)
		}
		fmt.Fprintln(os.Stderr)
	}
	return nil, errNotCached
}

func similarEntries(entries []*cache.LyricEntry, artist string, title string) []*cache.LyricEntry {
	const limit = 5

	artistLower := strings.ToLower(artist)
	titleLower := strings.ToLower(title)

	contains := func(a, b string) bool {
		return strings.Contains(a, b) || strings.Contains(b, a)
	}

	var matches []*cache.LyricEntry

	// first pass: exact artist match with fuzzy title
	for _, entry := range entries {
		if strings.ToLower(entry.ArtistNames) == artistLower && contains(strings.ToLower(entry.TrackName), titleLower) {
			matches = append(matches, entry)
		}
	}

	// second pass: fuzzy artist match with fuzzy title
	if len(matches) == 0 {
		for _, entry := range entries {
			if contains(strings.ToLower(entry.ArtistNames), artistLower) && contains(strings.ToLower(entry.TrackName), titleLower) {
				matches = append(matches, entry)
			}
		}
	}

	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
