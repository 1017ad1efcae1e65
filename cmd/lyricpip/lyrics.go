package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"karolbroda.com/lyricpip/internal/cache"
	"karolbroda.com/lyricpip/internal/lyrics"
	"karolbroda.com/lyricpip/internal/track"
)

var (
	// flags shared by the lyrics subcommands
	lyricsAlbum    string
	lyricsDuration float64
)

var lyricsCmd = &cobra.Command{
	Use:   "lyrics",
	Short: "lyrics search and management",
	Long:  `search lrclib for lyrics, save them to the local database, or preview them with timestamps.`,
}

var lyricsSearchCmd = &cobra.Command{
	Use:   "search <artist> <title>",
	Short: "search for lyrics on lrclib",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		info := lookupInfo(args[0], args[1])

		fmt.Printf("searching for: %s - %s\n\n", info.ArtistNames(), info.Title)

		resp, err := lyrics.NewLrclibSource(cfg.LrclibURL).Get(context.Background(), info)
		if err != nil {
			return fmt.Errorf("lyrics not found: %w", err)
		}

		fmt.Printf("found lyrics:\n")
		fmt.Printf("  track:        %s\n", resp.TrackName)
		fmt.Printf("  artist:       %s\n", resp.ArtistName)
		if resp.AlbumName != "" {
			fmt.Printf("  album:        %s\n", resp.AlbumName)
		}
		if resp.Duration > 0 {
			fmt.Printf("  duration:     %.0fs\n", resp.Duration)
		}
		fmt.Printf("  instrumental: %v\n", resp.Instrumental)

		if synced := lyrics.Parse(resp.SyncedLyrics); len(synced) > 0 {
			fmt.Printf("  synced lines: %d\n", len(synced))
		} else {
			fmt.Printf("  synced lines: none\n")
		}

		fmt.Println("\nuse 'lyricpip lyrics fetch' to save to the database")
		return nil
	},
}

var lyricsFetchCmd = &cobra.Command{
	Use:   "fetch <artist> <title>",
	Short: "fetch lyrics and save them locally",
	Long:  `fetch synced lyrics from lrclib and save them to the local database for offline use.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		info := lookupInfo(args[0], args[1])

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if _, err := store.FindLyrics(info.Key()); err == nil {
			fmt.Printf("'%s - %s' is already saved\n", info.ArtistNames(), info.Title)
			return nil
		}

		fmt.Printf("fetching: %s - %s\n", info.ArtistNames(), info.Title)

		blob, err := lyrics.NewLrclibSource(cfg.LrclibURL).Lookup(context.Background(), info)
		if err != nil {
			return fmt.Errorf("failed to fetch lyrics: %w", err)
		}

		// the key is what the player will report, not what lrclib echoes back
		written, err := store.SaveLyrics(&cache.LyricEntry{
			ArtistNames:  info.ArtistNames(),
			AlbumName:    info.Album,
			TrackName:    info.Title,
			Duration:     info.DurationSecs,
			SyncedLyrics: blob,
		})
		if err != nil {
			return err
		}
		if !written {
			fmt.Println("already saved")
			return nil
		}

		fmt.Printf("saved %d synced lines\n", len(lyrics.Parse(blob)))
		return nil
	},
}

var lyricsPreviewCmd = &cobra.Command{
	Use:   "preview <artist> <title>",
	Short: "preview lyrics in terminal",
	Long:  `display lyrics with timestamps, from the local database when saved and lrclib otherwise.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		info := lookupInfo(args[0], args[1])

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		chain := lyrics.NewChain(
			lyrics.NewLocalSource(store),
			lyrics.NewLrclibSource(cfg.LrclibURL),
		)

		lines, origin, err := chain.Resolve(context.Background(), info)
		if errors.Is(err, lyrics.ErrNoLyrics) {
			if entries, listErr := store.ListLyrics(); listErr == nil {
				if suggestions := similarEntries(entries, info.ArtistNames(), info.Title); len(suggestions) > 0 {
					fmt.Println("similar songs in the database:")
					for _, s := range suggestions {
						fmt.Printf("  %s - %s\n", s.ArtistNames, s.TrackName)
					}
					fmt.Println()
				}
			}
		}
		if err != nil {
			return err
		}

		fmt.Printf("\n%s - %s (from %s)\n", info.ArtistNames(), info.Title, origin)
		fmt.Println(strings.Repeat("─", 60))
		fmt.Println(lyrics.Format(lyrics.Sorted(lines)))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(lyricsCmd)

	lyricsCmd.AddCommand(lyricsSearchCmd)
	lyricsCmd.AddCommand(lyricsFetchCmd)
	lyricsCmd.AddCommand(lyricsPreviewCmd)

	lyricsCmd.PersistentFlags().StringVar(&lyricsAlbum, "album", "", "album name")
	lyricsCmd.PersistentFlags().Float64Var(&lyricsDuration, "duration", 0, "track duration in seconds")
}

func lookupInfo(artist string, title string) *track.Info {
	return &track.Info{
		ID:           artist + "/" + title,
		Title:        title,
		Artists:      []string{artist},
		Album:        lyricsAlbum,
		DurationSecs: lyricsDuration,
	}
}
