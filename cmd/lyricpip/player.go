package main

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"karolbroda.com/lyricpip/internal/colors"
	"karolbroda.com/lyricpip/internal/player"
)

var (
	// flags for player test
	testService string
)

const playerTimeout = 3 * time.Second

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "mpris player utilities",
	Long:  `discover and test mpris-compatible music players on your system.`,
}

var playerListCmd = &cobra.Command{
	Use:   "list",
	Short: "list available mpris players",
	RunE: func(cmd *cobra.Command, args []string) error {
		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			return fmt.Errorf("failed to connect to session bus: %w", err)
		}
		defer bus.Close()

		ctx, cancel := context.WithTimeout(context.Background(), playerTimeout)
		defer cancel()

		services, err := player.List(ctx, bus)
		if err != nil {
			return fmt.Errorf("failed to list dbus names: %w", err)
		}

		if len(services) == 0 {
			fmt.Println("no mpris players found")
			fmt.Println("\ncheck if your music player is running and supports mpris")
			return nil
		}

		fmt.Printf("found %d mpris player(s):\n\n", len(services))
		for _, service := range services {
			if identity := player.Identity(bus, service); identity != "" {
				fmt.Printf("  %s (%s)\n", service, identity)
			} else {
				fmt.Printf("  %s\n", service)
			}
		}

		fmt.Println("\nuse --mpris-service flag to specify which player to use")
		return nil
	},
}

var playerTestCmd = &cobra.Command{
	Use:   "test",
	Short: "test connection to mpris player",
	RunE: func(cmd *cobra.Command, args []string) error {
		serviceName := cfg.MprisService
		if testService != "" {
			serviceName = testService
		}

		fmt.Printf("testing connection to: %s\n\n", serviceName)
		return showCurrent(serviceName, true)
	},
}

var playerCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "show currently playing track",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showCurrent(cfg.MprisService, false)
	},
}

func init() {
	rootCmd.AddCommand(playerCmd)

	playerCmd.AddCommand(playerListCmd)
	playerCmd.AddCommand(playerTestCmd)
	playerCmd.AddCommand(playerCurrentCmd)

	playerTestCmd.Flags().StringVar(&testService, "service", "", "mpris service to test")
}

func showCurrent(serviceName string, verbose bool) error {
	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer bus.Close()

	playerService, err := player.NewService(bus, serviceName)
	if err != nil {
		return fmt.Errorf("failed to connect to player: %w", err)
	}

	if verbose {
		if identity := player.Identity(bus, serviceName); identity != "" {
			fmt.Printf("player identity: %s\n", identity)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), playerTimeout)
	defer cancel()

	snap, err := playerService.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read player: %w", err)
	}

	if verbose {
		fmt.Printf("status: connected ✓\n\n")
	}

	if snap == nil || !snap.Track.IsValid() {
		fmt.Println("no track currently playing")
		return nil
	}

	info := snap.Track
	fmt.Printf("title:    %s\n", info.Title)
	fmt.Printf("artist:   %s\n", info.ArtistNames())
	if info.Album != "" {
		fmt.Printf("album:    %s\n", info.Album)
	}
	if info.DurationSecs > 0 {
		fmt.Printf("duration: %s\n", colors.FormatTime(int64(info.DurationSecs)))
	}
	if info.ArtworkURL != "" {
		fmt.Printf("artwork:  %s\n", info.ArtworkURL)
	}
	if verbose {
		fmt.Printf("track id: %s\n", info.ID)
	}
	if snap.Playing {
		fmt.Printf("state:    playing\n")
	} else {
		fmt.Printf("state:    paused\n")
	}
	fmt.Printf("position: %s\n", colors.FormatTime(snap.ProgressMs/1000))

	return nil
}
