package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"karolbroda.com/lyricpip/internal/artwork"
	"karolbroda.com/lyricpip/internal/colors"
	"karolbroda.com/lyricpip/internal/lyrics"
	"karolbroda.com/lyricpip/internal/player"
	"karolbroda.com/lyricpip/internal/poller"
	"karolbroda.com/lyricpip/internal/song"
	"karolbroda.com/lyricpip/internal/terminal"
	"karolbroda.com/lyricpip/internal/ui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the lyrics overlay",
	Long:  `starts the overlay that follows the player and scrolls its synced lyrics.`,
	RunE:  runOverlay,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runOverlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		<-sigChan
		cancel()
		terminal.Reset()
		os.Exit(0)
	}()

	defer terminal.Reset()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	resolver, err := colors.NewResolver(store)
	if err != nil {
		return fmt.Errorf("failed to load saved colors: %w", err)
	}

	s := song.New(song.Options{
		Lyrics: lyrics.NewChain(
			lyrics.NewLocalSource(store),
			lyrics.NewLrclibSource(cfg.LrclibURL),
		),
		Palettes:   artwork.Extractor{Size: artwork.PaletteSize},
		Colors:     resolver,
		Saver:      store,
		SaveLyrics: cfg.SaveLyrics,
	})

	bus, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}
	defer bus.Close()

	playerService, err := player.NewService(bus, cfg.MprisService)
	if err != nil {
		return fmt.Errorf("failed to create player service: %w", err)
	}

	if err := playerService.Start(); err != nil {
		log.WithError(err).Warn("[Main] could not set up dbus signals, polling only")
	}
	defer playerService.Stop()

	p := poller.New(playerService, s, cfg.UpdateInterval(), poller.WithWake(playerService.Wake()))
	go p.Run(ctx)

	termCaps := terminal.DetectCapabilities()
	if !termCaps.TrueColor {
		log.WithField("term", termCaps.TermProgram).Info("[Main] no truecolor support, colors will be approximated")
	}
	if termCaps.WindowOps {
		placeWindow()
	}

	model := ui.NewModel(ui.Options{
		Song:   s,
		Poller: p,
		Config: cfg,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		program.Quit()
	}()

	log.WithField("player", playerService.Name()).Info("[Main] overlay started")

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("error running bubble tea: %w", err)
	}
	cancel()

	if err := cfg.Save(); err != nil {
		log.WithError(err).Warn("[Main] failed to save config")
	}
	return nil
}

// placeWindow sizes the terminal to the configured overlay geometry,
// centred on the configured point.
func placeWindow() {
	text := ui.NewTextLayout(cfg.FontSize)
	widthPx, heightPx := cfg.Window.Size[0], cfg.Window.Size[1]
	cols := widthPx / text.CellWidth()
	rows := heightPx / text.CellHeight()

	x := cfg.Window.Center[0] - widthPx/2
	y := cfg.Window.Center[1] - heightPx/2

	if err := terminal.PlaceWindow(os.Stdout, x, y, cols, rows); err != nil {
		log.WithError(err).Debug("[Main] window placement failed")
	}
}
