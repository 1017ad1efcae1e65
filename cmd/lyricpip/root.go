package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"karolbroda.com/lyricpip/internal/cache"
	"karolbroda.com/lyricpip/internal/config"
	"karolbroda.com/lyricpip/internal/logging"
)

var (
	// global flags
	configPath   string
	mprisService string
	lrclibURL    string
	dbPath       string
	logPath      string
	debug        bool
	saveLyrics   bool
)

var (
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "lyricpip",
	Short: "picture-in-picture synced lyrics for mpris players",
	Long: `lyricpip shows the synced lyrics of the song your player is playing,
scrolling the current line to the middle of a small overlay tinted with a
colour from the album artwork.

when run without a subcommand, it starts the overlay.`,
	Version: "1.0.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverlay(cmd, args)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVarP(&mprisService, "mpris-service", "m", "", "mpris service name (e.g., org.mpris.MediaPlayer2.spotify)")
	rootCmd.PersistentFlags().StringVar(&lrclibURL, "lrclib-url", "", "custom lrclib api url")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "lyric database (default "+cache.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-file", "", "log file (default "+logging.DefaultPath()+")")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "show the debug overlay and log at debug level")
	rootCmd.PersistentFlags().BoolVar(&saveLyrics, "save-lyrics", false, "save fetched lyrics to the local database")
}

// setup loads the config, applies flag overrides and points the logger at
// its file.
func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if mprisService != "" {
		cfg.MprisService = mprisService
	}
	if lrclibURL != "" {
		cfg.LrclibURL = lrclibURL
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if flags.Changed("debug") {
		cfg.DebugMode = debug
	}
	if flags.Changed("save-lyrics") {
		cfg.SaveLyrics = saveLyrics
	}

	closer, err := logging.Setup(cfg.DebugMode, logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		logging.Discard()
		return nil
	}
	logCloser = closer

	log.WithFields(log.Fields{
		"config": cfg.Path(),
		"player": cfg.MprisService,
	}).Debug("[Main] configuration loaded")
	return nil
}

// openStore opens the lyric database named by the config.
func openStore() (*cache.Store, error) {
	store, err := cache.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open lyric database: %w", err)
	}
	return store, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
