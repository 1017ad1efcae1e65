package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	AppName = "lyricpip"

	DefaultMprisService = "org.mpris.MediaPlayer2.spotify"
	DefaultLrclibGetURL = "https://lrclib.net/api/get"

	envPrefix = "LYRICPIP"
)

type Window struct {
	Center []int `mapstructure:"center"`
	Size   []int `mapstructure:"size"`
}

type Config struct {
	UpdateSeconds  float64 `mapstructure:"update_seconds"`
	Window         Window  `mapstructure:"window"`
	FontSize       int     `mapstructure:"font_size"`
	SeparationSize int     `mapstructure:"separation_size"`
	DebugMode      bool    `mapstructure:"debug_mode"`
	DebugLine      bool    `mapstructure:"debug_line"`
	SaveLyrics     bool    `mapstructure:"save_lyrics"`
	MprisService   string  `mapstructure:"mpris_service"`
	LrclibURL      string  `mapstructure:"lrclib_url"`
	DBPath         string  `mapstructure:"db_path"`

	v    *viper.Viper
	path string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("update_seconds", 1)
	v.SetDefault("window.center", []int{0, 0})
	v.SetDefault("window.size", []int{534, 300})
	v.SetDefault("font_size", 20)
	v.SetDefault("separation_size", 15)
	v.SetDefault("debug_mode", false)
	v.SetDefault("debug_line", false)
	v.SetDefault("save_lyrics", false)
	v.SetDefault("mpris_service", DefaultMprisService)
	v.SetDefault("lrclib_url", DefaultLrclibGetURL)
	v.SetDefault("db_path", "")
}

// Dir is where config.yaml lives by default.
func Dir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, AppName)
}

func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the config file at path (the default location when empty),
// then applies .env and LYRICPIP_* environment overrides. a missing file
// is not an error; every absent key gets its default.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("[Config] failed to load .env")
	}

	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		log.WithField("path", path).Info("[Config] no config file, using defaults")
	}

	cfg := &Config{v: v, path: path}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.normalize()

	return cfg, nil
}

func (c *Config) normalize() {
	if c.UpdateSeconds <= 0 {
		c.UpdateSeconds = 1
	}
	if len(c.Window.Center) != 2 {
		c.Window.Center = []int{0, 0}
	}
	if len(c.Window.Size) != 2 || c.Window.Size[0] <= 0 || c.Window.Size[1] <= 0 {
		c.Window.Size = []int{534, 300}
	}
	if c.FontSize <= 0 {
		c.FontSize = 20
	}
	if c.SeparationSize < 0 {
		c.SeparationSize = 0
	}
}

func (c *Config) Path() string {
	return c.path
}

func (c *Config) UpdateInterval() time.Duration {
	return time.Duration(c.UpdateSeconds * float64(time.Second))
}

// Save writes every key back to the config file, creating it if needed.
func (c *Config) Save() error {
	if c.v == nil {
		c.v = viper.New()
		setDefaults(c.v)
	}
	if c.path == "" {
		c.path = DefaultPath()
	}

	c.v.Set("update_seconds", c.UpdateSeconds)
	c.v.Set("window.center", c.Window.Center)
	c.v.Set("window.size", c.Window.Size)
	c.v.Set("font_size", c.FontSize)
	c.v.Set("separation_size", c.SeparationSize)
	c.v.Set("debug_mode", c.DebugMode)
	c.v.Set("debug_line", c.DebugLine)
	c.v.Set("save_lyrics", c.SaveLyrics)
	c.v.Set("mpris_service", c.MprisService)
	c.v.Set("lrclib_url", c.LrclibURL)
	c.v.Set("db_path", c.DBPath)

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := c.v.WriteConfigAs(c.path); err != nil {
		return fmt.Errorf("failed to write config %s: %w", c.path, err)
	}

	log.WithField("path", c.path).Debug("[Config] saved")
	return nil
}
