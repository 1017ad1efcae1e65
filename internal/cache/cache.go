package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"karolbroda.com/lyricpip/internal/track"
)

const (
	cacheDirName  = "lyricpip"
	DefaultDBFile = "lyrics.db"
)

var (
	ErrMiss   = errors.New("cache miss")
	ErrClosed = errors.New("cache store is closed")
)

// LyricEntry is one saved synced-lyrics blob. the four key columns form the
// primary key; duration is matched by range on lookup.
type LyricEntry struct {
	ArtistNames  string  `gorm:"column:artist_names;primaryKey"`
	AlbumName    string  `gorm:"column:album_name;primaryKey"`
	TrackName    string  `gorm:"column:track_name;primaryKey"`
	Duration     float64 `gorm:"column:duration;primaryKey"`
	SyncedLyrics string  `gorm:"column:synced_lyrics"`
}

func (LyricEntry) TableName() string { return "lyrics" }

func (e *LyricEntry) Key() track.Key {
	return track.Key{
		ArtistNames:  e.ArtistNames,
		AlbumName:    e.AlbumName,
		TrackName:    e.TrackName,
		DurationSecs: e.Duration,
	}
}

// ColorEntry maps a player track id to a packed rgb value, stored as a
// decimal string.
type ColorEntry struct {
	SongID string `gorm:"column:song_id;primaryKey"`
	Color  string `gorm:"column:color"`
}

func (ColorEntry) TableName() string { return "colors" }

// Store owns the sqlite handle. open it once at startup and close it on exit.
type Store struct {
	path string
	DB   *gorm.DB
	db   *sql.DB
}

func DefaultPath() string {
	dir, err := Directory()
	if err != nil {
		return DefaultDBFile
	}
	return filepath.Join(dir, DefaultDBFile)
}

// Directory is the per-user cache directory.
func Directory() (string, error) {
	// xdg cache home takes priority
	xdgCache := os.Getenv("XDG_CACHE_HOME")
	if xdgCache != "" {
		return filepath.Join(xdgCache, cacheDirName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".cache", cacheDirName), nil
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = DefaultPath()
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// the poller and the ui both write; one connection serializes them
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&LyricEntry{}, &ColorEntry{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	log.WithField("path", dbPath).Debug("[Cache:Init] opened cache store")
	return &Store{path: dbPath, DB: db, db: sqlDB}, nil
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.DB = nil
	return err
}

func (s *Store) ready() error {
	if s == nil || s.DB == nil {
		return ErrClosed
	}
	return nil
}

// LoadColors reads the whole colour table. rows whose value does not parse
// are skipped.
func (s *Store) LoadColors() (map[string]int, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var rows []ColorEntry
	if err := s.DB.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying colors: %w", err)
	}

	result := make(map[string]int, len(rows))
	for _, row := range rows {
		packed, err := strconv.Atoi(row.Color)
		if err != nil {
			log.WithField("song_id", row.SongID).Warn("[Cache] skipping unreadable color")
			continue
		}
		result[row.SongID] = packed
	}
	return result, nil
}

// SaveColor inserts or replaces the colour for a track.
func (s *Store) SaveColor(trackID string, packed int) error {
	if err := s.ready(); err != nil {
		return err
	}
	if trackID == "" {
		return errors.New("empty track id")
	}

	entry := ColorEntry{SongID: trackID, Color: strconv.Itoa(packed)}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "song_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"color"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("saving color for %s: %w", trackID, err)
	}
	return nil
}

func (s *Store) DeleteColor(trackID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.DB.Where("song_id = ?", trackID).Delete(&ColorEntry{}).Error
}

// FindLyrics looks up a blob by the composite key, matching duration within
// track.DurationTolerance.
func (s *Store) FindLyrics(key track.Key) (*LyricEntry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var entry LyricEntry
	err := s.DB.
		Where("track_name = ? AND artist_names = ? AND album_name = ?", key.TrackName, key.ArtistNames, key.AlbumName).
		Where("duration >= ? AND duration <= ?", key.DurationSecs-track.DurationTolerance, key.DurationSecs+track.DurationTolerance).
		Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("querying lyrics: %w", err)
	}
	return &entry, nil
}

// SaveLyrics inserts the blob unless the exact key is already stored. it
// reports whether a row was written.
func (s *Store) SaveLyrics(entry *LyricEntry) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	if entry == nil || entry.TrackName == "" || entry.SyncedLyrics == "" {
		return false, errors.New("invalid lyric entry")
	}

	res := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(entry)
	if res.Error != nil {
		return false, fmt.Errorf("saving lyrics: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ListLyrics() ([]*LyricEntry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var rows []*LyricEntry
	if err := s.DB.Order("artist_names, track_name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing lyrics: %w", err)
	}
	return rows, nil
}

func (s *Store) DeleteLyrics(key track.Key) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	res := s.DB.
		Where("track_name = ? AND artist_names = ? AND album_name = ?", key.TrackName, key.ArtistNames, key.AlbumName).
		Where("duration >= ? AND duration <= ?", key.DurationSecs-track.DurationTolerance, key.DurationSecs+track.DurationTolerance).
		Delete(&LyricEntry{})
	return res.RowsAffected, res.Error
}

// Clear drops every saved lyric and colour.
func (s *Store) Clear() error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&LyricEntry{}).Error; err != nil {
			return err
		}
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&ColorEntry{}).Error
	})
}

type Stats struct {
	Lyrics    int64
	Colors    int64
	SizeBytes int64
}

func (s *Store) Stats() (Stats, error) {
	var stats Stats
	if err := s.ready(); err != nil {
		return stats, err
	}
	if err := s.DB.Model(&LyricEntry{}).Count(&stats.Lyrics).Error; err != nil {
		return stats, err
	}
	if err := s.DB.Model(&ColorEntry{}).Count(&stats.Colors).Error; err != nil {
		return stats, err
	}
	if info, err := os.Stat(s.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}
