// Package song tracks the currently playing track and runs the lyric and
// colour pipeline for it.
package song

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"karolbroda.com/lyricpip/internal/cache"
	"karolbroda.com/lyricpip/internal/colors"
	"karolbroda.com/lyricpip/internal/lyrics"
	"karolbroda.com/lyricpip/internal/track"
)

// NoProgress is reported while nothing is playing. it sorts after every
// lyric line, so nothing is ever considered upcoming.
const NoProgress int64 = math.MaxInt64

// local extrapolation runs slightly slow so the display never gets ahead
// of the player between polls
const extrapolationRate = 0.85

var ErrNoTrack = errors.New("no track")

type LyricsResolver interface {
	Resolve(ctx context.Context, info *track.Info) ([]lyrics.Line, string, error)
}

type PaletteSource interface {
	Palette(ctx context.Context, artworkURL string) (colors.Palette, error)
}

type LyricSaver interface {
	SaveLyrics(entry *cache.LyricEntry) (bool, error)
}

// Record is the normalized metadata of resolved lyrics, in the shape the
// lyric cache stores.
type Record struct {
	TrackName    string
	ArtistNames  string
	AlbumName    string
	DurationSecs float64
	SyncedLyrics string
}

func (r *Record) Entry() *cache.LyricEntry {
	return &cache.LyricEntry{
		ArtistNames:  r.ArtistNames,
		AlbumName:    r.AlbumName,
		TrackName:    r.TrackName,
		Duration:     r.DurationSecs,
		SyncedLyrics: r.SyncedLyrics,
	}
}

// Resolved is what the pipeline hands to the display.
type Resolved struct {
	TrackID string
	Lines   []lyrics.Line
	Origin  string
	Scheme  colors.Scheme
}

type Options struct {
	Lyrics     LyricsResolver
	Palettes   PaletteSource
	Colors     *colors.Resolver
	Saver      LyricSaver
	SaveLyrics bool
}

// Song is shared by the poller (which ingests snapshots and runs the
// pipeline) and the ui (which reads progress and cycles colours).
type Song struct {
	lyrics     LyricsResolver
	palettes   PaletteSource
	colors     *colors.Resolver
	saver      LyricSaver
	saveLyrics bool
	now        func() time.Time

	mu         sync.Mutex
	info       *track.Info
	progressMs float64
	paused     bool
	changedAt  time.Time
	record     *Record
	palette    colors.Palette
}

func New(opts Options) *Song {
	return &Song{
		lyrics:     opts.Lyrics,
		palettes:   opts.Palettes,
		colors:     opts.Colors,
		saver:      opts.Saver,
		saveLyrics: opts.SaveLyrics,
		now:        time.Now,
		progressMs: math.Inf(1),
	}
}

// Ingest applies a player snapshot and reports whether the track changed.
// a nil snapshot resets the song and never reports a change.
func (s *Song) Ingest(snap *track.Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap == nil || !snap.Track.IsValid() {
		s.info = nil
		s.record = nil
		s.palette = nil
		s.paused = false
		s.progressMs = math.Inf(1)
		return false
	}

	changed := s.info == nil || s.info.ID != snap.Track.ID
	if changed {
		s.changedAt = s.now()
		s.record = nil
		s.palette = nil
	}

	trackCopy := *snap.Track
	s.info = &trackCopy
	s.progressMs = float64(snap.ProgressMs)
	s.paused = !snap.Playing

	return changed
}

// Advance moves progress forward between polls. it is display smoothing
// only and is overwritten by the next snapshot.
func (s *Song) Advance(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused || math.IsInf(s.progressMs, 1) || dt <= 0 {
		return
	}
	s.progressMs += float64(dt.Milliseconds()) * extrapolationRate
}

func (s *Song) Progress() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if math.IsInf(s.progressMs, 1) {
		return NoProgress
	}
	return int64(s.progressMs)
}

func (s *Song) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Song) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return ""
	}
	return s.info.ID
}

func (s *Song) Info() *track.Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return nil
	}
	infoCopy := *s.info
	return &infoCopy
}

// Since is the time elapsed since the current track started being tracked.
func (s *Song) Since() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.info == nil {
		return 0
	}
	return s.now().Sub(s.changedAt)
}

func (s *Song) Record() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return nil
	}
	recordCopy := *s.record
	return &recordCopy
}

func (s *Song) Palette() colors.Palette {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(colors.Palette(nil), s.palette...)
}

// FetchLyricsAndColors runs the lyric chain and, when it succeeds, resolves
// the colour scheme from freshly extracted artwork. network work happens
// without holding the lock.
func (s *Song) FetchLyricsAndColors(ctx context.Context) (*Resolved, error) {
	info := s.Info()
	if info == nil {
		return nil, ErrNoTrack
	}

	lines, origin, err := s.lyrics.Resolve(ctx, info)
	if err != nil {
		return nil, fmt.Errorf("%s - %s: %w", info.ArtistNames(), info.Title, err)
	}

	record := &Record{
		TrackName:    info.Title,
		ArtistNames:  info.ArtistNames(),
		AlbumName:    info.Album,
		DurationSecs: info.DurationSecs,
		SyncedLyrics: lyrics.Format(lines),
	}

	s.mu.Lock()
	current := s.info != nil && s.info.ID == info.ID
	if current {
		s.record = record
	}
	s.mu.Unlock()

	if current && s.saveLyrics {
		s.SaveLyrics()
	}

	scheme := s.resolveColors(ctx, info, current)

	return &Resolved{
		TrackID: info.ID,
		Lines:   lines,
		Origin:  origin,
		Scheme:  scheme,
	}, nil
}

func (s *Song) resolveColors(ctx context.Context, info *track.Info, current bool) colors.Scheme {
	if s.palettes == nil || s.colors == nil {
		return colors.Neutral
	}

	palette, err := s.palettes.Palette(ctx, info.ArtworkURL)
	if err != nil {
		log.WithError(err).WithField("track", info.ID).Warn("[Colors] artwork unavailable, using neutral colors")
		return colors.Neutral
	}

	if current {
		s.mu.Lock()
		s.palette = palette
		s.mu.Unlock()
	}

	return s.colors.Resolve(info.ID, palette)
}

// ChangeColor steps the background through the palette.
func (s *Song) ChangeColor(current colors.RGB, direction int) (colors.Scheme, bool) {
	s.mu.Lock()
	id := ""
	if s.info != nil {
		id = s.info.ID
	}
	palette := s.palette
	s.mu.Unlock()

	if id == "" || s.colors == nil {
		return colors.Scheme{}, false
	}
	return s.colors.Cycle(id, palette, current, direction)
}

func (s *Song) SetColor(background colors.RGB) (colors.Scheme, bool) {
	id := s.ID()
	if id == "" || s.colors == nil {
		return colors.Scheme{}, false
	}
	return s.colors.Set(id, background), true
}

// SaveLyrics writes the resolved lyrics to the local cache. an existing
// entry for the track is left untouched.
func (s *Song) SaveLyrics() bool {
	record := s.Record()
	if record == nil {
		log.Debug("[Lyrics] nothing to save")
		return false
	}
	if s.saver == nil {
		return false
	}

	written, err := s.saver.SaveLyrics(record.Entry())
	if err != nil {
		log.WithError(err).Warn("[Cache:Lyrics] failed to save lyrics")
		return false
	}
	log.WithFields(log.Fields{"track": record.TrackName, "written": written}).Info("[Cache:Lyrics] saved lyrics")
	return true
}
