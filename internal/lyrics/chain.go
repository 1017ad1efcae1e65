package lyrics

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"karolbroda.com/lyricpip/internal/cache"
	"karolbroda.com/lyricpip/internal/track"
)

var ErrNoLyrics = errors.New("no lyrics found")

// Source yields a raw synced-lyrics blob for a track.
type Source interface {
	Name() string
	Lookup(ctx context.Context, info *track.Info) (string, error)
}

// Chain tries its sources in order and stops at the first one that yields
// lines. source failures are never fatal.
type Chain struct {
	sources []Source
}

func NewChain(sources ...Source) *Chain {
	return &Chain{sources: sources}
}

// Resolve returns the parsed lines (in blob order) and the name of the
// source that produced them.
func (c *Chain) Resolve(ctx context.Context, info *track.Info) ([]Line, string, error) {
	if info == nil {
		return nil, "", ErrNoLyrics
	}

	for _, source := range c.sources {
		fields := log.Fields{"source": source.Name(), "track": info.Title}

		blob, err := source.Lookup(ctx, info)
		if err != nil {
			switch {
			case errors.Is(err, cache.ErrMiss), errors.Is(err, ErrNotFound),
				errors.Is(err, ErrInstrumental), errors.Is(err, ErrNoSyncedLyric):
				log.WithFields(fields).WithError(err).Debug("[Lyrics] no data")
			case IsTimeout(err):
				log.WithFields(fields).Warn("[Lyrics] source timed out")
			default:
				log.WithFields(fields).WithError(err).Warn("[Lyrics] source failed")
			}
			continue
		}

		lines := Parse(blob)
		if len(lines) == 0 {
			log.WithFields(fields).Debug("[Lyrics] blob had no timed lines")
			continue
		}

		log.WithFields(fields).WithField("lines", len(lines)).Info("[Lyrics] resolved")
		return lines, source.Name(), nil
	}

	return nil, "", ErrNoLyrics
}

// LyricStore is the part of the cache the local source reads.
type LyricStore interface {
	FindLyrics(key track.Key) (*cache.LyricEntry, error)
}

// LocalSource reads blobs saved by earlier sessions.
type LocalSource struct {
	store LyricStore
}

func NewLocalSource(store LyricStore) *LocalSource {
	return &LocalSource{store: store}
}

func (s *LocalSource) Name() string { return "local" }

func (s *LocalSource) Lookup(_ context.Context, info *track.Info) (string, error) {
	if s.store == nil {
		return "", cache.ErrMiss
	}
	entry, err := s.store.FindLyrics(info.Key())
	if err != nil {
		return "", err
	}
	return entry.SyncedLyrics, nil
}
