// Package poller runs playback polls in the background and hands their
// results to the ui through a bounded queue.
package poller

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"karolbroda.com/lyricpip/internal/lyrics"
	"karolbroda.com/lyricpip/internal/song"
	"karolbroda.com/lyricpip/internal/track"
)

const (
	QueueSize = 8

	NoSongMessage   = "Can't detect a song..."
	NoLyricsMessage = "Sorry, can't find the lyrics for this song..."
)

type Kind int

const (
	// KindLyrics carries freshly resolved lines and colours.
	KindLyrics Kind = iota
	// KindSync means the same track was polled again.
	KindSync
	KindNoSong
	KindNoLyrics
)

func (k Kind) String() string {
	switch k {
	case KindLyrics:
		return "lyrics"
	case KindSync:
		return "sync"
	case KindNoSong:
		return "no-song"
	case KindNoLyrics:
		return "no-lyrics"
	default:
		return "unknown"
	}
}

// Update is one poll result. TrackID is the track it was computed for.
type Update struct {
	Kind     Kind
	TrackID  string
	Resolved *song.Resolved
	Message  string
}

type Player interface {
	Snapshot(ctx context.Context) (*track.Snapshot, error)
}

type Option func(*Poller)

// WithWake polls early whenever ch fires.
func WithWake(ch <-chan struct{}) Option {
	return func(p *Poller) {
		p.wake = ch
	}
}

type Poller struct {
	player   Player
	song     *song.Song
	interval time.Duration
	wake     <-chan struct{}
	force    chan struct{}

	updates chan Update
	queueMu sync.Mutex
	dropped atomic.Int64

	busy     atomic.Bool
	lastPoll atomic.Int64
	inflight sync.WaitGroup

	// only touched by Poll, which never overlaps itself
	showingNoSong bool
	retryTrack    string
}

func New(player Player, s *song.Song, interval time.Duration, opts ...Option) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	p := &Poller{
		player:   player,
		song:     s,
		interval: interval,
		force:    make(chan struct{}, 1),
		updates:  make(chan Update, QueueSize),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls every interval until ctx is done, then waits for the
// in-flight poll to finish.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	defer p.inflight.Wait()

	p.Trigger(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.Trigger(ctx)
		case <-p.wake:
			log.Debug("[Poll] woken by player")
			p.Trigger(ctx)
		case <-p.force:
			p.Trigger(ctx)
		}
	}
}

// Force asks Run for a poll now.
func (p *Poller) Force() {
	select {
	case p.force <- struct{}{}:
	default:
	}
}

// Trigger starts a poll unless one is already running.
func (p *Poller) Trigger(ctx context.Context) bool {
	if !p.busy.CompareAndSwap(false, true) {
		log.Debug("[Poll] previous poll still running, skipping")
		return false
	}

	p.lastPoll.Store(time.Now().UnixNano())
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		defer p.busy.Store(false)
		p.Poll(ctx)
	}()
	return true
}

func (p *Poller) Busy() bool {
	return p.busy.Load()
}

// Poll runs one poll synchronously.
func (p *Poller) Poll(ctx context.Context) {
	snap, err := p.player.Snapshot(ctx)
	if err != nil {
		log.WithError(err).Warn("[Poll] player unavailable")
		return
	}

	changed := p.song.Ingest(snap)

	if snap == nil || !snap.Track.IsValid() {
		if !p.showingNoSong {
			p.showingNoSong = true
			log.Info("[Poll] no song playing")
			p.push(Update{Kind: KindNoSong, Message: NoSongMessage})
		}
		return
	}
	p.showingNoSong = false

	trackID := snap.Track.ID
	retry := !changed && p.retryTrack == trackID
	p.retryTrack = ""
	if !changed && !retry {
		p.push(Update{Kind: KindSync, TrackID: trackID})
		return
	}

	log.WithFields(log.Fields{
		"track":  snap.Track.Title,
		"artist": snap.Track.ArtistNames(),
		"retry":  retry,
	}).Info("[Poll] resolving lyrics")

	resolved, err := p.song.FetchLyricsAndColors(ctx)
	switch {
	case err == nil:
		p.push(Update{Kind: KindLyrics, TrackID: trackID, Resolved: resolved})
	case errors.Is(err, lyrics.ErrNoLyrics):
		log.WithError(err).Info("[Poll] no lyrics")
		p.push(Update{Kind: KindNoLyrics, TrackID: trackID, Message: NoLyricsMessage})
	default:
		// transient, try again on the next poll
		log.WithError(err).Warn("[Poll] pipeline failed")
		p.retryTrack = trackID
	}
}

// push enqueues without blocking, dropping the oldest pending update when
// the queue is full.
func (p *Poller) push(u Update) {
	p.queueMu.Lock()
	defer p.queueMu.Unlock()

	for {
		select {
		case p.updates <- u:
			return
		default:
		}

		select {
		case old := <-p.updates:
			p.dropped.Add(1)
			log.WithField("kind", old.Kind).Debug("[Poll] queue full, dropped oldest update")
		default:
		}
	}
}

// Drain returns every pending update in arrival order without blocking.
func (p *Poller) Drain() []Update {
	var out []Update
	for {
		select {
		case u := <-p.updates:
			out = append(out, u)
		default:
			return out
		}
	}
}

func (p *Poller) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Countdown is the elapsed fraction of the current poll interval, in
// [0, 1].
func (p *Poller) Countdown(now time.Time) float64 {
	last := p.lastPoll.Load()
	if last == 0 {
		return 0
	}
	elapsed := now.Sub(time.Unix(0, last))
	fraction := float64(elapsed) / float64(p.interval)
	return min(1, max(0, fraction))
}
