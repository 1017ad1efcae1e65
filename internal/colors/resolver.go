package colors

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Store persists the per-track background choice.
type Store interface {
	LoadColors() (map[string]int, error)
	SaveColor(trackID string, packed int) error
}

// Resolver picks and remembers a background colour per track. it keeps the
// whole colour table in memory and writes through to the store.
type Resolver struct {
	store Store
	mu    sync.Mutex
	known map[string]int
}

func NewResolver(store Store) (*Resolver, error) {
	r := &Resolver{
		store: store,
		known: make(map[string]int),
	}
	if store == nil {
		return r, nil
	}

	loaded, err := store.LoadColors()
	if err != nil {
		return nil, fmt.Errorf("failed to load colors: %w", err)
	}
	for id, packed := range loaded {
		r.known[id] = packed
	}

	log.WithField("count", len(r.known)).Debug("[Colors] loaded cached colors")
	return r, nil
}

// Resolve returns the cached background for the track, or the most
// saturated palette entry which then becomes the cached choice.
func (r *Resolver) Resolve(trackID string, palette Palette) Scheme {
	if trackID == "" {
		return Neutral
	}

	r.mu.Lock()
	packed, ok := r.known[trackID]
	r.mu.Unlock()
	if ok {
		log.WithField("track", trackID).Debug("[Colors] using cached color")
		return SchemeFor(Unpack(packed))
	}

	background, ok := palette.MostSaturated()
	if !ok {
		return Neutral
	}

	r.save(trackID, background)
	return SchemeFor(background)
}

// Cycle moves the background one step through the palette. current is
// looked up by value; when it is missing the search starts at -direction,
// so the first step lands on the first entry in either direction.
func (r *Resolver) Cycle(trackID string, palette Palette, current RGB, direction int) (Scheme, bool) {
	if trackID == "" || len(palette) == 0 {
		return Scheme{}, false
	}
	if direction >= 0 {
		direction = 1
	} else {
		direction = -1
	}

	index := palette.IndexOf(current)
	if index < 0 {
		index = -direction
	}

	next := index + direction
	if next >= len(palette) {
		next = 0
	} else if next < 0 {
		next = len(palette) - 1
	}

	background := palette[next]
	r.save(trackID, background)
	return SchemeFor(background), true
}

// Set stores an explicit background for the track.
func (r *Resolver) Set(trackID string, background RGB) Scheme {
	if trackID != "" {
		r.save(trackID, background)
	}
	return SchemeFor(background)
}

func (r *Resolver) Lookup(trackID string) (RGB, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	packed, ok := r.known[trackID]
	return Unpack(packed), ok
}

func (r *Resolver) save(trackID string, background RGB) {
	packed := background.Pack()

	r.mu.Lock()
	r.known[trackID] = packed
	r.mu.Unlock()

	if r.store == nil {
		return
	}
	if err := r.store.SaveColor(trackID, packed); err != nil {
		log.WithError(err).WithField("track", trackID).Warn("[Colors] failed to persist color")
		return
	}
	log.WithFields(log.Fields{"track": trackID, "color": background.Hex()}).Debug("[Colors] saved color")
}
