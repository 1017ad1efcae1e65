package track

import (
	"math"
	"strings"
)

// DurationTolerance is how far apart two durations (in seconds) may be and
// still name the same recording. sources disagree by a second or two.
const DurationTolerance = 2.0

type Info struct {
	ID           string
	Title        string
	Artists      []string
	Album        string
	DurationSecs float64
	ArtworkURL   string
}

func (t *Info) IsValid() bool {
	if t == nil {
		return false
	}
	return t.ID != "" && t.Title != "" && len(t.Artists) > 0
}

func (t *Info) IsSameTrack(other *Info) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.ID == other.ID
}

// ArtistNames joins the artists in the order the player reported them.
func (t *Info) ArtistNames() string {
	if t == nil {
		return ""
	}
	return strings.Join(t.Artists, "-")
}

func (t *Info) Key() Key {
	return Key{
		ArtistNames:  t.ArtistNames(),
		AlbumName:    t.Album,
		TrackName:    t.Title,
		DurationSecs: t.DurationSecs,
	}
}

// Key is the composite identity used by the lyric cache.
type Key struct {
	ArtistNames  string
	AlbumName    string
	TrackName    string
	DurationSecs float64
}

func (k Key) Matches(other Key) bool {
	return k.ArtistNames == other.ArtistNames &&
		k.AlbumName == other.AlbumName &&
		k.TrackName == other.TrackName &&
		math.Abs(k.DurationSecs-other.DurationSecs) <= DurationTolerance
}

// Snapshot is one reading of the player.
type Snapshot struct {
	Track      *Info
	ProgressMs int64
	Playing    bool
}
