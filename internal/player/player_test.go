package player

import (
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestInfoFromMetadata(t *testing.T) {
	metadata := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/com/spotify/track/abc")),
		"xesam:title":   dbus.MakeVariant("Song"),
		"xesam:artist":  dbus.MakeVariant([]string{"One", "", "Two"}),
		"xesam:album":   dbus.MakeVariant("Album"),
		"mpris:artUrl":  dbus.MakeVariant("https://i.scdn.co/image/x"),
		"mpris:length":  dbus.MakeVariant(uint64(201_500_000)),
	}

	info := infoFromMetadata(metadata)
	if info.ID != "/com/spotify/track/abc" {
		t.Errorf("ID = %q", info.ID)
	}
	if len(info.Artists) != 2 || info.ArtistNames() != "One-Two" {
		t.Errorf("Artists = %v", info.Artists)
	}
	if info.DurationSecs != 201.5 {
		t.Errorf("DurationSecs = %v, want 201.5", info.DurationSecs)
	}
	if !info.IsValid() {
		t.Error("info should be valid")
	}
}

func TestInfoFromMetadataFallbackID(t *testing.T) {
	tests := []struct {
		name     string
		metadata map[string]dbus.Variant
		want     string
	}{
		{
			name: "url",
			metadata: map[string]dbus.Variant{
				"xesam:title":  dbus.MakeVariant("Song"),
				"xesam:artist": dbus.MakeVariant("Solo"),
				"xesam:url":    dbus.MakeVariant("file:///music/song.flac"),
			},
			want: "file:///music/song.flac",
		},
		{
			name: "artist and title",
			metadata: map[string]dbus.Variant{
				"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")),
				"xesam:title":   dbus.MakeVariant("Song"),
				"xesam:artist":  dbus.MakeVariant([]string{"A", "B"}),
			},
			want: "A-B/Song",
		},
		{
			name:     "empty",
			metadata: map[string]dbus.Variant{},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := infoFromMetadata(tt.metadata).ID; got != tt.want {
				t.Errorf("ID = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractDuration(t *testing.T) {
	tests := []struct {
		value any
		want  float64
	}{
		{int64(3_000_000), 3},
		{int64(-1), 0},
		{uint64(1_500_000), 1.5},
		{"nope", 0},
	}
	for _, tt := range tests {
		metadata := map[string]dbus.Variant{"mpris:length": dbus.MakeVariant(tt.value)}
		if got := extractDurationSeconds(metadata, "mpris:length"); got != tt.want {
			t.Errorf("duration(%v) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestFilterPlayers(t *testing.T) {
	names := []string{
		"org.freedesktop.DBus",
		"org.mpris.MediaPlayer2.spotify",
		":1.42",
		"org.mpris.MediaPlayer2.mpv",
	}
	got := filterPlayers(names)
	if len(got) != 2 || got[0] != "org.mpris.MediaPlayer2.mpv" || got[1] != "org.mpris.MediaPlayer2.spotify" {
		t.Errorf("filterPlayers = %v", got)
	}
}

func TestIsPlayerChange(t *testing.T) {
	changed := func(iface string, props map[string]dbus.Variant) *dbus.Signal {
		return &dbus.Signal{
			Path: mprisPath,
			Name: propertiesIface + ".PropertiesChanged",
			Body: []any{iface, props, []string{}},
		}
	}

	tests := []struct {
		name string
		sig  *dbus.Signal
		want bool
	}{
		{"nil", nil, false},
		{"metadata", changed(mprisPlayerIface, map[string]dbus.Variant{"Metadata": dbus.MakeVariant(map[string]dbus.Variant{})}), true},
		{"status", changed(mprisPlayerIface, map[string]dbus.Variant{"PlaybackStatus": dbus.MakeVariant("Paused")}), true},
		{"volume only", changed(mprisPlayerIface, map[string]dbus.Variant{"Volume": dbus.MakeVariant(0.5)}), false},
		{"other interface", changed(mprisIface, map[string]dbus.Variant{"Metadata": dbus.MakeVariant("x")}), false},
		{"seeked", &dbus.Signal{Path: mprisPath, Name: mprisPlayerIface + ".Seeked", Body: []any{int64(10)}}, true},
		{"other path", &dbus.Signal{Path: "/other", Name: mprisPlayerIface + ".Seeked"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isPlayerChange(tt.sig); got != tt.want {
				t.Errorf("isPlayerChange = %v, want %v", got, tt.want)
			}
		})
	}
}
