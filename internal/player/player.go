package player

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/godbus/dbus/v5"
	log "github.com/sirupsen/logrus"

	"karolbroda.com/lyricpip/internal/track"
)

const (
	DefaultService = "org.mpris.MediaPlayer2.spotify"

	mprisPrefix      = "org.mpris.MediaPlayer2."
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisIface       = "org.mpris.MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	propertiesIface  = "org.freedesktop.DBus.Properties"
)

// Service reads playback state from one MPRIS player on the session bus.
type Service struct {
	bus        *dbus.Conn
	service    string
	signalChan chan *dbus.Signal
	stopChan   chan struct{}
	stopOnce   sync.Once
	wake       chan struct{}
}

func NewService(bus *dbus.Conn, mprisService string) (*Service, error) {
	if bus == nil {
		return nil, errors.New("nil dbus connection")
	}
	if mprisService == "" {
		return nil, errors.New("empty mpris service name")
	}

	return &Service{
		bus:     bus,
		service: mprisService,
		wake:    make(chan struct{}, 1),
	}, nil
}

func (s *Service) Name() string {
	return s.service
}

// Start subscribes to the player's change signals. polling works without
// it, signals only make track changes show up sooner.
func (s *Service) Start() error {
	signalChan := make(chan *dbus.Signal, 10)
	s.signalChan = signalChan
	s.stopChan = make(chan struct{})

	s.bus.Signal(signalChan)

	matchPropertiesChanged := fmt.Sprintf(
		"type='signal',sender='%s',interface='%s',member='PropertiesChanged',path='%s'",
		s.service, propertiesIface, mprisPath,
	)
	matchSeeked := fmt.Sprintf(
		"type='signal',sender='%s',interface='%s',member='Seeked',path='%s'",
		s.service, mprisPlayerIface, mprisPath,
	)

	err := s.bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchPropertiesChanged).Err
	if err != nil {
		return fmt.Errorf("failed to add properties match: %w", err)
	}

	err = s.bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, matchSeeked).Err
	if err != nil {
		return fmt.Errorf("failed to add seeked match: %w", err)
	}

	go s.signalLoop()

	return nil
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		if s.stopChan != nil {
			close(s.stopChan)
			s.bus.RemoveSignal(s.signalChan)
		}
	})
}

// Wake fires when the player reports a change between polls.
func (s *Service) Wake() <-chan struct{} {
	return s.wake
}

// Snapshot returns the current playback state, or nil when the player is
// not running or has nothing loaded.
func (s *Service) Snapshot(ctx context.Context) (*track.Snapshot, error) {
	var owned bool
	err := s.bus.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, s.service).Store(&owned)
	if err != nil {
		return nil, fmt.Errorf("failed to query bus for %s: %w", s.service, err)
	}
	if !owned {
		return nil, nil
	}

	obj := s.bus.Object(s.service, mprisPath)

	status, err := getProperty[string](ctx, obj, mprisPlayerIface, "PlaybackStatus")
	if err != nil {
		return nil, err
	}
	if status == "Stopped" {
		return nil, nil
	}

	metadata, err := getProperty[map[string]dbus.Variant](ctx, obj, mprisPlayerIface, "Metadata")
	if err != nil {
		return nil, err
	}

	info := infoFromMetadata(metadata)
	if !info.IsValid() {
		return nil, nil
	}

	// some players do not implement Position; treat it as the start
	positionMicros, err := getProperty[int64](ctx, obj, mprisPlayerIface, "Position")
	if err != nil {
		log.WithError(err).Debug("[Player] position unavailable")
		positionMicros = 0
	}

	return &track.Snapshot{
		Track:      info,
		ProgressMs: max(0, positionMicros/1000),
		Playing:    status == "Playing",
	}, nil
}

// Identity is the player's human readable name, or "" when unknown.
func Identity(bus *dbus.Conn, serviceName string) string {
	obj := bus.Object(serviceName, mprisPath)
	variant, err := obj.GetProperty(mprisIface + ".Identity")
	if err != nil {
		return ""
	}

	identity, ok := variant.Value().(string)
	if !ok {
		return ""
	}

	return identity
}

// List returns the MPRIS players currently on the bus, sorted.
func List(ctx context.Context, bus *dbus.Conn) ([]string, error) {
	var names []string
	err := bus.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.ListNames", 0).Store(&names)
	if err != nil {
		return nil, fmt.Errorf("failed to list dbus names: %w", err)
	}
	return filterPlayers(names), nil
}

func filterPlayers(names []string) []string {
	var players []string
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			players = append(players, name)
		}
	}
	sort.Strings(players)
	return players
}

func getProperty[T any](ctx context.Context, obj dbus.BusObject, iface, name string) (T, error) {
	var zero T

	var variant dbus.Variant
	err := obj.CallWithContext(ctx, propertiesIface+".Get", 0, iface, name).Store(&variant)
	if err != nil {
		return zero, fmt.Errorf("failed to get %s property: %w", name, err)
	}

	value, ok := variant.Value().(T)
	if !ok {
		return zero, fmt.Errorf("unexpected %s type %T", name, variant.Value())
	}
	return value, nil
}

func (s *Service) signalLoop() {
	for {
		select {
		case sig, ok := <-s.signalChan:
			if !ok {
				return
			}
			if isPlayerChange(sig) {
				s.notify()
			}
		case <-s.stopChan:
			return
		}
	}
}

func isPlayerChange(sig *dbus.Signal) bool {
	if sig == nil || sig.Path != mprisPath {
		return false
	}

	switch sig.Name {
	case mprisPlayerIface + ".Seeked":
		return true
	case propertiesIface + ".PropertiesChanged":
		if len(sig.Body) < 2 {
			return false
		}
		interfaceName, ok := sig.Body[0].(string)
		if !ok || interfaceName != mprisPlayerIface {
			return false
		}
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			return false
		}
		_, metadata := changed["Metadata"]
		_, status := changed["PlaybackStatus"]
		return metadata || status
	}
	return false
}

func (s *Service) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func infoFromMetadata(metadata map[string]dbus.Variant) *track.Info {
	info := &track.Info{
		ID:           extractString(metadata, "mpris:trackid"),
		Title:        extractString(metadata, "xesam:title"),
		Artists:      extractStrings(metadata, "xesam:artist"),
		Album:        extractString(metadata, "xesam:album"),
		ArtworkURL:   extractString(metadata, "mpris:artUrl"),
		DurationSecs: extractDurationSeconds(metadata, "mpris:length"),
	}

	// players without stable track ids still get a usable identity
	if info.ID == "" || info.ID == "/org/mpris/MediaPlayer2/TrackList/NoTrack" {
		if url := extractString(metadata, "xesam:url"); url != "" {
			info.ID = url
		} else if info.Title != "" && len(info.Artists) > 0 {
			info.ID = info.ArtistNames() + "/" + info.Title
		} else {
			info.ID = ""
		}
	}

	return info
}

func extractString(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}

	switch typed := variant.Value().(type) {
	case string:
		return typed
	case dbus.ObjectPath:
		return string(typed)
	default:
		return ""
	}
}

func extractStrings(metadata map[string]dbus.Variant, key string) []string {
	variant, exists := metadata[key]
	if !exists {
		return nil
	}

	switch typed := variant.Value().(type) {
	case []string:
		var out []string
		for _, s := range typed {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if typed == "" {
			return nil
		}
		return []string{typed}
	default:
		return nil
	}
}

func extractDurationSeconds(metadata map[string]dbus.Variant, key string) float64 {
	variant, exists := metadata[key]
	if !exists {
		return 0
	}

	switch typed := variant.Value().(type) {
	case int64:
		if typed <= 0 {
			return 0
		}
		return float64(typed) / 1_000_000
	case uint64:
		return float64(typed) / 1_000_000
	case int32:
		if typed <= 0 {
			return 0
		}
		return float64(typed) / 1_000_000
	default:
		return 0
	}
}
