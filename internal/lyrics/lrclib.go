package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"karolbroda.com/lyricpip/internal/track"
)

const (
	DefaultLrclibURL = "https://lrclib.net/api/get"
	DefaultTimeout   = 10 * time.Second
	userAgent        = "lyricpip/1.0"
)

var (
	ErrNotFound      = errors.New("lyrics not found")
	ErrInstrumental  = errors.New("track is instrumental")
	ErrNoSyncedLyric = errors.New("no synced lyrics")
)

type LrclibResponse struct {
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// LrclibSource looks tracks up on an lrclib "get" endpoint.
type LrclibSource struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

type LrclibOption func(*LrclibSource)

func WithHTTPClient(client *http.Client) LrclibOption {
	return func(s *LrclibSource) { s.client = client }
}

// WithRateLimit caps outgoing requests. lrclib is a free service.
func WithRateLimit(perSecond float64, burst int) LrclibOption {
	return func(s *LrclibSource) { s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst) }
}

func NewLrclibSource(baseURL string, opts ...LrclibOption) *LrclibSource {
	if baseURL == "" {
		baseURL = DefaultLrclibURL
	}

	s := &LrclibSource{
		baseURL: baseURL,
		client:  newHTTPClient(),
		limiter: rate.NewLimiter(rate.Limit(2), 2),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     60 * time.Second,
		TLSHandshakeTimeout: 2 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   DefaultTimeout,
	}
}

func (s *LrclibSource) Name() string { return "lrclib" }

// Lookup returns the synced blob for the track. instrumental tracks and
// tracks without synced lyrics are rejected.
func (s *LrclibSource) Lookup(ctx context.Context, info *track.Info) (string, error) {
	payload, err := s.Get(ctx, info)
	if err != nil {
		return "", err
	}
	if payload.Instrumental {
		return "", ErrInstrumental
	}
	if payload.SyncedLyrics == "" {
		return "", ErrNoSyncedLyric
	}
	return payload.SyncedLyrics, nil
}

func (s *LrclibSource) Get(ctx context.Context, info *track.Info) (*LrclibResponse, error) {
	if info == nil || info.Title == "" || len(info.Artists) == 0 {
		return nil, errors.New("track title or artist is empty")
	}

	parsedURL, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid lrclib url %q: %w", s.baseURL, err)
	}

	query := parsedURL.Query()
	query.Set("track_name", info.Title)
	query.Set("artist_name", info.ArtistNames())
	query.Set("album_name", info.Album)
	if info.DurationSecs > 0 {
		query.Set("duration", strconv.FormatInt(int64(math.Round(info.DurationSecs)), 10))
	}
	parsedURL.RawQuery = query.Encode()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	return s.doFetchRequest(ctx, parsedURL.String())
}

func (s *LrclibSource) doFetchRequest(parentCtx context.Context, requestURL string) (*LrclibResponse, error) {
	ctx, cancel := context.WithTimeout(parentCtx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build http request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("lrclib returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload LrclibResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode lrclib json: %w", err)
	}

	return &payload, nil
}

// IsTimeout reports whether err came from a deadline or a network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
