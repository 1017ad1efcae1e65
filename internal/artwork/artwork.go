package artwork

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/EdlinOrg/prominentcolor"
	"github.com/nfnt/resize"

	"karolbroda.com/lyricpip/internal/colors"
)

const (
	// PaletteSize is how many dominant colours are extracted per cover.
	PaletteSize = 10

	fetchTimeout = 5 * time.Second

	// covers are shrunk to at most this many pixels per side before k-means
	thumbnailSize = 160
)

var ErrNoArtwork = errors.New("no artwork")

func Fetch(ctx context.Context, artworkURL string) (image.Image, error) {
	if artworkURL == "" {
		return nil, ErrNoArtwork
	}

	if strings.HasPrefix(artworkURL, "file://") {
		path := strings.TrimPrefix(artworkURL, "file://")
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open artwork file: %w", err)
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("failed to decode artwork image: %w", err)
		}
		return img, nil
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, artworkURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artwork: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("artwork fetch returned status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}

	return img, nil
}

// ExtractPalette returns up to size dominant colours, most common first.
func ExtractPalette(img image.Image, size int) (colors.Palette, error) {
	if img == nil {
		return nil, ErrNoArtwork
	}
	if size <= 0 {
		size = PaletteSize
	}

	small := resize.Thumbnail(thumbnailSize, thumbnailSize, img, resize.Bilinear)

	extracted, err := prominentcolor.KmeansWithAll(size, small, prominentcolor.ArgumentNoCropping, uint(thumbnailSize), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to extract palette: %w", err)
	}

	palette := make(colors.Palette, 0, len(extracted))
	for _, item := range extracted {
		palette = append(palette, colors.RGB{
			R: uint8(item.Color.R),
			G: uint8(item.Color.G),
			B: uint8(item.Color.B),
		})
	}
	if len(palette) == 0 {
		return nil, errors.New("artwork produced an empty palette")
	}

	return palette, nil
}

// Extractor is the palette collaborator used by the song pipeline.
type Extractor struct {
	Size int
}

func (e Extractor) Palette(ctx context.Context, artworkURL string) (colors.Palette, error) {
	img, err := Fetch(ctx, artworkURL)
	if err != nil {
		return nil, err
	}
	return ExtractPalette(img, e.Size)
}
