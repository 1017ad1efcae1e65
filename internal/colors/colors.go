package colors

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type RGB struct {
	R uint8
	G uint8
	B uint8
}

var (
	LightText = RGB{230, 230, 230}
	DarkText  = RGB{25, 25, 25}

	// Neutral is shown whenever there is no track or no artwork.
	Neutral = Scheme{Background: RGB{51, 51, 51}, Text: LightText}
)

// backgrounds darker than this get light text
const luminanceThreshold = 40

type Scheme struct {
	Background RGB
	Text       RGB
}

func SchemeFor(background RGB) Scheme {
	return Scheme{Background: background, Text: TextFor(background)}
}

func TextFor(background RGB) RGB {
	if Luminance(background) < luminanceThreshold {
		return LightText
	}
	return DarkText
}

// Luminance is the cheap perceptual weighting, not a CIE transform.
func Luminance(c RGB) float64 {
	return 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
}

// Saturation is (max-min)/max over the channels; greys are 0.
func Saturation(c RGB) float64 {
	if c.R == c.G && c.G == c.B {
		return 0
	}
	maxC := max(c.R, c.G, c.B)
	minC := min(c.R, c.G, c.B)
	return float64(maxC-minC) / float64(maxC)
}

// Pack stores the colour as 0xRRGGBB.
func (c RGB) Pack() int {
	return int(c.R)<<16 | int(c.G)<<8 | int(c.B)
}

func Unpack(num int) RGB {
	return RGB{
		R: uint8((num >> 16) & 0xFF),
		G: uint8((num >> 8) & 0xFF),
		B: uint8(num & 0xFF),
	}
}

func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c.R, c.G, c.B)
}

// Parse accepts "#RRGGBB", "RRGGBB" or "r,g,b".
func Parse(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return RGB{}, fmt.Errorf("invalid color %q: want r,g,b", s)
		}
		var channels [3]uint8
		for i, part := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
			if err != nil {
				return RGB{}, fmt.Errorf("invalid color channel %q: %w", part, err)
			}
			channels[i] = uint8(v)
		}
		return RGB{channels[0], channels[1], channels[2]}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return Unpack(int(v)), nil
}

// Palette is the ordered set of dominant artwork colours. the order is not
// stable between extractions of the same image.
type Palette []RGB

// IndexOf returns -1 when c is not in the palette.
func (p Palette) IndexOf(c RGB) int {
	for i, candidate := range p {
		if candidate == c {
			return i
		}
	}
	return -1
}

// MostSaturated returns the first entry with the highest saturation.
func (p Palette) MostSaturated() (RGB, bool) {
	if len(p) == 0 {
		return RGB{}, false
	}
	best := p[0]
	bestSat := Saturation(best)
	for _, c := range p[1:] {
		if sat := Saturation(c); sat > bestSat {
			best = c
			bestSat = sat
		}
	}
	return best, true
}

// Blend mixes a toward b by t in lch space, taking the shorter way round
// the hue circle.
func Blend(a RGB, b RGB, t float64) RGB {
	from, to := toLCH(a), toLCH(b)

	hueDiff := to.h - from.h
	if hueDiff > 180 {
		hueDiff -= 360
	} else if hueDiff < -180 {
		hueDiff += 360
	}

	mixed := lch{
		l: from.l + t*(to.l-from.l),
		c: from.c + t*(to.c-from.c),
		h: math.Mod(from.h+t*hueDiff+360, 360),
	}
	return mixed.rgb()
}

// lch is CIE LCh(ab) under the d65 white point.
type lch struct {
	l, c, h float64
}

var d65 = [3]float64{0.95047, 1.00000, 1.08883}

func toLCH(c RGB) lch {
	r := srgbToLinear(float64(c.R) / 255)
	g := srgbToLinear(float64(c.G) / 255)
	b := srgbToLinear(float64(c.B) / 255)

	fx := labF((r*0.4124564 + g*0.3575761 + b*0.1804375) / d65[0])
	fy := labF((r*0.2126729 + g*0.7151522 + b*0.0721750) / d65[1])
	fz := labF((r*0.0193339 + g*0.1191920 + b*0.9503041) / d65[2])

	labA := 500 * (fx - fy)
	labB := 200 * (fy - fz)

	h := math.Atan2(labB, labA) * 180 / math.Pi
	if h < 0 {
		h += 360
	}
	return lch{l: 116*fy - 16, c: math.Hypot(labA, labB), h: h}
}

func (v lch) rgb() RGB {
	rad := v.h * math.Pi / 180
	fy := (v.l + 16) / 116
	fx := fy + v.c*math.Cos(rad)/500
	fz := fy - v.c*math.Sin(rad)/200

	x := labFInv(fx) * d65[0]
	y := labFInv(fy) * d65[1]
	z := labFInv(fz) * d65[2]

	return RGB{
		R: toChannel(x*3.2404542 - y*1.5371385 - z*0.4985314),
		G: toChannel(-x*0.9692660 + y*1.8760108 + z*0.0415560),
		B: toChannel(x*0.0556434 - y*0.2040259 + z*1.0572252),
	}
}

// toChannel gamma-encodes a linear value and rounds it into 0..255.
func toChannel(linear float64) uint8 {
	v := math.Round(linearToSRGB(linear) * 255)
	return uint8(min(255, max(0, v)))
}

func srgbToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

func linearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

const labEpsilon = 216.0 / 24389.0

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116.0
}

func labFInv(t float64) float64 {
	if cube := t * t * t; cube > labEpsilon {
		return cube
	}
	return (t - 16.0/116.0) / 7.787
}

func FormatTime(seconds int64) string {
	if seconds < 0 {
		return "0:00"
	}
	minutes := seconds / 60
	remaining := seconds % 60
	return fmt.Sprintf("%d:%02d", minutes, remaining)
}
