package ui

import (
	"time"
)

// frames further apart than this (a suspended terminal, a stalled
// renderer) only advance progress by this much
const maxFrameGap = 250 * time.Millisecond

// frameClock measures frame gaps and a smoothed frame rate.
type frameClock struct {
	last time.Time
	fps  float64
}

// Observe records a frame at t and returns the time since the previous
// frame.
func (c *frameClock) Observe(t time.Time) time.Duration {
	if c.last.IsZero() {
		c.last = t
		return 0
	}

	dt := t.Sub(c.last)
	c.last = t
	if dt <= 0 {
		return 0
	}

	instant := float64(time.Second) / float64(dt)
	if c.fps == 0 {
		c.fps = instant
	} else {
		c.fps = lerp(c.fps, instant, 0.1)
	}

	return time.Duration(clamp(float64(dt), 0, float64(maxFrameGap)))
}

func (c *frameClock) FPS() float64 {
	return c.fps
}

var countdownGlyphs = []string{"○", "◔", "◑", "◕", "●"}

// countdownGlyph draws how much of the poll interval has elapsed.
func countdownGlyph(fraction float64) string {
	fraction = clamp(fraction, 0, 1)
	idx := int(fraction * float64(len(countdownGlyphs)-1))
	return countdownGlyphs[idx]
}

func lerp(a float64, b float64, t float64) float64 {
	return a + (b-a)*t
}

func clamp(val float64, min float64, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
