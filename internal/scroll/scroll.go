// Package scroll keeps the active lyric line centred in the viewport.
//
// Coordinates are y-up: a line's Y is its top edge and the bottom of the
// viewport is 0. All distances are in the host's pixel units.
package scroll

import (
	"math"
	"sort"

	"karolbroda.com/lyricpip/internal/lyrics"
)

// StepCap is the most every line may move in one tick.
const StepCap = 8

// NoProgress means nothing is playing. it mirrors song.NoProgress.
const NoProgress int64 = math.MaxInt64

// Measurer reports the rendered height of text wrapped to width.
type Measurer interface {
	Height(text string, width int) int
}

type Emphasis int

const (
	Dimmed Emphasis = iota
	Full
)

func (e Emphasis) String() string {
	if e == Full {
		return "full"
	}
	return "dimmed"
}

type Position struct {
	Line     lyrics.Line
	X        int
	Y        int
	Width    int
	Height   int
	Emphasis Emphasis
}

// Engine owns the sorted lines and their positions. it is not safe for
// concurrent use; the ui loop is its only caller.
type Engine struct {
	measure    Measurer
	separation int

	lines     []lyrics.Line
	positions []Position
	width     int
	height    int
	progress  int64
	active    int
	laidOut   bool
}

func New(measure Measurer, separation int) *Engine {
	return &Engine{
		measure:    measure,
		separation: separation,
		active:     -1,
		progress:   NoProgress,
	}
}

// SelectActive returns the index of the last line starting at or before
// progressMs, or 0 when every line starts later. lines must be sorted.
// it returns -1 for an empty list.
func SelectActive(lines []lyrics.Line, progressMs int64) int {
	if len(lines) == 0 {
		return -1
	}

	// first index starting strictly after progress; the line before it is
	// the latest qualifying one, later index winning ties
	next := sort.Search(len(lines), func(i int) bool {
		return lines[i].StartMs > progressMs
	})
	if next == 0 {
		return 0
	}
	return next - 1
}

// Layout replaces the lines and lays them out with the line active at
// progressMs centred.
func (e *Engine) Layout(lines []lyrics.Line, width, height int, progressMs int64) []Position {
	e.lines = lyrics.Sorted(lines)
	e.laidOut = true
	return e.Readjust(width, height, progressMs)
}

// Readjust re-derives the active line and re-runs the full layout with no
// animation. with NoProgress the current positions are kept.
func (e *Engine) Readjust(width, height int, progressMs int64) []Position {
	e.mustBeLaidOut("Readjust")

	e.width = width
	e.height = height
	e.progress = progressMs

	if progressMs == NoProgress {
		e.active = -1
		if len(e.positions) != len(e.lines) {
			e.place()
		}
		return e.Positions()
	}

	e.place()

	e.active = SelectActive(e.lines, progressMs)
	if e.active >= 0 {
		active := e.positions[e.active]
		e.shift(e.target(active) - active.Y)
	}

	return e.Positions()
}

// Tick advances the animation one frame. a newly active line rises toward
// the centre at most StepCap per tick and is only recorded once it gets
// there; a line already at or above the centre is recorded without any
// movement.
func (e *Engine) Tick(progressMs int64) []Position {
	e.mustBeLaidOut("Tick")

	e.progress = progressMs
	if progressMs == NoProgress {
		e.active = -1
		return e.Positions()
	}

	index := SelectActive(e.lines, progressMs)
	if index < 0 || index == e.active {
		return e.Positions()
	}

	candidate := e.positions[index]
	target := e.target(candidate)
	if candidate.Y >= target {
		e.active = index
		return e.Positions()
	}

	e.shift(min(StepCap, target-candidate.Y))
	return e.Positions()
}

// SetSeparation changes the gap between lines. callers follow it with
// Readjust.
func (e *Engine) SetSeparation(px int) {
	e.separation = max(0, px)
}

func (e *Engine) Separation() int {
	return e.separation
}

// Active returns the recorded active line index.
func (e *Engine) Active() (int, bool) {
	return e.active, e.active >= 0
}

func (e *Engine) Lines() []lyrics.Line {
	return append([]lyrics.Line(nil), e.lines...)
}

func (e *Engine) Size() (int, int) {
	return e.width, e.height
}

// Positions returns a copy of every line's geometry with emphasis for the
// last seen progress.
func (e *Engine) Positions() []Position {
	out := make([]Position, len(e.positions))
	for i, p := range e.positions {
		p.Emphasis = EmphasisAt(p.Line, e.progress)
		out[i] = p
	}
	return out
}

// EmphasisAt is Full once the line has started.
func EmphasisAt(line lyrics.Line, progressMs int64) Emphasis {
	if progressMs >= line.StartMs {
		return Full
	}
	return Dimmed
}

// Centre is the y the active line's top edge settles at.
func (e *Engine) Centre(lineHeight int) int {
	return e.height/2 + lineHeight/2
}

func (e *Engine) target(p Position) int {
	return e.Centre(p.Height)
}

func (e *Engine) place() {
	x := e.width / 16
	wrapWidth := max(1, e.width-2*x)

	e.positions = make([]Position, len(e.lines))
	y := e.height
	for i, line := range e.lines {
		h := e.measure.Height(line.Text, wrapWidth)
		e.positions[i] = Position{
			Line:   line,
			X:      x,
			Y:      y,
			Width:  wrapWidth,
			Height: h,
		}
		y -= h + e.separation
	}
}

func (e *Engine) shift(dy int) {
	if dy == 0 {
		return
	}
	for i := range e.positions {
		e.positions[i].Y += dy
	}
}

func (e *Engine) mustBeLaidOut(op string) {
	if !e.laidOut {
		panic("scroll: " + op + " called before Layout")
	}
}
