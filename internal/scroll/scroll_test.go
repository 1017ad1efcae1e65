package scroll

import (
	"testing"

	"karolbroda.com/lyricpip/internal/lyrics"
)

type fixedMeasurer int

func (f fixedMeasurer) Height(string, int) int { return int(f) }

func tenLines() []lyrics.Line {
	lines := make([]lyrics.Line, 10)
	for i := range lines {
		lines[i] = lyrics.Line{StartMs: int64(i) * 1000, Text: "line"}
	}
	return lines
}

func TestSelectActive(t *testing.T) {
	lines := []lyrics.Line{
		{StartMs: 0, Text: "a"},
		{StartMs: 100, Text: "b"},
		{StartMs: 100, Text: "c"},
		{StartMs: 200, Text: "d"},
	}

	tests := []struct {
		progress int64
		want     int
	}{
		{-50, 0},
		{0, 0},
		{99, 0},
		{100, 2},
		{150, 2},
		{200, 3},
		{1 << 40, 3},
	}
	for _, tt := range tests {
		if got := SelectActive(lines, tt.progress); got != tt.want {
			t.Errorf("SelectActive(%d) = %d, want %d", tt.progress, got, tt.want)
		}
	}

	if got := SelectActive(nil, 0); got != -1 {
		t.Errorf("SelectActive(nil) = %d, want -1", got)
	}
}

func TestSelectActiveAtEveryStart(t *testing.T) {
	lines := tenLines()
	for i, line := range lines {
		if got := SelectActive(lines, line.StartMs); got != i {
			t.Errorf("SelectActive at start of line %d = %d", i, got)
		}
	}
}

func TestSelectActiveBeforeFirstLine(t *testing.T) {
	lines := []lyrics.Line{{StartMs: 5000, Text: "late"}, {StartMs: 9000, Text: "later"}}
	if got := SelectActive(lines, 10); got != 0 {
		t.Errorf("SelectActive = %d, want first line", got)
	}
}

func TestLayoutCentresActiveLine(t *testing.T) {
	e := New(fixedMeasurer(20), 15)
	positions := e.Layout(tenLines(), 534, 300, 3500)

	active, ok := e.Active()
	if !ok || active != 3 {
		t.Fatalf("active = %d (%v), want 3", active, ok)
	}
	if got, want := positions[3].Y, 300/2+20/2; got != want {
		t.Errorf("active Y = %d, want %d", got, want)
	}
	for i := 1; i < len(positions); i++ {
		if gap := positions[i-1].Y - positions[i].Y; gap != 35 {
			t.Errorf("gap between %d and %d = %d, want 35", i-1, i, gap)
		}
	}
	if positions[0].X != 534/16 || positions[0].Width != 534-2*(534/16) {
		t.Errorf("margins = x %d width %d", positions[0].X, positions[0].Width)
	}
}

func TestLayoutSortsLines(t *testing.T) {
	e := New(fixedMeasurer(10), 5)
	e.Layout([]lyrics.Line{
		{StartMs: 300, Text: "c"},
		{StartMs: 100, Text: "a"},
		{StartMs: 200, Text: "b"},
	}, 160, 100, 0)

	lines := e.Lines()
	for i, text := range []string{"a", "b", "c"} {
		if lines[i].Text != text {
			t.Errorf("line %d = %q, want %q", i, lines[i].Text, text)
		}
	}
}

func TestTickSettlesInCappedSteps(t *testing.T) {
	e := New(fixedMeasurer(20), 15)
	e.Layout(tenLines(), 534, 300, 0)

	before := e.Positions()
	target := e.Centre(20)
	distance := target - before[9].Y
	if distance <= StepCap {
		t.Fatalf("distance %d does not exceed the step cap", distance)
	}

	fullSteps := distance / StepCap
	for tick := 0; tick < fullSteps; tick++ {
		after := e.Tick(9000)
		for i := range after {
			if moved := after[i].Y - before[i].Y; moved != StepCap {
				t.Fatalf("tick %d moved line %d by %d, want %d", tick, i, moved, StepCap)
			}
		}
		if active, _ := e.Active(); active == 9 {
			t.Fatalf("line 9 recorded as active after %d ticks, before reaching the centre", tick+1)
		}
		before = after
	}

	remainder := distance % StepCap
	if remainder > 0 {
		after := e.Tick(9000)
		if moved := after[9].Y - before[9].Y; moved != remainder {
			t.Errorf("final partial step = %d, want %d", moved, remainder)
		}
		before = after
	}

	if before[9].Y != target {
		t.Fatalf("line 9 at %d, want centre %d", before[9].Y, target)
	}

	after := e.Tick(9000)
	if active, _ := e.Active(); active != 9 {
		t.Errorf("active = %d after settling, want 9", active)
	}
	if after[9].Y != target {
		t.Errorf("recording the active line moved it to %d", after[9].Y)
	}
}

func TestTickBackwardDoesNotMove(t *testing.T) {
	e := New(fixedMeasurer(20), 15)
	before := e.Layout(tenLines(), 534, 300, 9000)

	after := e.Tick(0)
	for i := range after {
		if after[i].Y != before[i].Y {
			t.Fatalf("line %d moved from %d to %d", i, before[i].Y, after[i].Y)
		}
	}
	if active, _ := e.Active(); active != 0 {
		t.Errorf("active = %d, want 0", active)
	}
}

func TestTickUnchangedIsNoop(t *testing.T) {
	e := New(fixedMeasurer(20), 15)
	before := e.Layout(tenLines(), 534, 300, 2000)

	after := e.Tick(2500)
	for i := range after {
		if after[i].Y != before[i].Y {
			t.Fatalf("line %d moved on an unchanged active line", i)
		}
	}
}

func TestNoProgressKeepsPositions(t *testing.T) {
	e := New(fixedMeasurer(20), 15)
	before := e.Layout(tenLines(), 534, 300, 4000)

	after := e.Tick(NoProgress)
	if _, ok := e.Active(); ok {
		t.Error("NoProgress must report no active line")
	}
	for i := range after {
		if after[i].Y != before[i].Y {
			t.Fatalf("line %d moved under NoProgress", i)
		}
	}

	after = e.Readjust(534, 300, NoProgress)
	if after[4].Y != before[4].Y {
		t.Error("Readjust with NoProgress moved lines")
	}
}

func TestReadjustRecentres(t *testing.T) {
	e := New(fixedMeasurer(20), 15)
	e.Layout(tenLines(), 534, 300, 0)
	for i := 0; i < 5; i++ {
		e.Tick(6000)
	}

	positions := e.Readjust(800, 600, 6000)
	if got, want := positions[6].Y, 600/2+20/2; got != want {
		t.Errorf("active Y after readjust = %d, want %d", got, want)
	}
	if active, _ := e.Active(); active != 6 {
		t.Errorf("active = %d, want 6", active)
	}
}

func TestSeparationChange(t *testing.T) {
	e := New(fixedMeasurer(20), 15)
	e.Layout(tenLines(), 534, 300, 0)

	e.SetSeparation(30)
	positions := e.Readjust(534, 300, 0)
	if gap := positions[0].Y - positions[1].Y; gap != 50 {
		t.Errorf("gap = %d, want 50", gap)
	}
}

func TestEmphasis(t *testing.T) {
	e := New(fixedMeasurer(20), 15)
	positions := e.Layout(tenLines(), 534, 300, 4000)

	for i, p := range positions {
		want := Dimmed
		if i <= 4 {
			want = Full
		}
		if p.Emphasis != want {
			t.Errorf("line %d emphasis = %v, want %v", i, p.Emphasis, want)
		}
	}
}

func TestUseBeforeLayoutPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Tick before Layout should panic")
		}
	}()
	New(fixedMeasurer(20), 15).Tick(0)
}

func TestEmptyLines(t *testing.T) {
	e := New(fixedMeasurer(20), 15)
	if positions := e.Layout(nil, 534, 300, 1000); len(positions) != 0 {
		t.Errorf("positions = %v", positions)
	}
	if positions := e.Tick(2000); len(positions) != 0 {
		t.Errorf("positions = %v", positions)
	}
}
