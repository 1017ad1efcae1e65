package lyrics

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Placeholder stands in for instrumental gaps (blank lyric lines).
const Placeholder = "♪"

type Line struct {
	StartMs int64
	Text    string
}

func (l Line) String() string {
	return fmt.Sprintf("<Line start=%.2f text=%q>", float64(l.StartMs)/1000, l.Text)
}

// [mm:ss.cc] text
var lrcLinePattern = regexp.MustCompile(`^\[(\d{2,}):(\d{2})\.(\d{2,3})\] ?(.*)$`)

// Parse reads a synced-lyrics blob. lines that do not carry a timestamp are
// skipped and the result keeps the order of the blob.
func Parse(raw string) []Line {
	if raw == "" {
		return nil
	}

	rawLines := strings.Split(raw, "\n")
	result := make([]Line, 0, len(rawLines))

	for _, rawLine := range rawLines {
		line, ok := parseLine(strings.TrimRight(rawLine, "\r"))
		if !ok {
			continue
		}
		result = append(result, line)
	}

	return result
}

func parseLine(s string) (Line, bool) {
	matches := lrcLinePattern.FindStringSubmatch(strings.TrimLeft(s, " \t"))
	if matches == nil {
		return Line{}, false
	}

	minutes, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return Line{}, false
	}
	seconds, err := strconv.ParseInt(matches[2], 10, 64)
	if err != nil {
		return Line{}, false
	}
	fraction, err := strconv.ParseInt(matches[3], 10, 64)
	if err != nil {
		return Line{}, false
	}
	if len(matches[3]) == 2 {
		fraction *= 10
	}

	text := strings.TrimSpace(matches[4])
	if text == "" {
		text = Placeholder
	}

	return Line{
		StartMs: (minutes*60+seconds)*1000 + fraction,
		Text:    text,
	}, true
}

// Format writes lines back in the blob format: one "[mm:ss.cc] text" per
// line, no trailing newline. hundredths are truncated.
func Format(lines []Line) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		ms := line.StartMs
		if ms < 0 {
			ms = 0
		}
		fmt.Fprintf(&b, "[%02d:%02d.%02d] %s", ms/60000, (ms/1000)%60, (ms%1000)/10, line.Text)
	}
	return b.String()
}

// Sorted returns a copy ordered by start time. equal start times keep their
// original order.
func Sorted(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartMs < out[j].StartMs
	})
	return out
}

// Text joins the line texts with newlines.
func Text(lines []Line) string {
	texts := make([]string, len(lines))
	for i, line := range lines {
		texts[i] = line.Text
	}
	return strings.Join(texts, "\n")
}
