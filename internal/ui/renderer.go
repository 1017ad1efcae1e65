package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TextLayout maps the terminal grid onto layout pixels. a cell is half as
// wide as the font size and exactly as tall.
type TextLayout struct {
	fontSize int
}

func NewTextLayout(fontSize int) *TextLayout {
	t := &TextLayout{}
	t.SetFontSize(fontSize)
	return t
}

func (t *TextLayout) SetFontSize(size int) {
	t.fontSize = max(2, size)
}

func (t *TextLayout) FontSize() int {
	return t.fontSize
}

func (t *TextLayout) CellWidth() int {
	return t.fontSize / 2
}

func (t *TextLayout) CellHeight() int {
	return t.fontSize
}

// Wrap breaks text into rows no wider than widthPx.
func (t *TextLayout) Wrap(text string, widthPx int) []string {
	return wrapText(text, max(1, widthPx/t.CellWidth()))
}

// Height is the pixel height of text wrapped to widthPx.
func (t *TextLayout) Height(text string, widthPx int) int {
	return len(t.Wrap(text, widthPx)) * t.CellHeight()
}

func wrapText(text string, maxCols int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var currentLine string

	for _, word := range words {
		testLine := currentLine
		if testLine != "" {
			testLine += " "
		}
		testLine += word

		if runewidth.StringWidth(testLine) <= maxCols {
			currentLine = testLine
			continue
		}

		if currentLine != "" {
			lines = append(lines, currentLine)
		}

		// words wider than a row are split across rows
		for runewidth.StringWidth(word) > maxCols {
			head := runewidth.Truncate(word, maxCols, "")
			if head == "" {
				// a single glyph wider than the row
				head = string([]rune(word)[:1])
			}
			lines = append(lines, head)
			word = word[len(head):]
		}
		currentLine = word
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return lines
}

// centerText pads text so it sits in the middle of width columns.
func centerText(text string, width int) string {
	visual := runewidth.StringWidth(text)
	if visual >= width {
		return runewidth.Truncate(text, width, "…")
	}
	return strings.Repeat(" ", (width-visual)/2) + text
}

// fitRow pads or truncates text to exactly width columns.
func fitRow(text string, width int) string {
	if runewidth.StringWidth(text) > width {
		text = runewidth.Truncate(text, width, "")
	}
	return runewidth.FillRight(text, width)
}
