package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"

	"karolbroda.com/lyricpip/internal/colors"
	"karolbroda.com/lyricpip/internal/scroll"
	"karolbroda.com/lyricpip/internal/song"
)

// dimmed lines keep roughly 140/255 of the text colour
const dimBlend = 1 - 140.0/255.0

const bannerFont = "small"

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	width := max(1, m.width)
	height := max(1, m.height)

	rows := make([]string, height)
	styles := make([]lipgloss.Style, height)

	base := lipgloss.NewStyle().
		Background(lipgloss.Color(m.scheme.Background.Hex())).
		Foreground(lipgloss.Color(m.scheme.Text.Hex()))
	for i := range styles {
		styles[i] = base
	}

	switch m.state {
	case ViewLyrics:
		m.renderLyrics(rows, styles, base, width)
	case ViewError:
		m.renderMessage(rows, m.message, width)
	default:
		m.renderMessage(rows, "waiting for the player...", width)
	}

	faint := base.Foreground(lipgloss.Color(colors.Blend(m.scheme.Text, m.scheme.Background, dimBlend).Hex()))

	if m.cfg.DebugLine && m.state == ViewLyrics {
		row := m.centreRow()
		if row >= 0 && row < height && strings.TrimSpace(rows[row]) == "" {
			rows[row] = strings.Repeat("─", width)
			styles[row] = faint
		}
	}

	if m.cfg.DebugMode {
		for i, line := range m.debugLines(time.Now()) {
			if i >= height {
				break
			}
			rows[i] = line
			styles[i] = faint
		}
	}

	if m.poller != nil && width > 2 {
		glyph := countdownGlyph(m.poller.Countdown(time.Now()))
		rows[0] = overlayRight(rows[0], glyph, width)
	}

	if m.commandMode {
		rows[height-1] = m.input.View()
		styles[height-1] = base
	} else if m.status != "" {
		rows[height-1] = " " + m.status
		styles[height-1] = faint
	}

	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(styles[i].Render(fitRow(row, width)))
	}
	return b.String()
}

func (m Model) renderLyrics(rows []string, styles []lipgloss.Style, base lipgloss.Style, width int) {
	_, viewportH := m.viewport()
	cellW := m.text.CellWidth()
	cellH := m.text.CellHeight()

	dimmed := base.Foreground(lipgloss.Color(colors.Blend(m.scheme.Text, m.scheme.Background, dimBlend).Hex()))
	full := base.Bold(true)

	for _, p := range m.engine.Positions() {
		top := floorDiv(viewportH-p.Y, cellH)
		wrapped := m.text.Wrap(p.Line.Text, p.Width)
		if top >= len(rows) || top+len(wrapped) <= 0 {
			continue
		}

		left := p.X / cellW
		cols := max(1, p.Width/cellW)

		style := dimmed
		if p.Emphasis == scroll.Full {
			style = full
		}

		for j, line := range wrapped {
			row := top + j
			if row < 0 || row >= len(rows) {
				continue
			}
			rows[row] = strings.Repeat(" ", left) + centerText(line, cols)
			styles[row] = style
		}
	}
}

// renderMessage draws the banner with message underneath, centred.
func (m Model) renderMessage(rows []string, message string, width int) {
	var block []string

	banner := figure.NewFigure("lyricpip", bannerFont, true).Slicify()
	bannerWidth := 0
	for _, line := range banner {
		bannerWidth = max(bannerWidth, len(line))
	}
	if bannerWidth <= width && len(banner)+2 <= len(rows) {
		for _, line := range banner {
			block = append(block, centerText(strings.TrimRight(line, " "), width))
		}
		block = append(block, "")
	}
	block = append(block, centerText(message, width))

	start := max(0, (len(rows)-len(block))/2)
	for i, line := range block {
		if start+i < len(rows) {
			rows[start+i] = line
		}
	}
}

// centreRow is the terminal row the active line settles on.
func (m Model) centreRow() int {
	_, viewportH := m.viewport()
	cellH := m.text.CellHeight()
	return floorDiv(viewportH-m.engine.Centre(cellH), cellH)
}

func floorDiv(a int, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func (m Model) debugLines(now time.Time) []string {
	progress := "infinite"
	if p := m.progress(); p != song.NoProgress {
		progress = fmt.Sprintf("%d ms", p)
	}

	id := "-"
	if m.song != nil && m.song.ID() != "" {
		id = m.song.ID()
	}

	active := "-"
	if index, ok := m.engine.Active(); ok {
		active = fmt.Sprintf("%d/%d", index+1, len(m.engine.Lines()))
	}

	lines := []string{
		fmt.Sprintf(" fps      %.1f", m.clock.FPS()),
		" progress " + progress,
		" song     " + id,
		" color    " + m.scheme.Background.Hex(),
		" active   " + active,
	}
	if m.poller != nil {
		lines = append(lines, fmt.Sprintf(" next     %.0f%%", 100*(1-m.poller.Countdown(now))))
	}
	return lines
}

// overlayRight puts glyph in the last column of row.
func overlayRight(row string, glyph string, width int) string {
	return fitRow(row, width-1) + glyph
}
