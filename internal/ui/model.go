package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"karolbroda.com/lyricpip/internal/colors"
	"karolbroda.com/lyricpip/internal/config"
	"karolbroda.com/lyricpip/internal/poller"
	"karolbroda.com/lyricpip/internal/scroll"
	"karolbroda.com/lyricpip/internal/song"
)

const (
	frameInterval = time.Second / 30
	statusTimeout = 4 * time.Second
)

type FrameMsg time.Time

type ViewState int

const (
	ViewWaiting ViewState = iota
	ViewLyrics
	ViewError
)

type Options struct {
	Song   *song.Song
	Poller *poller.Poller
	Config *config.Config
}

type Model struct {
	song   *song.Song
	poller *poller.Poller
	cfg    *config.Config

	engine *scroll.Engine
	text   *TextLayout
	clock  frameClock

	state   ViewState
	message string
	scheme  colors.Scheme
	trackID string

	input       textinput.Model
	commandMode bool
	status      string
	statusAt    time.Time

	width    int
	height   int
	quitting bool
}

func NewModel(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{FontSize: 20, SeparationSize: 15, UpdateSeconds: 1}
	}

	text := NewTextLayout(cfg.FontSize)

	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "set_color #1db954"
	input.CharLimit = 128

	return Model{
		song:   opts.Song,
		poller: opts.Poller,
		cfg:    cfg,
		engine: scroll.New(text, cfg.SeparationSize),
		text:   text,
		scheme: colors.Neutral,
		input:  input,
		width:  80,
		height: 24,
	}
}

func (m Model) Init() tea.Cmd {
	return frameCmd()
}

func frameCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// viewport is the terminal size in layout pixels.
func (m Model) viewport() (int, int) {
	return m.width * m.text.CellWidth(), m.height * m.text.CellHeight()
}

func (m Model) progress() int64 {
	if m.song == nil {
		return song.NoProgress
	}
	return m.song.Progress()
}

// readjust re-centres the lyrics immediately.
func (m *Model) readjust() {
	if m.state != ViewLyrics {
		return
	}
	w, h := m.viewport()
	m.engine.Readjust(w, h, m.progress())
}

func (m *Model) setStatus(status string, now time.Time) {
	m.status = status
	m.statusAt = now
}

func (m Model) State() ViewState      { return m.state }
func (m Model) Message() string       { return m.message }
func (m Model) Scheme() colors.Scheme { return m.scheme }
func (m Model) Status() string        { return m.status }
func (m Model) IsQuitting() bool      { return m.quitting }
