package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"karolbroda.com/lyricpip/internal/colors"
	"karolbroda.com/lyricpip/internal/poller"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-4)
		m.readjust()
		return m, nil

	case tea.KeyMsg:
		if m.commandMode {
			return m.handleCommandKey(msg)
		}
		return m.handleKeyPress(msg)

	case FrameMsg:
		return m.handleFrame(time.Time(msg))
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	now := time.Now()

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "ctrl+r":
		if m.poller != nil {
			m.poller.Force()
		}
		return m, nil

	case "ctrl+s":
		if m.song != nil && m.song.SaveLyrics() {
			m.setStatus("lyrics saved", now)
		} else {
			m.setStatus("no lyric data to save", now)
		}
		return m, nil

	case "f5":
		m.cfg.DebugMode = !m.cfg.DebugMode
		return m, nil

	case "shift+left":
		m.cycleColor(-1, now)
		return m, nil

	case "shift+right":
		m.cycleColor(1, now)
		return m, nil

	case "/":
		m.commandMode = true
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd
	}

	return m, nil
}

func (m Model) handleCommandKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.commandMode = false
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		line := m.input.Value()
		m.commandMode = false
		m.input.Blur()
		m.input.SetValue("")

		output, quit, err := m.runCommand(line)
		now := time.Now()
		if err != nil {
			m.setStatus(err.Error(), now)
		} else if output != "" {
			m.setStatus(output, now)
		}
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) cycleColor(direction int, now time.Time) {
	if m.song == nil || m.state != ViewLyrics {
		return
	}
	scheme, ok := m.song.ChangeColor(m.scheme.Background, direction)
	if !ok {
		m.setStatus("no palette for this song", now)
		return
	}
	m.scheme = scheme
}

func (m Model) handleFrame(t time.Time) (tea.Model, tea.Cmd) {
	dt := m.clock.Observe(t)
	if m.song != nil {
		m.song.Advance(dt)
	}

	if m.poller != nil {
		for _, u := range m.poller.Drain() {
			m.apply(u)
		}
	}

	if m.state == ViewLyrics {
		m.engine.Tick(m.progress())
	}

	if m.status != "" && t.Sub(m.statusAt) > statusTimeout {
		m.status = ""
	}

	return m, frameCmd()
}

// apply folds one poll result into the view. lyric results computed for a
// track that is no longer current are dropped.
func (m *Model) apply(u poller.Update) {
	current := ""
	if m.song != nil {
		current = m.song.ID()
	}

	switch u.Kind {
	case poller.KindNoSong:
		m.showError(u.Message)

	case poller.KindNoLyrics:
		if u.TrackID != current {
			log.WithField("track", u.TrackID).Debug("[UI] dropped stale no-lyrics update")
			return
		}
		m.trackID = u.TrackID
		m.showError(u.Message)

	case poller.KindLyrics:
		if u.TrackID != current || u.Resolved == nil {
			log.WithField("track", u.TrackID).Debug("[UI] dropped stale lyrics update")
			return
		}
		m.trackID = u.TrackID
		m.scheme = u.Resolved.Scheme
		m.state = ViewLyrics
		m.message = ""

		w, h := m.viewport()
		m.engine.Layout(u.Resolved.Lines, w, h, m.progress())

	case poller.KindSync:
		if u.TrackID == m.trackID {
			m.readjust()
		}
	}
}

func (m *Model) showError(message string) {
	m.state = ViewError
	m.message = message
	m.scheme = colors.Neutral
}
