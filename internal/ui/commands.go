package ui

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"karolbroda.com/lyricpip/internal/colors"
)

var errUnknownCommand = errors.New("unknown command")

type command struct {
	usage string
	run   func(m *Model, args []string) (string, error)
}

var commands = map[string]command{
	"set_color": {
		usage: "set_color <#rrggbb|r,g,b>",
		run:   cmdSetColor,
	},
	"set_font_size": {
		usage: "set_font_size <n>",
		run:   cmdSetFontSize,
	},
	"set_separation_size": {
		usage: "set_separation_size <n>",
		run:   cmdSetSeparation,
	},
	"get_song_data": {
		usage: "get_song_data",
		run:   cmdSongData,
	},
	"save": {
		usage: "save",
		run:   cmdSave,
	},
}

func init() {
	commands["help"] = command{usage: "help", run: cmdHelp}
}

// misspelt name accepted from older setups
var commandAliases = map[string]string{
	"set_seperation_size": "set_separation_size",
}

// runCommand executes one overlay command line. quit is true for exit.
func (m *Model) runCommand(line string) (string, bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", false, nil
	}

	name := strings.ToLower(fields[0])
	if alias, ok := commandAliases[name]; ok {
		name = alias
	}
	if name == "exit" || name == "quit" {
		return "", true, nil
	}

	cmd, ok := commands[name]
	if !ok {
		return "", false, fmt.Errorf("%w: %s", errUnknownCommand, fields[0])
	}

	output, err := cmd.run(m, fields[1:])
	if err != nil {
		return "", false, fmt.Errorf("%s: %w (usage: %s)", name, err, cmd.usage)
	}
	return output, false, nil
}

func cmdSetColor(m *Model, args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("missing color")
	}

	rgb, err := colors.Parse(strings.Join(args, ""))
	if err != nil {
		return "", err
	}

	if m.song == nil {
		return "", errors.New("no song")
	}
	scheme, ok := m.song.SetColor(rgb)
	if !ok {
		return "", errors.New("no song")
	}
	m.scheme = scheme
	return "color set to " + rgb.Hex(), nil
}

func parsePositive(args []string, allowZero bool) (int, error) {
	if len(args) != 1 {
		return 0, errors.New("expected one number")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", args[0])
	}
	if n < 0 || (n == 0 && !allowZero) {
		return 0, fmt.Errorf("out of range: %d", n)
	}
	return n, nil
}

func cmdSetFontSize(m *Model, args []string) (string, error) {
	n, err := parsePositive(args, false)
	if err != nil {
		return "", err
	}

	m.cfg.FontSize = n
	m.text.SetFontSize(n)
	m.readjust()
	return fmt.Sprintf("font size %d", n), nil
}

func cmdSetSeparation(m *Model, args []string) (string, error) {
	n, err := parsePositive(args, true)
	if err != nil {
		return "", err
	}

	m.cfg.SeparationSize = n
	m.engine.SetSeparation(n)
	m.readjust()
	return fmt.Sprintf("separation %d", n), nil
}

func cmdSongData(m *Model, _ []string) (string, error) {
	if m.song == nil {
		return "", errors.New("no song")
	}
	info := m.song.Info()
	if info == nil {
		return "", errors.New("no song")
	}

	out := fmt.Sprintf("%s - %s", info.ArtistNames(), info.Title)
	if info.Album != "" {
		out += " [" + info.Album + "]"
	}
	out += " " + colors.FormatTime(int64(info.DurationSecs))

	if record := m.song.Record(); record != nil {
		out += fmt.Sprintf(" (%d lyric lines)", strings.Count(record.SyncedLyrics, "\n")+1)
	}
	return out, nil
}

func cmdSave(m *Model, _ []string) (string, error) {
	if m.song == nil || !m.song.SaveLyrics() {
		return "", errors.New("no lyric data to save")
	}
	return "lyrics saved", nil
}

func cmdHelp(*Model, []string) (string, error) {
	names := make([]string, 0, len(commands)+1)
	for name := range commands {
		names = append(names, name)
	}
	names = append(names, "exit")
	sort.Strings(names)
	return strings.Join(names, " "), nil
}
