package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
)

type Capabilities struct {
	TrueColor   bool
	WindowOps   bool
	TermProgram string
}

// DetectCapabilities inspects the environment. window operations are
// opt-in since many terminals ignore or refuse them.
func DetectCapabilities() *Capabilities {
	caps := &Capabilities{
		TermProgram: os.Getenv("TERM_PROGRAM"),
	}

	colorTerm := strings.ToLower(os.Getenv("COLORTERM"))
	caps.TrueColor = colorTerm == "truecolor" || colorTerm == "24bit"

	switch strings.ToLower(os.Getenv("LYRICPIP_WINDOW_OPS")) {
	case "1", "true", "yes", "on":
		caps.WindowOps = true
	}

	return caps
}

// PlaceWindow asks the terminal to move its window to (x, y) pixels and
// resize it to cols x rows cells (xterm window operations).
func PlaceWindow(w io.Writer, x, y, cols, rows int) error {
	if cols > 0 && rows > 0 {
		if _, err := fmt.Fprintf(w, "\033[8;%d;%dt", rows, cols); err != nil {
			return err
		}
	}
	if x > 0 || y > 0 {
		if _, err := fmt.Fprintf(w, "\033[3;%d;%dt", max(0, x), max(0, y)); err != nil {
			return err
		}
	}
	return nil
}

// Reset restores the cursor, attributes and main screen after an abrupt
// exit.
func Reset() {
	os.Stdout.WriteString("\033[?25h")
	os.Stdout.WriteString("\033[0m")
	os.Stdout.WriteString("\033[?1049l")
	os.Stdout.Sync()
}
