// Command keyline is a small demo host for the terminal input engine. In
// its default mode it runs an emacs-style line editor with history; with
// -events it prints every decoded input event instead, which is handy for
// checking what sequences a terminal actually sends.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tmkelly/keyline/pkg/ui/terminal"
	"github.com/tmkelly/keyline/pkg/ui/widgets"
)

const pollIntervalMs = 50

func main() {
	events := flag.Bool("events", false, "print decoded events instead of line editing")
	multiline := flag.Bool("multiline", false, "allow Shift+Enter / Alt+Enter to insert line breaks")
	maxLines := flag.Int("max-lines", 0, "cap the number of lines in multiline mode (0 = unlimited)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	term := terminal.NewTerminal()
	if err := term.Initialize(); err != nil {
		logger.Error("terminal initialization failed", "error", err)
		os.Exit(1)
	}
	defer term.Shutdown()

	var err error
	if *events {
		err = inspectEvents(term)
	} else {
		err = runEditor(term, *multiline, *maxLines)
	}
	if err != nil {
		term.Shutdown()
		logger.Error("keyline exited with error", "error", err)
		os.Exit(1)
	}
}

// inspectEvents prints every event until Ctrl+C.
func inspectEvents(term *terminal.Terminal) error {
	fmt.Print("press keys to see decoded events, Ctrl+C to quit\r\n")
	for {
		events, err := term.Poll(pollIntervalMs)
		if err != nil {
			return err
		}
		for _, ev := range events {
			fmt.Printf("%s\r\n", describeEvent(ev))
			if key, ok := ev.(terminal.KeyEvent); ok && key.Rune == 'c' && key.Mods.HasCtrl() {
				return nil
			}
		}
	}
}

func describeEvent(ev terminal.Event) string {
	switch e := ev.(type) {
	case terminal.KeyEvent:
		if e.Mods.IsEmpty() {
			return fmt.Sprintf("key   %s", e.Key)
		}
		return fmt.Sprintf("key   %s+%s", e.Mods, e.Key)
	case terminal.MouseEvent:
		return fmt.Sprintf("mouse action=%d button=%d x=%d y=%d mods=%q", e.Action, e.Button, e.X, e.Y, e.Mods.String())
	case terminal.ResizeEvent:
		return fmt.Sprintf("resize %dx%d", e.Columns, e.Rows)
	case terminal.PasteEvent:
		return fmt.Sprintf("paste %q", e.Text)
	}
	return fmt.Sprintf("event %T", ev)
}

// runEditor runs the line editor until Ctrl+C or Ctrl+D on an empty line.
func runEditor(term *terminal.Terminal, multiline bool, maxLines int) error {
	field := widgets.NewInputField()
	field.SetPrompt("> ")
	field.SetMultiline(multiline)
	field.SetMaxLines(maxLines)

	redraw(field)
	for {
		events, err := term.Poll(pollIntervalMs)
		if err != nil {
			return err
		}
		for _, ev := range events {
			switch field.ProcessEvent(ev) {
			case widgets.ActionSubmit:
				fmt.Print("\r\n")
				line := field.Text()
				if line != "" {
					fmt.Printf("submitted: %q\r\n", line)
					field.AddHistory(line)
				}
				field.Clear()
				redraw(field)
			case widgets.ActionAbort:
				fmt.Print("\r\n")
				return nil
			case widgets.ActionEOF:
				fmt.Print("\r\n")
				return nil
			case widgets.ActionChanged:
				redraw(field)
			}
		}
	}
}

// redraw repaints the edit line in place. Multiline buffers are shown
// flattened with a visible separator; a real host would render each line.
func redraw(field *widgets.InputField) {
	text := strings.ReplaceAll(field.Text(), "\n", " ⏎ ")
	fmt.Printf("\r\x1b[K%s%s", field.Prompt(), text)
}
