// Package display provides two-line textual sinks for status messages.
package display

import (
	"fmt"
	"io"
	"sync"
)

// Display shows up to two lines. An empty string means "no line".
// Sinks suppress a pair identical to the previous call.
type Display interface {
	Show(line1, line2 string)
}

// Console prints to a writer, one or two lines per change.
type Console struct {
	w io.Writer

	mu           sync.Mutex
	shown        bool
	line1, line2 string
}

// NewConsole creates a console display writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Show implements Display.
func (c *Console) Show(line1, line2 string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.shown && line1 == c.line1 && line2 == c.line2 {
		return
	}
	c.shown = true
	c.line1, c.line2 = line1, line2

	switch {
	case line1 != "" && line2 != "":
		fmt.Fprintf(c.w, "%s\n%s\n", line1, line2)
	case line1 != "":
		fmt.Fprintln(c.w, line1)
	case line2 != "":
		fmt.Fprintln(c.w, line2)
	}
}

// Lines returns the last pair shown.
func (c *Console) Lines() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.line1, c.line2
}

type tee []Display

func (t tee) Show(line1, line2 string) {
	for _, d := range t {
		d.Show(line1, line2)
	}
}

// Tee fans every Show out to each non-nil display in order.
func Tee(displays ...Display) Display {
	out := make(tee, 0, len(displays))
	for _, d := range displays {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}
