package cli

import (
	"bufio"
	"fmt"
	"io"
)

// Terminal is the screen the interactive menu draws on.
type Terminal interface {
	Clear()
	Pause()
}

type ansiTerminal struct {
	out io.Writer
	in  *bufio.Scanner
}

// newANSITerminal shares the menu's scanner so Pause consumes the same input stream.
func newANSITerminal(out io.Writer, in *bufio.Scanner) *ansiTerminal {
	return &ansiTerminal{out: out, in: in}
}

func (t *ansiTerminal) Clear() {
	fmt.Fprint(t.out, "\033[H\033[2J")
}

func (t *ansiTerminal) Pause() {
	fmt.Fprint(t.out, "\nPress Enter to continue...")
	t.in.Scan()
}
