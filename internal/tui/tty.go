package tui

import (
	"os"

	"github.com/mattn/go-isatty"
)

// IsTTY reports whether both ends of the terminal are interactive. The build
// command only offers the live view when they are; redirected or piped runs
// fall back to line output.
func IsTTY() bool {
	return (isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())) &&
		(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
}
