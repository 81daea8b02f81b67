// Package tui: keyboard binding configuration.
package tui

// Keymap defines the keyboard shortcuts active during a build.
type Keymap struct {
	Quit      string
	ForceQuit string
	Ack       string
}

// defaultKeymap returns the default speedbuild key bindings.
func defaultKeymap() Keymap {
	return Keymap{
		Quit:      "q",
		ForceQuit: "ctrl+c",
		Ack:       "enter",
	}
}
