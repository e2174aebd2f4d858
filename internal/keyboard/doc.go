// Package keyboard is a compositor module that reads key presses from a
// terminal and publishes them on the bus.
//
// On Initialize the terminal is switched to raw mode and its descriptor
// made non-blocking; the runner polls it and Drain decodes everything
// pending into KeyPressEvents. Cleanup restores the terminal.
//
// Key presses are spelled by KeyPress.String ("a", "ctrl+b", "escape")
// and parsed back by Parse, which is how shortcuts are configured.
package keyboard
