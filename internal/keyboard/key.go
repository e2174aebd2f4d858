package keyboard

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/randalmurphal/compositor/pkg/compositor/message"
)

// Key identifies a key. Character keys use KeyRune with KeyPress.Rune set.
type Key uint8

const (
	// KeyNone represents no key.
	KeyNone Key = iota

	KeyRune
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
)

var keyNames = map[Key]string{
	KeyEscape:    "escape",
	KeyEnter:     "enter",
	KeyTab:       "tab",
	KeyBackspace: "backspace",
	KeyDelete:    "delete",
	KeyInsert:    "insert",
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyPageUp:    "pageup",
	KeyPageDown:  "pagedown",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyLeft:      "left",
	KeyRight:     "right",
}

// namedKeys is keyNames inverted, plus aliases accepted by Parse.
var namedKeys = func() map[string]Key {
	m := map[string]Key{
		"esc":    KeyEscape,
		"return": KeyEnter,
		"del":    KeyDelete,
		"pgup":   KeyPageUp,
		"pgdn":   KeyPageDown,
	}
	for k, name := range keyNames {
		m[name] = k
	}
	return m
}()

// String returns the key's lowercase name.
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	switch k {
	case KeyNone:
		return "none"
	case KeyRune:
		return "rune"
	default:
		return fmt.Sprintf("key(%d)", uint8(k))
	}
}

// Modifier is a bit set of modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift is only reported for special keys; for characters it is
	// part of the rune.
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
)

// Has reports whether m contains mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// KeyPress is one decoded key press.
type KeyPress struct {
	Key  Key
	Rune rune
	Mods Modifier
}

// KeyPressEvent is the bus message published for every key press.
type KeyPressEvent = message.Event[KeyPress]

// Rune returns a key press for character r.
func Rune(r rune, mods Modifier) KeyPress {
	return KeyPress{Key: KeyRune, Rune: r, Mods: mods}
}

// Special returns a key press for a non-character key.
func Special(k Key, mods Modifier) KeyPress {
	return KeyPress{Key: k, Mods: mods}
}

// String returns the canonical spelling used in configuration and
// statistics: modifiers in ctrl, alt, shift order joined with "+", then
// the key name or character. Examples: "a", "A", "ctrl+b", "alt+up",
// "escape", "space".
func (k KeyPress) String() string {
	var b strings.Builder
	if k.Mods.Has(ModCtrl) {
		b.WriteString("ctrl+")
	}
	if k.Mods.Has(ModAlt) {
		b.WriteString("alt+")
	}
	if k.Mods.Has(ModShift) && k.Key != KeyRune {
		b.WriteString("shift+")
	}
	switch {
	case k.Key == KeyRune && k.Rune == ' ':
		b.WriteString("space")
	case k.Key == KeyRune:
		b.WriteRune(k.Rune)
	default:
		b.WriteString(k.Key.String())
	}
	return b.String()
}

// Parse errors.
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// Parse reads a key specification as written by KeyPress.String.
// Modifier and key names are case-insensitive; a single character is
// taken literally.
func Parse(spec string) (KeyPress, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return KeyPress{}, ErrEmptySpec
	}

	parts := strings.Split(spec, "+")
	// "ctrl++" and "+" name the plus key.
	if strings.HasSuffix(spec, "++") || spec == "+" {
		parts = append(parts[:len(parts)-2], "+")
	}

	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		switch strings.ToLower(p) {
		case "ctrl", "control", "c":
			mods |= ModCtrl
		case "alt", "meta", "a", "m":
			mods |= ModAlt
		case "shift", "s":
			mods |= ModShift
		default:
			return KeyPress{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidSpec, p, spec)
		}
	}

	last := parts[len(parts)-1]
	if utf8.RuneCountInString(last) == 1 {
		r, _ := utf8.DecodeRuneInString(last)
		if mods.Has(ModCtrl) && r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		return Rune(r, mods&^ModShift), nil
	}
	name := strings.ToLower(last)
	if name == "space" {
		return Rune(' ', mods&^ModShift), nil
	}
	if k, ok := namedKeys[name]; ok {
		return Special(k, mods), nil
	}
	return KeyPress{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidSpec, last, spec)
}

// MustParse is like Parse but panics on error.
func MustParse(spec string) KeyPress {
	k, err := Parse(spec)
	if err != nil {
		panic("keyboard: " + err.Error())
	}
	return k
}
