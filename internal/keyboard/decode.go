package keyboard

import "unicode/utf8"

const esc = 0x1b

// Decoder turns raw terminal input into key presses.
//
// It understands printable UTF-8, C0 control chords (Ctrl+A..Ctrl+Z and
// friends), Escape, Alt as an ESC prefix, and the CSI/SS3 sequences
// terminals send for cursor and editing keys, including xterm modifier
// parameters ("ESC [1;5A" is Ctrl+Up).
//
// A UTF-8 character or CSI/SS3 sequence split across reads is held until
// the rest arrives. An ESC at the very end of the input is the Escape key.
type Decoder struct {
	pending []byte
}

// Decode appends the key presses in buf to dst and returns it.
func (d *Decoder) Decode(dst []KeyPress, buf []byte) []KeyPress {
	return d.decode(dst, buf, false)
}

// Flush appends whatever is still pending to dst, decoding it as if no
// more input will follow: an unfinished sequence becomes Alt plus its
// bytes, an unfinished UTF-8 character is dropped.
func (d *Decoder) Flush(dst []KeyPress) []KeyPress {
	return d.decode(dst, nil, true)
}

// Pending reports whether a partial character or sequence is buffered.
func (d *Decoder) Pending() bool {
	return len(d.pending) > 0
}

func (d *Decoder) decode(dst []KeyPress, buf []byte, final bool) []KeyPress {
	if len(d.pending) > 0 {
		buf = append(d.pending, buf...)
		d.pending = nil
	}

	for len(buf) > 0 {
		k, n := decodeOne(buf, final)
		if n == 0 {
			d.pending = append([]byte(nil), buf...)
			break
		}
		if k.Key != KeyNone {
			dst = append(dst, k)
		}
		buf = buf[n:]
	}
	return dst
}

// decodeOne decodes the key press at the start of buf and the number of
// bytes it used. n is 0 if buf holds only part of a character or
// sequence; with final set, n is never 0.
func decodeOne(buf []byte, final bool) (KeyPress, int) {
	b := buf[0]
	if b == esc {
		if len(buf) == 1 {
			return Special(KeyEscape, ModNone), 1
		}
		switch buf[1] {
		case '[', 'O':
			k, n, st := decodeSequence(buf)
			switch {
			case st == seqComplete:
				return k, n
			case st == seqIncomplete && !final:
				return KeyPress{}, 0
			}
		case esc:
			return Special(KeyEscape, ModNone), 1
		}
		k, n := decodeOne(buf[1:], final)
		if n == 0 {
			return KeyPress{}, 0
		}
		k.Mods |= ModAlt
		return k, n + 1
	}

	if k, ok := decodeControl(b); ok {
		return k, 1
	}

	if !utf8.FullRune(buf) {
		if final {
			return KeyPress{}, len(buf)
		}
		return KeyPress{}, 0
	}
	r, n := utf8.DecodeRune(buf)
	if r == utf8.RuneError && n == 1 {
		return KeyPress{}, n
	}
	return Rune(r, ModNone), n
}

func decodeControl(b byte) (KeyPress, bool) {
	switch {
	case b == '\r' || b == '\n':
		return Special(KeyEnter, ModNone), true
	case b == '\t':
		return Special(KeyTab, ModNone), true
	case b == 0x7f || b == 0x08:
		return Special(KeyBackspace, ModNone), true
	case b == 0x00:
		return Rune(' ', ModCtrl), true
	case b >= 0x01 && b <= 0x1a:
		return Rune(rune('a'+b-1), ModCtrl), true
	case b >= 0x1c && b <= 0x1f:
		return Rune(rune(b+0x40), ModCtrl), true
	}
	return KeyPress{}, false
}

var finalKeys = map[byte]Key{
	'A': KeyUp,
	'B': KeyDown,
	'C': KeyRight,
	'D': KeyLeft,
	'H': KeyHome,
	'F': KeyEnd,
}

var tildeKeys = map[int]Key{
	1: KeyHome,
	2: KeyInsert,
	3: KeyDelete,
	4: KeyEnd,
	5: KeyPageUp,
	6: KeyPageDown,
	7: KeyHome,
	8: KeyEnd,
}

type seqStatus int

const (
	seqComplete seqStatus = iota
	seqIncomplete
	seqInvalid
)

// decodeSequence decodes "ESC [ params final" or "ESC O final".
// An unknown but complete sequence is consumed and yields KeyNone.
func decodeSequence(buf []byte) (k KeyPress, n int, st seqStatus) {
	var params []int
	cur, have := 0, false

	for i := 2; i < len(buf); i++ {
		c := buf[i]
		switch {
		case c >= '0' && c <= '9':
			cur = cur*10 + int(c-'0')
			have = true
		case c == ';':
			params = append(params, cur)
			cur, have = 0, false
		case c >= 0x40 && c <= 0x7e:
			if have {
				params = append(params, cur)
			}
			return sequenceKey(c, params), i + 1, seqComplete
		default:
			return KeyPress{}, 0, seqInvalid
		}
	}
	return KeyPress{}, 0, seqIncomplete
}

func sequenceKey(final byte, params []int) KeyPress {
	var mods Modifier
	if len(params) >= 2 {
		mods = xtermModifier(params[1])
	}

	if final == '~' {
		if len(params) == 0 {
			return KeyPress{}
		}
		if k, ok := tildeKeys[params[0]]; ok {
			return Special(k, mods)
		}
		return KeyPress{}
	}
	if k, ok := finalKeys[final]; ok {
		return Special(k, mods)
	}
	return KeyPress{}
}

// xtermModifier decodes the xterm modifier parameter (1 + bit mask).
func xtermModifier(p int) Modifier {
	if p < 2 {
		return ModNone
	}
	bits := p - 1
	var m Modifier
	if bits&1 != 0 {
		m |= ModShift
	}
	if bits&2 != 0 {
		m |= ModAlt
	}
	if bits&4 != 0 {
		m |= ModCtrl
	}
	return m
}
