package x11input

import (
	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

var punctuationKeysyms = map[rune]string{
	' ':  "space",
	'-':  "minus",
	'=':  "equal",
	'[':  "bracketleft",
	']':  "bracketright",
	';':  "semicolon",
	'\'': "apostrophe",
	'`':  "grave",
	'\\': "backslash",
	',':  "comma",
	'.':  "period",
	'/':  "slash",
}

// keysymName returns the X keysym string keybind resolves for key.
func keysymName(key autoclicker.Key) (string, bool) {
	switch key {
	case autoclicker.KeyAltLeft:
		return "Alt_L", true
	case autoclicker.KeyShiftLeft:
		return "Shift_L", true
	}
	r, ok := key.Rune()
	if !ok {
		return "", false
	}
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return string(r), true
	}
	name, ok := punctuationKeysyms[r]
	return name, ok
}

// Core protocol button numbers. 8 and 9 are the back/forward side buttons.
func buttonDetail(button autoclicker.Button) (byte, bool) {
	switch button {
	case autoclicker.ButtonLeft:
		return 1, true
	case autoclicker.ButtonMiddle:
		return 2, true
	case autoclicker.ButtonRight:
		return 3, true
	case autoclicker.Button4:
		return 8, true
	case autoclicker.Button5:
		return 9, true
	default:
		return 0, false
	}
}

func buttonFromDetail(detail byte) (autoclicker.Button, bool) {
	switch detail {
	case 1:
		return autoclicker.ButtonLeft, true
	case 2:
		return autoclicker.ButtonMiddle, true
	case 3:
		return autoclicker.ButtonRight, true
	case 8:
		return autoclicker.Button4, true
	case 9:
		return autoclicker.Button5, true
	default:
		return 0, false
	}
}
