// Package hookinput listens through libuiohook (gohook) and injects through robotgo. It is the
// macOS backend.
package hookinput

import (
	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

// keyName returns the name both gohook's Keycode table and robotgo's key table use for key.
func keyName(key autoclicker.Key) (string, bool) {
	switch key {
	case autoclicker.KeyAltLeft:
		return "alt", true
	case autoclicker.KeyShiftLeft:
		return "shift", true
	}
	r, ok := key.Rune()
	if !ok {
		return "", false
	}
	switch {
	case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		return string(r), true
	case r == ' ':
		return "space", true
	}
	switch r {
	case '-', '=', '[', ']', ';', '\'', '`', '\\', ',', '.', '/':
		return string(r), true
	}
	return "", false
}

// mouseName returns robotgo's name for an output button.
func mouseName(button autoclicker.Button) (string, bool) {
	switch button {
	case autoclicker.ButtonLeft:
		return "left", true
	case autoclicker.ButtonRight:
		return "right", true
	case autoclicker.ButtonMiddle:
		return "center", true
	default:
		return "", false
	}
}

// libuiohook numbers buttons 1 through 5 as left, right, middle, back, forward.
func buttonFromHook(button uint16) (autoclicker.Button, bool) {
	switch button {
	case 1:
		return autoclicker.ButtonLeft, true
	case 2:
		return autoclicker.ButtonRight, true
	case 3:
		return autoclicker.ButtonMiddle, true
	case 4:
		return autoclicker.Button4, true
	case 5:
		return autoclicker.Button5, true
	default:
		return 0, false
	}
}
