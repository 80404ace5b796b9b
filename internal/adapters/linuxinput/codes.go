//go:build linux

package linuxinput

import (
	"sort"
	"strings"

	evdev "github.com/holoplot/go-evdev"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

var punctuationNames = map[rune]string{
	' ':  "KEY_SPACE",
	'-':  "KEY_MINUS",
	'=':  "KEY_EQUAL",
	'[':  "KEY_LEFTBRACE",
	']':  "KEY_RIGHTBRACE",
	';':  "KEY_SEMICOLON",
	'\'': "KEY_APOSTROPHE",
	'`':  "KEY_GRAVE",
	'\\': "KEY_BACKSLASH",
	',':  "KEY_COMMA",
	'.':  "KEY_DOT",
	'/':  "KEY_SLASH",
}

var (
	keyToCode map[autoclicker.Key]uint16
	codeToKey map[uint16]autoclicker.Key
)

func init() {
	keyToCode = make(map[autoclicker.Key]uint16)
	codeToKey = make(map[uint16]autoclicker.Key)

	add := func(key autoclicker.Key, name string) {
		code, ok := evdev.KEYFromString[name]
		if !ok {
			return
		}
		keyToCode[key] = uint16(code)
		codeToKey[uint16(code)] = key
	}
	for r := 'a'; r <= 'z'; r++ {
		add(autoclicker.CharKey(r), "KEY_"+strings.ToUpper(string(r)))
	}
	for r := '0'; r <= '9'; r++ {
		add(autoclicker.CharKey(r), "KEY_"+string(r))
	}
	for r, name := range punctuationNames {
		add(autoclicker.CharKey(r), name)
	}
	add(autoclicker.KeyAltLeft, "KEY_LEFTALT")
	add(autoclicker.KeyShiftLeft, "KEY_LEFTSHIFT")
}

// KeyCode returns the evdev code that produces key.
func KeyCode(key autoclicker.Key) (uint16, bool) {
	code, ok := keyToCode[key]
	return code, ok
}

func KeyFromCode(code uint16) (autoclicker.Key, bool) {
	key, ok := codeToKey[code]
	return key, ok
}

func ButtonCode(button autoclicker.Button) (uint16, bool) {
	switch button {
	case autoclicker.ButtonLeft:
		return uint16(evdev.BTN_LEFT), true
	case autoclicker.ButtonRight:
		return uint16(evdev.BTN_RIGHT), true
	case autoclicker.ButtonMiddle:
		return uint16(evdev.BTN_MIDDLE), true
	case autoclicker.Button4:
		return uint16(evdev.BTN_SIDE), true
	case autoclicker.Button5:
		return uint16(evdev.BTN_EXTRA), true
	default:
		return 0, false
	}
}

func ButtonFromCode(code uint16) (autoclicker.Button, bool) {
	switch evdev.EvCode(code) {
	case evdev.BTN_LEFT:
		return autoclicker.ButtonLeft, true
	case evdev.BTN_RIGHT:
		return autoclicker.ButtonRight, true
	case evdev.BTN_MIDDLE:
		return autoclicker.ButtonMiddle, true
	case evdev.BTN_SIDE:
		return autoclicker.Button4, true
	case evdev.BTN_EXTRA:
		return autoclicker.Button5, true
	default:
		return 0, false
	}
}

func injectableKeyCodes() []evdev.EvCode {
	codes := make([]evdev.EvCode, 0, len(keyToCode)+2)
	codes = append(codes, evdev.BTN_LEFT, evdev.BTN_RIGHT)
	for _, code := range keyToCode {
		codes = append(codes, evdev.EvCode(code))
	}
	sort.Slice(codes, func(i, j int) bool {
		return codes[i] < codes[j]
	})
	return codes
}
