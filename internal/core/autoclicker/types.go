package autoclicker

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrInvalidDeviation = errors.New("normal distribution requires a finite, non-negative deviation")
	ErrInvalidTiming    = errors.New("timing values must be finite")
	ErrAlreadyStarted   = errors.New("service already started")
	ErrStopped          = errors.New("service stopped")
)

// Key identifies a keyboard key: either a single character or a named modifier.
type Key string

const (
	KeyAltLeft   Key = "<alt_l>"
	KeyShiftLeft Key = "<shift_l>"
)

// CharKey returns the key that types r.
func CharKey(r rune) Key {
	return Key(strings.ToLower(string(r)))
}

// Unshift splits an uppercase letter into its lowercase key and reports that Shift must be
// held to type it. Other keys come back unchanged.
func (k Key) Unshift() (Key, bool) {
	r, ok := k.Rune()
	if !ok || !unicode.IsUpper(r) {
		return k, false
	}
	return CharKey(r), true
}

// Rune returns the character of a character key.
func (k Key) Rune() (rune, bool) {
	runes := []rune(string(k))
	if len(runes) != 1 {
		return 0, false
	}
	return runes[0], true
}

type Button uint8

const (
	ButtonUnknown Button = iota
	ButtonLeft
	ButtonRight
	ButtonMiddle
	Button4
	Button5
)

func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case Button4:
		return "button4"
	case Button5:
		return "button5"
	default:
		return "unknown"
	}
}

type EventKind uint8

const (
	EventKey EventKind = iota + 1
	EventButton
)

// Event is one raw notification from a Listener. X and Y carry the cursor position for
// button events when the backend reports it.
type Event struct {
	Kind    EventKind
	Key     Key
	Button  Button
	Pressed bool
	X, Y    int
}

// Binding is the listener target derived from a Config.
type Binding struct {
	Mode   InputMode
	Keys   []Key
	Button Button
}

type Listener interface {
	Start(handler func(Event)) error
	Close() error
}

type Injector interface {
	PressButton(button Button) error
	ReleaseButton(button Button) error
	PressKey(key Key) error
	ReleaseKey(key Key) error
	Close() error
}

// Backend pairs a platform listener factory with its injector.
type Backend interface {
	NewListener(binding Binding) (Listener, error)
	Injector() Injector
}

type Observer interface {
	ActivationChanged(active bool)
}

type ObserverFunc func(active bool)

func (f ObserverFunc) ActivationChanged(active bool) { f(active) }

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
