//go:build darwin

package hookinput

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-vgo/robotgo"
	hook "github.com/robotn/gohook"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

// gohook's kind names are shifted against libuiohook's: MouseHold carries the press and
// MouseDown the release.
const (
	kindKeyPressed    = hook.KeyHold
	kindKeyReleased   = hook.KeyUp
	kindMousePressed  = hook.MouseHold
	kindMouseReleased = hook.MouseDown
)

var (
	codeToKey = buildCodeToKey()

	hookActive atomic.Bool
)

func buildCodeToKey() map[uint16]autoclicker.Key {
	keys := []autoclicker.Key{autoclicker.KeyAltLeft, " "}
	for r := 'a'; r <= 'z'; r++ {
		keys = append(keys, autoclicker.CharKey(r))
	}
	for r := '0'; r <= '9'; r++ {
		keys = append(keys, autoclicker.CharKey(r))
	}
	for _, r := range "-=[];'`\\,./" {
		keys = append(keys, autoclicker.CharKey(r))
	}

	m := make(map[uint16]autoclicker.Key, len(keys))
	for _, key := range keys {
		name, ok := keyName(key)
		if !ok {
			continue
		}
		if code, ok := hook.Keycode[name]; ok {
			m[code] = key
		}
	}
	return m
}

type Backend struct {
	logger   autoclicker.Logger
	injector *robotInjector
}

func NewBackend(logger autoclicker.Logger) (*Backend, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &Backend{logger: logger, injector: &robotInjector{}}, nil
}

func (b *Backend) Injector() autoclicker.Injector {
	return b.injector
}

func (b *Backend) NewListener(binding autoclicker.Binding) (autoclicker.Listener, error) {
	return &listener{logger: b.logger, doneCh: make(chan struct{})}, nil
}

type robotInjector struct {
	mu sync.Mutex
}

func (i *robotInjector) PressButton(button autoclicker.Button) error {
	return i.toggleButton(button, "down")
}

func (i *robotInjector) ReleaseButton(button autoclicker.Button) error {
	return i.toggleButton(button, "up")
}

func (i *robotInjector) PressKey(key autoclicker.Key) error {
	return i.toggleKey(key, "down")
}

func (i *robotInjector) ReleaseKey(key autoclicker.Key) error {
	return i.toggleKey(key, "up")
}

func (i *robotInjector) toggleButton(button autoclicker.Button, direction string) error {
	name, ok := mouseName(button)
	if !ok {
		return fmt.Errorf("unsupported output button %s", button)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return robotgo.Toggle(name, direction)
}

func (i *robotInjector) toggleKey(key autoclicker.Key, direction string) error {
	name, ok := keyName(key)
	if !ok {
		return fmt.Errorf("unsupported output key %q", key)
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	return robotgo.KeyToggle(name, direction)
}

func (i *robotInjector) Close() error {
	return nil
}

// listener drives the process-wide libuiohook loop. Only one can run at a time.
type listener struct {
	logger autoclicker.Logger

	started  bool
	stopOnce sync.Once
	doneCh   chan struct{}
}

func (l *listener) Start(handler func(autoclicker.Event)) error {
	if !hookActive.CompareAndSwap(false, true) {
		return fmt.Errorf("input hook is already running")
	}
	l.started = true

	events := hook.Start()
	go l.eventLoop(events, handler)
	return nil
}

func (l *listener) Close() error {
	l.stopOnce.Do(func() {
		if !l.started {
			return
		}
		hook.End()
		<-l.doneCh
		hookActive.Store(false)
	})
	return nil
}

func (l *listener) eventLoop(events chan hook.Event, handler func(autoclicker.Event)) {
	defer close(l.doneCh)

	for e := range events {
		switch e.Kind {
		case kindKeyPressed, kindKeyReleased:
			key, ok := codeToKey[e.Keycode]
			if !ok {
				continue
			}
			handler(autoclicker.Event{Kind: autoclicker.EventKey, Key: key, Pressed: e.Kind == kindKeyPressed})
		case kindMousePressed, kindMouseReleased:
			button, ok := buttonFromHook(e.Button)
			if !ok {
				continue
			}
			handler(autoclicker.Event{
				Kind:    autoclicker.EventButton,
				Button:  button,
				Pressed: e.Kind == kindMousePressed,
				X:       int(e.X),
				Y:       int(e.Y),
			})
		}
	}
	l.logger.Debug("Input hook stopped")
}
