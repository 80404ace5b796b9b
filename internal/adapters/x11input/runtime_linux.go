//go:build linux

package x11input

import (
	"fmt"
	"sort"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgb/xtest"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

// Backend injects through the XTEST extension and listens through passive grabs on the root
// window. Grabbed keys and buttons are consumed by the listener.
type Backend struct {
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	rootWin xproto.Window
	logger  autoclicker.Logger

	injector *x11Injector
}

func NewBackend(logger autoclicker.Logger) (*Backend, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	xu, conn, err := openDisplay()
	if err != nil {
		return nil, err
	}
	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, err
	}

	b := &Backend{
		xu:      xu,
		conn:    conn,
		rootWin: xu.RootWin(),
		logger:  logger,
	}
	b.injector = &x11Injector{b: b}
	return b, nil
}

func openDisplay() (*xgbutil.XUtil, *xgb.Conn, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, nil, err
	}
	conn := xu.Conn()
	if conn == nil {
		return nil, nil, fmt.Errorf("failed to open X11 connection")
	}
	keybind.Initialize(xu)
	return xu, conn, nil
}

func (b *Backend) Injector() autoclicker.Injector {
	return b.injector
}

func (b *Backend) NewListener(binding autoclicker.Binding) (autoclicker.Listener, error) {
	xu, conn, err := openDisplay()
	if err != nil {
		return nil, err
	}

	l := &listener{
		xu:           xu,
		conn:         conn,
		rootWin:      xu.RootWin(),
		logger:       b.logger,
		keycodeToKey: make(map[xproto.Keycode]autoclicker.Key),
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
	if err := l.grab(binding); err != nil {
		l.ungrabAll()
		conn.Close()
		return nil, err
	}
	return l, nil
}

type x11Injector struct {
	b  *Backend
	mu sync.Mutex
}

func (i *x11Injector) PressButton(button autoclicker.Button) error {
	return i.fakeButton(button, xproto.ButtonPress)
}

func (i *x11Injector) ReleaseButton(button autoclicker.Button) error {
	return i.fakeButton(button, xproto.ButtonRelease)
}

func (i *x11Injector) PressKey(key autoclicker.Key) error {
	return i.fakeKey(key, xproto.KeyPress)
}

func (i *x11Injector) ReleaseKey(key autoclicker.Key) error {
	return i.fakeKey(key, xproto.KeyRelease)
}

func (i *x11Injector) fakeButton(button autoclicker.Button, eventType byte) error {
	detail, ok := buttonDetail(button)
	if !ok {
		return fmt.Errorf("unsupported output button %s", button)
	}
	return i.fake(eventType, detail)
}

func (i *x11Injector) fakeKey(key autoclicker.Key, eventType byte) error {
	keycodes, err := resolveKeycodes(i.b.xu, key)
	if err != nil {
		return err
	}
	return i.fake(eventType, byte(keycodes[0]))
}

func (i *x11Injector) fake(eventType, detail byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if err := xtest.FakeInputChecked(
		i.b.conn,
		eventType,
		detail,
		xproto.TimeCurrentTime,
		i.b.rootWin,
		0,
		0,
		0,
	).Check(); err != nil {
		return err
	}
	i.b.conn.Sync()
	return nil
}

func (i *x11Injector) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.b.conn.Close()
	return nil
}

type listener struct {
	xu      *xgbutil.XUtil
	conn    *xgb.Conn
	rootWin xproto.Window
	logger  autoclicker.Logger

	keycodeToKey   map[xproto.Keycode]autoclicker.Key
	grabbedKeys    []xproto.Keycode
	grabbedButtons []xproto.Button

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func (l *listener) grab(binding autoclicker.Binding) error {
	if binding.Mode == autoclicker.InputMouse {
		detail, ok := buttonDetail(binding.Button)
		if !ok {
			return fmt.Errorf("unsupported activation button %s", binding.Button)
		}
		button := xproto.Button(detail)
		if err := xproto.GrabButtonChecked(
			l.conn,
			false,
			l.rootWin,
			xproto.EventMaskButtonPress|xproto.EventMaskButtonRelease,
			xproto.GrabModeAsync,
			xproto.GrabModeAsync,
			xproto.WindowNone,
			xproto.CursorNone,
			detail,
			xproto.ModMaskAny,
		).Check(); err != nil {
			return fmt.Errorf("grab %s: %w", binding.Button, err)
		}
		l.grabbedButtons = append(l.grabbedButtons, button)
		return nil
	}

	if len(binding.Keys) == 0 {
		return fmt.Errorf("x11 backend needs at least one activation key")
	}

	for _, key := range binding.Keys {
		keycodes, err := resolveKeycodes(l.xu, key)
		if err != nil {
			return err
		}
		for _, keycode := range keycodes {
			l.keycodeToKey[keycode] = key
		}
	}

	keycodes := make([]xproto.Keycode, 0, len(l.keycodeToKey))
	for keycode := range l.keycodeToKey {
		keycodes = append(keycodes, keycode)
	}
	sort.Slice(keycodes, func(i, j int) bool { return keycodes[i] < keycodes[j] })

	for _, keycode := range keycodes {
		if err := xproto.GrabKeyChecked(
			l.conn,
			false,
			l.rootWin,
			xproto.ModMaskAny,
			keycode,
			xproto.GrabModeAsync,
			xproto.GrabModeAsync,
		).Check(); err != nil {
			return fmt.Errorf("grab %q: %w", l.keycodeToKey[keycode], err)
		}
		l.grabbedKeys = append(l.grabbedKeys, keycode)
	}
	return nil
}

func (l *listener) ungrabAll() {
	for _, key := range l.grabbedKeys {
		xproto.UngrabKey(l.conn, key, l.rootWin, xproto.ModMaskAny)
	}
	for _, button := range l.grabbedButtons {
		xproto.UngrabButton(l.conn, byte(button), l.rootWin, xproto.ModMaskAny)
	}
	l.grabbedKeys = nil
	l.grabbedButtons = nil
}

func (l *listener) Start(handler func(autoclicker.Event)) error {
	l.started = true
	go l.eventLoop(handler)
	return nil
}

func (l *listener) Close() error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.ungrabAll()
		l.conn.Close()
		if l.started {
			<-l.doneCh
		}
	})
	return nil
}

// pollEvent returns the next queued event, if any, logging a queued X error instead.
func pollEvent(poll func() (xgb.Event, xgb.Error), logger autoclicker.Logger) xgb.Event {
	ev, xerr := poll()
	if xerr != nil {
		logger.Warn("X11 event error", "err", xerr)
	}
	return ev
}

func (l *listener) eventLoop(handler func(autoclicker.Event)) {
	defer close(l.doneCh)

	var pending xgb.Event
	for {
		var event xgb.Event
		if pending != nil {
			event, pending = pending, nil
		} else {
			ev, xerr := l.conn.WaitForEvent()
			if xerr != nil {
				select {
				case <-l.stopCh:
					return
				default:
				}
				l.logger.Warn("X11 event error", "err", xerr)
				continue
			}
			if ev == nil {
				return
			}
			event = ev
		}

		switch ev := event.(type) {
		case xproto.KeyPressEvent:
			if key, ok := l.keycodeToKey[ev.Detail]; ok {
				handler(autoclicker.Event{Kind: autoclicker.EventKey, Key: key, Pressed: true})
			}
		case xproto.KeyReleaseEvent:
			// Auto-repeat arrives as a release immediately followed by a press with the same
			// timestamp. Drop both so the key stays held.
			next := pollEvent(l.conn.PollForEvent, l.logger)
			if press, ok := next.(xproto.KeyPressEvent); ok && press.Detail == ev.Detail && press.Time == ev.Time {
				continue
			}
			pending = next
			if key, ok := l.keycodeToKey[ev.Detail]; ok {
				handler(autoclicker.Event{Kind: autoclicker.EventKey, Key: key, Pressed: false})
			}
		case xproto.ButtonPressEvent:
			if button, ok := buttonFromDetail(byte(ev.Detail)); ok {
				handler(autoclicker.Event{Kind: autoclicker.EventButton, Button: button, Pressed: true, X: int(ev.RootX), Y: int(ev.RootY)})
			}
		case xproto.ButtonReleaseEvent:
			if button, ok := buttonFromDetail(byte(ev.Detail)); ok {
				handler(autoclicker.Event{Kind: autoclicker.EventButton, Button: button, Pressed: false, X: int(ev.RootX), Y: int(ev.RootY)})
			}
		}
	}
}

func resolveKeycodes(xu *xgbutil.XUtil, key autoclicker.Key) ([]xproto.Keycode, error) {
	name, ok := keysymName(key)
	if !ok {
		return nil, fmt.Errorf("unsupported X11 key %q", key)
	}
	keycodes := keybind.StrToKeycodes(xu, name)
	if len(keycodes) == 0 {
		return nil, fmt.Errorf("failed to resolve X11 key %q", name)
	}
	return keycodes, nil
}
