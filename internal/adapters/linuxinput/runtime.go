//go:build linux

package linuxinput

import (
	"errors"
	"fmt"
	"sync"
	"time"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

const virtualDeviceName = "py-autoclicker"

// Backend reads activation input from /dev/input and injects through a uinput device.
type Backend struct {
	devicePath string
	injector   *evdevInjector
	logger     autoclicker.Logger
}

func NewBackend(devicePath string, logger autoclicker.Logger) (*Backend, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	capabilities := map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: injectableKeyCodes(),
		evdev.EV_REL: {evdev.REL_X, evdev.REL_Y},
	}
	id := evdev.InputID{
		BusType: uint16(evdev.BUS_VIRTUAL),
		Vendor:  0x1,
		Product: 0x1,
		Version: 1,
	}
	dev, err := evdev.CreateDevice(virtualDeviceName, id, capabilities)
	if err != nil {
		return nil, err
	}

	return &Backend{
		devicePath: devicePath,
		injector:   &evdevInjector{dev: dev},
		logger:     logger,
	}, nil
}

func (b *Backend) Injector() autoclicker.Injector {
	return b.injector
}

func (b *Backend) NewListener(binding autoclicker.Binding) (autoclicker.Listener, error) {
	devices, err := openSourceDevices(b.devicePath, binding)
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		name, _ := dev.Name()
		b.logger.Info("Using source device", "path", dev.Path(), "name", name)
	}
	return &listener{
		devices: devices,
		logger:  b.logger,
		stopCh:  make(chan struct{}),
	}, nil
}

type evdevInjector struct {
	mu  sync.Mutex
	dev *evdev.InputDevice
}

func (e *evdevInjector) PressButton(button autoclicker.Button) error {
	return e.writeButton(button, 1)
}

func (e *evdevInjector) ReleaseButton(button autoclicker.Button) error {
	return e.writeButton(button, 0)
}

func (e *evdevInjector) PressKey(key autoclicker.Key) error {
	return e.writeKey(key, 1)
}

func (e *evdevInjector) ReleaseKey(key autoclicker.Key) error {
	return e.writeKey(key, 0)
}

func (e *evdevInjector) writeButton(button autoclicker.Button, value int32) error {
	code, ok := ButtonCode(button)
	if !ok {
		return fmt.Errorf("unsupported output button %s", button)
	}
	return e.write(code, value)
}

func (e *evdevInjector) writeKey(key autoclicker.Key, value int32) error {
	code, ok := KeyCode(key)
	if !ok {
		return fmt.Errorf("unsupported output key %q", key)
	}
	return e.write(code, value)
}

func (e *evdevInjector) write(code uint16, value int32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	events := []evdev.InputEvent{
		{Type: evdev.EV_KEY, Code: evdev.EvCode(code), Value: value},
		{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT, Value: 0},
	}
	for i := range events {
		if err := e.dev.WriteOne(&events[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *evdevInjector) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dev == nil {
		return nil
	}
	err := e.dev.Close()
	e.dev = nil
	return err
}

type listener struct {
	devices []*evdev.InputDevice
	logger  autoclicker.Logger

	stopCh    chan struct{}
	stopOnce  sync.Once
	readersWG sync.WaitGroup
}

func (l *listener) Start(handler func(autoclicker.Event)) error {
	for _, dev := range l.devices {
		if err := dev.NonBlock(); err != nil {
			return fmt.Errorf("failed to set nonblocking mode for %s: %w", dev.Path(), err)
		}
	}
	for _, dev := range l.devices {
		l.readersWG.Add(1)
		go l.readLoop(dev, handler)
	}
	return nil
}

func (l *listener) Close() error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.readersWG.Wait()
		for _, dev := range l.devices {
			_ = dev.Close()
		}
	})
	return nil
}

func (l *listener) readLoop(dev *evdev.InputDevice, handler func(autoclicker.Event)) {
	defer l.readersWG.Done()

	path := dev.Path()
	for {
		if l.stopped() {
			return
		}
		events, err := dev.ReadSlice(64)
		if err != nil {
			if isDeviceClosedError(err) {
				return
			}
			if isWouldBlockError(err) {
				if !l.sleepWithStop(10 * time.Millisecond) {
					return
				}
				continue
			}
			l.logger.Warn("Read failed", "path", path, "err", err)
			if !l.sleepWithStop(100 * time.Millisecond) {
				return
			}
			continue
		}

		for _, event := range events {
			if ev, ok := translateEvent(event); ok {
				handler(ev)
			}
		}
	}
}

// translateEvent maps an EV_KEY event to a core event. Auto-repeat (value 2) is reported as a
// press; the service tells repeats apart from fresh presses.
func translateEvent(event evdev.InputEvent) (autoclicker.Event, bool) {
	if event.Type != evdev.EV_KEY {
		return autoclicker.Event{}, false
	}
	pressed := event.Value != 0
	code := uint16(event.Code)
	if button, ok := ButtonFromCode(code); ok {
		return autoclicker.Event{Kind: autoclicker.EventButton, Button: button, Pressed: pressed}, true
	}
	if key, ok := KeyFromCode(code); ok {
		return autoclicker.Event{Kind: autoclicker.EventKey, Key: key, Pressed: pressed}, true
	}
	return autoclicker.Event{}, false
}

func (l *listener) stopped() bool {
	select {
	case <-l.stopCh:
		return true
	default:
		return false
	}
}

func (l *listener) sleepWithStop(duration time.Duration) bool {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-l.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func isDeviceClosedError(err error) bool {
	return errors.Is(err, unix.EBADF) || errors.Is(err, unix.ENODEV)
}

func isWouldBlockError(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
