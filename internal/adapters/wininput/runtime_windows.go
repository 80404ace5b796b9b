//go:build windows

package wininput

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit        = 0x0012
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmXButtonDown = 0x020B
	wmXButtonUp   = 0x020C

	llmhfInjected        = 0x00000001
	llkhfInjected        = 0x00000010
	llkhfLowerILInjected = 0x00000002

	inputMouse    = 0
	inputKeyboard = 1

	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	mouseeventfXDown      = 0x0080
	mouseeventfXUp        = 0x0100

	keyeventfKeyUp = 0x0002
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessageW    = user32.NewProc("DispatchMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
	procSendInput           = user32.NewProc("SendInput")

	mouseHookCallback    = windows.NewCallback(mouseLLCallback)
	keyboardHookCallback = windows.NewCallback(keyboardLLCallback)

	activeListener atomic.Pointer[listener]
)

type point struct {
	X int32
	Y int32
}

type mouseLLHookStruct struct {
	Pt          point
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type keyboardLLHookStruct struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type message struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       point
	LPrivate uint32
}

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type keybdInput struct {
	WVk         uint16
	WScan       uint16
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

// mouseRecord and keyboardRecord both match sizeof(INPUT). The keyboard variant is padded to
// the size of the larger MOUSEINPUT member of the union.
type mouseRecord struct {
	Type uint32
	Mi   mouseInput
}

type keyboardRecord struct {
	Type uint32
	Ki   keybdInput
	_    [8]byte
}

// Backend is the Windows global-hook listener paired with SendInput injection.
type Backend struct {
	logger   autoclicker.Logger
	injector *windowsInjector
}

func NewBackend(logger autoclicker.Logger) (*Backend, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}
	return &Backend{logger: logger, injector: &windowsInjector{}}, nil
}

func (b *Backend) Injector() autoclicker.Injector {
	return b.injector
}

func (b *Backend) NewListener(binding autoclicker.Binding) (autoclicker.Listener, error) {
	return &listener{
		logger:   b.logger,
		loopDone: make(chan struct{}),
	}, nil
}

type windowsInjector struct {
	mu sync.Mutex
}

func (i *windowsInjector) PressButton(button autoclicker.Button) error {
	return i.sendButton(button, true)
}

func (i *windowsInjector) ReleaseButton(button autoclicker.Button) error {
	return i.sendButton(button, false)
}

func (i *windowsInjector) PressKey(key autoclicker.Key) error {
	return i.sendKey(key, 0)
}

func (i *windowsInjector) ReleaseKey(key autoclicker.Key) error {
	return i.sendKey(key, keyeventfKeyUp)
}

func (i *windowsInjector) sendButton(button autoclicker.Button, down bool) error {
	var flags, data uint32
	switch button {
	case autoclicker.ButtonLeft:
		flags = pick(down, mouseeventfLeftDown, mouseeventfLeftUp)
	case autoclicker.ButtonRight:
		flags = pick(down, mouseeventfRightDown, mouseeventfRightUp)
	case autoclicker.ButtonMiddle:
		flags = pick(down, mouseeventfMiddleDown, mouseeventfMiddleUp)
	case autoclicker.Button4:
		flags, data = pick(down, mouseeventfXDown, mouseeventfXUp), 0x0001
	case autoclicker.Button5:
		flags, data = pick(down, mouseeventfXDown, mouseeventfXUp), 0x0002
	default:
		return fmt.Errorf("unsupported output button %s", button)
	}

	record := mouseRecord{
		Type: inputMouse,
		Mi:   mouseInput{MouseData: data, DwFlags: flags},
	}
	return i.send(unsafe.Pointer(&record), unsafe.Sizeof(record))
}

func (i *windowsInjector) sendKey(key autoclicker.Key, flags uint32) error {
	vk, ok := KeyToVK(key)
	if !ok {
		return fmt.Errorf("unsupported output key %q", key)
	}
	record := keyboardRecord{
		Type: inputKeyboard,
		Ki:   keybdInput{WVk: uint16(vk), DwFlags: flags},
	}
	return i.send(unsafe.Pointer(&record), unsafe.Sizeof(record))
}

func (i *windowsInjector) send(record unsafe.Pointer, size uintptr) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	sent, _, callErr := procSendInput.Call(1, uintptr(record), size)
	if sent != 1 {
		if callErr != nil && callErr != windows.ERROR_SUCCESS {
			return callErr
		}
		return fmt.Errorf("SendInput rejected the input")
	}
	return nil
}

func (i *windowsInjector) Close() error {
	return nil
}

func pick(cond bool, a, b uint32) uint32 {
	if cond {
		return a
	}
	return b
}

// listener owns the process-wide low-level hooks. Only one can be active at a time.
type listener struct {
	logger  autoclicker.Logger
	handler func(autoclicker.Event)

	stopOnce sync.Once
	threadID atomic.Uint32
	started  atomic.Bool
	loopDone chan struct{}
}

func (l *listener) Start(handler func(autoclicker.Event)) error {
	if !activeListener.CompareAndSwap(nil, l) {
		return fmt.Errorf("windows hook listener is already active")
	}
	l.handler = handler
	l.started.Store(true)

	ready := make(chan error, 1)
	go l.hookLoop(ready)

	if err := <-ready; err != nil {
		<-l.loopDone
		return err
	}
	return nil
}

func (l *listener) Close() error {
	l.stopOnce.Do(func() {
		if !l.started.Load() {
			return
		}
		threadID := l.threadID.Load()
		if threadID != 0 {
			_, _, _ = procPostThreadMessageW.Call(uintptr(threadID), uintptr(wmQuit), 0, 0)
		}
		<-l.loopDone
	})
	return nil
}

func (l *listener) hookLoop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(l.loopDone)
	defer activeListener.CompareAndSwap(l, nil)

	l.threadID.Store(windows.GetCurrentThreadId())

	mouseHook, _, mouseErr := procSetWindowsHookExW.Call(uintptr(whMouseLL), mouseHookCallback, 0, 0)
	if mouseHook == 0 {
		ready <- fmt.Errorf("failed to install mouse hook: %w", mouseErr)
		return
	}
	defer func() {
		_, _, _ = procUnhookWindowsHookEx.Call(mouseHook)
	}()

	keyboardHook, _, keyboardErr := procSetWindowsHookExW.Call(uintptr(whKeyboardLL), keyboardHookCallback, 0, 0)
	if keyboardHook == 0 {
		ready <- fmt.Errorf("failed to install keyboard hook: %w", keyboardErr)
		return
	}
	defer func() {
		_, _, _ = procUnhookWindowsHookEx.Call(keyboardHook)
	}()

	ready <- nil

	var msg message
	for {
		ret, _, callErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			l.logger.Warn("Windows message loop failed", "err", callErr)
			return
		case 0:
			return
		default:
			_, _, _ = procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
			_, _, _ = procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
		}
	}
}

func mouseLLCallback(code int, wParam uintptr, lParam uintptr) uintptr {
	if code >= 0 {
		if l := activeListener.Load(); l != nil {
			l.handleMouseHook(wParam, lParam)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
	return ret
}

func keyboardLLCallback(code int, wParam uintptr, lParam uintptr) uintptr {
	if code >= 0 {
		if l := activeListener.Load(); l != nil {
			l.handleKeyboardHook(wParam, lParam)
		}
	}
	ret, _, _ := procCallNextHookEx.Call(0, uintptr(code), wParam, lParam)
	return ret
}

func (l *listener) handleMouseHook(wParam uintptr, lParam uintptr) {
	if lParam == 0 {
		return
	}

	event := (*mouseLLHookStruct)(unsafe.Pointer(lParam))
	if event.Flags&llmhfInjected != 0 {
		return
	}

	var (
		button  autoclicker.Button
		pressed bool
		ok      bool
	)
	switch uint32(wParam) {
	case wmLButtonDown:
		button, pressed, ok = autoclicker.ButtonLeft, true, true
	case wmLButtonUp:
		button, ok = autoclicker.ButtonLeft, true
	case wmRButtonDown:
		button, pressed, ok = autoclicker.ButtonRight, true, true
	case wmRButtonUp:
		button, ok = autoclicker.ButtonRight, true
	case wmMButtonDown:
		button, pressed, ok = autoclicker.ButtonMiddle, true, true
	case wmMButtonUp:
		button, ok = autoclicker.ButtonMiddle, true
	case wmXButtonDown:
		button, ok = xButtonFromMouseData(event.MouseData)
		pressed = true
	case wmXButtonUp:
		button, ok = xButtonFromMouseData(event.MouseData)
	}
	if !ok {
		return
	}

	l.handler(autoclicker.Event{
		Kind:    autoclicker.EventButton,
		Button:  button,
		Pressed: pressed,
		X:       int(event.Pt.X),
		Y:       int(event.Pt.Y),
	})
}

func (l *listener) handleKeyboardHook(wParam uintptr, lParam uintptr) {
	if lParam == 0 {
		return
	}

	event := (*keyboardLLHookStruct)(unsafe.Pointer(lParam))
	if event.Flags&llkhfInjected != 0 || event.Flags&llkhfLowerILInjected != 0 {
		return
	}

	key, ok := KeyFromVK(event.VkCode, event.Flags)
	if !ok {
		return
	}

	var pressed bool
	switch uint32(wParam) {
	case wmKeyDown, wmSysKeyDown:
		pressed = true
	case wmKeyUp, wmSysKeyUp:
		pressed = false
	default:
		return
	}

	l.handler(autoclicker.Event{Kind: autoclicker.EventKey, Key: key, Pressed: pressed})
}
