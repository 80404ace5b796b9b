//go:build linux

package linuxinput

import (
	"fmt"
	"os"
	"sort"
	"strings"

	evdev "github.com/holoplot/go-evdev"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

type DeviceInfo struct {
	Path      string
	Name      string
	IsVirtual bool
	IsPointer bool
}

func ListInputDevices() ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}

	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Path < paths[j].Path
	})

	devices := make([]DeviceInfo, 0, len(paths))
	for _, path := range paths {
		dev, err := openInputDevice(path.Path)
		if err != nil {
			continue
		}

		name := path.Name
		if actualName, err := dev.Name(); err == nil && actualName != "" {
			name = actualName
		}

		devices = append(devices, DeviceInfo{
			Path:      path.Path,
			Name:      name,
			IsVirtual: deviceIsVirtual(dev, name),
			IsPointer: deviceIsPointer(dev),
		})
		_ = dev.Close()
	}

	return devices, nil
}

// openSourceDevices opens every physical device able to report the codes the binding
// watches. devicePath, when set, restricts the search to that device.
func openSourceDevices(devicePath string, binding autoclicker.Binding) ([]*evdev.InputDevice, error) {
	codes, err := bindingCodes(binding)
	if err != nil {
		return nil, err
	}

	if devicePath != "" {
		dev, err := openInputDevice(devicePath)
		if err != nil {
			return nil, err
		}
		for _, code := range codes {
			if !deviceSupportsCode(dev, code) {
				_ = dev.Close()
				return nil, fmt.Errorf("%s does not expose %s", devicePath, evdev.CodeName(evdev.EV_KEY, evdev.EvCode(code)))
			}
		}
		return []*evdev.InputDevice{dev}, nil
	}

	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, err
	}
	sort.Slice(paths, func(i, j int) bool {
		return paths[i].Path < paths[j].Path
	})

	devices := make([]*evdev.InputDevice, 0, len(paths))
	for _, path := range paths {
		dev, err := openInputDevice(path.Path)
		if err != nil {
			continue
		}

		name := path.Name
		if actualName, nameErr := dev.Name(); nameErr == nil && actualName != "" {
			name = actualName
		}
		if deviceIsVirtual(dev, name) || !deviceSupportsAny(dev, codes) {
			_ = dev.Close()
			continue
		}
		devices = append(devices, dev)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no readable input device exposes the %s activation input; use --list-devices and then pass --device", binding.Mode)
	}
	return devices, nil
}

// bindingCodes lists the evdev codes a device must expose to serve binding. An empty chord
// accepts any key, so any keyboard-like device qualifies.
func bindingCodes(binding autoclicker.Binding) ([]uint16, error) {
	if binding.Mode == autoclicker.InputMouse {
		code, ok := ButtonCode(binding.Button)
		if !ok {
			return nil, fmt.Errorf("unsupported activation button %s", binding.Button)
		}
		return []uint16{code}, nil
	}

	if len(binding.Keys) == 0 {
		code, _ := KeyCode(autoclicker.CharKey('a'))
		return []uint16{code}, nil
	}
	codes := make([]uint16, 0, len(binding.Keys))
	for _, key := range binding.Keys {
		code, ok := KeyCode(key)
		if !ok {
			return nil, fmt.Errorf("unsupported activation key %q", key)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

func openInputDevice(path string) (*evdev.InputDevice, error) {
	return evdev.OpenWithFlags(path, os.O_RDONLY)
}

func deviceSupportsCode(device *evdev.InputDevice, code uint16) bool {
	needle := evdev.EvCode(code)
	for _, c := range device.CapableEvents(evdev.EV_KEY) {
		if c == needle {
			return true
		}
	}
	return false
}

func deviceSupportsAny(device *evdev.InputDevice, codes []uint16) bool {
	for _, code := range codes {
		if deviceSupportsCode(device, code) {
			return true
		}
	}
	return false
}

func deviceIsVirtual(device *evdev.InputDevice, name string) bool {
	id, err := device.InputID()
	if err == nil && id.BusType == uint16(evdev.BUS_VIRTUAL) {
		return true
	}
	lower := strings.ToLower(name)
	for _, token := range []string{"virtual", "uinput", "ydotool", "autoclicker"} {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func deviceIsPointer(device *evdev.InputDevice) bool {
	var hasRelX, hasRelY bool
	for _, code := range device.CapableEvents(evdev.EV_REL) {
		if code == evdev.REL_X {
			hasRelX = true
		}
		if code == evdev.REL_Y {
			hasRelY = true
		}
	}
	if hasRelX && hasRelY {
		return true
	}
	return len(device.CapableEvents(evdev.EV_ABS)) > 0
}
