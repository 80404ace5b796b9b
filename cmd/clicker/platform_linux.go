//go:build linux

package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jon-edward/py-autoclicker/internal/adapters/linuxinput"
	"github.com/jon-edward/py-autoclicker/internal/adapters/x11input"
	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "wayland", "x11", "evdev":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid --backend %q (linux supports auto|wayland|x11)", value)
	}
}

func listInputDevices(backend string) error {
	if resolveLinuxBackend(backend) == "x11" {
		fmt.Println("x11-global: X11 Global Input [physical, pointer]")
		return nil
	}

	devices, err := linuxinput.ListInputDevices()
	if err != nil {
		return err
	}
	for _, dev := range devices {
		virtualTag := "physical"
		if dev.IsVirtual {
			virtualTag = "virtual"
		}
		pointerTag := "non-pointer"
		if dev.IsPointer {
			pointerTag = "pointer"
		}
		fmt.Printf("%s: %s [%s, %s]\n", dev.Path, dev.Name, virtualTag, pointerTag)
	}
	return nil
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend. On Wayland use root/udev for /dev/input + /dev/uinput. On X11 ensure an active X11 session and DISPLAY is set."
}

func newBackend(opts options, logger *slog.Logger) (autoclicker.Backend, error) {
	switch resolveLinuxBackend(opts.backend) {
	case "x11":
		if opts.devicePath != "" {
			logger.Warn("--device is ignored on X11 backend")
		}
		logger.Info("Backend", "name", "x11")
		return x11input.NewBackend(logger)
	default:
		logger.Info("Backend", "name", "wayland")
		return linuxinput.NewBackend(opts.devicePath, logger)
	}
}

func resolveLinuxBackend(configured string) string {
	choice := strings.ToLower(strings.TrimSpace(configured))
	if choice == "" {
		choice = "auto"
	}
	if choice == "evdev" {
		choice = "wayland"
	}
	if choice != "auto" {
		return choice
	}

	sessionType := strings.ToLower(strings.TrimSpace(os.Getenv("XDG_SESSION_TYPE")))
	switch sessionType {
	case "wayland":
		return "wayland"
	case "x11":
		return "x11"
	}

	if strings.TrimSpace(os.Getenv("WAYLAND_DISPLAY")) != "" {
		return "wayland"
	}
	if strings.TrimSpace(os.Getenv("DISPLAY")) != "" {
		return "x11"
	}
	return "wayland"
}
