//go:build windows

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jon-edward/py-autoclicker/internal/adapters/wininput"
	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "windows":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid --backend %q (windows supports auto|windows)", value)
	}
}

func listInputDevices(_ string) error {
	fmt.Println("global: Windows Global Input [physical, pointer]")
	return nil
}

func permissionDeniedHint() string {
	return "Permission denied registering global input hooks. Run as Administrator and ensure input-hooking is allowed."
}

func newBackend(opts options, logger *slog.Logger) (autoclicker.Backend, error) {
	if opts.devicePath != "" {
		logger.Warn("--device is ignored on Windows; using global keyboard/mouse hooks")
	}
	logger.Info("Input mode", "mode", "windows-global-hooks")
	return wininput.NewBackend(logger)
}
