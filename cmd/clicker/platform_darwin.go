//go:build darwin

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jon-edward/py-autoclicker/internal/adapters/hookinput"
	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" {
		backend = "auto"
	}
	switch backend {
	case "auto", "hook":
		return backend, nil
	default:
		return "", fmt.Errorf("invalid --backend %q (macOS supports auto|hook)", value)
	}
}

func listInputDevices(_ string) error {
	fmt.Println("global: macOS Event Tap [physical, pointer]")
	return nil
}

func permissionDeniedHint() string {
	return "Permission denied installing the input hook. Grant Accessibility and Input Monitoring access in System Settings > Privacy & Security."
}

func newBackend(opts options, logger *slog.Logger) (autoclicker.Backend, error) {
	if opts.devicePath != "" {
		logger.Warn("--device is ignored on macOS; using the global event tap")
	}
	logger.Info("Input mode", "mode", "event-tap")
	return hookinput.NewBackend(logger)
}
