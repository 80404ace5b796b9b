//go:build !linux && !windows && !darwin

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

func parseBackendChoice(value string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(value))
	if backend == "" || backend == "auto" {
		return "auto", nil
	}
	return "", fmt.Errorf("invalid --backend %q (unsupported platform)", value)
}

func listInputDevices(_ string) error {
	return fmt.Errorf("input device listing is not supported on this platform")
}

func permissionDeniedHint() string {
	return "Permission denied opening input backend."
}

func newBackend(_ options, _ *slog.Logger) (autoclicker.Backend, error) {
	return nil, fmt.Errorf("clicker backend is not supported on this platform")
}
