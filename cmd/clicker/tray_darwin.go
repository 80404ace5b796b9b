//go:build darwin

package main

import (
	"context"
	"log/slog"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

// getlantern/systray and Fyne's bundled tray both define the same Objective-C symbols, so the
// tray menu is not linked on macOS.
type trayStatus struct{}

func (t *trayStatus) ActivationChanged(bool) {}

func runTray(ctx context.Context, _ *autoclicker.Service, _ *trayStatus, _ autoclicker.Config) {
	slog.Warn("--tray is not available on macOS; press Ctrl+C to stop")
	<-ctx.Done()
}
