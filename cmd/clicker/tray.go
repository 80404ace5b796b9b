//go:build !darwin

package main

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/getlantern/systray"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

// trayStatus mirrors the activation flag into the system tray menu. It is an Observer and
// may be notified before the tray is ready.
type trayStatus struct {
	active atomic.Bool

	mu     sync.Mutex
	status *systray.MenuItem
	toggle *systray.MenuItem
}

func (t *trayStatus) ActivationChanged(active bool) {
	t.active.Store(active)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.refreshLocked()
}

func (t *trayStatus) refreshLocked() {
	if t.status == nil {
		return
	}
	if t.active.Load() {
		t.status.SetTitle("● Clicking")
		t.toggle.SetTitle("Stop clicking")
		systray.SetTitle(titleClicking)
		return
	}
	t.status.SetTitle("○ Idle")
	t.toggle.SetTitle("Start clicking")
	systray.SetTitle(titleIdle)
}

// runTray blocks on the tray loop until Quit is chosen or ctx ends.
func runTray(ctx context.Context, service *autoclicker.Service, tray *trayStatus, cfg autoclicker.Config) {
	onReady := func() {
		systray.SetTitle(titleIdle)
		systray.SetTooltip(strings.ReplaceAll(cfg.Describe(), "\n", " | "))

		status := systray.AddMenuItem("○ Idle", "Current status")
		status.Disable()
		toggle := systray.AddMenuItem("Start clicking", "Flip the activation flag")
		systray.AddSeparator()
		quit := systray.AddMenuItem("Quit", "Stop clicking and quit")

		tray.mu.Lock()
		tray.status = status
		tray.toggle = toggle
		tray.refreshLocked()
		tray.mu.Unlock()

		go func() {
			for {
				select {
				case <-toggle.ClickedCh:
					service.SetActivated(!service.IsActivated())
				case <-quit.ClickedCh:
					systray.Quit()
					return
				case <-ctx.Done():
					systray.Quit()
					return
				}
			}
		}()
	}

	systray.Run(onReady, func() {})
}
