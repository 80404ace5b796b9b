package main

import (
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
	"github.com/jon-edward/py-autoclicker/internal/settings"
)

func TestParseOptionsDefaults(t *testing.T) {
	opts, err := parseOptions(nil, io.Discard)
	if err != nil {
		t.Fatalf("parseOptions() error = %v", err)
	}
	if !opts.ui || opts.save || opts.watch || opts.listDevices {
		t.Fatalf("unexpected mode flags: %+v", opts)
	}
	if opts.logLevel != slog.LevelInfo {
		t.Fatalf("logLevel = %v, want info", opts.logLevel)
	}
	if len(opts.overrides) != 0 {
		t.Fatalf("expected no overrides without config flags, got %d", len(opts.overrides))
	}
	if opts.configPath != settings.DefaultPath() {
		t.Fatalf("configPath = %q, want %q", opts.configPath, settings.DefaultPath())
	}
}

func TestExplicitFlagsOverrideFile(t *testing.T) {
	opts, err := parseOptions([]string{
		"--cli",
		"--wait", "0.1",
		"--distribution", "normal",
		"--toggle",
		"--input", "mouse",
		"--side-button", "5",
		"--output", "keyboard",
		"--sequence", "x,y,z",
		"--hold", "0.02",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseOptions() error = %v", err)
	}
	if opts.ui {
		t.Fatalf("--cli should disable the GUI")
	}

	stored := autoclicker.Config{
		WaitTime:       3,
		DeviationTime:  0.5,
		KeyCombination: []string{"q"},
		MouseOutput:    autoclicker.MouseOutputRight,
	}
	got := opts.apply(stored)

	if got.WaitTime != 0.1 || got.HoldTime != 0.02 || !got.Toggle {
		t.Fatalf("scalar overrides not applied: %+v", got)
	}
	if got.DistributionType != autoclicker.DistributionNormal || got.InputMode != autoclicker.InputMouse ||
		got.SpecialMousePress != autoclicker.SideButton5 || got.OutputType != autoclicker.OutputKeyboard {
		t.Fatalf("enum overrides not applied: %+v", got)
	}
	if !slices.Equal(got.OutputSequence, []string{"x", "y", "z"}) {
		t.Fatalf("OutputSequence = %v", got.OutputSequence)
	}
	// Values not given on the command line come from the file.
	if got.DeviationTime != 0.5 || !slices.Equal(got.KeyCombination, []string{"q"}) || got.MouseOutput != autoclicker.MouseOutputRight {
		t.Fatalf("file values lost: %+v", got)
	}
	if stored.WaitTime != 3 {
		t.Fatalf("apply mutated the stored config")
	}
}

func TestParseOptionsUsageErrors(t *testing.T) {
	tests := [][]string{
		{"--distribution", "poisson"},
		{"--input", "joystick"},
		{"--output", "speaker"},
		{"--side-button", "3"},
		{"--mouse-button", "middle"},
		{"--log-level", "loud"},
		{"--backend", "quartz"},
		{"--keys", "ab"},
		{"stray"},
	}
	for _, args := range tests {
		if _, err := parseOptions(args, io.Discard); err == nil {
			t.Fatalf("parseOptions(%v) expected error", args)
		}
	}
}

func TestParseOptionsHelp(t *testing.T) {
	_, err := parseOptions([]string{"-h"}, io.Discard)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
}

func TestParseKeyCombinationAndSequence(t *testing.T) {
	if got, err := parseKeyCombination("  a   s\td "); err != nil || !slices.Equal(got, []string{"a", "s", "d"}) {
		t.Fatalf("parseKeyCombination() = %v, %v", got, err)
	}
	if _, err := parseKeyCombination("a sd"); err == nil {
		t.Fatalf("expected error for multi-character key")
	}
	if got := parseOutputSequence("1,2,,3"); !slices.Equal(got, []string{"1", "2", "3"}) {
		t.Fatalf("parseOutputSequence() = %v", got)
	}
	if got := parseOutputSequence(""); len(got) != 0 {
		t.Fatalf("parseOutputSequence(\"\") = %v, want empty", got)
	}
}

func TestParseSecondsField(t *testing.T) {
	if v, err := parseSecondsField("Wait time", ""); err != nil || v != 0 {
		t.Fatalf("empty field = %v, %v", v, err)
	}
	if v, err := parseSecondsField("Wait time", " 0.25 "); err != nil || v != 0.25 {
		t.Fatalf("0.25 = %v, %v", v, err)
	}
	if _, err := parseSecondsField("Wait time", "-1"); err == nil {
		t.Fatalf("expected error for negative value")
	}
	if _, err := parseSecondsField("Wait time", "soon"); err == nil || !strings.Contains(err.Error(), "Wait time") {
		t.Fatalf("expected labelled parse error, got %v", err)
	}
}

func TestRunUsageErrorExitCode(t *testing.T) {
	if code := run([]string{"--input", "joystick"}, io.Discard); code != 2 {
		t.Fatalf("run() = %d, want 2", code)
	}
}

func TestRunMultiCharacterKeysIsUsageError(t *testing.T) {
	var stderr strings.Builder
	if code := run([]string{"--cli", "--keys", "a bc"}, &stderr); code != 2 {
		t.Fatalf("run() = %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), `"bc"`) {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunMalformedSettingsExitCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	var stderr strings.Builder
	if code := run([]string{"--cli", "--config", path}, &stderr); code != 1 {
		t.Fatalf("run() = %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "failed to parse settings") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestFormatSeconds(t *testing.T) {
	for in, want := range map[float64]string{0: "0", 0.1: "0.1", 2.5: "2.5", 10: "10"} {
		if got := formatSeconds(in); got != want {
			t.Fatalf("formatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}
