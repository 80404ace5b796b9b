package settings

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WaitTime != 0 || cfg.Toggle || len(cfg.KeyCombination) != 0 || cfg.OutputType != autoclicker.OutputMouse {
		t.Fatalf("Load() = %+v, want default config", cfg)
	}
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.json")
	if err := os.WriteFile(path, []byte(`{"wait_time": "soon"`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), "failed to parse settings") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadReadsIndexedEnums(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.json")
	doc := `{
 "wait_time": 0.1,
 "deviation_time": 0.02,
 "distribution_type": 1,
 "toggle": true,
 "input_mode": 0,
 "alt_modifier": true,
 "key_combination": ["a", "s"],
 "special_mouse_press": 1,
 "output_type": 1,
 "output_sequence": ["1", "2"],
 "mouse_output": 0,
 "hold_time": 0.01
}`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DistributionType != autoclicker.DistributionNormal || cfg.SpecialMousePress != autoclicker.SideButton5 {
		t.Fatalf("enums not decoded: %+v", cfg)
	}
	if !slices.Equal(cfg.KeyCombination, []string{"a", "s"}) || !slices.Equal(cfg.OutputSequence, []string{"1", "2"}) {
		t.Fatalf("lists not decoded: %+v", cfg)
	}
	if cfg.HoldTime != 0.01 || !cfg.Toggle || !cfg.AltModifier {
		t.Fatalf("scalars not decoded: %+v", cfg)
	}
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "defaults.json")
	want := autoclicker.Config{
		WaitTime:       0.25,
		Toggle:         true,
		InputMode:      autoclicker.InputMouse,
		OutputType:     autoclicker.OutputKeyboard,
		OutputSequence: []string{"z"},
		HoldTime:       0.02,
	}

	if err := Save(path, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.WaitTime != want.WaitTime || got.InputMode != want.InputMode || !slices.Equal(got.OutputSequence, want.OutputSequence) || got.HoldTime != want.HoldTime {
		t.Fatalf("Load() = %+v, want %+v", got, want)
	}
}

func TestWatchDeliversRewrittenConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.json")
	if err := Save(path, autoclicker.Config{WaitTime: 1}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan autoclicker.Config, 4)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- Watch(ctx, path, func(cfg autoclicker.Config) { changes <- cfg }, nil)
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	if err := Save(path, autoclicker.Config{WaitTime: 2, KeyCombination: []string{"k"}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	select {
	case cfg := <-changes:
		if cfg.WaitTime != 2 || !slices.Equal(cfg.KeyCombination, []string{"k"}) {
			t.Fatalf("watched config = %+v", cfg)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for reload")
	}

	cancel()
	select {
	case err := <-watchErr:
		if err != nil {
			t.Fatalf("Watch() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Watch() did not return after cancel")
	}
}

func TestSaveThenLoadByExtension(t *testing.T) {
	want := autoclicker.Config{
		WaitTime:          0.5,
		DeviationTime:     0.1,
		DistributionType:  autoclicker.DistributionNormal,
		AltModifier:       true,
		KeyCombination:    []string{"a", "s"},
		SpecialMousePress: autoclicker.SideButton5,
		MouseOutput:       autoclicker.MouseOutputRight,
	}

	for _, name := range []string{"defaults.toml", "defaults.yaml", "defaults.yml", "defaults.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := Save(path, want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}

			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got.WaitTime != want.WaitTime || got.DeviationTime != want.DeviationTime ||
				got.DistributionType != want.DistributionType || !got.AltModifier ||
				got.SpecialMousePress != want.SpecialMousePress || got.MouseOutput != want.MouseOutput {
				t.Fatalf("Load() = %+v, want %+v", got, want)
			}
			if !slices.Equal(got.KeyCombination, want.KeyCombination) || len(got.OutputSequence) != 0 {
				t.Fatalf("lists = %v / %v", got.KeyCombination, got.OutputSequence)
			}
		})
	}
}

func TestLoadTOMLDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.toml")
	doc := `wait_time = 0.2
toggle = true
input_mode = 1
special_mouse_press = 1
output_type = 1
output_sequence = ["q", "w"]
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WaitTime != 0.2 || !cfg.Toggle || cfg.InputMode != autoclicker.InputMouse ||
		cfg.SpecialMousePress != autoclicker.SideButton5 || cfg.OutputType != autoclicker.OutputKeyboard {
		t.Fatalf("Load() = %+v", cfg)
	}
	if !slices.Equal(cfg.OutputSequence, []string{"q", "w"}) {
		t.Fatalf("OutputSequence = %v", cfg.OutputSequence)
	}
}

func TestLoadMalformedYAMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	if err := os.WriteFile(path, []byte("wait_time: [1\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "failed to parse settings") {
		t.Fatalf("Load() error = %v", err)
	}
}
