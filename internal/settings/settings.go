// Package settings persists the last-used clicker configuration as a flat document. The file
// extension picks the format: .toml, .yaml/.yml, anything else is JSON.
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
)

const reloadDebounce = 250 * time.Millisecond

func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil || configDir == "" {
		return filepath.Join(".", ".autoclicker.json")
	}
	return filepath.Join(configDir, "autoclicker", "defaults.json")
}

// Load reads the configuration at path. A missing file yields the default configuration;
// a malformed one is an error.
func Load(path string) (autoclicker.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return autoclicker.Config{}, nil
		}
		return autoclicker.Config{}, err
	}

	cfg, err := decode(path, data)
	if err != nil {
		return autoclicker.Config{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
	}
	return cfg, nil
}

func decode(path string, data []byte) (autoclicker.Config, error) {
	var cfg autoclicker.Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return autoclicker.Config{}, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return autoclicker.Config{}, err
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return autoclicker.Config{}, err
		}
	}
	return cfg, nil
}

func encode(path string, cfg autoclicker.Config) ([]byte, error) {
	cfg = cfg.Clone()
	if cfg.KeyCombination == nil {
		cfg.KeyCombination = []string{}
	}
	if cfg.OutputSequence == nil {
		cfg.OutputSequence = []string{}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	default:
		data, err := json.MarshalIndent(cfg, "", " ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}

func Save(path string, cfg autoclicker.Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}

	data, err := encode(path, cfg)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to persist settings: %w", err)
	}
	return nil
}

// Watch reloads the file whenever it is written and hands the result to onChange, until ctx
// is done. Parse failures go to onError and the previous configuration is kept by the caller.
func Watch(ctx context.Context, path string, onChange func(autoclicker.Config), onError func(error)) error {
	dir := filepath.Dir(path)
	target := filepath.Clean(path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	reload := func() {
		cfg, err := Load(path)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	}
	debounce := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDebounce, reload)
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}
