package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"unicode/utf8"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
	"github.com/jon-edward/py-autoclicker/internal/settings"
)

type options struct {
	configPath  string
	backend     string
	devicePath  string
	save        bool
	watch       bool
	tray        bool
	ui          bool
	listDevices bool
	logLevel    slog.Level

	// overrides holds one setter per configuration flag given on the command line, applied
	// on top of the settings file.
	overrides []func(*autoclicker.Config)
}

func (o options) apply(cfg autoclicker.Config) autoclicker.Config {
	cfg = cfg.Clone()
	for _, override := range o.overrides {
		override(&cfg)
	}
	return cfg
}

type lineSinkWriter struct {
	sink  func(line string)
	mu    sync.Mutex
	lines bytes.Buffer
}

func (w *lineSinkWriter) Write(p []byte) (int, error) {
	if w.sink == nil {
		return len(p), nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	total := len(p)
	for len(p) > 0 {
		idx := bytes.IndexByte(p, '\n')
		if idx == -1 {
			_, _ = w.lines.Write(p)
			break
		}
		_, _ = w.lines.Write(p[:idx])
		line := strings.TrimSpace(w.lines.String())
		w.lines.Reset()
		if line != "" {
			w.sink(line)
		}
		p = p[idx+1:]
	}
	return total, nil
}

// newSlogLogger logs to stderr. The GUI stays silent unless DEBUG=1, in which case lines are
// also mirrored to sink.
func newSlogLogger(level slog.Level, gui bool, sink func(line string)) *slog.Logger {
	if gui && !debugLogsEnabled() {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: level,
		}))
	}

	out := io.Writer(os.Stderr)
	if sink != nil {
		out = io.MultiWriter(os.Stderr, &lineSinkWriter{sink: sink})
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{
		Level: level,
	}))
}

func debugLogsEnabled() bool {
	return strings.TrimSpace(os.Getenv("DEBUG")) == "1"
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warning", "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid --log-level %q (expected debug|info|warning|error)", value)
	}
}

func parseOptions(args []string, stderr io.Writer) (options, error) {
	opts := options{}
	flags := flag.NewFlagSet("clicker", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		backendRaw   string
		logLevelRaw  string
		cliMode      bool
		wait         float64
		deviation    float64
		distribution string
		toggle       bool
		inputRaw     string
		alt          bool
		keys         string
		sideButton   int
		outputRaw    string
		sequence     string
		mouseButton  string
		hold         float64
	)

	flags.StringVar(&opts.configPath, "config", settings.DefaultPath(), "Settings file to load defaults from and --save to.")
	flags.StringVar(&backendRaw, "backend", "auto", "Input backend. Linux: auto|wayland|x11. Windows: auto|windows. macOS: auto|hook.")
	flags.StringVar(&opts.devicePath, "device", "", "Input event device to listen on, e.g. /dev/input/event4 (wayland backend). Auto-detected if omitted.")
	flags.Float64Var(&wait, "wait", 0, "Wait time per click in seconds.")
	flags.Float64Var(&deviation, "deviation", 0, "Randomized (uniform) or standard (normal) deviation in seconds.")
	flags.StringVar(&distribution, "distribution", "uniform", "Deviation distribution: uniform|normal.")
	flags.BoolVar(&toggle, "toggle", false, "Input toggles clicking instead of clicking while held.")
	flags.StringVar(&inputRaw, "input", "keyboard", "Activation input: keyboard|mouse.")
	flags.BoolVar(&alt, "alt", false, "Require the left alt key as part of the key combination.")
	flags.StringVar(&keys, "keys", "", "Whitespace-separated characters that start clicking, e.g. \"a s\".")
	flags.IntVar(&sideButton, "side-button", 4, "Mouse side button that starts clicking: 4|5.")
	flags.StringVar(&outputRaw, "output", "mouse", "Output: mouse|keyboard.")
	flags.StringVar(&sequence, "sequence", "", "Characters typed in rotation for keyboard output, e.g. \"1,2,3\".")
	flags.StringVar(&mouseButton, "mouse-button", "left", "Mouse output button: left|right.")
	flags.Float64Var(&hold, "hold", 0, "Key hold time in seconds for keyboard output.")
	flags.BoolVar(&opts.save, "save", false, "Write the effective configuration back to --config.")
	flags.BoolVar(&opts.watch, "watch", false, "Reload the configuration when --config changes on disk.")
	flags.BoolVar(&opts.tray, "tray", false, "Show a system tray status menu in terminal mode.")
	flags.BoolVar(&opts.listDevices, "list-devices", false, "Print available input devices and exit.")
	flags.BoolVar(&opts.ui, "ui", true, "Start desktop GUI (Fyne) by default. Use --ui=false or --cli for terminal mode.")
	flags.BoolVar(&cliMode, "cli", false, "Force terminal mode (disables GUI).")
	flags.StringVar(&logLevelRaw, "log-level", "info", "Log verbosity (default: info). Allowed: debug, info, warning, error.")

	if err := flags.Parse(args); err != nil {
		return opts, err
	}
	if flags.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(flags.Args(), " "))
	}
	if cliMode {
		opts.ui = false
	}

	var parseErr error
	flags.Visit(func(f *flag.Flag) {
		if parseErr != nil {
			return
		}
		var override func(*autoclicker.Config)
		override, parseErr = configOverride(f.Name, flagValues{
			wait:         wait,
			deviation:    deviation,
			distribution: distribution,
			toggle:       toggle,
			input:        inputRaw,
			alt:          alt,
			keys:         keys,
			sideButton:   sideButton,
			output:       outputRaw,
			sequence:     sequence,
			mouseButton:  mouseButton,
			hold:         hold,
		})
		if override != nil {
			opts.overrides = append(opts.overrides, override)
		}
	})
	if parseErr != nil {
		return opts, parseErr
	}

	parsedLevel, err := parseLogLevel(logLevelRaw)
	if err != nil {
		return opts, err
	}
	backendChoice, err := parseBackendChoice(backendRaw)
	if err != nil {
		return opts, err
	}

	opts.backend = backendChoice
	opts.logLevel = parsedLevel
	return opts, nil
}

type flagValues struct {
	wait, deviation, hold float64
	distribution          string
	toggle, alt           bool
	input, output         string
	keys, sequence        string
	sideButton            int
	mouseButton           string
}

// configOverride returns the config setter for one explicitly given flag, or nil when the flag
// is not a configuration flag.
func configOverride(name string, v flagValues) (func(*autoclicker.Config), error) {
	switch name {
	case "wait":
		return func(c *autoclicker.Config) { c.WaitTime = v.wait }, nil
	case "deviation":
		return func(c *autoclicker.Config) { c.DeviationTime = v.deviation }, nil
	case "hold":
		return func(c *autoclicker.Config) { c.HoldTime = v.hold }, nil
	case "toggle":
		return func(c *autoclicker.Config) { c.Toggle = v.toggle }, nil
	case "alt":
		return func(c *autoclicker.Config) { c.AltModifier = v.alt }, nil
	case "keys":
		keys, err := parseKeyCombination(v.keys)
		if err != nil {
			return nil, fmt.Errorf("invalid --keys: %w", err)
		}
		return func(c *autoclicker.Config) { c.KeyCombination = keys }, nil
	case "sequence":
		seq := parseOutputSequence(v.sequence)
		return func(c *autoclicker.Config) { c.OutputSequence = seq }, nil
	case "distribution":
		d, err := parseDistribution(v.distribution)
		if err != nil {
			return nil, err
		}
		return func(c *autoclicker.Config) { c.DistributionType = d }, nil
	case "input":
		switch strings.ToLower(strings.TrimSpace(v.input)) {
		case "keyboard":
			return func(c *autoclicker.Config) { c.InputMode = autoclicker.InputKeyboard }, nil
		case "mouse":
			return func(c *autoclicker.Config) { c.InputMode = autoclicker.InputMouse }, nil
		}
		return nil, fmt.Errorf("invalid --input %q (expected keyboard|mouse)", v.input)
	case "output":
		switch strings.ToLower(strings.TrimSpace(v.output)) {
		case "mouse":
			return func(c *autoclicker.Config) { c.OutputType = autoclicker.OutputMouse }, nil
		case "keyboard":
			return func(c *autoclicker.Config) { c.OutputType = autoclicker.OutputKeyboard }, nil
		}
		return nil, fmt.Errorf("invalid --output %q (expected mouse|keyboard)", v.output)
	case "side-button":
		switch v.sideButton {
		case 4:
			return func(c *autoclicker.Config) { c.SpecialMousePress = autoclicker.SideButton4 }, nil
		case 5:
			return func(c *autoclicker.Config) { c.SpecialMousePress = autoclicker.SideButton5 }, nil
		}
		return nil, fmt.Errorf("invalid --side-button %d (expected 4|5)", v.sideButton)
	case "mouse-button":
		switch strings.ToLower(strings.TrimSpace(v.mouseButton)) {
		case "left":
			return func(c *autoclicker.Config) { c.MouseOutput = autoclicker.MouseOutputLeft }, nil
		case "right":
			return func(c *autoclicker.Config) { c.MouseOutput = autoclicker.MouseOutputRight }, nil
		}
		return nil, fmt.Errorf("invalid --mouse-button %q (expected left|right)", v.mouseButton)
	}
	return nil, nil
}

func parseDistribution(value string) (autoclicker.Distribution, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "uniform":
		return autoclicker.DistributionUniform, nil
	case "normal", "gaussian":
		return autoclicker.DistributionNormal, nil
	default:
		return 0, fmt.Errorf("invalid --distribution %q (expected uniform|normal)", value)
	}
}

// parseKeyCombination splits whitespace-separated key characters. Each entry must be exactly
// one character.
func parseKeyCombination(value string) ([]string, error) {
	keys := strings.Fields(value)
	for _, key := range keys {
		if utf8.RuneCountInString(key) != 1 {
			return nil, fmt.Errorf("key %q is not a single character (separate keys with spaces)", key)
		}
	}
	return keys, nil
}

// parseOutputSequence drops commas and keeps every remaining character as one sequence entry.
func parseOutputSequence(value string) []string {
	value = strings.ReplaceAll(value, ",", "")
	seq := make([]string, 0, len(value))
	for _, r := range value {
		seq = append(seq, string(r))
	}
	return seq
}

// formatSeconds renders a duration field without trailing zeros.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isPermissionError(err error) bool {
	return errors.Is(err, os.ErrPermission) || errors.Is(err, syscall.EPERM) || errors.Is(err, syscall.EACCES)
}

func run(args []string, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if opts.listDevices {
		if err := listInputDevices(opts.backend); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	stored, err := settings.Load(opts.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	cfg := opts.apply(stored)

	if opts.save {
		if err := settings.Save(opts.configPath, cfg); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	if opts.ui {
		if err := runUI(opts, cfg); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	logger := newSlogLogger(opts.logLevel, false, nil)
	tray := &trayStatus{}
	service, err := startService(opts, cfg, logger, autoclicker.ObserverFunc(func(active bool) {
		logger.Debug("Activation changed", "active", active)
		if opts.tray {
			tray.ActivationChanged(active)
		}
	}))
	if err != nil {
		if isPermissionError(err) {
			fmt.Fprintln(stderr, permissionDeniedHint())
			return 1
		}
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer service.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if opts.watch {
		go func() {
			err := settings.Watch(ctx, opts.configPath, func(next autoclicker.Config) {
				if err := service.SetConfig(opts.apply(next)); err != nil {
					logger.Warn("Rejected reloaded settings", "path", opts.configPath, "err", err)
					return
				}
				logger.Info("Reloaded settings", "path", opts.configPath)
			}, func(err error) {
				logger.Warn("Settings watch error", "err", err)
			})
			if err != nil {
				logger.Error("Settings watch stopped", "err", err)
			}
		}()
	}

	for _, line := range strings.Split(cfg.Describe(), "\n") {
		logger.Info(line)
	}
	if opts.tray {
		runTray(ctx, service, tray, cfg)
		return 0
	}
	logger.Info("Press Ctrl+C to stop")
	<-ctx.Done()
	return 0
}

// startService opens the platform backend and starts a Service on it.
func startService(opts options, cfg autoclicker.Config, logger *slog.Logger, observer autoclicker.Observer) (*autoclicker.Service, error) {
	backend, err := newBackend(opts, logger)
	if err != nil {
		return nil, err
	}

	service, err := autoclicker.NewService(cfg, backend, logger, autoclicker.WithObserver(observer))
	if err != nil {
		_ = backend.Injector().Close()
		return nil, err
	}
	if err := service.Start(); err != nil {
		service.Stop()
		return nil, err
	}
	return service, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}
