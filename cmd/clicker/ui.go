package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/jon-edward/py-autoclicker/internal/core/autoclicker"
	"github.com/jon-edward/py-autoclicker/internal/settings"
)

const (
	titleForm     = "AutoClicker"
	titleIdle     = "AutoClicker - Idle"
	titleClicking = "AutoClicker - Clicking"
)

var (
	idleBackground     = color.NRGBA{R: 0x14, G: 0x17, B: 0x1c, A: 0xff}
	clickingBackground = color.NRGBA{R: 0x4a, G: 0x22, B: 0x22, A: 0xff}
)

type clickerTheme struct {
	base fyne.Theme
}

func newClickerTheme() fyne.Theme {
	return &clickerTheme{base: theme.DarkTheme()}
}

func (t *clickerTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return idleBackground
	case theme.ColorNameInputBackground:
		return color.NRGBA{R: 0x1b, G: 0x20, B: 0x27, A: 0xff}
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0xff, G: 0x8a, B: 0x80, A: 0xff}
	case theme.ColorNameError:
		return color.NRGBA{R: 0xff, G: 0x82, B: 0x82, A: 0xff}
	}
	return t.base.Color(name, variant)
}

func (t *clickerTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *clickerTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

func (t *clickerTheme) Size(name fyne.ThemeSizeName) float32 {
	if name == theme.SizeNamePadding {
		return 6
	}
	return t.base.Size(name)
}

// parseSecondsField reads a non-negative number of seconds. An empty field means zero.
func parseSecondsField(label, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number of seconds", label)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must be >= 0", label)
	}
	return v, nil
}

func deviationLabelText(d autoclicker.Distribution) string {
	if d == autoclicker.DistributionNormal {
		return "Standard deviation"
	}
	return "Randomized deviation"
}

type session struct {
	service     *autoclicker.Service
	cancelWatch context.CancelFunc
}

func (s *session) stop() {
	if s == nil {
		return
	}
	if s.cancelWatch != nil {
		s.cancelWatch()
	}
	s.service.Stop()
}

func runUI(opts options, initial autoclicker.Config) error {
	fApp := app.New()
	fApp.Settings().SetTheme(newClickerTheme())

	window := fApp.NewWindow(titleForm)
	window.Resize(fyne.NewSize(460, 520))
	window.CenterOnScreen()

	background := canvas.NewRectangle(idleBackground)

	// Configuration form.
	waitEntry := widget.NewEntry()
	waitEntry.SetText(formatSeconds(initial.WaitTime))
	deviationEntry := widget.NewEntry()
	deviationEntry.SetText(formatSeconds(initial.DeviationTime))

	deviationItem := widget.NewFormItem(deviationLabelText(initial.DistributionType), deviationEntry)
	distributionSelect := widget.NewSelect([]string{"Uniform", "Normal"}, nil)
	distributionSelect.SetSelectedIndex(int(initial.DistributionType))

	toggleCheck := widget.NewCheck("", nil)
	toggleCheck.SetChecked(initial.Toggle)

	altCheck := widget.NewCheck("", nil)
	altCheck.SetChecked(initial.AltModifier)
	keysEntry := widget.NewEntry()
	keysEntry.SetPlaceHolder("a s")
	keysEntry.SetText(strings.Join(initial.KeyCombination, " "))
	keyboardInput := widget.NewForm(
		widget.NewFormItem("Require left alt", altCheck),
		widget.NewFormItem("Key combination", keysEntry),
	)

	sideSelect := widget.NewSelect([]string{"Mouse button 4", "Mouse button 5"}, nil)
	sideSelect.SetSelectedIndex(int(initial.SpecialMousePress))
	mouseInput := widget.NewForm(widget.NewFormItem("Button for auto-clicking", sideSelect))

	sequenceEntry := widget.NewEntry()
	sequenceEntry.SetPlaceHolder("1,2,3")
	sequenceEntry.SetText(strings.Join(initial.OutputSequence, ","))
	holdEntry := widget.NewEntry()
	holdEntry.SetText(formatSeconds(initial.HoldTime))
	keyboardOutput := widget.NewForm(
		widget.NewFormItem("Output sequence", sequenceEntry),
		widget.NewFormItem("Key hold time", holdEntry),
	)

	mouseSelect := widget.NewSelect([]string{"Mouse left button", "Mouse right button"}, nil)
	mouseSelect.SetSelectedIndex(int(initial.MouseOutput))
	mouseOutput := widget.NewForm(widget.NewFormItem("Mouse output", mouseSelect))

	inputSelect := widget.NewSelect([]string{"Keyboard", "Mouse"}, func(string) {})
	outputSelect := widget.NewSelect([]string{"Mouse", "Keyboard"}, func(string) {})

	form := widget.NewForm(
		widget.NewFormItem("Wait time per click", waitEntry),
		widget.NewFormItem("Deviation distribution", distributionSelect),
		deviationItem,
		widget.NewFormItem("Toggle", toggleCheck),
		widget.NewFormItem("Input handling", inputSelect),
	)
	outputForm := widget.NewForm(widget.NewFormItem("Output handling", outputSelect))

	distributionSelect.OnChanged = func(string) {
		deviationItem.Text = deviationLabelText(autoclicker.Distribution(distributionSelect.SelectedIndex()))
		form.Refresh()
	}
	inputSelect.OnChanged = func(string) {
		if inputSelect.SelectedIndex() == int(autoclicker.InputMouse) {
			keyboardInput.Hide()
			mouseInput.Show()
			return
		}
		mouseInput.Hide()
		keyboardInput.Show()
	}
	outputSelect.OnChanged = func(string) {
		if outputSelect.SelectedIndex() == int(autoclicker.OutputKeyboard) {
			mouseOutput.Hide()
			keyboardOutput.Show()
			return
		}
		keyboardOutput.Hide()
		mouseOutput.Show()
	}
	inputSelect.SetSelectedIndex(int(initial.InputMode))
	outputSelect.SetSelectedIndex(int(initial.OutputType))

	readForm := func() (autoclicker.Config, error) {
		var cfg autoclicker.Config
		var err error
		if cfg.WaitTime, err = parseSecondsField("Wait time", waitEntry.Text); err != nil {
			return cfg, err
		}
		if cfg.DeviationTime, err = parseSecondsField("Deviation", deviationEntry.Text); err != nil {
			return cfg, err
		}
		if cfg.HoldTime, err = parseSecondsField("Key hold time", holdEntry.Text); err != nil {
			return cfg, err
		}
		cfg.DistributionType = autoclicker.Distribution(max(0, distributionSelect.SelectedIndex()))
		cfg.Toggle = toggleCheck.Checked
		cfg.InputMode = autoclicker.InputMode(max(0, inputSelect.SelectedIndex()))
		cfg.AltModifier = altCheck.Checked
		if cfg.KeyCombination, err = parseKeyCombination(keysEntry.Text); err != nil {
			return cfg, fmt.Errorf("Key combination: %w", err)
		}
		cfg.SpecialMousePress = autoclicker.SideButton(max(0, sideSelect.SelectedIndex()))
		cfg.OutputType = autoclicker.OutputType(max(0, outputSelect.SelectedIndex()))
		cfg.OutputSequence = parseOutputSequence(sequenceEntry.Text)
		cfg.MouseOutput = autoclicker.MouseOutput(max(0, mouseSelect.SelectedIndex()))
		return cfg, nil
	}

	errorText := canvas.NewText("", theme.Color(theme.ColorNameError))
	startProgress := widget.NewProgressBarInfinite()
	startProgress.Hide()
	startBtn := widget.NewButton("Start", nil)
	startBtn.Importance = widget.HighImportance

	formView := container.NewVBox(
		form,
		keyboardInput,
		mouseInput,
		outputForm,
		keyboardOutput,
		mouseOutput,
		errorText,
		startProgress,
		startBtn,
	)

	// Running view.
	describeLabel := widget.NewLabel("")
	exitBtn := widget.NewButton("Exit", nil)
	quitBtn := widget.NewButton("Quit", nil)
	statusView := container.NewVBox(describeLabel, exitBtn, quitBtn)

	// Logs, only with DEBUG=1.
	logGrid := widget.NewTextGrid()
	logScroll := container.NewVScroll(logGrid)
	logScroll.SetMinSize(fyne.NewSize(0, 120))

	const maxUILogLines = 50
	var logMu sync.Mutex
	logLines := make([]string, 0, maxUILogLines)
	debugLogs := debugLogsEnabled()
	appendLogLine := func(line string) {
		if !debugLogs {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}

		logMu.Lock()
		logLines = append(logLines, line)
		if len(logLines) > maxUILogLines {
			logLines = logLines[len(logLines)-maxUILogLines:]
		}
		logText := strings.Join(logLines, "\n")
		logMu.Unlock()

		fyne.Do(func() {
			logGrid.SetText(logText)
			logScroll.ScrollToBottom()
		})
	}
	logger := newSlogLogger(opts.logLevel, true, appendLogLine)

	content := container.NewStack()
	showForm := func() {
		window.SetTitle(titleForm)
		background.FillColor = idleBackground
		background.Refresh()
		content.Objects = []fyne.CanvasObject{container.NewPadded(formView)}
		content.Refresh()
	}
	showStatus := func(cfg autoclicker.Config) {
		window.SetTitle(titleIdle)
		describeLabel.SetText(cfg.Describe())
		content.Objects = []fyne.CanvasObject{container.NewPadded(statusView)}
		content.Refresh()
	}
	setClickingUI := func(active bool) {
		if active {
			window.SetTitle(titleClicking)
			background.FillColor = clickingBackground
		} else {
			window.SetTitle(titleIdle)
			background.FillColor = idleBackground
		}
		background.Refresh()
	}

	var stateMu sync.Mutex
	var current *session
	starting := false

	stopSession := func() {
		stateMu.Lock()
		s := current
		current = nil
		stateMu.Unlock()
		s.stop()
	}

	showError := func(err error) {
		switch {
		case isPermissionError(err):
			errorText.Text = permissionDeniedHint()
		case errors.Is(err, syscall.EBUSY):
			errorText.Text = "Input device is in use by another app. Close the other app and try again."
		default:
			errorText.Text = err.Error()
		}
		errorText.Refresh()
		appendLogLine("ERROR " + errorText.Text)
	}

	startSession := func(cfg autoclicker.Config) error {
		observer := autoclicker.ObserverFunc(func(active bool) {
			fyne.Do(func() { setClickingUI(active) })
		})
		service, err := startService(opts, cfg, logger, observer)
		if err != nil {
			return err
		}

		s := &session{service: service}
		if opts.watch {
			ctx, cancel := context.WithCancel(context.Background())
			s.cancelWatch = cancel
			go func() {
				err := settings.Watch(ctx, opts.configPath, func(next autoclicker.Config) {
					if err := service.SetConfig(next); err != nil {
						logger.Warn("Rejected reloaded settings", "path", opts.configPath, "err", err)
						return
					}
					fyne.Do(func() { describeLabel.SetText(next.Describe()) })
				}, func(err error) {
					logger.Warn("Settings watch error", "err", err)
				})
				if err != nil {
					logger.Error("Settings watch stopped", "err", err)
				}
			}()
		}

		stateMu.Lock()
		current = s
		stateMu.Unlock()
		return nil
	}

	startBtn.OnTapped = func() {
		stateMu.Lock()
		busy := starting || current != nil
		if !busy {
			starting = true
		}
		stateMu.Unlock()
		if busy {
			return
		}

		cfg, err := readForm()
		if err != nil {
			stateMu.Lock()
			starting = false
			stateMu.Unlock()
			showError(err)
			return
		}
		errorText.Text = ""
		errorText.Refresh()
		if err := settings.Save(opts.configPath, cfg); err != nil {
			appendLogLine("WARNING Failed to save settings: " + err.Error())
		}

		startProgress.Show()
		go func() {
			err := startSession(cfg)
			stateMu.Lock()
			starting = false
			stateMu.Unlock()
			fyne.Do(func() {
				startProgress.Hide()
				if err != nil {
					showError(err)
					return
				}
				showStatus(cfg)
			})
		}()
	}

	exitBtn.OnTapped = func() {
		go func() {
			stopSession()
			fyne.Do(showForm)
		}()
	}

	var closeOnce sync.Once
	cleanup := func() {
		closeOnce.Do(stopSession)
	}
	quit := func() {
		cleanup()
		if currentApp := fyne.CurrentApp(); currentApp != nil {
			currentApp.Quit()
			return
		}
		window.SetCloseIntercept(nil)
		window.Close()
	}
	quitBtn.OnTapped = quit
	window.SetCloseIntercept(quit)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fyne.Do(quit)
	}()

	// Some GUI backends can leave Ctrl+C as raw ETX byte instead of SIGINT.
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 1 && buf[0] == 3 {
				fyne.Do(quit)
				return
			}
		}
	}()

	var rootContent fyne.CanvasObject = container.NewStack(background, content)
	if debugLogs {
		split := container.NewVSplit(rootContent, widget.NewCard("Logs", "", logScroll))
		split.SetOffset(0.75)
		rootContent = split
	}

	showForm()
	window.SetContent(rootContent)
	window.ShowAndRun()
	cleanup()
	return nil
}
