package autoclicker

import (
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// At most one injection warning per interval reaches the log; every failure still lands in Err.
const injectWarnInterval = 2 * time.Second

type Option func(*Service)

func WithObserver(observer Observer) Option {
	return func(s *Service) { s.observer = observer }
}

// WithRand fixes the random source used for delays.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// Service runs the activation/emission loop: listener callbacks flip the activation flag,
// and a cadence goroutine emits one action per cycle while it is set.
type Service struct {
	backend  Backend
	injector Injector
	logger   Logger
	observer Observer
	rng      *rand.Rand
	warnings *rate.Limiter

	activated atomic.Bool

	// reconfigMu serializes Start, SetConfig and Stop; mu guards the fields below it.
	reconfigMu sync.Mutex

	mu            sync.Mutex
	cfg           Config
	accepted      map[Key]struct{}
	held          map[Key]struct{}
	binding       Binding
	outputButton  Button
	sequence      []Key
	sequenceIndex int
	sampler       *Sampler
	listener      Listener
	started       bool
	lastErr       error

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
	// wakeCh releases an idle cadence loop after the flag turns on.
	wakeCh chan struct{}
}

func NewService(cfg Config, backend Backend, logger Logger, opts ...Option) (*Service, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend is nil")
	}
	if backend.Injector() == nil {
		return nil, fmt.Errorf("injector is nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	s := &Service{
		backend:  backend,
		injector: backend.Injector(),
		logger:   logger,
		warnings: rate.NewLimiter(rate.Every(injectWarnInterval), 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		wakeCh:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	cfg = cfg.Clone()
	sampler, err := NewSampler(cfg, s.rng)
	if err != nil {
		return nil, err
	}
	s.applyLocked(cfg, sampler)
	return s, nil
}

// Start opens the listener for the configured input mode and starts the cadence loop.
func (s *Service) Start() error {
	s.reconfigMu.Lock()
	defer s.reconfigMu.Unlock()

	s.mu.Lock()
	if s.stopped() {
		s.mu.Unlock()
		return ErrStopped
	}
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	binding := s.binding
	s.mu.Unlock()

	if err := s.openListener(binding); err != nil {
		return err
	}

	s.mu.Lock()
	s.started = true
	s.mu.Unlock()

	go s.run()
	s.logger.Info("Clicker started", "input", binding.Mode.String(), "output", s.Config().OutputType.String())
	return nil
}

// Stop ends the cadence loop after its current cycle, then closes the listener and the
// injector. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)

		s.reconfigMu.Lock()
		defer s.reconfigMu.Unlock()

		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.doneCh
		}

		s.mu.Lock()
		listener := s.listener
		s.listener = nil
		s.mu.Unlock()
		if listener != nil {
			if err := listener.Close(); err != nil {
				s.logger.Warn("Failed to close listener", "err", err)
			}
		}

		if s.activated.Load() {
			s.SetActivated(false)
		}
		if err := s.injector.Close(); err != nil {
			s.logger.Warn("Failed to close injector", "err", err)
		}
		s.logger.Info("Clicker stopped")
	})
}

// SetConfig replaces the configuration wholesale. The listener is reopened when its target
// changed; the cadence loop keeps running. On error the previous configuration stays active.
func (s *Service) SetConfig(cfg Config) error {
	cfg = cfg.Clone()

	s.reconfigMu.Lock()
	defer s.reconfigMu.Unlock()

	if s.stopped() {
		return ErrStopped
	}

	s.mu.Lock()
	sampler, err := NewSampler(cfg, s.rng)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("reload config: %w", err)
	}
	prevCfg, prevSampler, prev := s.cfg, s.sampler, s.binding
	s.applyLocked(cfg, sampler)
	next := s.binding
	var old Listener
	if s.started && !sameBinding(prev, next) {
		old = s.listener
		s.listener = nil
	}
	s.mu.Unlock()

	s.logger.Debug("Config reloaded", "input", next.Mode.String(), "keys", len(next.Keys))
	if old == nil {
		return nil
	}
	if err := old.Close(); err != nil {
		s.logger.Warn("Failed to close listener", "err", err)
	}
	if err := s.openListener(next); err != nil {
		s.mu.Lock()
		s.applyLocked(prevCfg, prevSampler)
		s.mu.Unlock()
		if restoreErr := s.openListener(prev); restoreErr != nil {
			s.setErr(restoreErr)
			s.logger.Error("Failed to restore previous listener", "err", restoreErr)
		}
		return fmt.Errorf("reopen listener: %w", err)
	}
	return nil
}

func (s *Service) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

func (s *Service) IsActivated() bool {
	return s.activated.Load()
}

// SetActivated updates the activation flag and notifies the observer.
func (s *Service) SetActivated(active bool) {
	s.activated.Store(active)
	if active {
		s.wake()
	}
	s.notify(active)
}

// Err returns the last listener or injector failure.
func (s *Service) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// HandleEvent is the listener callback.
func (s *Service) HandleEvent(ev Event) {
	switch ev.Kind {
	case EventKey:
		s.handleKey(ev.Key, ev.Pressed)
	case EventButton:
		s.handleButton(ev.Button, ev.Pressed)
	}
}

func (s *Service) handleKey(key Key, pressed bool) {
	s.mu.Lock()
	if s.cfg.InputMode != InputKeyboard {
		s.mu.Unlock()
		return
	}

	// An empty chord is vacuously held, so every fresh key press satisfies it.
	vacuous := len(s.accepted) == 0
	if _, ok := s.accepted[key]; !ok && !vacuous {
		s.mu.Unlock()
		return
	}

	var (
		changed bool
		target  bool
	)
	if pressed {
		if _, repeat := s.held[key]; !repeat {
			before := !vacuous && s.chordHeldLocked()
			s.held[key] = struct{}{}
			if s.chordHeldLocked() && !before {
				changed = true
				target = true
				if s.cfg.Toggle {
					target = !s.activated.Load()
				}
				s.activated.Store(target)
			}
		}
	} else {
		delete(s.held, key)
		if !s.cfg.Toggle {
			changed = true
			s.activated.Store(false)
		}
	}
	s.mu.Unlock()

	if changed {
		if target {
			s.wake()
		}
		s.notify(target)
	}
}

func (s *Service) handleButton(button Button, pressed bool) {
	s.mu.Lock()
	if s.cfg.InputMode != InputMouse || button != s.binding.Button {
		s.mu.Unlock()
		return
	}

	target := pressed
	if s.cfg.Toggle {
		if !pressed {
			s.mu.Unlock()
			return
		}
		target = !s.activated.Load()
	}
	s.activated.Store(target)
	s.mu.Unlock()

	if target {
		s.wake()
	}
	s.notify(target)
}

func (s *Service) chordHeldLocked() bool {
	for key := range s.accepted {
		if _, ok := s.held[key]; !ok {
			return false
		}
	}
	return true
}

func (s *Service) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

func (s *Service) notify(active bool) {
	s.logger.Debug("Activation changed", "active", active)
	if s.observer != nil {
		s.observer.ActivationChanged(active)
	}
}

func (s *Service) run() {
	defer close(s.doneCh)

	for !s.stopped() {
		// Idle: park until activation or stop. A zero delay only applies between emissions.
		if !s.activated.Load() {
			select {
			case <-s.stopCh:
				return
			case <-s.wakeCh:
			}
			continue
		}
		s.emitOnce()
		if !s.waitWithStop(s.nextDelay()) {
			return
		}
	}
}

func (s *Service) emitOnce() {
	s.mu.Lock()
	output := s.cfg.OutputType
	button := s.outputButton
	hold := secondsToDuration(s.cfg.HoldTime)
	var (
		key   Key
		haveK bool
	)
	if output == OutputKeyboard && len(s.sequence) > 0 {
		key = s.sequence[s.sequenceIndex]
		s.sequenceIndex = (s.sequenceIndex + 1) % len(s.sequence)
		haveK = true
	}
	s.mu.Unlock()

	switch output {
	case OutputMouse:
		if err := s.injector.PressButton(button); err != nil {
			s.injectFailed(err)
			return
		}
		if err := s.injector.ReleaseButton(button); err != nil {
			s.injectFailed(err)
		}
	case OutputKeyboard:
		if !haveK {
			return
		}
		s.typeKey(key, hold)
	}
}

func (s *Service) typeKey(key Key, hold time.Duration) {
	base, shifted := key.Unshift()
	if shifted {
		if err := s.injector.PressKey(KeyShiftLeft); err != nil {
			s.injectFailed(err)
			return
		}
		defer func() {
			if err := s.injector.ReleaseKey(KeyShiftLeft); err != nil {
				s.injectFailed(err)
			}
		}()
	}

	if err := s.injector.PressKey(base); err != nil {
		s.injectFailed(err)
		return
	}
	if hold > 0 {
		time.Sleep(hold)
	}
	if err := s.injector.ReleaseKey(base); err != nil {
		s.injectFailed(err)
	}
}

func (s *Service) injectFailed(err error) {
	s.setErr(err)
	if s.warnings.Allow() {
		s.logger.Warn("Injection failed", "err", err)
	}
}

func (s *Service) nextDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sampler.Next()
}

func (s *Service) waitWithStop(d time.Duration) bool {
	if d <= 0 {
		return !s.stopped()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func (s *Service) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func (s *Service) openListener(binding Binding) error {
	listener, err := s.backend.NewListener(binding)
	if err != nil {
		return fmt.Errorf("open %s listener: %w", binding.Mode, err)
	}
	if err := listener.Start(s.HandleEvent); err != nil {
		_ = listener.Close()
		return fmt.Errorf("start %s listener: %w", binding.Mode, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	return nil
}

func (s *Service) setErr(err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config, sampler *Sampler) {
	s.cfg = cfg
	s.binding = cfg.Binding()
	s.accepted = make(map[Key]struct{}, len(s.binding.Keys))
	for _, key := range s.binding.Keys {
		s.accepted[key] = struct{}{}
	}
	s.held = make(map[Key]struct{})
	s.outputButton = cfg.MouseOutput.Button()
	s.sequence = cfg.Sequence()
	s.sequenceIndex = 0
	s.sampler = sampler
}

func sameBinding(a, b Binding) bool {
	return a.Mode == b.Mode && a.Button == b.Button && slices.Equal(a.Keys, b.Keys)
}
