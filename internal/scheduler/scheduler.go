// Package scheduler drives periodic live ticks and market refreshes with bounded retries.
package scheduler

import (
	"context"
	"sync"
	"time"

	"MarketWatch/internal/config"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher is what the scheduler drives.
type Refresher interface {
	// Tick advances live prices one step.
	Tick(ctx context.Context) error
	// Refresh fetches market data for the tracked symbols and revalues dependents.
	Refresh(ctx context.Context) error
}

// State is the scheduler's polling state.
type State string

const (
	StateDisabled State = "disabled"
	StateEnabled  State = "enabled"
)

// Status is the observable scheduler state.
type Status struct {
	State      State     `json:"state"`
	Connected  bool      `json:"connected"`
	Halted     bool      `json:"halted"`
	RetryCount int       `json:"retry_count"`
	MaxRetries int       `json:"max_retries"`
	LastError  string    `json:"last_error,omitempty"`
	LastUpdate time.Time `json:"last_update"`
}

// Scheduler is a Disabled/Enabled state machine around a cron runner. While enabled it
// ticks every TickInterval and refreshes every RefreshInterval, spacing retries out
// exponentially after failures. After MaxRetries consecutive failures polling halts
// until ManualRefresh. Results of fetches started before Stop are discarded.
type Scheduler struct {
	mu     sync.Mutex
	cfg    config.ScheduleConfig
	target Refresher
	logger *zap.Logger
	now    func() time.Time

	// OnHalt, when set, is called once each time polling halts.
	OnHalt func(err error)

	state       State
	cron        *cron.Cron
	cancel      context.CancelFunc
	epoch       uint64
	retryCount  int
	halted      bool
	connected   bool
	lastErr     string
	lastUpdate  time.Time
	lastAttempt time.Time
}

// New creates a disabled Scheduler.
func New(cfg config.ScheduleConfig, target Refresher, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		target: target,
		logger: logger,
		now:    time.Now,
		state:  StateDisabled,
	}
}

// Start enables polling with a fresh retry budget. Calling Start while enabled is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateEnabled {
		return
	}
	s.state = StateEnabled
	s.halted = false
	s.retryCount = 0
	s.lastAttempt = time.Time{}
	s.arm()
	s.logger.Info("scheduler started",
		zap.Duration("tick", s.cfg.TickInterval),
		zap.Duration("refresh", s.cfg.RefreshInterval))
}

// Stop disables polling. It is safe to call at any time and more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateDisabled {
		return
	}
	s.state = StateDisabled
	s.halted = false
	s.disarm()
	s.logger.Info("scheduler stopped")
}

// arm starts a fresh cron runner under a new epoch. Callers hold s.mu.
func (s *Scheduler) arm() {
	s.epoch++
	epoch := s.epoch
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	clog := cronLogger{s.logger.Sugar()}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	c.Schedule(cron.Every(s.cfg.TickInterval), cron.FuncJob(func() { s.runTick(ctx, epoch) }))
	c.Schedule(cron.Every(s.cfg.RefreshInterval), cron.FuncJob(func() { s.runRefresh(ctx, epoch) }))
	c.Start()
	s.cron = c
}

// disarm stops the runner and invalidates in-flight jobs. Callers hold s.mu.
func (s *Scheduler) disarm() {
	s.epoch++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
}

func (s *Scheduler) current(epoch uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch == epoch
}

func (s *Scheduler) runTick(ctx context.Context, epoch uint64) {
	if !s.current(epoch) {
		return
	}
	if err := s.target.Tick(ctx); err != nil {
		s.logger.Warn("live tick failed", zap.Error(err))
	}
}

func (s *Scheduler) runRefresh(ctx context.Context, epoch uint64) {
	s.mu.Lock()
	if s.epoch != epoch || s.now().Before(s.nextAttempt()) {
		s.mu.Unlock()
		return
	}
	s.lastAttempt = s.now()
	s.mu.Unlock()

	err := s.target.Refresh(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		s.logger.Debug("discarding refresh result from stopped session", zap.Error(err))
		return
	}
	if err != nil {
		s.failure(err)
		return
	}
	s.success()
}

// nextAttempt spaces refreshes RefreshInterval << (retryCount-1) apart after failures,
// capped at MaxBackoff. Callers hold s.mu.
func (s *Scheduler) nextAttempt() time.Time {
	if s.retryCount == 0 || s.lastAttempt.IsZero() {
		return time.Time{}
	}
	return s.lastAttempt.Add(s.backoff())
}

func (s *Scheduler) backoff() time.Duration {
	d := s.cfg.RefreshInterval
	for i := 1; i < s.retryCount; i++ {
		d *= 2
		if s.cfg.MaxBackoff > 0 && d >= s.cfg.MaxBackoff {
			return s.cfg.MaxBackoff
		}
	}
	return d
}

// OnFetchSuccess records a successful refresh and clears the retry counter.
func (s *Scheduler) OnFetchSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.success()
}

// OnFetchFailure records a failed refresh and halts polling once MaxRetries is reached.
func (s *Scheduler) OnFetchFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failure(err)
}

func (s *Scheduler) success() {
	s.retryCount = 0
	s.connected = true
	s.lastErr = ""
	s.lastUpdate = s.now()
}

func (s *Scheduler) failure(err error) {
	s.retryCount++
	s.connected = false
	s.lastErr = err.Error()
	s.logger.Warn("market refresh failed",
		zap.Int("retry", s.retryCount), zap.Int("max_retries", s.cfg.MaxRetries), zap.Error(err))

	// Only an enabled scheduler has polling to halt.
	if s.retryCount < s.cfg.MaxRetries || s.halted || s.state != StateEnabled {
		return
	}
	s.halted = true
	s.disarm()
	s.logger.Error("polling halted after repeated failures", zap.Int("retries", s.retryCount))
	if s.OnHalt != nil {
		go s.OnHalt(err)
	}
}

// ManualRefresh resets the retry counter and refreshes immediately. If polling had
// halted and the scheduler is enabled, polling resumes.
func (s *Scheduler) ManualRefresh(ctx context.Context) error {
	s.mu.Lock()
	s.retryCount = 0
	s.lastAttempt = time.Time{}
	if s.halted {
		s.halted = false
		if s.state == StateEnabled {
			s.arm()
			s.logger.Info("polling resumed by manual refresh")
		}
	}
	epoch := s.epoch
	s.mu.Unlock()

	err := s.target.Refresh(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch && s.state == StateEnabled {
		// the session this refresh belonged to was replaced; its result no longer applies
		return err
	}
	if err != nil {
		s.failure(err)
	} else {
		s.success()
	}
	return err
}

// Status returns the observable state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		State:      s.state,
		Connected:  s.connected,
		Halted:     s.halted,
		RetryCount: s.retryCount,
		MaxRetries: s.cfg.MaxRetries,
		LastError:  s.lastErr,
		LastUpdate: s.lastUpdate,
	}
}

// cronLogger routes cron's own logging to zap; its chatty Info lines go to debug.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
