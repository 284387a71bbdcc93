package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"newscrawl/internal/observability/logging"
	"newscrawl/internal/usecase/crawl"
)

var (
	// ErrCycleRunning is returned by RunOnce while another cycle is running.
	ErrCycleRunning = errors.New("crawl cycle already running")

	// ErrSchedulerStopped is returned by RunOnce after Stop.
	ErrSchedulerStopped = errors.New("scheduler stopped")
)

// CycleRunner runs one crawl cycle. *crawl.Service implements it.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*crawl.CycleStats, error)
}

// State is the scheduler's lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// CycleSummary describes a finished cycle.
type CycleSummary struct {
	CycleID         string    `json:"cycle_id"`
	Start           time.Time `json:"start"`
	DurationSeconds float64   `json:"duration_seconds"`
	Outcome         string    `json:"outcome"`
	Candidates      int       `json:"candidates"`
	Duplicates      int       `json:"duplicates"`
	NewProcessed    int       `json:"new_processed"`
	Failures        int       `json:"failures"`
	Error           string    `json:"error,omitempty"`
}

// Scheduler fires crawl cycles on a cron schedule and never lets two cycles
// overlap. A tick that arrives while a cycle is running is dropped and
// counted in worker_cycle_skipped_ticks_total.
type Scheduler struct {
	runner  CycleRunner
	cfg     WorkerConfig
	metrics *WorkerMetrics
	logger  *slog.Logger

	cron *cron.Cron
	job  cron.Job

	running atomic.Bool

	mu      sync.Mutex
	baseCtx context.Context
	cancel  context.CancelFunc
	started bool
	stopped bool
	wg      sync.WaitGroup
	last    *CycleSummary
	onCycle func(CycleSummary)
}

// NewScheduler builds a scheduler for runner. Cycles fire every cfg.Interval,
// or on cfg.Schedule when it is set, evaluated in cfg.Timezone.
func NewScheduler(runner CycleRunner, cfg WorkerConfig, metrics *WorkerMetrics, logger *slog.Logger) (*Scheduler, error) {
	if runner == nil {
		return nil, errors.New("scheduler: runner is required")
	}
	if metrics == nil {
		return nil, errors.New("scheduler: metrics are required")
	}
	if cfg.CrawlTimeout <= 0 {
		return nil, fmt.Errorf("scheduler: crawl timeout must be positive, got %v", cfg.CrawlTimeout)
	}
	if logger == nil {
		logger = slog.Default()
	}

	loc := time.UTC
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("scheduler: timezone: %w", err)
		}
		loc = l
	}

	s := &Scheduler{
		runner:  runner,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		baseCtx: context.Background(),
		cancel:  func() {},
	}
	s.job = cron.NewChain(cron.Recover(cronLogger{logger})).Then(cron.FuncJob(s.tick))
	s.cron = cron.New(cron.WithLocation(loc))

	if cfg.Schedule != "" {
		if _, err := s.cron.AddJob(cfg.Schedule, s.job); err != nil {
			return nil, fmt.Errorf("scheduler: schedule %q: %w", cfg.Schedule, err)
		}
	} else {
		if cfg.Interval <= 0 {
			return nil, fmt.Errorf("scheduler: interval must be positive, got %v", cfg.Interval)
		}
		s.cron.Schedule(cron.Every(cfg.Interval), s.job)
	}

	return s, nil
}

// OnCycle registers fn to be called after every finished cycle. It must be
// set before Start.
func (s *Scheduler) OnCycle(fn func(CycleSummary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCycle = fn
}

// Start begins firing ticks. Cycles run under a context derived from ctx, so
// cancelling ctx interrupts the running cycle the same way Stop does.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.baseCtx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	if s.cfg.Schedule != "" {
		s.logger.Info("scheduler started",
			slog.String("schedule", s.cfg.Schedule),
			slog.String("timezone", s.cfg.Timezone))
	} else {
		s.logger.Info("scheduler started", slog.Duration("interval", s.cfg.Interval))
	}

	if s.cfg.RunOnStart {
		go s.job.Run()
	}
}

// Stop stops issuing ticks, interrupts the running cycle and waits for it to
// flush its run log or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()

	s.cron.Stop()
	cancel()
	s.logger.Info("scheduler stopping", slog.Bool("cycle_running", s.running.Load()))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with a cycle still running")
		return ctx.Err()
	}
}

// State reports the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()

	running := s.running.Load()
	switch {
	case stopped && running:
		return StateStopping
	case stopped:
		return StateStopped
	case running:
		return StateRunning
	default:
		return StateIdle
	}
}

// LastCycle returns the summary of the most recent finished cycle.
func (s *Scheduler) LastCycle() (CycleSummary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return CycleSummary{}, false
	}
	return *s.last, true
}

// RunOnce runs a cycle now under ctx. It returns ErrCycleRunning instead of
// waiting when a cycle is already running.
func (s *Scheduler) RunOnce(ctx context.Context) (CycleSummary, error) {
	return s.runCycle(ctx)
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()

	if _, err := s.runCycle(ctx); err != nil {
		switch {
		case errors.Is(err, ErrCycleRunning):
			s.metrics.RecordSkippedTick()
			s.logger.Warn("scheduler tick skipped, previous cycle still running")
		case errors.Is(err, ErrSchedulerStopped):
		default:
			s.logger.Error("crawl cycle failed", slog.String("error", logging.SanitizeError(err)))
		}
	}
}

func (s *Scheduler) runCycle(parent context.Context) (CycleSummary, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return CycleSummary{}, ErrSchedulerStopped
	}
	if !s.running.CompareAndSwap(false, true) {
		s.mu.Unlock()
		return CycleSummary{}, ErrCycleRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(parent, s.cfg.CrawlTimeout)
	defer cancel()

	start := time.Now()
	stats, err := s.runner.RunCycle(ctx)
	elapsed := time.Since(start)

	summary := summarize(stats, start, elapsed, err)
	s.metrics.RecordCycle(summary.Outcome, elapsed.Seconds())
	s.metrics.RecordArticlesProcessed(summary.NewProcessed)
	if summary.Outcome == OutcomeSuccess {
		s.metrics.RecordLastSuccess()
	}

	s.mu.Lock()
	s.last = &summary
	onCycle := s.onCycle
	s.mu.Unlock()

	if onCycle != nil {
		onCycle(summary)
	}
	return summary, err
}

func summarize(stats *crawl.CycleStats, start time.Time, elapsed time.Duration, err error) CycleSummary {
	summary := CycleSummary{
		Start:           start,
		DurationSeconds: elapsed.Seconds(),
		Outcome:         OutcomeSuccess,
	}
	if stats != nil {
		summary.CycleID = stats.CycleID
		summary.Start = stats.Start
		summary.Candidates, summary.Duplicates, summary.NewProcessed, summary.Failures = stats.Totals()
		if stats.Interrupted {
			summary.Outcome = OutcomeInterrupted
		}
	}
	if err != nil {
		summary.Outcome = OutcomeFailure
		summary.Error = logging.SanitizeError(err)
	}
	return summary
}

// cronLogger adapts slog to cron.Logger for the Recover wrapper.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append([]interface{}{slog.Any("error", err)}, keysAndValues...)...)
}
