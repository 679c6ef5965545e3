package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"meteo-stack/shared/config"
	"meteo-stack/shared/logger"
	"meteo-stack/shared/monitoring"
)

// Metrics summarizes a finished cycle for the status page
type Metrics interface {
	GetSummary() string
}

// AgentEvents routes cycle outcomes to the monitor
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent defines the interface that all agents must implement. RunOnce
// reports its outcome through events; a returned error is only logged.
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// State is the scheduler's fetch state
type State int32

const (
	Idle State = iota
	Fetching
)

func (s State) String() string {
	if s == Fetching {
		return "fetching"
	}
	return "idle"
}

// Scheduler runs an agent on a cron schedule, one cycle at a time. Ticks
// that arrive while a cycle is running are dropped, not queued.
type Scheduler struct {
	config  *config.Config
	monitor *monitoring.Monitor
	health  *monitoring.HealthServer
	agent   Agent
	cron    *cron.Cron
	logger  logger.Logger
	state   atomic.Int32
	recover cron.JobWrapper
	pending sync.WaitGroup
}

func New(cfg *config.Config, agent Agent, monitor *monitoring.Monitor, log logger.Logger) *Scheduler {
	recoverPanics := cron.Recover(cronLogger{log})
	return &Scheduler{
		config:  cfg,
		monitor: monitor,
		agent:   agent,
		logger:  log,
		recover: recoverPanics,
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(recoverPanics)),
	}
}

// WithHealthServer starts h alongside the schedule
func (s *Scheduler) WithHealthServer(h *monitoring.HealthServer) *Scheduler {
	s.health = h
	return s
}

func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Start runs one cycle immediately, then one per schedule tick until ctx is
// cancelled
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.agent.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}

	if s.health != nil {
		s.health.Start()
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.Trigger(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.logger.Infof("Scheduler started for %s with schedule: %s", s.agent.Name(), s.config.Schedule)
	s.cron.Start()

	first := cron.NewChain(s.recover).Then(cron.FuncJob(func() { s.Trigger(ctx) }))
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		first.Run()
	}()

	<-ctx.Done()
	s.logger.Infof("Scheduler stopped for %s", s.agent.Name())

	// Wait for a running cycle to finish
	<-s.cron.Stop().Done()
	s.pending.Wait()
	if s.health != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.health.Shutdown(shutdownCtx); err != nil {
			s.logger.Warnf("Health server shutdown: %v", err)
		}
	}
	return ctx.Err()
}

// Trigger starts a cycle unless one is already running. It reports whether
// a cycle ran.
func (s *Scheduler) Trigger(ctx context.Context) bool {
	if !s.state.CompareAndSwap(int32(Idle), int32(Fetching)) {
		s.monitor.RecordSkipped()
		return false
	}
	defer s.state.Store(int32(Idle))

	if err := s.RunOnce(ctx); err != nil {
		s.logger.Errorf("Error running scheduled job for %s: %v", s.agent.Name(), err)
	}
	return true
}

// RunOnce runs a single cycle regardless of the scheduler state
func (s *Scheduler) RunOnce(ctx context.Context) error {
	agentName := s.agent.Name()

	s.logger.Debugf("Starting %s run...", agentName)

	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}

	if err := s.agent.RunOnce(ctx, events); err != nil {
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	return nil
}

// cronLogger adapts the application logger to cron.Logger
type cronLogger struct {
	logger logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).Errorf("%s: %v", msg, err)
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	f := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		f[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return f
}
