package sweep

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"
)

// Func is one sweep run. The context is cancelled when the scheduler stops.
type Func func(ctx context.Context) error

// Scheduler runs named sweeps on cron schedules. Runs of one sweep never
// overlap; a run that is still busy when the next tick fires is skipped.
type Scheduler struct {
	cron   *cron.Cron
	logger *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	names []string
}

func New(logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithParser(cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)),
			cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Add registers fn under spec ("@every 2s", "*/5 * * * * *", ...). An empty
// spec disables the sweep and is not an error.
func (s *Scheduler) Add(name, spec string, fn Func) error {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		s.logger.Info("sweep disabled", "sweep", name)
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		start := time.Now()
		if err := fn(s.ctx); err != nil {
			s.logger.Error("sweep failed", "sweep", name, "err", err)
			return
		}
		s.logger.Debug("sweep ran", "sweep", name, "took", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("sweep %s: %w", name, err)
	}
	s.mu.Lock()
	s.names = append(s.names, name)
	s.mu.Unlock()
	return nil
}

// Names lists the enabled sweeps in registration order.
func (s *Scheduler) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop cancels running sweeps and waits for them to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
}

// cronLogger adapts the structured logger to cron.Logger.
type cronLogger struct {
	l *log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
