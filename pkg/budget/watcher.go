package budget

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Watcher periodically runs CheckAll on a cron schedule.
type Watcher struct {
	cron    *cron.Cron
	manager *Manager
	timeout time.Duration
	logger  *slog.Logger
}

// NewWatcher schedules budget checks. The schedule accepts standard
// five-field cron expressions and descriptors such as "@hourly" or "@every 15m".
func NewWatcher(m *Manager, schedule string, timeout time.Duration, logger *slog.Logger) (*Watcher, error) {
	w := &Watcher{
		cron:    cron.New(),
		manager: m,
		timeout: timeout,
		logger:  logger,
	}
	if _, err := w.cron.AddFunc(schedule, w.run); err != nil {
		return nil, fmt.Errorf("schedule budget check %q: %w", schedule, err)
	}
	return w, nil
}

func (w *Watcher) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	sent, err := w.manager.CheckAll(ctx)
	if err != nil {
		w.logger.Error("budget check failed", "error", err)
		return
	}
	w.logger.Debug("budget check complete", "alerts", len(sent))
}

// Start begins running scheduled checks in the background.
func (w *Watcher) Start() {
	w.cron.Start()
}

// Stop halts the schedule and waits for a running check to finish or ctx to expire.
func (w *Watcher) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
