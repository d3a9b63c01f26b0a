package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/domain"
	"github.com/fastygo/tasktracker/usecase/tracker"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// NextDueSource is the part of the tracker the watcher drives.
type NextDueSource interface {
	OnNextDue(fn tracker.NextDueFunc)
	RefreshNextDue()
}

// WatcherConfig controls when the next-due indicator is recomputed.
type WatcherConfig struct {
	Spec     string
	Location *time.Location
}

// DueWatcher keeps the next-due indicator current. The tracker pushes a new
// value after every change; the cron job covers the calendar rolling over.
type DueWatcher struct {
	source  NextDueSource
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron

	mu      sync.RWMutex
	next    domain.Task
	hasNext bool
}

func NewDueWatcher(source NextDueSource, monitor ConnectionHealth, logger *zap.Logger, cfg WatcherConfig) (*DueWatcher, error) {
	if cfg.Spec == "" {
		cfg.Spec = "@midnight"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	w := &DueWatcher{
		source:  source,
		monitor: monitor,
		logger:  logger,
		cron:    cron.New(cron.WithLocation(cfg.Location)),
	}
	if _, err := w.cron.AddFunc(cfg.Spec, w.Tick); err != nil {
		return nil, fmt.Errorf("invalid DUE_REFRESH_SPEC %q: %w", cfg.Spec, err)
	}

	source.OnNextDue(w.observe)
	return w, nil
}

// Start computes the indicator once and schedules the refresh job.
func (w *DueWatcher) Start() {
	w.Tick()
	w.cron.Start()
	w.logger.Info("due watcher started")
}

// Stop waits for a running refresh to finish or ctx to expire.
func (w *DueWatcher) Stop(ctx context.Context) {
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		w.logger.Warn("due watcher stop timed out")
	}
}

// Tick recomputes the indicator unless the store is known to be offline.
func (w *DueWatcher) Tick() {
	if w.monitor != nil && !w.monitor.IsOnline() {
		w.logger.Warn("store offline; skipping next-due refresh")
		return
	}
	w.source.RefreshNextDue()
}

// Current returns the last observed next-due task.
func (w *DueWatcher) Current() (domain.Task, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.next, w.hasNext
}

func (w *DueWatcher) observe(next domain.Task, ok bool) {
	w.mu.Lock()
	changed := ok != w.hasNext || next.ID != w.next.ID || !next.DueDate.Equal(w.next.DueDate)
	w.next, w.hasNext = next, ok
	w.mu.Unlock()

	if !changed {
		return
	}
	if !ok {
		w.logger.Info("no upcoming tasks")
		return
	}
	w.logger.Info("next due task",
		zap.String("task_id", next.ID),
		zap.String("description", next.Description),
		zap.Time("due_date", next.DueDate),
	)
}
