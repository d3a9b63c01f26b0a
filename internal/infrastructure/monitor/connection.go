package monitor

import (
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/internal/infrastructure/kv"
)

// breakerState is implemented by kv.Resilient.
type breakerState interface {
	State() gobreaker.State
}

type Monitor struct {
	store  kv.Store
	driver string

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(store kv.Store, driver string, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		store:    store,
		driver:   driver,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	m.Refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Store
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh()
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes the store once and records the outcome.
func (m *Monitor) Refresh() {
	status := Status{
		Driver:    m.driver,
		LastCheck: time.Now(),
	}
	if bs, ok := m.store.(breakerState); ok {
		status.Breaker = bs.State().String()
	}
	status.Store, status.Records, status.Error = m.checkStore()

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if previous.Store && !status.Store {
		m.logger.Warn("store went offline", zap.String("driver", m.driver), zap.String("error", status.Error))
	} else if !previous.Store && status.Store && !previous.LastCheck.IsZero() {
		m.logger.Info("store back online", zap.String("driver", m.driver))
	}
}

func (m *Monitor) checkStore() (bool, int, string) {
	if m.store == nil {
		return false, 0, "store not configured"
	}
	if err := m.store.Ping(); err != nil {
		return false, 0, err.Error()
	}
	keys, err := m.store.Keys()
	if err != nil {
		m.logger.Warn("store key count failed", zap.Error(err))
		return false, 0, err.Error()
	}
	return true, len(keys), ""
}
