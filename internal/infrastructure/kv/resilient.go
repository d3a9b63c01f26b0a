package kv

import (
	"time"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ResilienceConfig tunes the retry and circuit-breaker wrapper for network drivers.
type ResilienceConfig struct {
	Name           string
	Attempts       int
	Backoff        time.Duration
	BreakerTimeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
}

type getResult struct {
	value string
	found bool
}

// Resilient retries transient driver failures and stops calling a backend
// that keeps failing. Errors still reach the caller once retries run out.
type Resilient struct {
	next    Store
	retrier *retrier.Retrier
	cb      *gobreaker.CircuitBreaker[any]
}

// NewResilient decorates next. Zero config values fall back to defaults.
func NewResilient(next Store, cfg ResilienceConfig, logger *zap.Logger) *Resilient {
	if cfg.Name == "" {
		cfg.Name = "kv"
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 100 * time.Millisecond
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 5 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	threshold := cfg.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("kv circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return &Resilient{
		next:    next,
		retrier: retrier.New(retrier.ConstantBackoff(cfg.Attempts-1, cfg.Backoff), nil),
		cb:      cb,
	}
}

func (r *Resilient) Get(key string) (string, bool, error) {
	out, err := r.cb.Execute(func() (any, error) {
		var res getResult
		err := r.retrier.Run(func() error {
			value, found, err := r.next.Get(key)
			res = getResult{value: value, found: found}
			return err
		})
		return res, err
	})
	if err != nil {
		return "", false, err
	}
	res := out.(getResult)
	return res.value, res.found, nil
}

func (r *Resilient) Set(key, value string) error {
	return r.do(func() error { return r.next.Set(key, value) })
}

func (r *Resilient) Remove(key string) error {
	return r.do(func() error { return r.next.Remove(key) })
}

func (r *Resilient) Keys() ([]string, error) {
	out, err := r.cb.Execute(func() (any, error) {
		var keys []string
		err := r.retrier.Run(func() error {
			var err error
			keys, err = r.next.Keys()
			return err
		})
		return keys, err
	})
	if err != nil {
		return nil, err
	}
	keys, _ := out.([]string)
	return keys, nil
}

// Ping bypasses retries and the breaker so health checks see the raw backend.
func (r *Resilient) Ping() error {
	return r.next.Ping()
}

func (r *Resilient) Close() error {
	return r.next.Close()
}

// State exposes the breaker state for health reporting.
func (r *Resilient) State() gobreaker.State {
	return r.cb.State()
}

func (r *Resilient) do(fn func() error) error {
	_, err := r.cb.Execute(func() (any, error) {
		return nil, r.retrier.Run(fn)
	})
	return err
}

var _ Store = (*Resilient)(nil)
