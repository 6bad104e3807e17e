package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// CircuitState is the current circuit breaker state.
type CircuitState int

const (
	// Closed allows requests to pass through
	Closed CircuitState = iota
	// Open blocks all requests
	Open
	// HalfOpen lets one trial request through at a time to test recovery
	HalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker guards calls and opens the circuit after repeated failures.
type CircuitBreaker interface {
	Call(ctx context.Context, fn func(context.Context) error) error
	State() CircuitState
	Reset()
}

type Config struct {
	FailureThreshold int           // Number of failures before opening
	RecoveryTimeout  time.Duration // Time to wait before trying HalfOpen
	SuccessThreshold int           // Number of successes needed to close from HalfOpen
}

func DefaultConfig() *Config {
	return &Config{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		SuccessThreshold: 1,
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

type circuitBreaker struct {
	config      *Config
	state       CircuitState
	failures    int
	successes   int
	nextAttempt time.Time
	trialActive bool
	now         func() time.Time
	mutex       sync.Mutex
}

// NewCircuitBreaker returns a circuit breaker and applies defaults when config is nil.
func NewCircuitBreaker(config *Config) CircuitBreaker {
	return newCircuitBreaker(config, time.Now)
}

func newCircuitBreaker(config *Config, now func() time.Time) *circuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}

	return &circuitBreaker{
		config: config,
		state:  Closed,
		now:    now,
	}
}

func (cb *circuitBreaker) Call(ctx context.Context, fn func(context.Context) error) error {
	cb.mutex.Lock()
	allowed, trial := cb.admitLocked()
	cb.mutex.Unlock()

	if !allowed {
		return ErrCircuitOpen
	}

	// Never call user code while holding locks.
	err := fn(ctx)

	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if trial {
		cb.trialActive = false
	}

	if err != nil {
		// A caller that gave up says nothing about the dependency's health.
		if ctx.Err() == nil {
			cb.recordFailureLocked()
		}
		return err
	}

	cb.recordSuccessLocked()
	return nil
}

func (cb *circuitBreaker) State() CircuitState {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.allowLocked()
	return cb.state
}

func (cb *circuitBreaker) Reset() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	cb.state = Closed
	cb.failures = 0
	cb.successes = 0
	cb.trialActive = false
}

// allowLocked moves Open to HalfOpen once the recovery timeout has passed.
func (cb *circuitBreaker) allowLocked() bool {
	if cb.state == Open && !cb.now().Before(cb.nextAttempt) {
		cb.state = HalfOpen
		cb.successes = 0
		cb.trialActive = false
	}
	return cb.state != Open
}

// admitLocked reports whether a call may run and whether it is the half-open trial.
// Callers arriving while a trial is in flight are rejected as if the circuit were open.
func (cb *circuitBreaker) admitLocked() (allowed bool, trial bool) {
	if !cb.allowLocked() {
		return false, false
	}
	if cb.state != HalfOpen {
		return true, false
	}
	if cb.trialActive {
		return false, false
	}
	cb.trialActive = true
	return true, true
}

func (cb *circuitBreaker) recordFailureLocked() {
	cb.failures++

	switch cb.state {
	case Closed:
		if cb.failures >= cb.config.FailureThreshold {
			cb.openLocked()
		}
	case HalfOpen:
		cb.openLocked()
	}
}

func (cb *circuitBreaker) openLocked() {
	cb.state = Open
	cb.nextAttempt = cb.now().Add(cb.config.RecoveryTimeout)
}

func (cb *circuitBreaker) recordSuccessLocked() {
	cb.failures = 0

	if cb.state == HalfOpen {
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.state = Closed
			cb.successes = 0
		}
	}
}
