// ABOUTME: Coordinator tracks reasoning-service health and bounds every call with a timeout
// ABOUTME: Degraded after any failure, healthy after any success, probed at most once per interval while degraded
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/harper/factmemory/internal/logging"
	"github.com/harper/factmemory/internal/models"
)

// ErrServiceUnavailable wraps every failed or timed-out reasoning call
var ErrServiceUnavailable = errors.New("reasoning service unavailable")

const (
	// DefaultServiceTimeout bounds one reasoning call
	DefaultServiceTimeout = 20 * time.Second
	// DefaultProbeInterval is how often a degraded service is retried
	DefaultProbeInterval = 30 * time.Second

	notConfiguredMessage = "reasoning service not configured"
)

// Reasoner is the external reasoning capability: given text, return text or fail
type Reasoner interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// CoordinatorConfig tunes a Coordinator. Zero values take the defaults.
type CoordinatorConfig struct {
	Timeout       time.Duration
	ProbeInterval time.Duration
	Logger        *slog.Logger
}

// Coordinator is shared by extraction and compression
type Coordinator struct {
	reasoner      Reasoner
	timeout       time.Duration
	probeInterval time.Duration
	logger        *slog.Logger
	now           func() time.Time

	mu          sync.Mutex
	state       models.HealthState
	lastSuccess time.Time
	lastError   string
	lastErrorAt time.Time
	lastProbe   time.Time
	successes   int64
	failures    int64
}

// NewCoordinator creates a coordinator for reasoner, which may be nil
func NewCoordinator(reasoner Reasoner, cfg CoordinatorConfig) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultServiceTimeout
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = DefaultProbeInterval
	}

	c := &Coordinator{
		reasoner:      reasoner,
		timeout:       cfg.Timeout,
		probeInterval: cfg.ProbeInterval,
		logger:        logging.Component(cfg.Logger, "coordinator"),
		now:           time.Now,
		state:         models.HealthUnknown,
	}
	if reasoner == nil {
		c.state = models.HealthDegraded
		c.lastError = notConfiguredMessage
	}
	return c
}

// Configured reports whether a reasoning backend exists at all
func (c *Coordinator) Configured() bool {
	return c.reasoner != nil
}

// ShouldAttempt reports whether callers should try the service now.
// While degraded it returns true at most once per probe interval.
func (c *Coordinator) ShouldAttempt() bool {
	if c.reasoner == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != models.HealthDegraded {
		return true
	}
	now := c.now()
	if now.Sub(c.lastProbe) >= c.probeInterval {
		c.lastProbe = now
		c.logger.Debug("probing degraded reasoning service")
		return true
	}
	return false
}

// Call runs fn once under the service timeout. It returns when the deadline
// passes even if fn ignores cancellation; fn's late result is discarded.
func (c *Coordinator) Call(ctx context.Context, op string, fn func(ctx context.Context) (string, error)) (string, error) {
	if c.reasoner == nil {
		return "", fmt.Errorf("%s: %w: %s", op, ErrServiceUnavailable, notConfiguredMessage)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		out string
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := fn(callCtx)
		done <- result{out: out, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			// A caller that gave up is not evidence against the service
			if ctx.Err() == nil {
				c.RecordFailure(op, r.err)
			}
			return "", fmt.Errorf("%s: %w: %w", op, ErrServiceUnavailable, r.err)
		}
		c.recordSuccess(op)
		return r.out, nil
	case <-callCtx.Done():
		if ctx.Err() == nil {
			c.RecordFailure(op, fmt.Errorf("timed out after %v", c.timeout))
		}
		return "", fmt.Errorf("%s: %w: %w", op, ErrServiceUnavailable, callCtx.Err())
	}
}

// Complete sends one prompt to the reasoner through Call
func (c *Coordinator) Complete(ctx context.Context, op, system, prompt string) (string, error) {
	return c.Call(ctx, op, func(ctx context.Context) (string, error) {
		return c.reasoner.Complete(ctx, system, prompt)
	})
}

// RecordFailure marks the service degraded. Used by Call and by callers
// that reject a response after the call itself succeeded.
func (c *Coordinator) RecordFailure(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.state != models.HealthDegraded {
		c.logger.Warn("reasoning service degraded", "op", op, "error", err)
	} else {
		c.logger.Debug("reasoning call failed", "op", op, "error", err)
	}
	c.state = models.HealthDegraded
	c.lastError = fmt.Sprintf("%s: %v", op, err)
	c.lastErrorAt = now
	c.lastProbe = now
	c.failures++
}

func (c *Coordinator) recordSuccess(op string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == models.HealthDegraded {
		c.logger.Info("reasoning service recovered", "op", op)
	}
	c.state = models.HealthHealthy
	c.lastSuccess = c.now()
	c.successes++
}

// Health returns a snapshot of the service state
func (c *Coordinator) Health() models.Health {
	c.mu.Lock()
	defer c.mu.Unlock()

	service := "none"
	if c.reasoner != nil {
		service = c.reasoner.Name()
	}
	return models.Health{
		State:       c.state,
		Service:     service,
		LastSuccess: c.lastSuccess,
		LastError:   c.lastError,
		LastErrorAt: c.lastErrorAt,
		Successes:   c.successes,
		Failures:    c.failures,
	}
}
