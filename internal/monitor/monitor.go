// Package monitor runs the background loop that keeps a replica's liveness verdict current.
package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	monerrors "github.com/devrev/pairdb/replica-monitor/internal/errors"
	"github.com/devrev/pairdb/replica-monitor/internal/health"
	"github.com/devrev/pairdb/replica-monitor/internal/metrics"
	"github.com/devrev/pairdb/replica-monitor/internal/probe"
	"github.com/devrev/pairdb/replica-monitor/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCheckInterval is the sleep between probe iterations
const DefaultCheckInterval = 5000 * time.Millisecond

type lifecycle int

const (
	lifecycleCreated lifecycle = iota
	lifecycleRunning
	lifecycleStopped
)

// Monitor polls one replica on a fixed interval and exposes the latest verdict.
// Lifecycle is Created -> Running -> Stopped, with no way back from Stopped.
type Monitor struct {
	name     string
	provider store.ConnectionProvider
	probe    *probe.Probe
	state    *health.State
	metrics  *metrics.Metrics
	logger   *zap.Logger
	verbose  bool

	mu        sync.Mutex
	lifecycle lifecycle
	interval  time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a monitor in the Created state
func New(provider store.ConnectionProvider, opts ...Option) *Monitor {
	m := &Monitor{
		name:     uuid.New().String(),
		provider: provider,
		probe:    probe.New(),
		state:    health.NewState(),
		logger:   zap.NewNop(),
		interval: DefaultCheckInterval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Configure sets the polling period. Only allowed before Start.
func (m *Monitor) Configure(checkInterval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.createdLocked(); err != nil {
		return err
	}
	m.interval = checkInterval
	return nil
}

// Start spawns the polling goroutine.
// A second Start returns ErrAlreadyStarted; Start after Stop returns ErrStopped.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.createdLocked(); err != nil {
		return err
	}
	if m.interval <= 0 {
		return fmt.Errorf("%w: %v", monerrors.ErrInvalidInterval, m.interval)
	}

	m.lifecycle = lifecycleRunning
	go m.run(m.interval)

	m.logger.Info("Replica monitor started",
		zap.String("monitor", m.name),
		zap.Duration("check_interval", m.interval),
		zap.String("sync_key", m.probe.SyncKey()))

	return nil
}

// Stop signals the loop to exit and returns without waiting.
// A probe already in flight completes; no new one starts. Safe to call repeatedly.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.lifecycle == lifecycleCreated {
		// no loop will ever close done
		close(m.done)
	}
	m.lifecycle = lifecycleStopped
	m.mu.Unlock()

	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.logger.Info("Replica monitor stopping", zap.String("monitor", m.name))
	})
}

// StopAndWait stops the monitor and blocks until the loop has exited or ctx expires
func (m *Monitor) StopAndWait(ctx context.Context) error {
	m.Stop()

	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the loop has exited
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// IsAlive returns the verdict of the most recently completed probe, true before the first one
func (m *Monitor) IsAlive() bool {
	return m.state.Get()
}

// Snapshot returns the diagnostic view of the liveness state
func (m *Monitor) Snapshot() health.Snapshot {
	return m.state.Snapshot()
}

// Name returns the monitor name
func (m *Monitor) Name() string {
	return m.name
}

// Interval returns the configured check interval
func (m *Monitor) Interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

func (m *Monitor) createdLocked() error {
	switch m.lifecycle {
	case lifecycleRunning:
		return monerrors.ErrAlreadyStarted
	case lifecycleStopped:
		return monerrors.ErrStopped
	}
	return nil
}

// run is the polling loop. Stop is observed before each probe and during the sleep.
func (m *Monitor) run(interval time.Duration) {
	defer close(m.done)

	for {
		select {
		case <-m.stopCh:
			m.logger.Info("Replica monitor stopped", zap.String("monitor", m.name))
			return
		default:
		}

		m.iterate()

		timer := time.NewTimer(interval)
		select {
		case <-m.stopCh:
			timer.Stop()
			m.logger.Info("Replica monitor stopped", zap.String("monitor", m.name))
			return
		case <-timer.C:
		}
	}
}

// iterate runs one probe and publishes its verdict
func (m *Monitor) iterate() {
	res := m.probeOnce()
	alive := res.Status.Alive()

	m.state.SetResult(alive, res.Status.String())
	m.report(res)

	if m.metrics != nil {
		m.metrics.ObserveProbe(res.Status.String(), alive, res.Duration)
		if res.Err != nil {
			m.metrics.ObserveError(monerrors.GetCode(res.Err).String())
		}
	}
}

// probeOnce acquires a connection, checks it and releases it.
// Release runs on every path after a successful acquire, panics included.
func (m *Monitor) probeOnce() (res probe.Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = probe.Unreachable(
				monerrors.InternalError("probe iteration panicked", fmt.Errorf("%v", r)),
				time.Since(start))
		}
	}()

	// Stop does not cancel an in-flight probe
	ctx := context.Background()

	conn, err := m.provider.Acquire(ctx)
	if err != nil {
		if !monerrors.IsMonitorError(err) {
			err = monerrors.NewMonitorError(monerrors.CodeConnectionError, "failed to acquire connection", err)
		}
		return probe.Unreachable(err, time.Since(start))
	}
	if conn == nil {
		return probe.Unreachable(
			monerrors.NewMonitorError(monerrors.CodeConnectionError, "provider returned no connection", nil),
			time.Since(start))
	}
	defer m.provider.Release(conn)

	res = m.probe.Check(ctx, conn)
	res.Duration = time.Since(start)
	return res
}

// report logs failed iterations. A healthy replica is silent.
func (m *Monitor) report(res probe.Result) {
	switch res.Status {
	case probe.StatusResyncing:
		if m.verbose {
			m.logger.Error("Replica full resync from master",
				zap.String("monitor", m.name),
				zap.Any("replication_info", res.Info))
		} else {
			m.logger.Error("Replica full resync from master",
				zap.String("monitor", m.name))
		}

	case probe.StatusUnreachable:
		code := monerrors.GetCode(res.Err)
		if m.verbose {
			fields := []zap.Field{
				zap.String("monitor", m.name),
				zap.String("code", code.String()),
				zap.Duration("duration", res.Duration),
				zap.Error(res.Err),
			}
			if me, ok := res.Err.(*monerrors.MonitorError); ok && len(me.Details) > 0 {
				fields = append(fields, zap.Any("details", me.Details))
			}
			m.logger.Error("Replica connection error", fields...)
		} else {
			m.logger.Error("Replica connection error",
				zap.String("monitor", m.name),
				zap.String("error", errorMessage(res.Err)))
		}
	}
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
