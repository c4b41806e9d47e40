// Package probe classifies a replica's replication state from a single INFO query.
package probe

import (
	"context"
	"time"

	monerrors "github.com/devrev/pairdb/replica-monitor/internal/errors"
	"github.com/devrev/pairdb/replica-monitor/internal/store"
)

// DefaultSyncKey is the replication property that reports a full resync from the master
const DefaultSyncKey = "master_sync_in_progress"

// Status is the outcome of one probe
type Status int

const (
	StatusHealthy Status = iota
	StatusResyncing
	StatusUnreachable
)

// String returns the label used in logs, metrics and the health surface
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusResyncing:
		return "resyncing"
	case StatusUnreachable:
		return "unreachable"
	default:
		return "unknown"
	}
}

// Alive projects a status onto the liveness verdict
func (s Status) Alive() bool {
	return s == StatusHealthy
}

// Result is produced by one probe and discarded after the verdict is derived
type Result struct {
	Status   Status
	Info     map[string]string // replication properties, nil when the query failed
	Err      error             // captured failure for Unreachable
	Duration time.Duration
}

// Probe issues exactly one replication query per Check. It never retries.
type Probe struct {
	syncKey string
}

// Option configures a Probe
type Option func(*Probe)

// WithSyncKey overrides the property inspected for an in-progress resync
func WithSyncKey(key string) Option {
	return func(p *Probe) {
		if key != "" {
			p.syncKey = key
		}
	}
}

// New creates a probe
func New(opts ...Option) *Probe {
	p := &Probe{syncKey: DefaultSyncKey}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SyncKey returns the inspected property name
func (p *Probe) SyncKey() string {
	return p.syncKey
}

// Check queries the connection once and classifies the reply.
// Query failures are returned inside the Result, never as a Go error.
func (p *Probe) Check(ctx context.Context, conn store.Connection) Result {
	start := time.Now()

	info, err := conn.ReplicationInfo(ctx)
	if err != nil {
		return Result{
			Status:   StatusUnreachable,
			Err:      monerrors.QueryFailed(store.DefaultReplicationSection, err),
			Duration: time.Since(start),
		}
	}

	status := StatusHealthy
	if info[p.syncKey] == "1" {
		status = StatusResyncing
	}

	return Result{
		Status:   status,
		Info:     info,
		Duration: time.Since(start),
	}
}

// Unreachable builds the result used when no connection could be probed
func Unreachable(err error, elapsed time.Duration) Result {
	return Result{
		Status:   StatusUnreachable,
		Err:      err,
		Duration: elapsed,
	}
}
