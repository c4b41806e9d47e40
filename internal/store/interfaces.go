package store

import (
	"context"
)

// DefaultReplicationSection is the INFO section the probe reads
const DefaultReplicationSection = "replication"

// ConnectionProvider acquires and releases connections to the monitored replica.
// Acquire is one attempt per call; retrying is left to the caller's next iteration.
type ConnectionProvider interface {
	Acquire(ctx context.Context) (Connection, error)
	// Release must tolerate nil and already invalid connections.
	Release(conn Connection)
}

// Connection is a single acquired connection to the replica
type Connection interface {
	// ReplicationInfo returns the replication properties as reported by the replica
	ReplicationInfo(ctx context.Context) (map[string]string, error)
}
