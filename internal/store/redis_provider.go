package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	monerrors "github.com/devrev/pairdb/replica-monitor/internal/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisConfig holds the connection settings for the monitored replica
type RedisConfig struct {
	Host        string
	Port        int
	Password    string
	DB          int
	PoolSize    int
	MaxRetries  int
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

// RedisProvider implements ConnectionProvider on top of a go-redis client pool.
// Each Acquire takes a dedicated connection out of the pool; Release returns it.
type RedisProvider struct {
	client *redis.Client
	addr   string
	logger *zap.Logger
}

// NewRedisProvider creates a provider for the replica at cfg.Host:cfg.Port.
// No connection is made here: an unreachable replica is a verdict, not a startup failure.
func NewRedisProvider(cfg *RedisConfig, logger *zap.Logger) *RedisProvider {
	if logger == nil {
		logger = zap.NewNop()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		MaxRetries:  cfg.MaxRetries,
		DialTimeout: cfg.DialTimeout,
		ReadTimeout: cfg.ReadTimeout,
	})

	return &RedisProvider{
		client: client,
		addr:   addr,
		logger: logger,
	}
}

// Addr returns the replica address
func (p *RedisProvider) Addr() string {
	return p.addr
}

// Acquire takes a dedicated connection from the pool and verifies it with PING
func (p *RedisProvider) Acquire(ctx context.Context) (Connection, error) {
	conn := p.client.Conn()
	if err := conn.Ping(ctx).Err(); err != nil {
		// Hand the broken connection back so the pool can discard it
		_ = conn.Close()
		return nil, monerrors.ConnectionFailed(p.addr, err)
	}

	return &redisConnection{conn: conn}, nil
}

// Release returns a dedicated connection to the pool
func (p *RedisProvider) Release(conn Connection) {
	rc, ok := conn.(*redisConnection)
	if !ok || rc == nil || rc.conn == nil {
		return
	}

	if err := rc.conn.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
		p.logger.Debug("Failed to release replica connection",
			zap.String("addr", p.addr),
			zap.Error(err))
	}
}

// Close closes the underlying client pool
func (p *RedisProvider) Close() error {
	return p.client.Close()
}

// redisConnection adapts a dedicated *redis.Conn to Connection
type redisConnection struct {
	conn *redis.Conn
}

// ReplicationInfo runs INFO replication on the dedicated connection
func (c *redisConnection) ReplicationInfo(ctx context.Context) (map[string]string, error) {
	raw, err := c.conn.Info(ctx, DefaultReplicationSection).Result()
	if err != nil {
		return nil, err
	}
	return ParseInfo(raw), nil
}
