package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Driver identifies a session store backend.
type Driver string

const (
	DriverFile  Driver = "file"
	DriverRedis Driver = "redis"
)

var (
	// ErrInvalidDriver is returned for an unknown driver name.
	ErrInvalidDriver = errors.New("session: invalid store driver")
	// ErrInvalidConfig is returned when a driver is missing required options.
	ErrInvalidConfig = errors.New("session: invalid store configuration")
	// ErrNotFound is returned by admin operations for a missing session.
	ErrNotFound = errors.New("session: not found")
)

// Store is a durable, per-session, append-only conversation log with a
// bounded size and exactly-once system-prompt injection.
//
// Load, Append, and Persist are best-effort by contract: they never
// surface storage failures to the caller. A missing or corrupt session
// loads as an empty conversation; a failed persist is logged and
// swallowed. The admin operations (List, Info, Delete) report errors
// normally.
type Store interface {
	// Load returns the persisted conversation for the session, or an
	// empty slice when nothing usable is persisted.
	Load(ctx context.Context, sessionID string) []Message

	// Append loads the conversation, injects the system message if the
	// conversation is empty, appends the given turn, truncates to the
	// message cap, persists best-effort, and returns the result.
	Append(ctx context.Context, sessionID, role, content string, metadata map[string]any) []Message

	// Persist writes the conversation, creating the storage location on
	// demand. Failures are logged and swallowed.
	Persist(ctx context.Context, sessionID string, messages []Message)

	// List returns the ids of all persisted sessions.
	List(ctx context.Context) ([]string, error)

	// Info returns metadata about a persisted session.
	Info(ctx context.Context, sessionID string) (*Info, error)

	// Delete removes a persisted session. Deleting a missing session is
	// not an error.
	Delete(ctx context.Context, sessionID string) error

	// Close releases store resources.
	Close() error
}

// StoreOption is a functional option for configuring a session store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	dir         string
	redisClient *redis.Client
	redisTTL    time.Duration
}

// WithDir sets the storage directory for the file driver.
func WithDir(dir string) StoreOption {
	return func(c *storeConfig) {
		c.dir = dir
	}
}

// WithRedisClient sets the Redis client for the redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL sets the key TTL for the redis driver.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

// NewStore creates a session store for the given driver. The file
// driver is the default deployment choice; redis suits hosts without a
// persistent filesystem.
func NewStore(driver Driver, opts ...StoreOption) (Store, error) {
	cfg := &storeConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	switch driver {
	case DriverFile:
		return NewFileStore(cfg.dir)
	case DriverRedis:
		if cfg.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		return NewRedisStore(cfg.redisClient, cfg.redisTTL), nil
	default:
		return nil, ErrInvalidDriver
	}
}
