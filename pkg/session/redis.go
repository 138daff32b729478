package session

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/sheetpilot/sheetpilot/internal/observability"
	"github.com/sheetpilot/sheetpilot/internal/tracing"
)

const (
	redisKeyPrefix  = "session:"
	defaultRedisTTL = 24 * time.Hour
)

// RedisStore keeps the same per-session JSON conversation log in Redis,
// keyed session:<id>. It serves deployments without a persistent
// filesystem; expiry is handled natively by the key TTL instead of the
// retention sweeper.
type RedisStore struct {
	client     *redis.Client
	ttl        time.Duration
	writeLocks map[string]*sync.Mutex
	locksMu    sync.Mutex
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	observability.EnsureRegistered()

	if ttl <= 0 {
		ttl = defaultRedisTTL
	}

	return &RedisStore{
		client:     client,
		ttl:        ttl,
		writeLocks: make(map[string]*sync.Mutex),
	}
}

func (rs *RedisStore) key(sessionID string) string {
	return redisKeyPrefix + sessionID
}

func (rs *RedisStore) writeLock(sessionID string) *sync.Mutex {
	rs.locksMu.Lock()
	defer rs.locksMu.Unlock()

	if lock, exists := rs.writeLocks[sessionID]; exists {
		return lock
	}

	lock := &sync.Mutex{}
	rs.writeLocks[sessionID] = lock
	return lock
}

// Load implements Store. A missing or unparsable value loads as an
// empty conversation, never an error.
func (rs *RedisStore) Load(ctx context.Context, sessionID string) []Message {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := tracing.LoggerFromContext(ctx, log.Logger).With().Str("session_id", sessionID).Logger()
	start := time.Now()
	defer func() {
		observability.RecordSessionLoad(time.Since(start))
	}()

	if err := validateSessionID(sessionID); err != nil {
		logger.Warn().Err(err).Msg("Invalid session id, treating as empty session")
		return []Message{}
	}

	val, err := rs.client.Get(ctx, rs.key(sessionID)).Result()
	if err == redis.Nil {
		return []Message{}
	}
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read session key, treating as empty session")
		return []Message{}
	}

	var messages []Message
	if err := json.Unmarshal([]byte(val), &messages); err != nil {
		logger.Warn().Err(err).Msg("Failed to parse session value, treating as empty session")
		return []Message{}
	}

	// Refresh TTL on read
	_ = rs.client.Expire(ctx, rs.key(sessionID), rs.ttl).Err()

	return messages
}

// Append implements Store.
func (rs *RedisStore) Append(ctx context.Context, sessionID, role, content string, metadata map[string]any) []Message {
	if ctx == nil {
		ctx = context.Background()
	}

	lock := rs.writeLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	messages := rs.Load(ctx, sessionID)
	messages = appendTurn(messages, role, content, metadata)
	rs.Persist(ctx, sessionID, messages)

	return messages
}

// Persist implements Store. Failures are logged and swallowed.
func (rs *RedisStore) Persist(ctx context.Context, sessionID string, messages []Message) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := tracing.LoggerFromContext(ctx, log.Logger).With().Str("session_id", sessionID).Logger()
	start := time.Now()
	defer func() {
		observability.RecordSessionSave(time.Since(start))
	}()

	if err := rs.persist(ctx, sessionID, messages); err != nil {
		observability.RecordPersistError()
		logger.Error().Err(err).Msg("Failed to persist session, continuing")
	}
}

func (rs *RedisStore) persist(ctx context.Context, sessionID string, messages []Message) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return err
	}

	return rs.client.Set(ctx, rs.key(sessionID), data, rs.ttl).Err()
}

// List implements Store.
func (rs *RedisStore) List(ctx context.Context) ([]string, error) {
	var sessions []string

	iter := rs.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		sessions = append(sessions, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Info implements Store. Size and modification time are not tracked by
// the redis driver.
func (rs *RedisStore) Info(ctx context.Context, sessionID string) (*Info, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	exists, err := rs.client.Exists(ctx, rs.key(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	messages := rs.Load(ctx, sessionID)

	return &Info{
		SessionID:    sessionID,
		MessageCount: len(messages),
	}, nil
}

// Delete implements Store.
func (rs *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}

	lock := rs.writeLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	return rs.client.Del(ctx, rs.key(sessionID)).Err()
}

// Close implements Store.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}
