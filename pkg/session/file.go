package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sheetpilot/sheetpilot/internal/observability"
	"github.com/sheetpilot/sheetpilot/internal/tracing"
)

// FileStore persists one pretty-printed JSON array of messages per
// session, named <id>.json under the store directory. The files are the
// sole source of truth between requests.
type FileStore struct {
	dir        string
	writeLocks map[string]*sync.Mutex
	locksMu    sync.Mutex
}

// NewFileStore creates a file-backed session store rooted at dir.
func NewFileStore(dir string) (*FileStore, error) {
	observability.EnsureRegistered()

	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(homeDir, ".sheetpilot", "sessions")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	fs := &FileStore{
		dir:        dir,
		writeLocks: make(map[string]*sync.Mutex),
	}

	log.Info().Str("dir", dir).Msg("Session store initialized")
	fs.updateActiveSessionsMetric()

	return fs, nil
}

// validateSessionID rejects ids that could escape the store directory.
func validateSessionID(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id cannot be empty")
	}
	if strings.Contains(sessionID, "..") {
		return fmt.Errorf("session id cannot contain '..'")
	}
	if strings.ContainsAny(sessionID, "/\\") {
		return fmt.Errorf("session id cannot contain path separators")
	}
	if strings.Contains(sessionID, "\x00") {
		return fmt.Errorf("session id cannot contain null bytes")
	}
	return nil
}

func (fs *FileStore) sessionPath(sessionID string) string {
	return filepath.Join(fs.dir, sessionID+".json")
}

func (fs *FileStore) updateActiveSessionsMetric() {
	sessions, err := fs.List(context.Background())
	if err != nil {
		return
	}
	observability.SetActiveSessions(len(sessions))
}

func (fs *FileStore) writeLock(sessionID string) *sync.Mutex {
	fs.locksMu.Lock()
	defer fs.locksMu.Unlock()

	if lock, exists := fs.writeLocks[sessionID]; exists {
		return lock
	}

	lock := &sync.Mutex{}
	fs.writeLocks[sessionID] = lock
	return lock
}

func (fs *FileStore) releaseWriteLock(sessionID string) {
	fs.locksMu.Lock()
	defer fs.locksMu.Unlock()
	delete(fs.writeLocks, sessionID)
}

// Load implements Store. A missing file, an unreadable file, and a file
// that does not parse as a message array all load as an empty
// conversation; none of them is an error.
func (fs *FileStore) Load(ctx context.Context, sessionID string) []Message {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tracing.WithSessionID(ctx, sessionID)
	ctx, span := tracing.StartSpan(
		ctx,
		"sheetpilot.session",
		"session.load",
		attribute.String("session_id", sessionID),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, log.Logger)
	start := time.Now()
	defer func() {
		observability.RecordSessionLoad(time.Since(start))
	}()

	if err := validateSessionID(sessionID); err != nil {
		logger.Warn().Err(err).Msg("Invalid session id, treating as empty session")
		return []Message{}
	}

	data, err := os.ReadFile(fs.sessionPath(sessionID))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Msg("Failed to read session file, treating as empty session")
		}
		return []Message{}
	}

	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		logger.Warn().Err(err).Msg("Failed to parse session file, treating as empty session")
		return []Message{}
	}

	logger.Debug().Int("messages", len(messages)).Msg("Session loaded")

	return messages
}

// Append implements Store.
func (fs *FileStore) Append(ctx context.Context, sessionID, role, content string, metadata map[string]any) []Message {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tracing.WithSessionID(ctx, sessionID)
	ctx, span := tracing.StartSpan(
		ctx,
		"sheetpilot.session",
		"session.append",
		attribute.String("session_id", sessionID),
		attribute.String("role", role),
	)
	defer span.End()

	lock := fs.writeLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	messages := fs.Load(ctx, sessionID)
	messages = appendTurn(messages, role, content, metadata)
	fs.Persist(ctx, sessionID, messages)

	return messages
}

// Persist implements Store. The write is atomic (temp file plus rename)
// and best-effort: any failure is logged and swallowed so callers always
// see a success-shaped result.
func (fs *FileStore) Persist(ctx context.Context, sessionID string, messages []Message) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = tracing.WithSessionID(ctx, sessionID)
	ctx, span := tracing.StartSpan(
		ctx,
		"sheetpilot.session",
		"session.persist",
		attribute.String("session_id", sessionID),
		attribute.Int("messages", len(messages)),
	)
	defer span.End()
	logger := tracing.LoggerFromContext(ctx, log.Logger)
	start := time.Now()
	defer func() {
		observability.RecordSessionSave(time.Since(start))
	}()

	if err := fs.persist(sessionID, messages); err != nil {
		observability.RecordPersistError()
		logger.Error().Err(err).Msg("Failed to persist session, continuing")
		return
	}

	fs.updateActiveSessionsMetric()
	logger.Debug().Int("messages", len(messages)).Msg("Session persisted")
}

func (fs *FileStore) persist(sessionID string, messages []Message) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}

	if err := os.MkdirAll(fs.dir, 0700); err != nil {
		return fmt.Errorf("failed to create sessions directory: %w", err)
	}

	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	sessionPath := fs.sessionPath(sessionID)
	tempPath := sessionPath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	if err := os.Rename(tempPath, sessionPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	return nil
}

// List implements Store.
func (fs *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}

		sessions = append(sessions, strings.TrimSuffix(name, ".json"))
	}

	return sessions, nil
}

// Info implements Store.
func (fs *FileStore) Info(ctx context.Context, sessionID string) (*Info, error) {
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}

	stat, err := os.Stat(fs.sessionPath(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to stat session file: %w", err)
	}

	messages := fs.Load(ctx, sessionID)

	return &Info{
		SessionID:    sessionID,
		MessageCount: len(messages),
		Size:         stat.Size(),
		LastModified: stat.ModTime().UnixMilli(),
	}, nil
}

// Delete implements Store.
func (fs *FileStore) Delete(ctx context.Context, sessionID string) error {
	if err := validateSessionID(sessionID); err != nil {
		return err
	}

	lock := fs.writeLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	if err := os.Remove(fs.sessionPath(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}

	fs.releaseWriteLock(sessionID)
	fs.updateActiveSessionsMetric()

	log.Info().Str("session_id", sessionID).Msg("Session deleted")

	return nil
}

// Close implements Store.
func (fs *FileStore) Close() error {
	fs.locksMu.Lock()
	fs.writeLocks = make(map[string]*sync.Mutex)
	fs.locksMu.Unlock()
	return nil
}

// Dir returns the store's root directory.
func (fs *FileStore) Dir() string {
	return fs.dir
}
